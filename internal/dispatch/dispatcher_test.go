package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lumin/requestclient/internal/transport"
)

// call records one invocation of fakeSender
type call struct {
	Method  string
	URL     string
	Payload any
}

// fakeSender records calls and returns a canned response
type fakeSender struct {
	mu       sync.Mutex
	calls    []call
	response string
	err      error
}

func (f *fakeSender) Get(ctx context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Method: "GET", URL: url})
	return f.response, f.err
}

func (f *fakeSender) PostJSON(ctx context.Context, url string, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{Method: "POST", URL: url, Payload: payload})
	return f.response, f.err
}

func (f *fakeSender) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func TestNew_EmptyConfig(t *testing.T) {
	d := New(&fakeSender{})

	cfg := d.Config()
	if cfg.TargetURL() != "" || cfg.Method() != "" || cfg.Body() != "" {
		t.Errorf("new config = %+v, want all empty", cfg.Snapshot())
	}
}

func TestRun_ReturnsResponseRegardlessOfStatus(t *testing.T) {
	tests := []struct {
		name   string
		method string
		status int
		body   string
	}{
		{name: "GET 200", method: "GET", status: http.StatusOK, body: `{"msg":"ok"}`},
		{name: "GET 404", method: "GET", status: http.StatusNotFound, body: "not found"},
		{name: "POST 500", method: "POST", status: http.StatusInternalServerError, body: "device error"},
		{name: "POST 201", method: "POST", status: http.StatusCreated, body: "created"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != tt.method {
					t.Errorf("Request method = %s, want %s", r.Method, tt.method)
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			d := New(transport.New(transport.DefaultConfig()))
			got := d.Run(context.Background(), "/status", server.URL, tt.method, "")

			if got != tt.body {
				t.Errorf("Run() = %q, want %q", got, tt.body)
			}
		})
	}
}

func TestRun_InvalidMethodMakesNoCall(t *testing.T) {
	methods := []string{"PATCH", "PUT", "DELETE", "get", "post", "", " GET"}

	for _, m := range methods {
		t.Run(fmt.Sprintf("%q", m), func(t *testing.T) {
			sender := &fakeSender{response: "should not be returned"}
			d := New(sender)

			got := d.Run(context.Background(), "/x", "http://host", m, `{"a":1}`)

			if got != ErrInvalidMethod.Error() {
				t.Errorf("Run() = %q, want %q", got, ErrInvalidMethod.Error())
			}
			if len(sender.Calls()) != 0 {
				t.Errorf("sender called %d times, want 0", len(sender.Calls()))
			}
		})
	}
}

func TestDo_EmptyBodyIsAbsent(t *testing.T) {
	for _, body := range []string{"", "   ", "\n\t"} {
		for _, method := range []string{"GET", "POST"} {
			t.Run(method+fmt.Sprintf("/%q", body), func(t *testing.T) {
				sender := &fakeSender{response: "ok"}
				d := New(sender)

				if _, err := d.Do(context.Background(), Request{URL: "http://h/x", Method: method, Body: body}); err != nil {
					t.Fatalf("Do() error = %v", err)
				}

				calls := sender.Calls()
				if len(calls) != 1 {
					t.Fatalf("sender called %d times, want 1", len(calls))
				}
				if calls[0].Payload != nil {
					t.Errorf("payload = %#v, want nil", calls[0].Payload)
				}
			})
		}
	}
}

func TestRun_MalformedBodyPostsNull(t *testing.T) {
	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		_, _ = w.Write([]byte("accepted"))
	}))
	defer server.Close()

	core, logs := observer.New(zapcore.DebugLevel)
	d := New(transport.New(transport.DefaultConfig()), WithLogger(zap.New(core)))

	got := d.Run(context.Background(), "/cmd", server.URL, "POST", "{not json")

	if got != "accepted" {
		t.Errorf("Run() = %q, want accepted", got)
	}
	if string(received) != "null" {
		t.Errorf("server received %q, want null", received)
	}
	if logs.FilterMessage("Failed to parse body").Len() != 1 {
		t.Error("parse failure should be logged once as a diagnostic")
	}
}

func TestRun_WellFormedBodyIsPayload(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("server could not decode body: %v", err)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	d := New(transport.New(transport.DefaultConfig()))
	if got := d.Run(context.Background(), "", server.URL, "POST", `  {"x":1}  `); got != "ok" {
		t.Fatalf("Run() = %q, want ok", got)
	}

	want := map[string]any{"x": float64(1)}
	if !reflect.DeepEqual(received, want) {
		t.Errorf("server received %v, want %v", received, want)
	}
}

func TestDo_GetIgnoresBody(t *testing.T) {
	sender := &fakeSender{response: "ok"}
	d := New(sender)

	if _, err := d.Do(context.Background(), Request{URL: "http://h", Method: "GET", Body: `{"x":1}`}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	calls := sender.Calls()
	if len(calls) != 1 || calls[0].Method != "GET" {
		t.Fatalf("calls = %+v, want one GET", calls)
	}
	if calls[0].Payload != nil {
		t.Errorf("GET payload = %v, want none", calls[0].Payload)
	}
}

func TestRun_PlainConcatenation(t *testing.T) {
	tests := []struct {
		endpoint string
		device   string
		want     string
	}{
		{"/status", "http://host:9000", "http://host:9000/status"},
		{"status", "http://host:9000", "http://host:9000status"},
		{"/status", "http://host:9000/", "http://host:9000//status"},
		{":81/control/builtin/command/ping", "http://192.168.4.1", "http://192.168.4.1:81/control/builtin/command/ping"},
		{"/a b?c=d e", "http://h", "http://h/a b?c=d e"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			sender := &fakeSender{response: "ok"}
			d := New(sender)

			d.Run(context.Background(), tt.endpoint, tt.device, "GET", "")

			if got := d.Config().TargetURL(); got != tt.want {
				t.Errorf("TargetURL() = %q, want %q", got, tt.want)
			}
			if calls := sender.Calls(); len(calls) != 1 || calls[0].URL != tt.want {
				t.Errorf("sender URL = %+v, want %q", calls, tt.want)
			}
		})
	}
}

func TestRun_UpdatesConfig(t *testing.T) {
	d := New(&fakeSender{response: "ok"})

	d.Run(context.Background(), "/x", "http://h", "POST", `{"a":true}`)

	snap := d.Config().Snapshot()
	want := Request{URL: "http://h/x", Method: "POST", Body: `{"a":true}`}
	if snap != want {
		t.Errorf("Snapshot() = %+v, want %+v", snap, want)
	}
}

func TestRun_TransportFailureIsStringified(t *testing.T) {
	inner := errors.New("dial tcp 10.0.0.1:81: connect: connection refused")
	d := New(&fakeSender{err: inner})

	got := d.Run(context.Background(), "/x", "http://10.0.0.1", "GET", "")

	if got != inner.Error() {
		t.Errorf("Run() = %q, want %q", got, inner.Error())
	}
}

func TestDo_TransportFailureKind(t *testing.T) {
	inner := errors.New("boom")
	d := New(&fakeSender{err: inner})

	_, err := d.Do(context.Background(), Request{URL: "http://h", Method: "POST"})
	if !IsTransportFailure(err) {
		t.Fatalf("Do() error = %v, want transport failure", err)
	}
	if !errors.Is(err, inner) {
		t.Error("transport failure should wrap the sender error")
	}
}

func TestDispatch_TaggedResult(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		d := New(&fakeSender{response: "pong"})
		res := d.Dispatch(context.Background(), "/ping", "http://h", "GET", "")

		if !res.OK() || res.Data != "pong" || res.Err != nil {
			t.Errorf("Dispatch() = %+v, want ok with data pong", res)
		}
	})

	t.Run("invalid method", func(t *testing.T) {
		d := New(&fakeSender{})
		res := d.Dispatch(context.Background(), "/ping", "http://h", "PATCH", "")

		if res.OK() {
			t.Fatal("Dispatch() should not be ok for PATCH")
		}
		if res.Error != "Invalid method" {
			t.Errorf("Error = %q, want Invalid method", res.Error)
		}
		if !errors.Is(res.Err, ErrInvalidMethod) {
			t.Errorf("Err = %v, want ErrInvalidMethod", res.Err)
		}
	})

	t.Run("does not touch config", func(t *testing.T) {
		d := New(&fakeSender{response: "ok"})
		d.Dispatch(context.Background(), "/ping", "http://h", "GET", "x")

		if d.Config().TargetURL() != "" {
			t.Errorf("TargetURL() = %q, want empty", d.Config().TargetURL())
		}
	})

	t.Run("json envelope", func(t *testing.T) {
		data, err := json.Marshal(Result{Status: StatusError, Error: "Invalid method", Err: ErrInvalidMethod})
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		want := `{"status":"error","error":"Invalid method"}`
		if string(data) != want {
			t.Errorf("Marshal() = %s, want %s", data, want)
		}
	})
}

func TestRequest_UsesSharedConfig(t *testing.T) {
	sender := &fakeSender{response: "ok"}
	d := New(sender)

	d.Config().SetTargetURL("http://h/a").SetMethod("POST").SetBody(`[1,2]`)
	if _, err := d.Request(context.Background()); err != nil {
		t.Fatalf("Request() error = %v", err)
	}

	calls := sender.Calls()
	if len(calls) != 1 {
		t.Fatalf("sender called %d times, want 1", len(calls))
	}
	want := call{Method: "POST", URL: "http://h/a", Payload: []any{float64(1), float64(2)}}
	if !reflect.DeepEqual(calls[0], want) {
		t.Errorf("call = %+v, want %+v", calls[0], want)
	}
}

// recordingServer echoes back the method and body it saw, keyed by path
func recordingServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = fmt.Fprintf(w, "%s %s %s", r.Method, r.URL.Path, body)
	}))
}

func TestRun_ConcurrentCallsNeverMixFields(t *testing.T) {
	server := recordingServer(t)
	defer server.Close()

	d := New(transport.New(transport.DefaultConfig()))

	inputs := []struct {
		endpoint string
		method   string
		body     string
		want     string
	}{
		{endpoint: "/a", method: "GET", body: "", want: "GET /a "},
		{endpoint: "/b", method: "POST", body: `{"b":2}`, want: `POST /b {"b":2}`},
	}

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		for _, in := range inputs {
			in := in
			wg.Add(1)
			go func() {
				defer wg.Done()
				got := d.Run(context.Background(), in.endpoint, server.URL, in.method, in.body)
				if got != in.want {
					t.Errorf("Run(%s %s) = %q, want %q", in.method, in.endpoint, got, in.want)
				}
			}()
		}
	}
	wg.Wait()
}

func TestRun_ConcurrentWithFakeSender(t *testing.T) {
	sender := &fakeSender{response: "ok"}
	d := New(sender)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.Run(context.Background(), "/get", "http://one", "GET", "")
		}()
		go func() {
			defer wg.Done()
			d.Run(context.Background(), "/post", "http://two", "POST", `{"n":1}`)
		}()
	}
	wg.Wait()

	for _, c := range sender.Calls() {
		switch c.URL {
		case "http://one/get":
			if c.Method != "GET" || c.Payload != nil {
				t.Errorf("mixed call for /get: %+v", c)
			}
		case "http://two/post":
			if c.Method != "POST" || !reflect.DeepEqual(c.Payload, map[string]any{"n": float64(1)}) {
				t.Errorf("mixed call for /post: %+v", c)
			}
		default:
			t.Errorf("unexpected URL %q", c.URL)
		}
	}
	if n := len(sender.Calls()); n != 200 {
		t.Errorf("sender called %d times, want 200", n)
	}
}

func TestRun_LogsAtBoundary(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := New(&fakeSender{}, WithLogger(zap.New(core)))

	d.Run(context.Background(), "/x", "http://h", "PATCH", "")

	if logs.FilterMessage("Invalid method").Len() != 1 {
		t.Error("invalid method should be logged")
	}
	if logs.FilterMessage("Request failed").Len() != 1 {
		t.Error("run boundary should log the failure")
	}
}
