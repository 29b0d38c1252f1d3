package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lumin/requestclient/internal/dispatch"
	"github.com/lumin/requestclient/internal/transport"
)

// fakeDispatcher records commands and answers from a fixed function
type fakeDispatcher struct {
	mu    sync.Mutex
	calls []Command
	fn    func(endpoint, device, method, body string) dispatch.Result
}

func (f *fakeDispatcher) Dispatch(_ context.Context, endpoint, device, method, body string) dispatch.Result {
	f.mu.Lock()
	f.calls = append(f.calls, Command{Endpoint: endpoint, DeviceName: device, Method: method, Body: body})
	f.mu.Unlock()
	return f.fn(endpoint, device, method, body)
}

func okDispatcher() *fakeDispatcher {
	return &fakeDispatcher{fn: func(endpoint, device, _, _ string) dispatch.Result {
		return dispatch.Result{Status: dispatch.StatusOK, Data: device + endpoint}
	}}
}

func dial(t *testing.T, h http.Handler) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func readReply(t *testing.T, ws *websocket.Conn) Reply {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))
	var r Reply
	if err := ws.ReadJSON(&r); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	return r
}

func TestHandler_DispatchesCommand(t *testing.T) {
	fd := okDispatcher()
	ws := dial(t, NewHandler(fd))

	cmd := Command{ID: "1", Endpoint: "/ping", DeviceName: "http://lumin", Method: "GET", Body: ""}
	if err := ws.WriteJSON(cmd); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	reply := readReply(t, ws)
	if reply.ID != "1" {
		t.Errorf("reply.ID = %q, want 1", reply.ID)
	}
	if reply.Status != dispatch.StatusOK {
		t.Errorf("reply.Status = %q, want ok", reply.Status)
	}
	if reply.Data == nil || *reply.Data != "http://lumin/ping" {
		t.Errorf("reply.Data = %v, want http://lumin/ping", reply.Data)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if len(fd.calls) != 1 || fd.calls[0].Method != "GET" {
		t.Errorf("calls = %+v", fd.calls)
	}
}

func TestHandler_ErrorReply(t *testing.T) {
	fd := &fakeDispatcher{fn: func(_, _, _, _ string) dispatch.Result {
		return dispatch.Result{Status: dispatch.StatusError, Error: "Invalid method"}
	}}
	ws := dial(t, NewHandler(fd))

	if err := ws.WriteJSON(Command{ID: "x", Method: "PUT"}); err != nil {
		t.Fatal(err)
	}

	reply := readReply(t, ws)
	if reply.Status != dispatch.StatusError || reply.Error != "Invalid method" {
		t.Errorf("reply = %+v, want Invalid method error", reply)
	}
	if reply.Data != nil {
		t.Errorf("reply.Data = %v, want nil", *reply.Data)
	}
}

func TestHandler_InvalidJSON(t *testing.T) {
	fd := okDispatcher()
	ws := dial(t, NewHandler(fd))

	if err := ws.WriteMessage(websocket.TextMessage, []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	reply := readReply(t, ws)
	if reply.Status != dispatch.StatusError {
		t.Errorf("reply.Status = %q, want error", reply.Status)
	}
	if !strings.HasPrefix(reply.Error, "Generic error: invalid command") {
		t.Errorf("reply.Error = %q, want Generic error prefix", reply.Error)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if len(fd.calls) != 0 {
		t.Errorf("dispatcher called %d times, want 0", len(fd.calls))
	}
}

func TestHandler_Resolver(t *testing.T) {
	fd := okDispatcher()
	h := NewHandler(fd, WithResolver(func(name string) string {
		return "http://10.0.0.7"
	}))
	ws := dial(t, h)

	if err := ws.WriteJSON(Command{ID: "r", Endpoint: ":81/update", DeviceName: "lumin-a1", Method: "POST"}); err != nil {
		t.Fatal(err)
	}

	reply := readReply(t, ws)
	if reply.Data == nil || *reply.Data != "http://10.0.0.7:81/update" {
		t.Errorf("reply.Data = %v, want resolved URL", reply.Data)
	}
}

func TestHandler_ConcurrentCommands(t *testing.T) {
	fd := okDispatcher()
	ws := dial(t, NewHandler(fd))

	const n = 20
	for i := 0; i < n; i++ {
		cmd := Command{ID: string(rune('a' + i)), Endpoint: "/e", DeviceName: "d", Method: "GET"}
		if err := ws.WriteJSON(cmd); err != nil {
			t.Fatal(err)
		}
	}

	seen := make(map[string]bool)
	for i := 0; i < n; i++ {
		reply := readReply(t, ws)
		if reply.Status != dispatch.StatusOK {
			t.Errorf("reply %s status = %q", reply.ID, reply.Status)
		}
		seen[reply.ID] = true
	}
	if len(seen) != n {
		t.Errorf("got %d distinct replies, want %d", len(seen), n)
	}
}

func TestHandler_EndToEnd(t *testing.T) {
	device := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("missing " + r.URL.Path))
	}))
	defer device.Close()

	d := dispatch.New(transport.New(transport.DefaultConfig()))
	ws := dial(t, NewHandler(d))

	if err := ws.WriteJSON(Command{ID: "e", Endpoint: "/nope", DeviceName: device.URL, Method: "GET"}); err != nil {
		t.Fatal(err)
	}

	reply := readReply(t, ws)
	if reply.Status != dispatch.StatusOK {
		t.Fatalf("reply = %+v, want ok regardless of HTTP status", reply)
	}
	if *reply.Data != "missing /nope" {
		t.Errorf("reply.Data = %q, want 'missing /nope'", *reply.Data)
	}
}

func TestNewReply_JSON(t *testing.T) {
	tests := []struct {
		name   string
		result dispatch.Result
		want   string
	}{
		{
			name:   "ok",
			result: dispatch.Result{Status: dispatch.StatusOK, Data: "pong"},
			want:   `{"id":"1","status":"ok","data":"pong"}`,
		},
		{
			name:   "ok with empty body keeps data",
			result: dispatch.Result{Status: dispatch.StatusOK},
			want:   `{"id":"1","status":"ok","data":""}`,
		},
		{
			name:   "error",
			result: dispatch.Result{Status: dispatch.StatusError, Error: "Invalid method"},
			want:   `{"id":"1","status":"error","error":"Invalid method"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(NewReply("1", tt.result))
			if err != nil {
				t.Fatal(err)
			}
			if string(data) != tt.want {
				t.Errorf("json = %s, want %s", data, tt.want)
			}
		})
	}
}
