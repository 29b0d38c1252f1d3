package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"
)

const (
	// DefaultUserAgent identifies the calling application on every request
	DefaultUserAgent = "Lumin"

	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second
)

// Config describes a Transport
type Config struct {
	// UserAgent is sent as the User-Agent header on every request (default: "Lumin")
	UserAgent string

	// Timeout is the client-side timeout for one exchange; 0 disables it
	Timeout time.Duration
}

// DefaultConfig returns the configuration used when none is supplied
func DefaultConfig() Config {
	return Config{
		UserAgent: DefaultUserAgent,
		Timeout:   DefaultTimeout,
	}
}

// Transport is a long-lived HTTP client shared by every dispatch.
//
// Exchanges are serialized: mu is held from sending the request until the
// response body is fully read, so one Transport performs one network call
// at a time.
type Transport struct {
	client    *http.Client
	userAgent string
	mu        sync.Mutex
}

// New creates a Transport with its own http.Client
func New(cfg Config) *Transport {
	return NewWithClient(cfg, &http.Client{Timeout: cfg.Timeout})
}

// NewWithClient creates a Transport around an existing http.Client.
// cfg.Timeout is ignored; the client's own timeout applies.
func NewWithClient(cfg Config, client *http.Client) *Transport {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Transport{
		client:    client,
		userAgent: cfg.UserAgent,
	}
}

// UserAgent returns the identification header value
func (t *Transport) UserAgent() string {
	return t.userAgent
}

// Get issues a GET request and returns the response body as text.
// The HTTP status code is not inspected.
func (t *Transport) Get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{Op: http.MethodGet, URL: url, Kind: FailureRequest, Err: err}
	}
	return t.do(req)
}

// PostJSON issues a POST request whose body is the JSON encoding of payload
// and returns the response body as text. A nil payload is sent as null.
// The HTTP status code is not inspected.
func (t *Transport) PostJSON(ctx context.Context, url string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", &Error{Op: http.MethodPost, URL: url, Kind: FailureEncode, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", &Error{Op: http.MethodPost, URL: url, Kind: FailureRequest, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

func (t *Transport) do(req *http.Request) (string, error) {
	req.Header.Set("User-Agent", t.userAgent)

	t.mu.Lock()
	defer t.mu.Unlock()

	resp, err := t.client.Do(req)
	if err != nil {
		return "", &Error{Op: req.Method, URL: req.URL.String(), Kind: Classify(err), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := Classify(err)
		if kind == FailureNetwork {
			kind = FailureRead
		}
		return "", &Error{Op: req.Method, URL: req.URL.String(), Kind: kind, Err: err}
	}

	return string(body), nil
}
