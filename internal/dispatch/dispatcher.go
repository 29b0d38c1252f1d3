package dispatch

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/lumin/requestclient/internal/logging"
)

// Sender performs the network exchange. *transport.Transport implements it.
type Sender interface {
	Get(ctx context.Context, url string) (string, error)
	PostJSON(ctx context.Context, url string, payload any) (string, error)
}

// Status tags a Result
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the explicit success/failure outcome of Dispatch
type Result struct {
	Status Status `json:"status"`
	Data   string `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`

	// Err is the structured error behind Error; not serialized
	Err error `json:"-"`
}

// OK reports whether the request produced a response
func (r Result) OK() bool {
	return r.Status == StatusOK
}

// Dispatcher issues one HTTP request per call through a shared Sender
type Dispatcher struct {
	sender Sender
	config *RequestConfig
	log    *zap.Logger

	// runMu spans config write, read and dispatch for one Run
	runMu sync.Mutex
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the logger used for request diagnostics
func WithLogger(l *zap.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// New creates a Dispatcher with empty request configuration
func New(sender Sender, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		config: NewRequestConfig(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logging.GetLogger()
	}
	return d
}

// Config returns the shared request configuration
func (d *Dispatcher) Config() *RequestConfig {
	return d.config
}

// Run performs one request cycle and always returns a string: the response
// text on success, or the error's message on failure. Callers cannot tell the
// two apart except by content; use Dispatch for a tagged result.
func (d *Dispatcher) Run(ctx context.Context, endpoint, deviceIdentifier, method, body string) string {
	d.log.Info("Starting REST client")

	req := NewRequest(endpoint, deviceIdentifier, method, body)
	d.log.Info("Composed request", zap.String("url", req.URL))
	d.log.Debug("Request body", logging.RequestFields(req.Method, req.URL, req.Body)...)

	d.runMu.Lock()
	defer d.runMu.Unlock()

	d.config.SetTargetURL(req.URL).
		SetMethod(req.Method).
		SetBody(req.Body)

	response, err := d.Request(ctx)
	if err != nil {
		d.log.Error("Request failed", zap.String("url", req.URL), zap.Error(err))
		return err.Error()
	}
	return response
}

// Dispatch performs one request cycle without touching the shared
// configuration and reports the outcome as a tagged Result.
func (d *Dispatcher) Dispatch(ctx context.Context, endpoint, deviceIdentifier, method, body string) Result {
	req := NewRequest(endpoint, deviceIdentifier, method, body)

	response, err := d.Do(ctx, req)
	if err != nil {
		d.log.Error("Request failed", zap.String("url", req.URL), zap.Error(err))
		return Result{Status: StatusError, Error: err.Error(), Err: err}
	}
	return Result{Status: StatusOK, Data: response}
}

// Request dispatches whatever the shared configuration currently holds
func (d *Dispatcher) Request(ctx context.Context) (string, error) {
	return d.Do(ctx, d.config.Snapshot())
}

// Do decodes the body, validates the method and sends req.
// The HTTP status code of the response is not inspected.
func (d *Dispatcher) Do(ctx context.Context, req Request) (string, error) {
	d.log.Info("Making REST request", zap.String("method", req.Method), zap.String("url", req.URL))

	payload, err := DecodeBody(req.Body)
	if err != nil {
		d.log.Error("Failed to parse body", zap.Error(err))
	}

	method, err := ParseMethod(req.Method)
	if err != nil {
		d.log.Error("Invalid method", zap.String("method", req.Method))
		return "", err
	}

	var response string
	switch method {
	case MethodGet:
		response, err = d.sender.Get(ctx, req.URL)
	case MethodPost:
		response, err = d.sender.PostJSON(ctx, req.URL, payload)
	}
	if err != nil {
		return "", NewTransportFailure(err)
	}

	d.log.Debug("Response", logging.ResponseFields(req.URL, response)...)
	return response, nil
}
