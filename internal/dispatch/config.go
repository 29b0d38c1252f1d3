package dispatch

import "sync"

// cell is a string guarded by its own lock
type cell struct {
	mu sync.RWMutex
	v  string
}

func (c *cell) set(v string) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

func (c *cell) get() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.v
}

// RequestConfig holds the parameters of the next call.
//
// Each field has its own lock: a single read or write never tears, but the
// three fields are not updated as a group. Dispatcher.Run serializes whole
// runs so it never observes a mixed triple; other writers sharing a
// RequestConfig get no such guarantee.
type RequestConfig struct {
	targetURL cell
	method    cell
	body      cell
}

// NewRequestConfig returns a config with empty values
func NewRequestConfig() *RequestConfig {
	return &RequestConfig{}
}

// SetTargetURL overwrites the target URL. No validation is done here.
func (c *RequestConfig) SetTargetURL(url string) *RequestConfig {
	c.targetURL.set(url)
	return c
}

// SetMethod overwrites the method. Invalid values are reported at dispatch time.
func (c *RequestConfig) SetMethod(m string) *RequestConfig {
	c.method.set(m)
	return c
}

// SetBody overwrites the raw body text
func (c *RequestConfig) SetBody(b string) *RequestConfig {
	c.body.set(b)
	return c
}

// TargetURL returns the current target URL
func (c *RequestConfig) TargetURL() string {
	return c.targetURL.get()
}

// Method returns the current method string
func (c *RequestConfig) Method() string {
	return c.method.get()
}

// Body returns the current raw body text
func (c *RequestConfig) Body() string {
	return c.body.get()
}

// Snapshot reads the three fields into a Request value.
// The reads are individually locked, not atomic as a group.
func (c *RequestConfig) Snapshot() Request {
	return Request{
		URL:    c.TargetURL(),
		Method: c.Method(),
		Body:   c.Body(),
	}
}

// Request is one call's parameters, passed by value through the dispatch path
type Request struct {
	URL    string
	Method string
	Body   string
}

// NewRequest composes URL = deviceIdentifier + endpoint by plain
// concatenation. No separator is inserted and nothing is escaped.
func NewRequest(endpoint, deviceIdentifier, method, body string) Request {
	return Request{
		URL:    deviceIdentifier + endpoint,
		Method: method,
		Body:   body,
	}
}
