// Package transport provides the shared HTTP client used to reach devices.
//
// A Transport wraps a single long-lived http.Client so connections are reused
// across requests. Every request carries a fixed User-Agent header supplied at
// construction time ("Lumin" by default), and the full response body is
// returned as text whatever the HTTP status code.
//
// Only failures that prevent an exchange from completing are reported as
// errors: DNS, refused connections, TLS, timeouts, unreadable bodies. Each is
// returned as *Error with a FailureKind.
//
//	t := transport.New(transport.DefaultConfig())
//	text, err := t.Get(ctx, "http://lumin.local:81/control/builtin/command/ping")
//
// # Concurrency
//
// A Transport is safe for concurrent use. Exchanges through one Transport are
// serialized; callers that need parallel sends should create more than one.
package transport
