// Package dispatch turns runtime-supplied parameters into one outbound HTTP call.
//
// A Dispatcher is given an endpoint, a device identifier, a method and a raw
// body, composes the target URL, decodes the body as JSON and sends the request
// through a shared Sender (normally a *transport.Transport).
//
// # Body Decoding
//
// The body is trimmed and parsed as JSON. An empty body, or one that fails to
// parse, is replaced by the absent value (JSON null). A parse failure is
// logged and never fails the request, so a POST with a malformed body sends
// null.
//
// # Methods
//
// Only "GET" and "POST" are accepted, matched exactly. GET never sends a body.
// Any other value yields ErrInvalidMethod before a network call is made.
//
// # Result Contract
//
// The HTTP status code is not used to classify success: a 404 whose body is
// "not found" is a successful call returning "not found". Only transport
// failures are errors.
//
// Run keeps the host boundary contract of always returning a string; on
// failure that string is the error message:
//
//	d := dispatch.New(transport.New(transport.DefaultConfig()))
//	text := d.Run(ctx, ":81/control/builtin/command/ping", "http://192.168.4.1", "GET", "")
//
// Dispatch returns a tagged Result instead, so adapters can tell responses
// from failures without inspecting the text:
//
//	res := d.Dispatch(ctx, "/status", "http://host:9000", "GET", "")
//	if !res.OK() {
//	    log.Printf("request failed: %s", res.Error)
//	}
//
// # Concurrency
//
// A Dispatcher is safe for concurrent use. Run holds a per-Dispatcher lock
// from writing the shared RequestConfig until the response arrives, so each
// request is sent with the URL, method and body of a single call. Dispatch
// and Do work on a Request value and share no mutable state.
//
// The dispatcher has no timeout or retry of its own; the transport's timeout
// and the caller's context apply.
package dispatch
