// Package bridge exposes the request dispatcher to a host application over
// a local websocket.
//
// Each text frame carries one JSON command:
//
//	{"id":"7","endpoint":":81/control/builtin/command/ping","deviceName":"http://192.168.4.1","method":"GET","body":""}
//
// and is answered with the host envelope:
//
//	{"id":"7","status":"ok","data":"pong"}
//	{"id":"7","status":"error","error":"Invalid method"}
//
// Commands on one connection are dispatched concurrently; replies carry the
// command ID so the host can match them. A frame that is not valid JSON is
// answered with a Generic error and no request is made.
package bridge
