package bridge

import (
	"encoding/json"

	"github.com/lumin/requestclient/internal/dispatch"
)

// Command is one request from the host: the same five inputs the
// dispatcher's host boundary takes, plus an ID echoed in the reply.
type Command struct {
	ID         string `json:"id,omitempty"`
	Endpoint   string `json:"endpoint"`
	DeviceName string `json:"deviceName"`
	Method     string `json:"method"`
	Body       string `json:"body"`
}

// Reply mirrors the host envelope {status:'ok',data} | {status:'error',error}
type Reply struct {
	ID     string          `json:"id,omitempty"`
	Status dispatch.Status `json:"status"`
	Data   *string         `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// NewReply converts a dispatch result into a reply for command id
func NewReply(id string, result dispatch.Result) Reply {
	reply := Reply{ID: id, Status: result.Status}
	if result.OK() {
		data := result.Data
		reply.Data = &data
	} else {
		reply.Error = result.Error
	}
	return reply
}

// decodeCommand parses a text frame. A frame that is not a command object
// yields a Generic error carrying the parse failure.
func decodeCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return cmd, dispatch.NewGeneric("invalid command: " + err.Error())
	}
	return cmd, nil
}
