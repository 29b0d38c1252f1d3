package dispatch

import (
	"encoding/json"
	"strings"
)

// DecodeBody parses raw as JSON after trimming surrounding whitespace.
//
// An empty body decodes to nil, the absent value, which is sent as JSON null.
// A malformed body also decodes to nil; the parse error is returned alongside
// so the caller can report it, but it must not fail the request.
func DecodeBody(raw string) (any, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, err
	}
	return v, nil
}
