package dispatch

// Method is one of the HTTP verbs the dispatcher supports
type Method int

const (
	// MethodGet sends a GET without a body
	MethodGet Method = iota + 1
	// MethodPost sends the decoded body as JSON
	MethodPost
)

// ParseMethod validates s against the supported set.
// Matching is exact and case-sensitive: "get" is rejected.
func ParseMethod(s string) (Method, error) {
	switch s {
	case "GET":
		return MethodGet, nil
	case "POST":
		return MethodPost, nil
	default:
		return 0, ErrInvalidMethod
	}
}

// String returns the verb as sent on the wire
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "INVALID"
	}
}
