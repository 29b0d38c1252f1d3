package transport

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// FailureKind classifies a transport-level failure
type FailureKind int

const (
	// FailureNetwork is any network error not covered by a more specific kind
	FailureNetwork FailureKind = iota
	// FailureTimeout indicates the request timed out
	FailureTimeout
	// FailureConnectionRefused indicates the device refused the connection
	FailureConnectionRefused
	// FailureDNS indicates the hostname could not be resolved
	FailureDNS
	// FailureHostUnreachable indicates no route to the device
	FailureHostUnreachable
	// FailureNetworkUnreachable indicates the local network is down
	FailureNetworkUnreachable
	// FailureEncode indicates the request payload could not be encoded
	FailureEncode
	// FailureRequest indicates the request could not be built (bad URL)
	FailureRequest
	// FailureRead indicates the response body could not be read
	FailureRead
)

// String returns a human-readable name for the failure kind
func (k FailureKind) String() string {
	switch k {
	case FailureNetwork:
		return "network error"
	case FailureTimeout:
		return "timeout"
	case FailureConnectionRefused:
		return "connection refused"
	case FailureDNS:
		return "dns error"
	case FailureHostUnreachable:
		return "host unreachable"
	case FailureNetworkUnreachable:
		return "network unreachable"
	case FailureEncode:
		return "encode error"
	case FailureRequest:
		return "invalid request"
	case FailureRead:
		return "read error"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Error is returned by Transport for every failed exchange.
type Error struct {
	Op   string // "GET" or "POST"
	URL  string
	Kind FailureKind
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %s: %v", e.Op, e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps a net/http client error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNetwork
	}

	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		return FailureTimeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return FailureTimeout
		}
		return FailureDNS
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED):
			return FailureConnectionRefused
		case errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return FailureHostUnreachable
		case errors.Is(opErr.Err, syscall.ENETUNREACH):
			return FailureNetworkUnreachable
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return FailureTimeout
	}

	return FailureNetwork
}

// IsTimeout reports whether err is a transport timeout
func IsTimeout(err error) bool {
	return kindOf(err) == FailureTimeout
}

// IsConnectionRefused reports whether err is a refused connection
func IsConnectionRefused(err error) bool {
	return kindOf(err) == FailureConnectionRefused
}

func kindOf(err error) FailureKind {
	var tErr *Error
	if errors.As(err, &tErr) {
		return tErr.Kind
	}
	return -1
}
