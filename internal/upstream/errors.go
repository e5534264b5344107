package upstream

import (
	"errors"
	"fmt"

	"github.com/eigerco/beerus/pkg/jsonrpc"
)

// Kind classifies an upstream failure.
type Kind int

const (
	// KindTransport is a connection level failure (dial, reset, read).
	KindTransport Kind = iota + 1
	// KindTimeout is a call that hit its deadline.
	KindTimeout
	// KindStatus is a non-2xx HTTP response.
	KindStatus
	// KindDecode is a response body that is not a valid JSON-RPC response.
	KindDecode
	// KindRPC is an error object reported by the upstream node itself.
	KindRPC
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindTimeout:
		return "timeout"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindRPC:
		return "rpc"
	}
	return "unknown"
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind       Kind
	Method     string
	StatusCode int            // KindStatus only
	RPC        *jsonrpc.Error // KindRPC only
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("upstream %s: http status %d", e.Method, e.StatusCode)
	case KindRPC:
		return fmt.Sprintf("upstream %s: %v", e.Method, e.RPC)
	}
	return fmt.Sprintf("upstream %s: %s: %v", e.Method, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	if e.Kind == KindRPC {
		return e.RPC
	}
	return e.Err
}

// Unavailable reports whether the upstream could not produce a usable
// answer at all, as opposed to answering with a protocol error.
func (e *Error) Unavailable() bool {
	return e.Kind != KindRPC
}

// AsRPCError returns the upstream protocol error carried by err, if any.
func AsRPCError(err error) (*jsonrpc.Error, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRPC {
		return e.RPC, true
	}
	return nil, false
}
