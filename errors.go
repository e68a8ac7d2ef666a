package hypergate

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCfg  = errors.New("federation: invalid options")
	ErrNoTileDir   = errors.New("federation: map tile directory is not configured")
	ErrNoFactory   = errors.New("federation: cache lookup without a factory")

	ErrEndpointInvalid = errors.New("rpc: endpoint is not an absolute http(s) URL")
	ErrUnreachable     = errors.New("rpc: endpoint unreachable")
	ErrRemoteFault     = errors.New("rpc: endpoint returned a fault")
	ErrMalformedReply  = errors.New("rpc: could not decode the reply")

	ErrNoAssetStore = errors.New("gatekeeper: no local asset store configured")
	ErrNoImageCodec = errors.New("gatekeeper: no image codec configured")
)

const (
	FailTransport FailureKind = iota
	FailRemoteFault
	FailMalformedReply
)

// FailureKind classifies why a remote call produced no usable reply.
type FailureKind uint8

func (k FailureKind) String() string {
	switch k {
	case FailRemoteFault:
		return "remote fault"
	case FailMalformedReply:
		return "malformed reply"
	default:
		return "transport"
	}
}

// CallError is the only failure shape the remote call client produces.
// `Reason` is human-readable; for `FailRemoteFault` it carries the fault
// string supplied by the endpoint verbatim so operators can log it as-is.
type CallError struct {
	Kind     FailureKind
	Endpoint string
	Method   string
	Reason   string
}

func (ce *CallError) Error() string {
	return fmt.Sprintf("rpc: %s calling %q on %s: %s", ce.Kind, ce.Method, ce.Endpoint, ce.Reason)
}

func (ce *CallError) Unwrap() error {
	switch ce.Kind {
	case FailRemoteFault:
		return ErrRemoteFault
	case FailMalformedReply:
		return ErrMalformedReply
	default:
		return ErrUnreachable
	}
}
