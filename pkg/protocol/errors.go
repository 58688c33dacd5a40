// ABOUTME: Error taxonomy for the gateway protocol
// ABOUTME: Gateway-reported errors plus local decode and connection failures
package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedBinaryFrame is reported when binary data arrives before the session is online
	ErrUnexpectedBinaryFrame = errors.New("unexpected binary frame")

	// ErrMalformedControl is reported for text frames that cannot be interpreted
	ErrMalformedControl = errors.New("malformed control message")

	// ErrConnectFailure wraps failures of the initial websocket handshake
	ErrConnectFailure = errors.New("connect failure")
)

// ErrorKind is the errorCode sent by the gateway
type ErrorKind int

const (
	// CodeNotFound means the temporary code does not exist
	CodeNotFound ErrorKind = 0
	// CodeAlreadyConsumed means another client already used the code
	CodeAlreadyConsumed ErrorKind = 1
	// BadSessionKey means the rejoin uuid/code pair was rejected
	BadSessionKey ErrorKind = 2
)

func (k ErrorKind) String() string {
	switch k {
	case CodeNotFound:
		return "code not found"
	case CodeAlreadyConsumed:
		return "code already consumed"
	case BadSessionKey:
		return "bad session key"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// ProtocolError is an error reported by the gateway in a control message
type ProtocolError struct {
	Kind    ErrorKind
	Message string
}

func (e *ProtocolError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("gateway error: %s", e.Kind)
	}
	return fmt.Sprintf("gateway error: %s: %s", e.Kind, e.Message)
}

// IsProtocolError reports whether err carries a gateway error of the given kind
func IsProtocolError(err error, kind ErrorKind) bool {
	var pe *ProtocolError
	return errors.As(err, &pe) && pe.Kind == kind
}
