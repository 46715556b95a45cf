// ABOUTME: Typed errors for the agent lifecycle
// ABOUTME: Separates startup-fatal kinds from per-message inference failures

package agent

import (
	"errors"
	"fmt"
)

// Kind classifies an agent failure.
type Kind int

const (
	// KindConfiguration means a required setting is missing. Raised by Initialize
	// before any credential or network work.
	KindConfiguration Kind = iota + 1
	// KindAuthentication means the credential could not be acquired.
	KindAuthentication
	// KindState means the agent was used outside its lifecycle.
	KindState
	// KindInference means the model call failed. Only ever logged.
	KindInference
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration"
	case KindAuthentication:
		return "authentication"
	case KindState:
		return "state"
	case KindInference:
		return "inference"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching against an *Error.
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrAuthentication = errors.New("authentication error")
	ErrState          = errors.New("state error")
	ErrInference      = errors.New("inference error")
)

// Error is returned by Capability implementations.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s error", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfiguration:
		return e.Kind == KindConfiguration
	case ErrAuthentication:
		return e.Kind == KindAuthentication
	case ErrState:
		return e.Kind == KindState
	case ErrInference:
		return e.Kind == KindInference
	}
	return false
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}
