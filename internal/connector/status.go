package connector

import (
	"fmt"
	"slices"

	"golang.org/x/oauth2"

	"github.com/five82/hublink/internal/backend"
)

// ConnectionState is the derived lifecycle state of the integration.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	AwaitingWindowClose
	ExchangingCredentials
	Connected
	Errored
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingWindowClose:
		return "awaiting_window_close"
	case ExchangingCredentials:
		return "exchanging_credentials"
	case Connected:
		return "connected"
	case Errored:
		return "errored"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// InProgress reports whether an attempt is running.
func (s ConnectionState) InProgress() bool {
	return s == Connecting || s == AwaitingWindowClose || s == ExchangingCredentials
}

// Terminal reports whether no attempt is running.
func (s ConnectionState) Terminal() bool {
	return !s.InProgress()
}

// phase is the in-flight part of the state; everything else is derived from
// the integration params and the failed flag.
type phase int

const (
	phaseIdle phase = iota
	phaseStarting
	phaseAwaiting
	phaseExchanging
)

// Status is a point-in-time view of the connector.
type Status struct {
	State     ConnectionState
	Error     error // last attempt failure, nil once cleared
	Warning   error // *VerificationWarning after a failed item fetch
	ItemCount *int  // nil until an item fetch succeeds
	Summary   []backend.TypeCount
	Items     []backend.Item
	Token     *oauth2.Token // nil unless connected
	Type      string
	Verifying bool
	AttemptID string
}

// Busy reports whether a network call or window wait is outstanding.
func (s Status) Busy() bool {
	return s.State.InProgress() || s.Verifying
}

// ErrorMessage returns the error text or "".
func (s Status) ErrorMessage() string {
	if s.Error == nil {
		return ""
	}
	return s.Error.Error()
}

// WarningMessage returns the warning text or "".
func (s Status) WarningMessage() string {
	if s.Warning == nil {
		return ""
	}
	return s.Warning.Error()
}

func (s Status) clone() Status {
	dup := s
	if s.ItemCount != nil {
		n := *s.ItemCount
		dup.ItemCount = &n
	}
	dup.Summary = slices.Clone(s.Summary)
	dup.Items = slices.Clone(s.Items)
	return dup
}
