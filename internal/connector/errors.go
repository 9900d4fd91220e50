package connector

import "errors"

// User-facing messages.
const (
	msgIdentifiersRequired = "User ID and Organization ID are required"
	msgNoAuthorizationURL  = "No authorization URL received"
	msgPopupBlocked        = "Popup blocked. Please allow popups and try again."
	msgInvalidCredentials  = "Invalid credentials received"
	msgVerificationFailed  = "Connected but failed to fetch data"
)

var (
	// ErrConnectionInProgress is returned by InitiateConnection while an
	// earlier attempt has not finished.
	ErrConnectionInProgress = errors.New("connection already in progress")
	// ErrAlreadyConnected is returned by InitiateConnection while connected.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrAttemptCancelled is returned when a disconnect or teardown overtook
	// the attempt.
	ErrAttemptCancelled = errors.New("connection attempt cancelled")
	// ErrNotConnected is returned by VerifyConnection without credentials.
	ErrNotConnected = errors.New("not connected")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("connector closed")
)

// ValidationError reports missing identifiers. No network call was made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationStartError reports that the consent window could not be shown.
type AuthorizationStartError struct {
	Message string
	Err     error
}

func (e *AuthorizationStartError) Error() string {
	return e.Message
}

func (e *AuthorizationStartError) Unwrap() error {
	return e.Err
}

// CredentialExchangeError reports that no usable credentials came back after
// the consent window closed. Message is the backend's own message when the call
// failed.
type CredentialExchangeError struct {
	Message string
	Err     error
}

func (e *CredentialExchangeError) Error() string {
	return e.Message
}

func (e *CredentialExchangeError) Unwrap() error {
	return e.Err
}

// VerificationWarning reports a failed item fetch on an otherwise healthy
// connection.
type VerificationWarning struct {
	Message string
	Err     error
}

func (e *VerificationWarning) Error() string {
	return e.Message
}

func (e *VerificationWarning) Unwrap() error {
	return e.Err
}
