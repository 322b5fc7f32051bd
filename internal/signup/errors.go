package signup

import (
	"errors"
	"fmt"
)

const (
	MsgLinkFirst      = "Please link your GitHub account before creating your profile."
	MsgToggleFailed   = "Could not complete GitHub authentication. Please try again."
	MsgNetworkFailure = "Failed to communicate with the server. Please try again later."
	MsgServerFailure  = "An error occurred while creating your account. Please try again later."
)

var (
	// ErrSubmissionInFlight is returned when Submit is called while a previous
	// submission has not settled.
	ErrSubmissionInFlight = errors.New("signup: submission already in flight")
	// ErrLinkDisabled is returned when the link control is clicked while it is
	// disabled, i.e. a toggle or a submission has not settled.
	ErrLinkDisabled = errors.New("signup: link control disabled")
)

// ValidationError means the form cannot be submitted yet. It is recovered
// locally: the user is notified and no request is sent.
type ValidationError struct {
	Field       string
	UserMessage string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("signup: invalid %s", e.Field)
}

// IdentityToggleError wraps a failed provider sign-in or sign-out.
type IdentityToggleError struct {
	Err error
}

func (e *IdentityToggleError) Error() string {
	return fmt.Sprintf("signup: identity toggle failed: %v", e.Err)
}

func (e *IdentityToggleError) Unwrap() error {
	return e.Err
}

// TransportError is the normalized failure of a POST to the backend.
// StatusCode is 0 when no response was received.
type TransportError struct {
	StatusCode  int
	Err         string
	UserMessage string
	Cause       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("signup: error %d: %s", e.StatusCode, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}
