package identity

import (
	"errors"
	"fmt"
)

// Reason categorizes authentication failures. Reasons are surfaced verbatim
// to the form that triggered the call; they never change session state.
type Reason string

const (
	// ReasonInvalidCredentials indicates the password did not match.
	ReasonInvalidCredentials Reason = "invalid-credentials"

	// ReasonUserNotFound indicates no account exists for the email or id.
	ReasonUserNotFound Reason = "user-not-found"

	// ReasonEmailInUse indicates the email is already registered.
	ReasonEmailInUse Reason = "email-in-use"

	// ReasonWeakPassword indicates the password is below MinPasswordLength.
	ReasonWeakPassword Reason = "weak-password"

	// ReasonInvalidEmail indicates the email failed the shape check.
	ReasonInvalidEmail Reason = "invalid-email"

	// ReasonNetwork indicates a collaborator failure, not a credential
	// problem. Retrying the action may succeed.
	ReasonNetwork Reason = "network"
)

// AuthError is the error type for all identity operations.
type AuthError struct {
	Reason Reason
	Err    error // underlying cause for ReasonNetwork (optional)
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

// Unwrap returns the underlying cause.
func (e *AuthError) Unwrap() error {
	return e.Err
}

// Message returns the user-facing text for the failure.
func (e *AuthError) Message() string {
	switch e.Reason {
	case ReasonInvalidCredentials:
		return "Incorrect email or password."
	case ReasonUserNotFound:
		return "No account exists for that email."
	case ReasonEmailInUse:
		return "That email is already registered."
	case ReasonWeakPassword:
		return fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength)
	case ReasonInvalidEmail:
		return "That doesn't look like an email address."
	default:
		return "Something went wrong. Please try again."
	}
}

// ReasonOf extracts the Reason from err, or "" if err is not an AuthError.
// Uses errors.As to handle wrapped errors.
func ReasonOf(err error) Reason {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae.Reason
	}
	return ""
}
