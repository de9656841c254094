// Package auth implements the authentication core: the login orchestrator,
// the one-time-code engine and the password-reset flow. It owns the typed
// errors the transport layer translates into HTTP statuses.
package auth

import "errors"

// ValidationError is a bad input or business-rule violation. The reason is
// caller-visible (missing field, wrong password, expired code, duplicate
// phone number).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// validation builds a *ValidationError. Kept unexported; flows construct
// their reasons through it so the type stays the single error surface.
func validation(reason string) error { return &ValidationError{Reason: reason} }

// ErrUnauthorized is the single, deliberately detail-free error for every
// authentication/session check failure. Collapsing the distinct causes into
// one denial avoids turning CheckLogin into an oracle.
var ErrUnauthorized = errors.New("unauthorized")
