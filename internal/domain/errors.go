package domain

import "errors"

// ErrorKind classifies rejection reasons.
type ErrorKind string

// Error kinds.
const (
	// KindAuthorization marks callers lacking a required role or identity.
	KindAuthorization ErrorKind = "AUTHORIZATION"
	// KindValidation marks malformed or inconsistent input.
	KindValidation ErrorKind = "VALIDATION"
	// KindState marks operations invalid for the entity's lifecycle state.
	KindState ErrorKind = "STATE"
)

// Error is a rejection with a stable, human-readable reason string. The
// reason strings are a compatibility surface consumed by calling tooling;
// changing them breaks external diagnostics.
type Error struct {
	ErrKind ErrorKind `json:"kind"`
	Reason  string    `json:"reason"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Reason
}

// AuthorizationError builds an authorization rejection.
func AuthorizationError(reason string) *Error {
	return &Error{ErrKind: KindAuthorization, Reason: reason}
}

// ValidationError builds a validation rejection.
func ValidationError(reason string) *Error {
	return &Error{ErrKind: KindValidation, Reason: reason}
}

// StateError builds a lifecycle-state rejection.
func StateError(reason string) *Error {
	return &Error{ErrKind: KindState, Reason: reason}
}

// KindOf extracts the error kind, or "" for errors outside the taxonomy.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.ErrKind
	}
	return ""
}

// IsAuthorization reports whether err is an authorization rejection.
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }

// IsValidation reports whether err is a validation rejection.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsState reports whether err is a lifecycle-state rejection.
func IsState(err error) bool { return KindOf(err) == KindState }
