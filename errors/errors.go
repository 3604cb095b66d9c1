// Package errors defines the stable error kinds exposed by the chat core.
// Callers match with errors.Is against the sentinels; messages wrapped around
// them carry the operation-specific detail.
package errors

import "fmt"

var (
	// ErrUnauthenticated means the supplied credential is missing, malformed
	// or expired. The connection carrying it is terminated, never retried.
	ErrUnauthenticated = fmt.Errorf("unauthenticated")

	// ErrNotFound covers absent sessions, messages and users, and also a
	// sender that is not a participant of the target session. The latter is
	// deliberate: callers must not be able to probe session existence.
	ErrNotFound = fmt.Errorf("not found")

	// ErrConflict means a duplicate membership or duplicate user record.
	ErrConflict = fmt.Errorf("conflict")

	// ErrPermission covers private-session authorization failures.
	ErrPermission = fmt.Errorf("permission denied")

	// ErrValidation covers malformed input such as empty message text.
	ErrValidation = fmt.Errorf("validation failed")

	ErrWorkerPanic = fmt.Errorf("worker panic")
	ErrEmptyWords  = fmt.Errorf("no words have been found")

	ErrUserAlreadyExists  = fmt.Errorf("%w: user already exists", ErrConflict)
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	ErrInvalidPassword    = fmt.Errorf("%w: password too weak", ErrValidation)
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)
