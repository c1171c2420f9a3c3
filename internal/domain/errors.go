package domain

import "errors"

var (
	// ErrStoreUnavailable means the backing persistence could not be reached.
	// Callers surface it as "try again"; it is never retried automatically and
	// never collapsed into "not found".
	ErrStoreUnavailable = errors.New("credential store unavailable")

	// ErrNotFound means the referenced credential does not exist.
	ErrNotFound = errors.New("credential not found")

	// ErrAdminReserved means the operation targeted the reserved admin
	// credential. The admin secret can be replaced but never deleted.
	ErrAdminReserved = errors.New("admin credential cannot be deleted")
)

// ValidationError marks input rejected at the store/service boundary, shown
// inline on the management form.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
