package shared

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrAuthentication indicates a missing, invalid, expired, revoked or
	// superseded token. Always maps to 401.
	ErrAuthentication = errors.New("authentication failed")
	// ErrPermission indicates an authenticated actor without sufficient rights.
	ErrPermission = errors.New("permission denied")
	// ErrValidation indicates a business-rule violation.
	ErrValidation = errors.New("validation failed")
)

// Validationf wraps ErrValidation with a human readable message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
