// Package apperr defines the error kinds surfaced by vault operations.
package apperr

import "errors"

var (
	// ErrPathEscape is returned when a relative path resolves outside the vault root.
	ErrPathEscape = errors.New("path escapes vault root")
	// ErrInvalidPath is returned for empty, absolute, or otherwise malformed paths.
	ErrInvalidPath = errors.New("invalid path")
	// ErrNotFound is returned when the operation target does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a file that already exists.
	ErrAlreadyExists = errors.New("already exists")
	// ErrHeadingNotFound is returned when a patch target heading is absent.
	ErrHeadingNotFound = errors.New("heading not found")
	// ErrConfirmationRequired is returned when delete is called without confirm=true.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// Kind maps an error to its stable kind string. Errors outside the known
// set are classified as io_failure (underlying storage faults).
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrPathEscape):
		return "path_escape"
	case errors.Is(err, ErrInvalidPath):
		return "invalid_path"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrHeadingNotFound):
		return "heading_not_found"
	case errors.Is(err, ErrConfirmationRequired):
		return "confirmation_required"
	default:
		return "io_failure"
	}
}
