package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique key collision (email, name, like, comment).
	ErrAlreadyExists = errors.New("already exists")
	ErrValidation    = errors.New("validation failed")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")

	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product unavailable")
	// ErrInvalidState covers rule violations such as deleting a referenced category.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidCredentials is returned for unknown emails, bad passwords and
	// deactivated accounts alike.
	ErrInvalidCredentials = Wrapf(ErrUnauthorized, "Invalid email or password")
)

// Validationf wraps ErrValidation with a formatted detail message.
func Validationf(format string, args ...any) error {
	return &detailError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

// Wrapf attaches a client-facing detail message to one of the sentinel errors.
func Wrapf(kind error, format string, args ...any) error {
	return &detailError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

type detailError struct {
	kind error
	msg  string
}

func (e *detailError) Error() string { return e.msg }

func (e *detailError) Unwrap() error { return e.kind }

// Detail returns the message attached with Wrapf/Validationf, or "" if none.
func Detail(err error) string {
	var de *detailError
	if errors.As(err, &de) {
		return de.msg
	}
	return ""
}
