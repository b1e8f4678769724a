package billing

import "errors"

var (
	// ErrNotFound is returned when a user has no stored document or a
	// mutation targets an id that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks malformed invoices, line items or documents.
	ErrInvalidInput = errors.New("invalid input")
)
