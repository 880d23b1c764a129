package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a unique constraint was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrUnauthenticated is returned when an operation needs a signed-in shopper.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidLineItem is the sentinel wrapped by every InvalidLineItemError.
	ErrInvalidLineItem = errors.New("invalid line item")
)

// InvalidLineItemError reports which field of a line item was rejected.
type InvalidLineItemError struct {
	Field  string
	Reason string
}

func (e *InvalidLineItemError) Error() string {
	return fmt.Sprintf("invalid line item: %s %s", e.Field, e.Reason)
}

func (e *InvalidLineItemError) Unwrap() error {
	return ErrInvalidLineItem
}
