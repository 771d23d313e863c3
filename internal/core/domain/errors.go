package domain

import (
	"errors"
	"fmt"
)

var (
	ErrCatalogLoad     = errors.New("catalog load failed")
	ErrProductNotFound = errors.New("product not found")
	ErrCartPersistence = errors.New("cart persistence failed")
	ErrValidation      = errors.New("validation failed")
	ErrPayment         = errors.New("payment failed")
	ErrNotFound        = errors.New("not found")
)

// A CatalogLoadError aborts a whole catalog load.
type CatalogLoadError struct {
	Source Source
	Err    error
}

func (e *CatalogLoadError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("%s: %v", ErrCatalogLoad, e.Err)
	}
	return fmt.Sprintf("%s: source %s: %v", ErrCatalogLoad, e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() []error {
	return []error{ErrCatalogLoad, e.Err}
}

type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("%s: %q", ErrProductNotFound, e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrProductNotFound
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// A PaymentError carries the processor's message back to the caller.
type PaymentError struct {
	Code    string
	Message string
}

func (e *PaymentError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("%s: %s", ErrPayment, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrPayment, e.Code, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return ErrPayment
}
