package param

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSize     = errors.New("param: invalid size")
	ErrInvalidValue    = errors.New("param: invalid value")
	ErrTrailingData    = errors.New("param: trailing data")
	ErrSizeMismatch    = errors.New("param: size does not match written bytes")
	ErrSequenceTooLong = errors.New("param: sequence longer than 255 elements")
)

// FieldError reports which member of a group failed to decode.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("param: field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// fieldError prefixes nested field errors so the path reads outer.inner.
func fieldError(name string, err error) error {
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{Field: name + "." + fe.Field, Err: fe.Err}
	}
	return &FieldError{Field: name, Err: err}
}
