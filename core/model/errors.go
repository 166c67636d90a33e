package model

import (
	"errors"
	"fmt"
)

// ErrMalformedInput is matched by every FieldError.
var ErrMalformedInput = errors.New("malformed input")

// FieldError reports a missing or invalid field of a battery log.
// Index is the sample position, or -1 when the field belongs to the vehicle.
// An empty Field refers to the vehicle or sample object as a whole.
type FieldError struct {
	Field  string
	Index  int
	Reason string
}

func (e *FieldError) Error() string {
	if e.Index < 0 && e.Field == "" {
		return fmt.Sprintf("%s: vehicle %s", ErrMalformedInput, e.Reason)
	}
	if e.Index < 0 {
		return fmt.Sprintf("%s: vehicle.%s %s", ErrMalformedInput, e.Field, e.Reason)
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: samples[%d] %s", ErrMalformedInput, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s: samples[%d].%s %s", ErrMalformedInput, e.Index, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedInput) succeed.
func (e *FieldError) Is(target error) bool { return target == ErrMalformedInput }

func profileError(field, reason string) error {
	return &FieldError{Field: field, Index: -1, Reason: reason}
}

func sampleError(index int, field, reason string) error {
	return &FieldError{Field: field, Index: index, Reason: reason}
}

// NewFieldError builds a FieldError for decoders that detect problems before
// the model is populated.
func NewFieldError(index int, field, reason string) error {
	return &FieldError{Field: field, Index: index, Reason: reason}
}
