package models

import "fmt"

// ErrorKind classifies a local validation failure.
type ErrorKind string

const (
	KindMissingField ErrorKind = "missing_field"
	KindInvalidType  ErrorKind = "invalid_type"
)

// FieldError is returned when an input cannot be turned into a record.
// It is always a client error and never the result of a store call.
type FieldError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Is matches on Kind, and on Field when the target names one, so that
// errors.Is(err, ErrMissingField) works for any field.
func (e *FieldError) Is(target error) bool {
	t, ok := target.(*FieldError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// Sentinel errors.
var (
	ErrMissingField = &FieldError{Kind: KindMissingField, Message: "required field is missing"}
	ErrInvalidType  = &FieldError{Kind: KindInvalidType, Message: "value has an invalid type"}
)

func missingField(field string) error {
	return &FieldError{
		Kind:    KindMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s is required", field),
	}
}

func invalidType(field, message string) error {
	return &FieldError{
		Kind:    KindInvalidType,
		Field:   field,
		Message: message,
	}
}
