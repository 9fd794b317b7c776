package validator

import "fmt"

// FieldError is one failed rule on one field.
type FieldError struct {
	// Field is the namespace built from json tags, e.g. "Options.connection".
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
