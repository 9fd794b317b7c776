package storage

import (
	"errors"
	"fmt"
)

// Slot errors. Compare with errors.Is; copies made by For and WithCause
// keep the code.
var (
	ErrNotConnected        = &StorageError{Code: "NOT_CONNECTED", Message: "storage client is not connected"}
	ErrInvalidConfig       = &StorageError{Code: "INVALID_CONFIG", Message: "invalid storage configuration"}
	ErrClientNotFound      = &StorageError{Code: "CLIENT_NOT_FOUND", Message: "storage client not found"}
	ErrClientAlreadyExists = &StorageError{Code: "CLIENT_ALREADY_EXISTS", Message: "storage client already exists"}
)

// StorageError is a slot store failure, optionally tied to a slot name.
type StorageError struct {
	Code    string
	Message string
	// Name is the slot the error is about, empty when none applies.
	Name  string
	Cause error
}

func (e *StorageError) Error() string {
	msg := e.Message
	if e.Name != "" {
		msg = fmt.Sprintf("%s: %q", msg, e.Name)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, msg, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

func (e *StorageError) Unwrap() error {
	return e.Cause
}

// Is matches on Code so copies compare equal to the sentinels.
func (e *StorageError) Is(target error) bool {
	t, ok := target.(*StorageError)
	return ok && e.Code == t.Code
}

// For returns a copy naming the slot.
func (e *StorageError) For(name string) *StorageError {
	c := *e
	c.Name = name
	return &c
}

// WithMessage returns a copy with msg as the message.
func (e *StorageError) WithMessage(msg string) *StorageError {
	c := *e
	c.Message = msg
	return &c
}

// WithCause returns a copy wrapping cause.
func (e *StorageError) WithCause(cause error) *StorageError {
	c := *e
	c.Cause = cause
	return &c
}

// GetStorageError extracts a StorageError from an error chain.
func GetStorageError(err error) (*StorageError, bool) {
	var se *StorageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
