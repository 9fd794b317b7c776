// Package errors provides the structured error codes used by mongosource.
//
// Error Code Format: AABBCCC (7 digits)
//
//	AA  (00-99): Service/Module code - identifies the source module
//	BB  (00-99): Category code - identifies the error category
//	CCC (000-999): Sequence number - specific error within the category
//
// Service Codes (AA):
//
//	00: Common/Base errors
//	10: Data source errors (descriptor, slot lookup, endpoints, commands)
//
// Category Codes (BB):
//
//	01: Request/Validation errors (400)
//	04: Resource not found errors (404)
//	07: Internal errors (500)
//	10: Network errors (502/503)
//	12: Configuration errors (500)
//
// Usage:
//
//	// Using predefined errors
//	return errors.ErrConfiguration.WithMessagef("source %q is not defined", name)
//
//	// Wrapping underlying errors
//	return errors.ErrCommandParse.WithCause(err)
//
// Driver errors are never converted to Errno; they reach the caller unchanged.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"google.golang.org/grpc/codes"
)

// Errno is a registered error code plus an optional cause.
// Values handed out by With* are copies; the registered value never changes.
type Errno struct {
	Code      int        `json:"code"`
	HTTP      int        `json:"-"`
	GRPCCode  codes.Code `json:"-"`
	MessageEN string     `json:"message"`
	MessageZH string     `json:"message_zh,omitempty"`

	cause error
}

func (e *Errno) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("errno %d: %s", e.Code, e.MessageEN)
	}
	return fmt.Sprintf("errno %d: %s: %v", e.Code, e.MessageEN, e.cause)
}

func (e *Errno) Unwrap() error {
	return e.cause
}

// Is matches any Errno with the same code, whatever its message or cause.
func (e *Errno) Is(target error) bool {
	t, ok := target.(*Errno)
	return ok && t.Code == e.Code
}

// Key is the decimal code, used to group errors in bench reports.
func (e *Errno) Key() string {
	return strconv.Itoa(e.Code)
}

// WithCause returns a copy wrapping cause.
func (e *Errno) WithCause(cause error) *Errno {
	c := *e
	c.cause = cause
	return &c
}

// WithMessage returns a copy with the English message replaced.
func (e *Errno) WithMessage(msg string) *Errno {
	c := *e
	c.MessageEN = msg
	return &c
}

// WithMessagef is WithMessage with fmt.Sprintf formatting.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Message returns the Chinese message for zh* languages when one is set.
func (e *Errno) Message(lang string) string {
	if strings.HasPrefix(strings.ToLower(lang), "zh") && e.MessageZH != "" {
		return e.MessageZH
	}
	return e.MessageEN
}

// HTTPStatus returns the HTTP status, 500 when unset.
func (e *Errno) HTTPStatus() int {
	if e.HTTP == 0 {
		return http.StatusInternalServerError
	}
	return e.HTTP
}

// GRPCStatus returns the gRPC code, Internal when unset.
func (e *Errno) GRPCStatus() codes.Code {
	if e.GRPCCode == codes.OK {
		return codes.Internal
	}
	return e.GRPCCode
}

type registry struct {
	mu    sync.RWMutex
	codes map[int]*Errno
}

var registered = &registry{codes: make(map[int]*Errno)}

func (r *registry) add(e *Errno) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.codes[e.Code]; ok {
		return fmt.Errorf("errno code %d already registered: %s", e.Code, prev.MessageEN)
	}
	r.codes[e.Code] = e
	return nil
}

// Register records e and returns it. It panics on a duplicate code, so
// conflicts surface at init time.
func Register(e *Errno) *Errno {
	if err := registered.add(e); err != nil {
		panic(err)
	}
	return e
}

// Lookup returns the Errno registered under code.
func Lookup(code int) (*Errno, bool) {
	registered.mu.RLock()
	defer registered.mu.RUnlock()
	e, ok := registered.codes[code]
	return e, ok
}

// FromError returns the first Errno in err's chain, or ErrInternal
// wrapping err when there is none.
func FromError(err error) *Errno {
	if err == nil {
		return nil
	}
	var e *Errno
	if stderrors.As(err, &e) {
		return e
	}
	return ErrInternal.WithCause(err)
}

// GetCode returns the code of the first Errno in err's chain, or -1.
func GetCode(err error) int {
	var e *Errno
	if stderrors.As(err, &e) {
		return e.Code
	}
	return -1
}

// IsCode reports whether err's chain carries an Errno with code.
func IsCode(err error, code int) bool {
	return GetCode(err) == code
}
