// Package apperror classifies domain failures so the delivery layer can map
// them to transport status codes without knowing every concrete error.
package apperror

import "errors"

// Error kinds.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrGateway      = errors.New("payment gateway failed")
)

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// New returns a sentinel error that matches itself and kind under errors.Is.
func New(kind error, msg string) error {
	return &kindError{kind: kind, msg: msg}
}

// Kind reports which of the known kinds err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrValidation, ErrNotFound, ErrConflict, ErrUnauthorized, ErrGateway} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
