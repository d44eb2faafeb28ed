package apperror

import (
	"errors"
	"fmt"
)

// Error kinds. Callers match on these with errors.Is; the HTTP layer maps
// each one to a status code.
var (
	// ErrAuth means no valid credential could be obtained. Re-run authorization.
	ErrAuth = errors.New("authentication required")
	// ErrUpload means the provider rejected or failed the document create call.
	ErrUpload = errors.New("document upload failed")
	// ErrNotFound means the document identifier does not resolve.
	ErrNotFound = errors.New("document not found")
	// ErrExport means the export request or one of its chunks failed.
	ErrExport = errors.New("document export failed")
	// ErrConfig means a required path or setting is missing or invalid.
	ErrConfig = errors.New("invalid configuration")
)

// Error carries the operation that failed, its kind and the underlying cause.
type Error struct {
	Op   string
	Kind error
	Err  error
}

// New wraps err with an operation name and kind.
func New(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause, so errors.Is works on the kind
// and errors.As still reaches provider errors underneath.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf returns the first known kind found in err's chain, or nil.
func KindOf(err error) error {
	for _, k := range []error{ErrAuth, ErrNotFound, ErrUpload, ErrExport, ErrConfig} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
