package errors

import "fmt"

// DriverError is the interface every error gofat returns satisfies. It
// behaves like a normal error but lets callers chain on additional context
// without losing the ability to compare against the original sentinel via
// errors.Is.
type DriverError interface {
	error
	WithMessage(message string) DriverError
	WrapError(err error) DriverError
	Unwrap() error
}

////////////////////////////////////////////////////////////////////////////

type customDriverError struct {
	message       string
	kind          error // the GoFatError this error started from, if any
	originalError error
}

// Error implements the error interface.
func (e customDriverError) Error() string {
	return e.message
}

// WithMessage appends additional context to the error's message, keeping the
// original error as the wrapped cause for errors.Is/errors.As.
func (e customDriverError) WithMessage(message string) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.message, message),
		kind:          e.kind,
		originalError: e,
	}
}

// WrapError wraps err as the new cause, keeping e's message as a prefix.
func (e customDriverError) WrapError(err error) DriverError {
	return customDriverError{
		message:       fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		kind:          e.kind,
		originalError: err,
	}
}

// Unwrap returns the wrapped cause, so errors.Is(err, ErrSomeKind) keeps
// working after any number of WithMessage/WrapError calls.
func (e customDriverError) Unwrap() error {
	return e.originalError
}

// Is matches the sentinel kind directly, so wrapping an unrelated cause via
// WrapError doesn't hide which kind of failure this is from errors.Is.
func (e customDriverError) Is(target error) bool {
	return e.kind != nil && e.kind == target
}
