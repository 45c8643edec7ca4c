package wallet

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure for callers. Gateway transport and
// node failures keep their own types (*gateway.NetworkError,
// *gateway.LedgerError) and pass through unwrapped.
type Kind int

const (
	// KindValidation: bad address/secret/mnemonic/argument. Caller's
	// fault; surfaced immediately, never retried.
	KindValidation Kind = iota + 1
	// KindAuthentication: wrong password or corrupt secret. No detail
	// beyond this is ever returned.
	KindAuthentication
	// KindConflict: duplicate account identifier.
	KindConflict
	// KindInsufficientFunds: balance below the requested amount.
	KindInsufficientFunds
	// KindNotFound: unknown account or transaction id.
	KindNotFound
	// KindInvalidState: operation not legal for the record's state,
	// e.g. cancelling a terminal transfer.
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindConflict:
		return "conflict"
	case KindInsufficientFunds:
		return "insufficient funds"
	case KindNotFound:
		return "not found"
	case KindInvalidState:
		return "invalid state"
	default:
		return "unknown"
	}
}

// Error is a typed service failure.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, format string, args ...interface{}) *Error {
	var wrapped error
	for _, a := range args {
		if err, ok := a.(error); ok {
			wrapped = err
		}
	}
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: wrapped}
}

// ErrorKind extracts the Kind from an error chain, or 0 if none.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return ErrorKind(err) == kind
}
