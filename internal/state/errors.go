package state

import (
	"errors"
	"fmt"
)

// ErrorKind classifies panel errors by how the caller should react.
type ErrorKind int

const (
	KindFetch         ErrorKind = iota + 1 // list/refresh failed; fatal to the poller
	KindMutation                           // create/update/delete call failed
	KindMissingWallet                      // no resolvable wallet; nothing was sent
	KindNotFound                           // unknown resource id
	KindExportDenied                       // the export target refused the file
	KindConsistency                        // local collection disagrees with the server
)

func (k ErrorKind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindMutation:
		return "mutation"
	case KindMissingWallet:
		return "missing wallet"
	case KindNotFound:
		return "not found"
	case KindExportDenied:
		return "export denied"
	case KindConsistency:
		return "consistency"
	default:
		return "unknown"
	}
}

// Error is the error type returned by the store and the panel controllers.
type Error struct {
	Kind ErrorKind
	Op   string // operation, e.g. "refresh", "update"
	ID   string // resource id when one is involved
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.ID != "" {
		msg = fmt.Sprintf("%s %s", msg, e.ID)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", msg, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind, so the Err* sentinels can be
// used with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.ID == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrFetch         = &Error{Kind: KindFetch}
	ErrMutation      = &Error{Kind: KindMutation}
	ErrMissingWallet = &Error{Kind: KindMissingWallet}
	ErrNotFound      = &Error{Kind: KindNotFound}
	ErrExportDenied  = &Error{Kind: KindExportDenied}
	ErrConsistency   = &Error{Kind: KindConsistency}
)

// KindOf returns the kind of the first *Error in err's chain, or zero.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// NewError builds an *Error. Packages outside state use it for the kinds they
// own (mutation, missing wallet, export denied).
func NewError(kind ErrorKind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}
