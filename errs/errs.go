// Package errs defines the error kinds shared by every sketch package.
//
// The shape follows github.com/grailbio/base/errors' E(err, args...)
// wrapping idiom, but with a closed Kind enum specific to this module
// rather than a dependency on that package's own (larger, unconfirmed)
// Kind surface.
package errs

import (
	"fmt"
	"strings"
)

// Kind classifies an Error so callers can branch on failure category
// without string-matching messages.
type Kind int

const (
	// Other is the zero Kind: an error that does not fit a specific
	// category below.
	Other Kind = iota
	// InvalidInput marks a malformed sequence, empty input, or a k-mer
	// size too small for the data.
	InvalidInput
	// IncompatibleSketch marks mismatched k, seed, moltype, or
	// scaled-vs-num mode between two sketch operands.
	IncompatibleSketch
	// CorruptSignature marks an md5 mismatch, JSON schema violation, or
	// truncated hash list in a signature file.
	CorruptSignature
	// CorruptIndex marks a manifest referencing a missing node, an
	// unsupported version, or an empty tree.
	CorruptIndex
	// StorageFailure marks an underlying I/O or network error, or a
	// path not found in a storage backend.
	StorageFailure
	// AmbiguousSelection marks a caller-required disambiguation between
	// multiple ksizes/moltypes.
	AmbiguousSelection
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case IncompatibleSketch:
		return "incompatible sketch"
	case CorruptSignature:
		return "corrupt signature"
	case CorruptIndex:
		return "corrupt index"
	case StorageFailure:
		return "storage failure"
	case AmbiguousSelection:
		return "ambiguous selection"
	default:
		return "error"
	}
}

// Error is a Kind-tagged error that may wrap an underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap allows errors.Is/errors.As to see through an *Error.
func (e *Error) Unwrap() error { return e.Err }

// E builds an *Error of the given Kind. Remaining args are formatted
// printf-style into the message unless the last arg is an error, in
// which case it becomes the wrapped cause and the rest format the
// message; e.g.:
//
//	errs.E(errs.InvalidInput, "ksize %d too small", k)
//	errs.E(errs.StorageFailure, "loading %s", path, err)
func E(kind Kind, args ...interface{}) *Error {
	e := &Error{Kind: kind}
	if len(args) == 0 {
		return e
	}
	last := args[len(args)-1]
	if err, ok := last.(error); ok {
		e.Err = err
		args = args[:len(args)-1]
	}
	if len(args) > 0 {
		if format, ok := args[0].(string); ok {
			e.Message = fmt.Sprintf(format, args[1:]...)
		}
	}
	return e
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			if e.Kind == kind {
				return true
			}
			err = e.Err
			continue
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else Other.
func KindOf(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return Other
		}
		err = u.Unwrap()
	}
	return Other
}
