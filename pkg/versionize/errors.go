package versionize

import (
	"errors"
	"fmt"
	"io"
)

// Error kinds. Every error returned by this module wraps exactly one of these,
// so callers can branch with errors.Is.
var (
	ErrTruncatedInput     = errors.New("truncated input")
	ErrIOFailure          = errors.New("io failure")
	ErrEntryDecodeFailure = errors.New("entry decode failure")
	ErrSequenceTooLarge   = errors.New("sequence exceeds size limit")
	ErrNotFixedSize       = errors.New("type has no fixed size")
	ErrInvalidVersion     = errors.New("invalid version")
)

// Error describes a failed (de)serialization step.
type Error struct {
	Op   string // "serialize", "deserialize", ...
	Type string // Go type being processed
	Kind error  // one of the Err* kinds above
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("versionize: %s %s: %v", e.Op, e.Type, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the kind and the cause.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewError builds an *Error for the given operation and type name.
func NewError(op, typ string, kind, err error) *Error {
	return &Error{Op: op, Type: typ, Kind: kind, Err: err}
}

// ReadFull fills buf from r. A short read is reported as ErrTruncatedInput,
// any other failure as ErrIOFailure.
func ReadFull(r io.Reader, buf []byte, op, typ string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return NewError(op, typ, ErrTruncatedInput, fmt.Errorf("need %d bytes: %w", len(buf), err))
		}
		return NewError(op, typ, ErrIOFailure, err)
	}
	return nil
}

// ReadRest is ReadFull for bytes that continue a value whose first part was
// already read. Running out of input here is never a clean end, so io.EOF is
// reported as io.ErrUnexpectedEOF.
func ReadRest(r io.Reader, buf []byte, op, typ string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return NewError(op, typ, ErrTruncatedInput, fmt.Errorf("need %d bytes: %w", len(buf), io.ErrUnexpectedEOF))
		}
		return NewError(op, typ, ErrIOFailure, err)
	}
	return nil
}

// WriteAll writes buf to w, treating a short write as ErrIOFailure.
func WriteAll(w io.Writer, buf []byte, op, typ string) error {
	n, err := w.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return NewError(op, typ, ErrIOFailure, err)
	}
	return nil
}
