package versionize

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// DefaultMaxSequenceBytes caps the decoded size of a single sequence.
const DefaultMaxSequenceBytes = 10 * 1024 * 1024

const sequenceLenSize = 8

type sequenceOptions struct {
	maxBytes uint64
}

// SequenceOption tunes ReadSequence.
type SequenceOption func(*sequenceOptions)

// WithMaxSequenceBytes overrides DefaultMaxSequenceBytes. Values <= 0 keep the default.
func WithMaxSequenceBytes(n int) SequenceOption {
	return func(o *sequenceOptions) {
		if n > 0 {
			o.maxBytes = uint64(n)
		}
	}
}

// WriteSequence writes len(items) as a little-endian u64 followed by each
// element's own serialization.
func WriteSequence[T Serializer](w io.Writer, items []T, vm *VersionMap, targetVersion uint16) error {
	typ := TypeOf[[]T]().String()

	var lenBuf [sequenceLenSize]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(items)))
	if err := WriteAll(w, lenBuf[:], "serialize", typ); err != nil {
		return err
	}
	for i := range items {
		if err := items[i].Serialize(w, vm, targetVersion); err != nil {
			return fmt.Errorf("element %d of %d: %w", i, len(items), err)
		}
	}
	return nil
}

// ReadSequence reads a sequence written by WriteSequence. The declared count
// is checked against the byte limit before anything is allocated, and no
// partial slice is returned on failure.
func ReadSequence[T any, P DeserializerPtr[T]](r io.Reader, vm *VersionMap, sourceVersion uint16, opts ...SequenceOption) ([]T, error) {
	o := sequenceOptions{maxBytes: DefaultMaxSequenceBytes}
	for _, opt := range opts {
		opt(&o)
	}
	typ := TypeOf[[]T]().String()

	var lenBuf [sequenceLenSize]byte
	if err := ReadFull(r, lenBuf[:], "deserialize", typ); err != nil {
		return nil, err
	}
	n := binary.LittleEndian.Uint64(lenBuf[:])

	elem := uint64(elementSize[T]())
	if n > o.maxBytes/elem || n > math.MaxInt32 {
		return nil, NewError("deserialize", typ, ErrSequenceTooLarge,
			fmt.Errorf("%d elements of %d bytes exceeds %d bytes", n, elem, o.maxBytes))
	}

	items := make([]T, n)
	for i := range items {
		if err := P(&items[i]).Deserialize(r, vm, sourceVersion); err != nil {
			return nil, fmt.Errorf("element %d of %d: %w", i, n, err)
		}
	}
	return items, nil
}

// elementSize is the encoded size of a fixed-size T, or 1 when T has no
// fixed size (the limit then bounds the element count).
func elementSize[T any]() int {
	var zero T
	if n := binary.Size(zero); n > 0 {
		return n
	}
	return 1
}
