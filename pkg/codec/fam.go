package codec

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/ssargent/famblob/pkg/versionize"
)

// ErrSizeLimitExceeded is returned when a wrapper would hold more entries than
// its header type allows.
var ErrSizeLimitExceeded = errors.New("fam entry count exceeds limit")

// FamStruct is implemented by FAM header types. H is the header type itself,
// so WithFamLen can return an updated copy.
type FamStruct[H any] interface {
	// FamLen is the entry count recorded in the header.
	FamLen() int
	// WithFamLen returns a copy of the header with only the count changed.
	WithFamLen(n int) H
	// FamMaxLen is the maximum number of entries, 0 for no limit other than
	// what the count field can hold.
	FamMaxLen() int
}

// FamWrapper owns a header and its trailing entries. The header's count always
// equals the number of entries held.
type FamWrapper[H FamStruct[H], E any] struct {
	header  H
	entries []E
}

// NewFamWrapper returns an empty wrapper.
func NewFamWrapper[H FamStruct[H], E any]() *FamWrapper[H, E] {
	var h H
	return &FamWrapper[H, E]{header: h.WithFamLen(0), entries: []E{}}
}

// FromEntries builds a wrapper holding a copy of entries. The header count is
// derived from len(entries); all other header fields are zero.
func FromEntries[H FamStruct[H], E any](entries []E) (*FamWrapper[H, E], error) {
	owned := make([]E, len(entries))
	copy(owned, entries)
	return fromOwnedEntries[H](owned)
}

func fromOwnedEntries[H FamStruct[H], E any](entries []E) (*FamWrapper[H, E], error) {
	var h H
	if err := checkLimit(h, len(entries)); err != nil {
		return nil, err
	}
	return &FamWrapper[H, E]{header: h.WithFamLen(len(entries)), entries: entries}, nil
}

// checkLimit enforces FamMaxLen and the width of the header's count field:
// a count that WithFamLen cannot store exactly is rejected rather than
// truncated.
func checkLimit[H FamStruct[H]](h H, n int) error {
	if limit := h.FamMaxLen(); limit > 0 && n > limit {
		return versionize.NewError("construct", typeName[H](), ErrSizeLimitExceeded,
			fmt.Errorf("%d entries, limit %d", n, limit))
	}
	if stored := h.WithFamLen(n).FamLen(); stored != n {
		return versionize.NewError("construct", typeName[H](), ErrSizeLimitExceeded,
			fmt.Errorf("%d entries overflow the header count field (stored as %d)", n, stored))
	}
	return nil
}

// Len returns the number of entries.
func (w *FamWrapper[H, E]) Len() int {
	return len(w.entries)
}

// Header returns a copy of the header.
func (w *FamWrapper[H, E]) Header() H {
	return w.header
}

// SetHeader copies every field of h except the count into the wrapper.
func (w *FamWrapper[H, E]) SetHeader(h H) {
	w.header = h.WithFamLen(len(w.entries))
}

// Entries returns a copy of the entries.
func (w *FamWrapper[H, E]) Entries() []E {
	out := make([]E, len(w.entries))
	copy(out, w.entries)
	return out
}

// Entry returns the i-th entry.
func (w *FamWrapper[H, E]) Entry(i int) (E, bool) {
	if i < 0 || i >= len(w.entries) {
		var zero E
		return zero, false
	}
	return w.entries[i], true
}

// Push appends e, keeping the header count in step.
func (w *FamWrapper[H, E]) Push(e E) error {
	if err := checkLimit(w.header, len(w.entries)+1); err != nil {
		return err
	}
	w.entries = append(w.entries, e)
	w.header = w.header.WithFamLen(len(w.entries))
	return nil
}

// Pop removes and returns the last entry.
func (w *FamWrapper[H, E]) Pop() (E, bool) {
	var zero E
	if len(w.entries) == 0 {
		return zero, false
	}
	last := w.entries[len(w.entries)-1]
	w.entries[len(w.entries)-1] = zero
	w.entries = w.entries[:len(w.entries)-1]
	w.header = w.header.WithFamLen(len(w.entries))
	return last, true
}

// Clone returns a deep copy.
func (w *FamWrapper[H, E]) Clone() *FamWrapper[H, E] {
	return &FamWrapper[H, E]{header: w.header, entries: w.Entries()}
}

// FamBlob serializes a FamWrapper as its header image followed by a
// length-prefixed sequence of entry images.
type FamBlob[H FamStruct[H], E any] struct {
	Wrapper *FamWrapper[H, E]
}

// Serialize implements versionize.Serializer. A nil wrapper is written as an
// empty one.
func (b FamBlob[H, E]) Serialize(w io.Writer, vm *versionize.VersionMap, targetVersion uint16) error {
	return EncodeFam(w, b.Wrapper, vm, targetVersion)
}

// Deserialize implements versionize.Deserializer. b is only replaced on success.
func (b *FamBlob[H, E]) Deserialize(r io.Reader, vm *versionize.VersionMap, sourceVersion uint16) error {
	fam, err := DecodeFam[H, E](r, vm, sourceVersion)
	if err != nil {
		return err
	}
	b.Wrapper = fam
	return nil
}

// Version is always 1.
func (FamBlob[H, E]) Version() uint16 {
	return 1
}

// EncodeFam writes the header image, ignoring vm and targetVersion, then the
// entries as a sequence of blobs using vm and targetVersion.
func EncodeFam[H FamStruct[H], E any](w io.Writer, fam *FamWrapper[H, E], vm *versionize.VersionMap, targetVersion uint16) error {
	if fam == nil {
		fam = NewFamWrapper[H, E]()
	}
	if err := WriteBlob(w, fam.header); err != nil {
		return err
	}
	entries := make([]Blob[E], len(fam.entries))
	for i, e := range fam.entries {
		entries[i] = Blob[E]{Value: e}
	}
	return versionize.WriteSequence(w, entries, vm, targetVersion)
}

// DecodeFam reads a wrapper written by EncodeFam. The count embedded in the
// header bytes is discarded: the result's count is the number of entries read.
// On failure no wrapper is returned.
func DecodeFam[H FamStruct[H], E any](r io.Reader, vm *versionize.VersionMap, sourceVersion uint16, opts ...versionize.SequenceOption) (*FamWrapper[H, E], error) {
	header, err := ReadBlob[H](r)
	if err != nil {
		return nil, err
	}

	blobs, err := versionize.ReadSequence[Blob[E]](r, vm, sourceVersion, opts...)
	if err != nil {
		return nil, versionize.NewError("deserialize", typeName[FamWrapper[H, E]](),
			versionize.ErrEntryDecodeFailure, err)
	}
	entries := make([]E, len(blobs))
	for i := range blobs {
		entries[i] = blobs[i].Value
	}

	fam, err := fromOwnedEntries[H](entries)
	if err != nil {
		return nil, err
	}
	if raw := header.FamLen(); raw != len(entries) {
		log.Debug().
			Str("type", typeName[H]()).
			Int("header_len", raw).
			Int("entries", len(entries)).
			Msg("fam header count overridden")
	}
	fam.SetHeader(header)
	return fam, nil
}
