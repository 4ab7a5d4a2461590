// Package codec provides raw blob and flexible array member (FAM)
// serialization for famblob.
//
// The codec package turns two kinds of in-memory data into bytes and back:
// fixed-size plain values ("blobs") and FAM structures, a fixed header
// followed by a variable number of same-typed entries. Register banks, MSR
// lists and CPUID tables are the typical FAM payloads.
//
// # Blob Format
//
// A blob is the byte image of a fixed-size value and nothing else:
//
//	[field 0][field 1]...[field n]
//
// Fields are written in declaration order, little-endian, with no implicit
// padding. Arrays are written element by element. Explicit padding fields
// (for example `Pad uint32`) are part of the image and travel verbatim.
// There is no length prefix and no version tag; Blob.Version is always 1.
//
// For example, struct{ A, B uint32 }{A: 1, B: 2} encodes to
//
//	01 00 00 00 02 00 00 00
//
// Types without a static size (slices, strings, pointers, int, uint) are
// rejected with versionize.ErrNotFixedSize. So are layouts whose bytes would
// not come back unchanged: bool (any non-zero byte decodes as 1), blank `_`
// fields (written as zeros, skipped on read) and unexported fields (cannot be
// set on decode). Declare padding as a named field such as `Pad uint32` and
// flags as uint8.
//
// # FAM Format
//
// A FamWrapper is serialized as its header blob followed by the entries as a
// length-prefixed sequence:
//
//	[Header(size_of(H))][Count(8, u64 LE)][Entry 0]...[Entry Count-1]
//
// # Count Authority
//
// The header of a FAM structure carries a count field (nmsrs, nent, ...).
// That field is never trusted on decode. DecodeFam builds the wrapper from the
// entries that were actually read and then copies every other header field
// from the decoded header, so a stale, zero or corrupted count in the header
// bytes is silently replaced by the real entry count.
//
// # Usage
//
//	type MsrsHeader struct{ NMsrs, Pad uint32 }
//
//	func (h MsrsHeader) FamLen() int                   { return int(h.NMsrs) }
//	func (h MsrsHeader) WithFamLen(n int) MsrsHeader { h.NMsrs = uint32(n); return h }
//	func (MsrsHeader) FamMaxLen() int                  { return 256 }
//
//	fam, err := codec.FromEntries[MsrsHeader]([]MsrEntry{{Index: 0x174}})
//	if err != nil {
//	    return err
//	}
//
//	var buf bytes.Buffer
//	if err := codec.EncodeFam(&buf, fam, vm, vm.LatestVersion()); err != nil {
//	    return err
//	}
//
//	decoded, err := codec.DecodeFam[MsrsHeader, MsrEntry](&buf, vm, vm.LatestVersion())
//
// # Error Handling
//
// Every failure is a *versionize.Error wrapping one of the versionize kinds:
//   - ErrTruncatedInput: fewer bytes available than required
//   - ErrIOFailure: the underlying reader or writer failed
//   - ErrEntryDecodeFailure: the entry sequence could not be decoded; the
//     cause (often ErrTruncatedInput) is still reachable with errors.Is
//
// Decoding is all-or-nothing: no partially built wrapper is ever returned.
//
// # Thread Safety
//
// The encode and decode functions are stateless and safe for concurrent use.
// A FamWrapper is a single-owner value and must not be mutated concurrently.
package codec
