//go:build fuzz
// +build fuzz

package codec

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// FuzzFam_RoundTrip tests encode/decode round-trip with random entries
func FuzzFam_RoundTrip(f *testing.F) {
	// Add seed corpus
	f.Add([]byte{}, uint32(0), uint64(0))
	f.Add([]byte{1, 0, 0, 0, 2, 0, 0, 0}, uint32(7), uint64(0x1000))
	f.Add(bytes.Repeat([]byte{0xff}, 64), uint32(0xffffffff), uint64(1<<63))

	f.Fuzz(func(t *testing.T, raw []byte, flags uint32, base uint64) {
		if len(raw) > 8*4096 {
			t.Skip("Input too large for fuzz test")
		}

		entries := make([]register, len(raw)/8)
		for i := range entries {
			entries[i] = register{
				Index: binary.LittleEndian.Uint32(raw[i*8:]),
				Value: binary.LittleEndian.Uint32(raw[i*8+4:]),
			}
		}

		fam, err := FromEntries[bankHeader](entries)
		if err != nil {
			t.Fatalf("FromEntries failed: %v", err)
		}
		fam.SetHeader(bankHeader{Flags: flags, Base: base})

		var buf bytes.Buffer
		if err := EncodeFam(&buf, fam, nil, 1); err != nil {
			t.Fatalf("EncodeFam failed: %v", err)
		}

		decoded, err := DecodeFam[bankHeader, register](&buf, nil, 1)
		if err != nil {
			t.Fatalf("DecodeFam failed: %v", err)
		}

		if decoded.Len() != len(entries) {
			t.Errorf("Len mismatch: got %d, want %d", decoded.Len(), len(entries))
		}
		if h := decoded.Header(); h.Flags != flags || h.Base != base || h.Count != uint32(len(entries)) {
			t.Errorf("Header mismatch: got %+v", h)
		}
	})
}

// FuzzFam_MalformedData tests that arbitrary input never panics and never
// yields a wrapper whose count disagrees with its entries
func FuzzFam_MalformedData(f *testing.F) {
	// Add seed corpus of malformed data
	f.Add([]byte{})
	f.Add([]byte{0x01})
	f.Add(make([]byte, 15)) // One byte short of header
	f.Add(make([]byte, 16)) // Header only
	f.Add(make([]byte, 24)) // Header and empty sequence

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 100000 {
			t.Skip("Input too large for fuzz test")
		}

		decoded, err := DecodeFam[bankHeader, register](bytes.NewReader(data), nil, 1)
		if err != nil {
			if decoded != nil {
				t.Fatalf("Decode returned a wrapper alongside error %v", err)
			}
			return
		}

		if int(decoded.Header().Count) != decoded.Len() {
			t.Errorf("Count %d disagrees with %d entries", decoded.Header().Count, decoded.Len())
		}
	})
}

// FuzzBlob_RoundTrip is a property test: any 8 bytes decode to a pair that
// re-encodes to the same 8 bytes
func FuzzBlob_RoundTrip(f *testing.F) {
	f.Add([]byte{1, 0, 0, 0, 2, 0, 0, 0})
	f.Add(make([]byte, 8))

	f.Fuzz(func(t *testing.T, data []byte) {
		v, err := DecodeBlob[pair](data)
		if len(data) < 8 {
			if err == nil {
				t.Fatalf("Expected truncation error for %d bytes", len(data))
			}
			return
		}
		if err != nil {
			t.Fatalf("DecodeBlob failed: %v", err)
		}

		encoded, err := EncodeBlob(v)
		if err != nil {
			t.Fatalf("EncodeBlob failed: %v", err)
		}
		if !bytes.Equal(encoded, data[:8]) {
			t.Errorf("Image mismatch: got %x, want %x", encoded, data[:8])
		}
	})
}
