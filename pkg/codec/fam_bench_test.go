//go:build bench
// +build bench

package codec

import (
	"bytes"
	"testing"
)

func benchEntries(n int) []register {
	out := make([]register, n)
	for i := range out {
		out[i] = register{Index: uint32(i), Value: uint32(i) * 3}
	}
	return out
}

func BenchmarkBlob_Encode(b *testing.B) {
	v := bankHeader{Count: 1, Flags: 2, Base: 3}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeBlob(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkBlob_Decode(b *testing.B) {
	encoded, err := EncodeBlob(bankHeader{Count: 1, Flags: 2, Base: 3})
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeBlob[bankHeader](encoded); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFam_Encode(b *testing.B) {
	benchmarks := []struct {
		name    string
		entries int
	}{
		{name: "small", entries: 4},
		{name: "medium", entries: 256},
		{name: "large", entries: 4096},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			fam, err := FromEntries[bankHeader](benchEntries(bm.entries))
			if err != nil {
				b.Fatal(err)
			}
			var buf bytes.Buffer

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Reset()
				if err := EncodeFam(&buf, fam, nil, 1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFam_Decode(b *testing.B) {
	benchmarks := []struct {
		name    string
		entries int
	}{
		{name: "small", entries: 4},
		{name: "medium", entries: 256},
		{name: "large", entries: 4096},
	}

	for _, bm := range benchmarks {
		b.Run(bm.name, func(b *testing.B) {
			fam, err := FromEntries[bankHeader](benchEntries(bm.entries))
			if err != nil {
				b.Fatal(err)
			}
			var buf bytes.Buffer
			if err := EncodeFam(&buf, fam, nil, 1); err != nil {
				b.Fatal(err)
			}
			encoded := buf.Bytes()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := DecodeFam[bankHeader, register](bytes.NewReader(encoded), nil, 1); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
