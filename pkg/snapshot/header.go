package snapshot

import (
	"encoding/binary"
	"errors"
	"hash/crc32"

	"github.com/ssargent/famblob/pkg/codec"
)

// HeaderSize is the encoded size of Header.
const HeaderSize = 28

// Magic identifies a snapshot frame.
var Magic = [4]byte{'F', 'A', 'M', 'S'}

// Header flags.
const (
	// FlagLZ4 marks an LZ4 block compressed payload.
	FlagLZ4 uint16 = 1 << 0
)

var (
	ErrBadMagic           = errors.New("snapshot: bad magic")
	ErrChecksumMismatch   = errors.New("snapshot: checksum mismatch")
	ErrPayloadTooLarge    = errors.New("snapshot: payload too large")
	ErrUnsupportedVersion = errors.New("snapshot: unsupported app version")
	ErrCompression        = errors.New("snapshot: compression failure")
)

// Header precedes every snapshot payload.
// Format: [CRC32(4)][Magic(4)][AppVersion(2)][Flags(2)][PayloadSize(4)][RawSize(4)][Timestamp(8)]
type Header struct {
	CRC32       uint32  // IEEE checksum of the rest of the header and the payload
	Magic       [4]byte // Always "FAMS"
	AppVersion  uint16  // Application version the payload was written at
	Flags       uint16
	PayloadSize uint32 // Stored payload size
	RawSize     uint32 // Payload size after decompression
	Timestamp   uint64 // Unix timestamp in nanoseconds
}

// Compressed reports whether the payload is LZ4 compressed.
func (h Header) Compressed() bool {
	return h.Flags&FlagLZ4 != 0
}

// FrameSize returns the number of bytes the whole frame occupies.
func (h Header) FrameSize() int64 {
	return HeaderSize + int64(h.PayloadSize)
}

func (h Header) encode() ([]byte, error) {
	return codec.EncodeBlob(h)
}

// checksum computes the CRC32 of an encoded header (excluding the CRC field
// itself) followed by the stored payload.
func checksum(header, payload []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write(header[4:HeaderSize])
	crc.Write(payload)
	return crc.Sum32()
}

// seal computes the CRC over header and payload and stores it in the first
// four header bytes.
func seal(header, payload []byte) {
	binary.LittleEndian.PutUint32(header[0:4], checksum(header, payload))
}
