package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/pierrec/lz4"
	"github.com/rs/zerolog/log"

	"github.com/ssargent/famblob/pkg/codec"
	"github.com/ssargent/famblob/pkg/versionize"
)

// DefaultMaxPayloadBytes bounds the raw payload of a single snapshot.
const DefaultMaxPayloadBytes = 16 * 1024 * 1024

// Frame is a decoded snapshot: its header and the uncompressed payload.
type Frame struct {
	Header  Header
	Payload []byte
}

// Decode deserializes the payload into obj using the frame's app version.
func (f *Frame) Decode(obj versionize.Deserializer, vm *versionize.VersionMap) error {
	if f.Header.AppVersion == 0 || f.Header.AppVersion > vm.LatestVersion() {
		return fmt.Errorf("%w: %d (latest %d)", ErrUnsupportedVersion, f.Header.AppVersion, vm.LatestVersion())
	}
	return obj.Deserialize(bytes.NewReader(f.Payload), vm, f.Header.AppVersion)
}

// Codec frames serialized objects as snapshots.
type Codec struct {
	Compress        bool // LZ4 compress payloads when it saves space
	MaxPayloadBytes int  // 0 selects DefaultMaxPayloadBytes
}

// NewCodec creates a codec with default limits.
func NewCodec(compress bool) *Codec {
	return &Codec{Compress: compress, MaxPayloadBytes: DefaultMaxPayloadBytes}
}

func (c *Codec) maxPayload() int {
	if c == nil || c.MaxPayloadBytes <= 0 {
		return DefaultMaxPayloadBytes
	}
	return c.MaxPayloadBytes
}

// Encode serializes obj at appVersion and returns the complete frame.
func (c *Codec) Encode(obj versionize.Serializer, vm *versionize.VersionMap, appVersion uint16) ([]byte, error) {
	if appVersion == 0 || appVersion > vm.LatestVersion() {
		return nil, fmt.Errorf("%w: %d (latest %d)", ErrUnsupportedVersion, appVersion, vm.LatestVersion())
	}

	var raw bytes.Buffer
	if err := obj.Serialize(&raw, vm, appVersion); err != nil {
		return nil, err
	}
	if raw.Len() > c.maxPayload() {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, raw.Len(), c.maxPayload())
	}

	h := Header{
		Magic:      Magic,
		AppVersion: appVersion,
		RawSize:    uint32(raw.Len()),
		Timestamp:  uint64(time.Now().UnixNano()),
	}
	payload := raw.Bytes()
	if c != nil && c.Compress {
		compressed, err := compress(payload)
		if err != nil {
			return nil, err
		}
		if compressed != nil {
			payload = compressed
			h.Flags |= FlagLZ4
		}
	}
	h.PayloadSize = uint32(len(payload))

	header, err := h.encode()
	if err != nil {
		return nil, err
	}
	seal(header, payload)

	frame := make([]byte, 0, HeaderSize+len(payload))
	frame = append(frame, header...)
	return append(frame, payload...), nil
}

// WriteFrame encodes obj and writes the frame to w, returning the number of
// bytes written.
func (c *Codec) WriteFrame(w io.Writer, obj versionize.Serializer, vm *versionize.VersionMap, appVersion uint16) (int, error) {
	frame, err := c.Encode(obj, vm, appVersion)
	if err != nil {
		return 0, err
	}
	if err := versionize.WriteAll(w, frame, "write_frame", "snapshot.Frame"); err != nil {
		return 0, err
	}
	return len(frame), nil
}

// ReadFrame reads and verifies one frame from r. A reader positioned at the
// end of its input returns an error matching both io.EOF and
// versionize.ErrTruncatedInput. Input that ends anywhere after the first
// header byte, including right after a complete header, never matches io.EOF.
func (c *Codec) ReadFrame(r io.Reader) (*Frame, error) {
	header := make([]byte, HeaderSize)
	if err := versionize.ReadFull(r, header, "read_frame", "snapshot.Header"); err != nil {
		return nil, err
	}
	h, err := codec.DecodeBlob[Header](header)
	if err != nil {
		return nil, err
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: %q", ErrBadMagic, h.Magic[:])
	}
	if int64(h.RawSize) > int64(c.maxPayload()) || int64(h.PayloadSize) > int64(lz4.CompressBlockBound(c.maxPayload())) {
		return nil, fmt.Errorf("%w: %d stored, %d raw bytes", ErrPayloadTooLarge, h.PayloadSize, h.RawSize)
	}

	payload := make([]byte, h.PayloadSize)
	if err := versionize.ReadRest(r, payload, "read_frame", "snapshot.Payload"); err != nil {
		return nil, err
	}
	if sum := checksum(header, payload); sum != h.CRC32 {
		return nil, fmt.Errorf("%w: %08x != %08x", ErrChecksumMismatch, h.CRC32, sum)
	}

	if h.Compressed() {
		payload, err = decompress(payload, int(h.RawSize))
		if err != nil {
			return nil, err
		}
	} else if h.RawSize != h.PayloadSize {
		return nil, fmt.Errorf("%w: raw size %d != payload size %d", ErrChecksumMismatch, h.RawSize, h.PayloadSize)
	}

	return &Frame{Header: h, Payload: payload}, nil
}

// Decode verifies a complete frame and deserializes its payload into obj.
func (c *Codec) Decode(data []byte, obj versionize.Deserializer, vm *versionize.VersionMap) (Header, error) {
	frame, err := c.ReadFrame(bytes.NewReader(data))
	if err != nil {
		return Header{}, err
	}
	if err := frame.Decode(obj, vm); err != nil {
		return Header{}, err
	}
	return frame.Header, nil
}

// compress returns the LZ4 block for data, or nil when compression would not
// make the payload smaller.
func compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	n, err := lz4.CompressBlock(data, dst, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if n == 0 || n >= len(data) {
		log.Debug().Int("raw", len(data)).Msg("snapshot payload incompressible, storing raw")
		return nil, nil
	}
	return dst[:n], nil
}

func decompress(data []byte, rawSize int) ([]byte, error) {
	dst := make([]byte, rawSize)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCompression, err)
	}
	if n != rawSize {
		return nil, fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCompression, n, rawSize)
	}
	return dst, nil
}
