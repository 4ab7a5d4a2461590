package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/ssargent/famblob/pkg/versionize"
)

// byteOrder is the fixed byte order of every blob image.
var byteOrder = binary.LittleEndian

// Blob wraps a fixed-size value that is serialized as its raw byte image,
// with no length prefix and no version tag.
type Blob[T any] struct {
	Value T
}

// NewBlob wraps v.
func NewBlob[T any](v T) Blob[T] {
	return Blob[T]{Value: v}
}

// Serialize writes the byte image of b.Value. The version map and target
// version are ignored: a blob has no field-level evolution.
func (b Blob[T]) Serialize(w io.Writer, _ *versionize.VersionMap, _ uint16) error {
	return WriteBlob(w, b.Value)
}

// Deserialize reads exactly SizeOf[T]() bytes into b.Value.
func (b *Blob[T]) Deserialize(r io.Reader, _ *versionize.VersionMap, _ uint16) error {
	v, err := ReadBlob[T](r)
	if err != nil {
		return err
	}
	b.Value = v
	return nil
}

// Version is always 1.
func (Blob[T]) Version() uint16 {
	return 1
}

// SizeOf returns the byte size of T's image, or ErrNotFixedSize when T has no
// statically known size (slices, pointers, strings, int/uint, ...) or when
// its image would not survive a round trip byte for byte: bool fields, blank
// `_` fields and unexported fields are rejected.
func SizeOf[T any]() (int, error) {
	t := reflect.TypeFor[T]()
	if err := checkPlain(t); err != nil {
		return 0, versionize.NewError("size_of", t.String(), versionize.ErrNotFixedSize, err)
	}
	var zero T
	n := binary.Size(zero)
	if n < 0 {
		return 0, versionize.NewError("size_of", t.String(), versionize.ErrNotFixedSize, nil)
	}
	return n, nil
}

// checkPlain walks t and reports the first part that encoding/binary would
// not copy verbatim in both directions.
func checkPlain(t reflect.Type) error {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return nil
	case reflect.Bool:
		return errors.New("bool is decoded as 0 or 1, use uint8")
	case reflect.Array:
		return checkPlain(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			switch {
			case f.Name == "_":
				return fmt.Errorf("blank field %d is written as zeros, name the padding", i)
			case !f.IsExported():
				return fmt.Errorf("unexported field %s cannot be decoded", f.Name)
			}
			if err := checkPlain(f.Type); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%s has no fixed size", t.Kind())
	}
}

// EncodeBlob returns the byte image of v: fields in declaration order,
// little-endian, no implicit padding.
func EncodeBlob[T any](v T) ([]byte, error) {
	n, err := SizeOf[T]()
	if err != nil {
		return nil, err
	}
	buf, err := binary.Append(make([]byte, 0, n), byteOrder, v)
	if err != nil {
		return nil, versionize.NewError("serialize", typeName[T](), versionize.ErrNotFixedSize, err)
	}
	return buf, nil
}

// DecodeBlob reads a T from the first SizeOf[T]() bytes of data. Trailing
// bytes are ignored; content is not validated.
func DecodeBlob[T any](data []byte) (T, error) {
	var v T
	n, err := SizeOf[T]()
	if err != nil {
		return v, err
	}
	if len(data) < n {
		return v, versionize.NewError("deserialize", typeName[T](), versionize.ErrTruncatedInput,
			io.ErrUnexpectedEOF)
	}
	if _, err := binary.Decode(data[:n], byteOrder, &v); err != nil {
		return v, versionize.NewError("deserialize", typeName[T](), versionize.ErrNotFixedSize, err)
	}
	return v, nil
}

// WriteBlob writes the byte image of v to w.
func WriteBlob[T any](w io.Writer, v T) error {
	buf, err := EncodeBlob(v)
	if err != nil {
		return err
	}
	return versionize.WriteAll(w, buf, "serialize", typeName[T]())
}

// ReadBlob reads exactly SizeOf[T]() bytes from r and decodes them.
func ReadBlob[T any](r io.Reader) (T, error) {
	var zero T
	n, err := SizeOf[T]()
	if err != nil {
		return zero, err
	}
	buf := make([]byte, n)
	if err := versionize.ReadFull(r, buf, "deserialize", typeName[T]()); err != nil {
		return zero, err
	}
	return DecodeBlob[T](buf)
}

func typeName[T any]() string {
	return reflect.TypeFor[T]().String()
}
