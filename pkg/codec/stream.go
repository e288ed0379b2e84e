package codec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// DataWriter a value that can write itself
type DataWriter interface {
	WriteData(out *ObjectDataOutput) error
}

// DataReader a value that can read itself
type DataReader interface {
	ReadData(in *ObjectDataInput) error
}

// DataSerializable a structured value, resolved by its type name on decode
type DataSerializable interface {
	DataWriter
	DataReader

	TypeName() string
}

// ObjectDataOutput big endian output stream
type ObjectDataOutput struct {
	w       io.Writer
	scratch [8]byte
}

// NewObjectDataOutput returns a output stream over w
func NewObjectDataOutput(w io.Writer) *ObjectDataOutput {
	return &ObjectDataOutput{w: w}
}

// Write write raw bytes
func (out *ObjectDataOutput) Write(value []byte) error {
	_, err := out.w.Write(value)
	return err
}

// WriteByte write a byte
func (out *ObjectDataOutput) WriteByte(value byte) error {
	out.scratch[0] = value
	return out.Write(out.scratch[:1])
}

// WriteBool write a bool as one byte
func (out *ObjectDataOutput) WriteBool(value bool) error {
	if value {
		return out.WriteByte(1)
	}

	return out.WriteByte(0)
}

// WriteUInt16 write uint16
func (out *ObjectDataOutput) WriteUInt16(value uint16) error {
	binary.BigEndian.PutUint16(out.scratch[:2], value)
	return out.Write(out.scratch[:2])
}

// WriteInt32 write int32
func (out *ObjectDataOutput) WriteInt32(value int32) error {
	binary.BigEndian.PutUint32(out.scratch[:4], uint32(value))
	return out.Write(out.scratch[:4])
}

// WriteInt64 write int64
func (out *ObjectDataOutput) WriteInt64(value int64) error {
	return out.WriteUInt64(uint64(value))
}

// WriteUInt64 write uint64
func (out *ObjectDataOutput) WriteUInt64(value uint64) error {
	binary.BigEndian.PutUint64(out.scratch[:8], value)
	return out.Write(out.scratch[:8])
}

// WriteUTF write a uint16 length prefixed utf-8 value
func (out *ObjectDataOutput) WriteUTF(value string) error {
	if len(value) > math.MaxUint16 {
		return newError(KindUnsupportedType, nil, "utf value with %d bytes", len(value))
	}

	err := out.WriteUInt16(uint16(len(value)))
	if err != nil {
		return err
	}

	_, err = io.WriteString(out.w, value)
	return err
}

// WriteByteArray write a int32 length prefixed byte sequence
func (out *ObjectDataOutput) WriteByteArray(value []byte) error {
	err := out.WriteInt32(int32(len(value)))
	if err != nil {
		return err
	}

	return out.Write(value)
}

const (
	maxChunk = 64 * 1024
)

type lenReader interface {
	Len() int
}

// ObjectDataInput big endian input stream
type ObjectDataInput struct {
	r       io.Reader
	scratch [8]byte
}

// NewObjectDataInput returns a input stream over r
func NewObjectDataInput(r io.Reader) *ObjectDataInput {
	return &ObjectDataInput{r: r}
}

// ReadFully read exactly n bytes
func (in *ObjectDataInput) ReadFully(n int) ([]byte, error) {
	if n < 0 {
		return nil, newError(KindCorruptPayload, nil, "negative length %d", n)
	}

	if n == 0 {
		return []byte{}, nil
	}

	if l, ok := in.r.(lenReader); ok && n > l.Len() {
		return nil, newError(KindTruncatedStream, io.ErrUnexpectedEOF, "want %d bytes, %d left", n, l.Len())
	}

	if n <= maxChunk {
		value := make([]byte, n)
		err := in.fill(value)
		if err != nil {
			return nil, err
		}

		return value, nil
	}

	// the buffer grows with what actually arrives, a lying length can not
	// make us allocate ahead of the stream
	var buf bytes.Buffer
	buf.Grow(maxChunk)
	read, err := io.CopyN(&buf, in.r, int64(n))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, newError(KindTruncatedStream, io.ErrUnexpectedEOF, "want %d bytes, got %d", n, read)
		}
		return nil, err
	}

	return buf.Bytes(), nil
}

// ReadByte read a byte
func (in *ObjectDataInput) ReadByte() (byte, error) {
	err := in.fill(in.scratch[:1])
	if err != nil {
		return 0, err
	}

	return in.scratch[0], nil
}

// ReadBool read a bool
func (in *ObjectDataInput) ReadBool() (bool, error) {
	value, err := in.ReadByte()
	return value != 0, err
}

// ReadUInt16 read uint16
func (in *ObjectDataInput) ReadUInt16() (uint16, error) {
	err := in.fill(in.scratch[:2])
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(in.scratch[:2]), nil
}

// ReadInt32 read int32
func (in *ObjectDataInput) ReadInt32() (int32, error) {
	err := in.fill(in.scratch[:4])
	if err != nil {
		return 0, err
	}

	return int32(binary.BigEndian.Uint32(in.scratch[:4])), nil
}

// ReadInt64 read int64
func (in *ObjectDataInput) ReadInt64() (int64, error) {
	value, err := in.ReadUInt64()
	return int64(value), err
}

// ReadUInt64 read uint64
func (in *ObjectDataInput) ReadUInt64() (uint64, error) {
	err := in.fill(in.scratch[:8])
	if err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(in.scratch[:8]), nil
}

// ReadUTF read a uint16 length prefixed utf-8 value
func (in *ObjectDataInput) ReadUTF() (string, error) {
	size, err := in.ReadUInt16()
	if err != nil {
		return "", err
	}

	value, err := in.ReadFully(int(size))
	if err != nil {
		return "", err
	}

	return string(value), nil
}

// ReadByteArray read a int32 length prefixed byte sequence
func (in *ObjectDataInput) ReadByteArray() ([]byte, error) {
	size, err := in.ReadInt32()
	if err != nil {
		return nil, err
	}

	return in.ReadFully(int(size))
}

func (in *ObjectDataInput) fill(value []byte) error {
	_, err := io.ReadFull(in.r, value)
	if err == nil {
		return nil
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(KindTruncatedStream, err, "want %d bytes", len(value))
	}

	return err
}
