package meta

import (
	"github.com/fagongzi/goetty"
	"github.com/fagongzi/util/hack"
)

// WriteString write string value
func WriteString(value string, buf *goetty.ByteBuf) {
	if value != "" {
		buf.WriteUInt16(uint16(len(value)))
		buf.WriteString(value)
	} else {
		buf.WriteUInt16(0)
	}
}

// ReadString read string value
func ReadString(buf *goetty.ByteBuf) string {
	size := ReadUInt16(buf)
	if size == 0 {
		return ""
	}

	_, value, _ := buf.ReadBytes(int(size))
	return hack.SliceToString(value)
}

// MaybeReadString maybe read string value
func MaybeReadString(buf *goetty.ByteBuf) (string, bool) {
	if buf.Readable() < 2 {
		return "", false
	}

	size := ReadUInt16(buf)
	if size == 0 {
		return "", true
	}

	if buf.Readable() < int(size) {
		return "", false
	}

	_, value, _ := buf.ReadBytes(int(size))
	return hack.SliceToString(value), true
}

// WriteBigString write big string
func WriteBigString(value string, buf *goetty.ByteBuf) {
	if value != "" {
		buf.WriteInt(len(value))
		buf.WriteString(value)
	} else {
		buf.WriteInt(0)
	}
}

// ReadBigString read big string
func ReadBigString(buf *goetty.ByteBuf) string {
	size := ReadInt(buf)
	if size <= 0 {
		return ""
	}

	_, value, _ := buf.ReadBytes(size)
	return hack.SliceToString(value)
}

// WriteData write a serialized payload with a int length
func WriteData(value []byte, buf *goetty.ByteBuf) {
	buf.WriteInt(len(value))
	if len(value) > 0 {
		buf.Write(value)
	}
}

// MaybeReadData maybe read a serialized payload
func MaybeReadData(buf *goetty.ByteBuf) ([]byte, bool) {
	if buf.Readable() < 4 {
		return nil, false
	}

	size := ReadInt(buf)
	if size < 0 || buf.Readable() < size {
		return nil, false
	}

	if size == 0 {
		return []byte{}, true
	}

	_, value, _ := buf.ReadBytes(size)
	return value, true
}

// WriteDataSlice write serialized payloads
func WriteDataSlice(values [][]byte, buf *goetty.ByteBuf) {
	buf.WriteInt(len(values))
	for _, value := range values {
		WriteData(value, buf)
	}
}

// MaybeReadDataSlice maybe read serialized payloads
func MaybeReadDataSlice(buf *goetty.ByteBuf) ([][]byte, bool) {
	if buf.Readable() < 4 {
		return nil, false
	}

	// every element carries at least a 4 bytes length
	n := ReadInt(buf)
	if n < 0 || n > buf.Readable()/4 {
		return nil, false
	}

	values := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		value, ok := MaybeReadData(buf)
		if !ok {
			return nil, false
		}

		values = append(values, value)
	}

	return values, true
}

// ReadUInt64 read uint64 value
func ReadUInt64(buf *goetty.ByteBuf) uint64 {
	value, _ := buf.ReadUInt64()
	return value
}

// ReadUInt16 read uint16 value
func ReadUInt16(buf *goetty.ByteBuf) uint16 {
	value, _ := buf.ReadUInt16()
	return value
}

// ReadInt read int value
func ReadInt(buf *goetty.ByteBuf) int {
	value, _ := buf.ReadInt()
	return value
}

// ReadByte read byte value
func ReadByte(buf *goetty.ByteBuf) byte {
	value, _ := buf.ReadByte()
	return value
}

// WriteBool write bool value
func WriteBool(value bool, out *goetty.ByteBuf) {
	if value {
		out.WriteByte(1)
		return
	}

	out.WriteByte(0)
}

// ReadBool read bool
func ReadBool(in *goetty.ByteBuf) bool {
	value, _ := in.ReadByte()
	return value == 1
}
