package codec

import (
	"fmt"
)

// Tag the leading byte of every encoded payload
type Tag byte

const (
	// TagObject self-describing structured object
	TagObject = Tag(0)
	// TagGeneric generic fallback
	TagGeneric = Tag(1)
	// TagByteArray length prefixed bytes
	TagByteArray = Tag(2)
	// TagInt32 32-bit integer
	TagInt32 = Tag(3)
	// TagInt64 64-bit integer
	TagInt64 = Tag(4)
	// TagTypeDescriptor a type name value
	TagTypeDescriptor = Tag(5)
	// TagString chunked text
	TagString = Tag(6)
)

func (t Tag) String() string {
	switch t {
	case TagObject:
		return "object"
	case TagGeneric:
		return "generic"
	case TagByteArray:
		return "bytes"
	case TagInt32:
		return "int32"
	case TagInt64:
		return "int64"
	case TagTypeDescriptor:
		return "type"
	case TagString:
		return "string"
	}

	return fmt.Sprintf("tag(%d)", byte(t))
}

// Value one of the wire categories, nil is the null value
type Value interface {
	Tag() Tag

	sealed()
}

// String text value
type String string

// ByteArray raw byte sequence value
type ByteArray []byte

// Int32 32-bit integer value
type Int32 int32

// Int64 64-bit integer value
type Int64 int64

// TypeDescriptor a type name as a value
type TypeDescriptor string

// Object structured value writing and reading itself
type Object struct {
	Value DataSerializable
}

// Generic value encoded by the fallback strategy
type Generic struct {
	Value interface{}
}

// Tag returns TagString
func (String) Tag() Tag { return TagString }

// Tag returns TagByteArray
func (ByteArray) Tag() Tag { return TagByteArray }

// Tag returns TagInt32
func (Int32) Tag() Tag { return TagInt32 }

// Tag returns TagInt64
func (Int64) Tag() Tag { return TagInt64 }

// Tag returns TagTypeDescriptor
func (TypeDescriptor) Tag() Tag { return TagTypeDescriptor }

// Tag returns TagObject
func (Object) Tag() Tag { return TagObject }

// Tag returns TagGeneric
func (Generic) Tag() Tag { return TagGeneric }

func (String) sealed()         {}
func (ByteArray) sealed()      {}
func (Int32) sealed()          {}
func (Int64) sealed()          {}
func (TypeDescriptor) sealed() {}
func (Object) sealed()         {}
func (Generic) sealed()        {}

// Interface returns the native go value of v
func Interface(v Value) interface{} {
	switch value := v.(type) {
	case nil:
		return nil
	case String:
		return string(value)
	case ByteArray:
		return []byte(value)
	case Int32:
		return int32(value)
	case Int64:
		return int64(value)
	case TypeDescriptor:
		return value
	case Object:
		return value.Value
	case Generic:
		return value.Value
	}

	return nil
}
