package codec

import (
	"bytes"
	"math"
)

var (
	null = []byte{}
)

// Option codec option
type Option func(*options)

type options struct {
	registry *Registry
	fallback FallbackStrategy
	disable  bool
}

func (opts *options) adjust() {
	if opts.registry == nil {
		opts.registry = NewRegistry(DefaultAliases)
	}

	if opts.fallback == nil && !opts.disable {
		opts.fallback = NewMsgpackFallback()
	}
}

// WithRegistry set the structured type registry
func WithRegistry(registry *Registry) Option {
	return func(opts *options) {
		opts.registry = registry
	}
}

// WithFallback set the generic fallback strategy
func WithFallback(fallback FallbackStrategy) Option {
	return func(opts *options) {
		opts.fallback = fallback
	}
}

// WithoutFallback disable the generic category
func WithoutFallback() Option {
	return func(opts *options) {
		opts.fallback = nil
		opts.disable = true
	}
}

// Codec encodes values to self-describing bytes
type Codec struct {
	opts options
}

// New returns a codec
func New(opts ...Option) *Codec {
	c := &Codec{}
	for _, opt := range opts {
		opt(&c.opts)
	}
	c.opts.adjust()
	return c
}

// Registry returns the type registry
func (c *Codec) Registry() *Registry {
	return c.opts.registry
}

// IsNull returns true if data is the null sentinel
func IsNull(data []byte) bool {
	return len(data) == 0
}

// ValueOf maps a native go value into a wire category
func (c *Codec) ValueOf(value interface{}) (Value, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case Value:
		return v, nil
	case string:
		return String(v), nil
	case []byte:
		return ByteArray(v), nil
	case int32:
		return Int32(v), nil
	case int64:
		return Int64(v), nil
	case int:
		return Int64(v), nil
	case DataSerializable:
		return Object{Value: v}, nil
	}

	if c.opts.fallback == nil {
		return nil, newError(KindUnsupportedType, nil, "%T", value)
	}

	return Generic{Value: value}, nil
}

// EncodeValue encodes a native go value
func (c *Codec) EncodeValue(value interface{}) ([]byte, error) {
	v, err := c.ValueOf(value)
	if err != nil {
		return nil, err
	}

	return c.Encode(v)
}

// DecodeValue decodes to a native go value
func (c *Codec) DecodeValue(data []byte) (interface{}, error) {
	v, err := c.Decode(data)
	if err != nil {
		return nil, err
	}

	return Interface(v), nil
}

// Encode encodes the value, nil encodes to the zero-length null sentinel
func (c *Codec) Encode(value Value) ([]byte, error) {
	if value == nil {
		return null, nil
	}

	buf := bytes.NewBuffer(nil)
	out := NewObjectDataOutput(buf)
	out.WriteByte(byte(value.Tag()))

	var err error
	switch v := value.(type) {
	case String:
		err = writeText(string(v), out)
	case ByteArray:
		if len(v) > math.MaxInt32 {
			return nil, newError(KindUnsupportedType, nil, "bytes with %d length", len(v))
		}
		err = out.WriteByteArray(v)
	case Int32:
		err = out.WriteInt32(int32(v))
	case Int64:
		err = out.WriteInt64(int64(v))
	case TypeDescriptor:
		err = out.WriteUTF(string(v))
	case Object:
		if v.Value == nil {
			return nil, newError(KindUnsupportedType, nil, "object without value")
		}

		err = out.WriteUTF(v.Value.TypeName())
		if err == nil {
			err = v.Value.WriteData(out)
		}
	case Generic:
		if c.opts.fallback == nil {
			return nil, newError(KindUnsupportedType, nil, "generic %T without fallback", v.Value)
		}

		var data []byte
		data, err = c.opts.fallback.Marshal(v.Value)
		if err != nil {
			return nil, newError(KindUnsupportedType, err, "generic %T", v.Value)
		}
		err = out.Write(data)
	default:
		return nil, newError(KindUnsupportedType, nil, "%T", value)
	}

	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Decode decodes the value, the null sentinel must be checked by the caller
func (c *Codec) Decode(data []byte) (Value, error) {
	if IsNull(data) {
		return nil, newError(KindTruncatedStream, nil, "empty payload is the null sentinel")
	}

	r := bytes.NewReader(data)
	in := NewObjectDataInput(r)
	tag, _ := in.ReadByte()

	var value Value
	var err error
	switch Tag(tag) {
	case TagString:
		var v string
		v, err = readText(r, in)
		value = String(v)
	case TagByteArray:
		var v []byte
		v, err = in.ReadByteArray()
		value = ByteArray(v)
	case TagInt32:
		var v int32
		v, err = in.ReadInt32()
		value = Int32(v)
	case TagInt64:
		var v int64
		v, err = in.ReadInt64()
		value = Int64(v)
	case TagTypeDescriptor:
		var v string
		v, err = in.ReadUTF()
		value = TypeDescriptor(v)
	case TagObject:
		value, err = c.decodeObject(in)
	case TagGeneric:
		if c.opts.fallback == nil {
			return nil, newError(KindUnsupportedType, nil, "generic payload without fallback")
		}

		var v interface{}
		v, err = c.opts.fallback.Unmarshal(data[1:])
		if err != nil {
			return nil, newError(KindCorruptPayload, err, "generic payload")
		}
		value = Generic{Value: v}
		r.Reset(nil)
	default:
		return nil, newError(KindCorruptPayload, nil, "unknown tag %d", tag)
	}

	if err != nil {
		return nil, err
	}

	if r.Len() > 0 {
		return nil, newError(KindCorruptPayload, nil, "%d trailing bytes after %s", r.Len(), Tag(tag))
	}

	return value, nil
}

func (c *Codec) decodeObject(in *ObjectDataInput) (Value, error) {
	name, err := in.ReadUTF()
	if err != nil {
		return nil, err
	}

	factory, _, err := c.opts.registry.Resolve(name)
	if err != nil {
		return nil, err
	}

	value := factory()
	err = value.ReadData(in)
	if err != nil {
		return nil, err
	}

	return Object{Value: value}, nil
}
