package codec

// Data one serialized payload as it travels on a stream
type Data struct {
	Payload []byte
}

// NewData returns a data with payload
func NewData(payload []byte) *Data {
	return &Data{Payload: payload}
}

// IsNull returns true if the payload is the null sentinel
func (d *Data) IsNull() bool {
	return IsNull(d.Payload)
}

// Tag returns the leading tag of the payload
func (d *Data) Tag() (Tag, bool) {
	if d.IsNull() {
		return 0, false
	}

	return Tag(d.Payload[0]), true
}

// WriteData write payload with a int32 length
func (d *Data) WriteData(out *ObjectDataOutput) error {
	return out.WriteByteArray(d.Payload)
}

// ReadData read a int32 length prefixed payload
func (d *Data) ReadData(in *ObjectDataInput) error {
	value, err := in.ReadByteArray()
	if err != nil {
		return err
	}

	d.Payload = value
	return nil
}
