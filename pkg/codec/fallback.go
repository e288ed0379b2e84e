package codec

import (
	"github.com/vmihailenco/msgpack/v5"
)

// FallbackStrategy encodes values that match no specialized category
type FallbackStrategy interface {
	Marshal(value interface{}) ([]byte, error)
	Unmarshal(data []byte) (interface{}, error)
}

// NewMsgpackFallback returns a fallback strategy based on msgpack
func NewMsgpackFallback() FallbackStrategy {
	return &msgpackFallback{}
}

type msgpackFallback struct {
}

func (f *msgpackFallback) Marshal(value interface{}) ([]byte, error) {
	return msgpack.Marshal(value)
}

func (f *msgpackFallback) Unmarshal(data []byte) (interface{}, error) {
	var value interface{}
	err := msgpack.Unmarshal(data, &value)
	if err != nil {
		return nil, err
	}

	return value, nil
}
