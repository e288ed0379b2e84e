package meta

import (
	"fmt"

	"github.com/fagongzi/goetty"
)

var (
	// ClientEncoder client message encoder
	ClientEncoder = goetty.NewIntLengthFieldBasedEncoder(&clientCodec{})
	// ClientDecoder client message decoder
	ClientDecoder = goetty.NewIntLengthFieldBasedDecoder(&clientCodec{})
)

// codec format: length(4bytes) + header(15bytes) + body
type clientCodec struct {
}

func (c *clientCodec) Decode(in *goetty.ByteBuf) (bool, interface{}, error) {
	frame := in.GetMarkedRemindData()
	in.MarkedBytesReaded()

	if len(frame) < HeaderSize {
		return false, nil, fmt.Errorf("client message with %d bytes", len(frame))
	}

	msg := &ClientMessage{}
	msg.decode(frame)
	return true, msg, nil
}

func (c *clientCodec) Encode(data interface{}, out *goetty.ByteBuf) error {
	msg, ok := data.(*ClientMessage)
	if !ok {
		return fmt.Errorf("not support msg %T %+v", data, data)
	}

	header := make([]byte, 4+HeaderSize)
	msg.encodeHeader(header)
	out.Write(header[4:])
	out.Write(msg.Body)
	return nil
}
