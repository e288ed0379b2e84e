package meta

import (
	"encoding/binary"
	"fmt"

	"github.com/fagongzi/goetty"
	"github.com/infinivision/gridcore/pkg/codec"
)

const (
	// HeaderSize correlation id + type + partition + flags
	HeaderSize = 15
	// MaxFrameSize frames over this size are refused before any allocation
	MaxFrameSize = 64 * 1024 * 1024

	// AnyPartition the message is not bound to a partition
	AnyPartition int32 = -1
)

const (
	// FlagResponse response message
	FlagResponse = byte(1)
	// FlagError error response, body is a ErrorResponse
	FlagError = byte(2)
	// FlagEvent event pushed by the member
	FlagEvent = byte(4)
)

// MessageType client message type
type MessageType uint16

const (
	// TypeMapPut map put
	TypeMapPut = MessageType(0x0101)
	// TypeMapGet map get
	TypeMapGet = MessageType(0x0102)
	// TypeMapRemove map remove
	TypeMapRemove = MessageType(0x0103)
	// TypeMapKeySet map key set
	TypeMapKeySet = MessageType(0x0104)
	// TypeMapSize map size
	TypeMapSize = MessageType(0x0105)
	// TypeAddPartitionLostListener add partition lost listener
	TypeAddPartitionLostListener = MessageType(0x0201)
	// TypeRemovePartitionLostListener remove partition lost listener
	TypeRemovePartitionLostListener = MessageType(0x0202)
	// TypePartitionLostEvent partition lost event
	TypePartitionLostEvent = MessageType(0x0203)
)

// Name returns the name of the message type
func (t MessageType) Name() string {
	switch t {
	case TypeMapPut:
		return "map.put"
	case TypeMapGet:
		return "map.get"
	case TypeMapRemove:
		return "map.remove"
	case TypeMapKeySet:
		return "map.keySet"
	case TypeMapSize:
		return "map.size"
	case TypeAddPartitionLostListener:
		return "partition.addLostListener"
	case TypeRemovePartitionLostListener:
		return "partition.removeLostListener"
	case TypePartitionLostEvent:
		return "partition.lost"
	}

	return fmt.Sprintf("unknown(%d)", uint16(t))
}

// ClientMessage one request, response or event frame
type ClientMessage struct {
	CorrelationID uint64
	Type          MessageType
	PartitionID   int32
	Flags         byte
	Body          []byte
}

// NewRequest returns a request message
func NewRequest(t MessageType, partition int32, body *goetty.ByteBuf) *ClientMessage {
	return &ClientMessage{
		Type:        t,
		PartitionID: partition,
		Body:        readAll(body),
	}
}

// NewResponse returns a response of the request
func NewResponse(req *ClientMessage, body *goetty.ByteBuf) *ClientMessage {
	return &ClientMessage{
		CorrelationID: req.CorrelationID,
		Type:          req.Type,
		PartitionID:   req.PartitionID,
		Flags:         FlagResponse,
		Body:          readAll(body),
	}
}

// NewEvent returns a event pushed to the registration of the request
func NewEvent(req *ClientMessage, t MessageType, partition int32, body *goetty.ByteBuf) *ClientMessage {
	return &ClientMessage{
		CorrelationID: req.CorrelationID,
		Type:          t,
		PartitionID:   partition,
		Flags:         FlagEvent,
		Body:          readAll(body),
	}
}

// NewErrorResponse returns a structured error response of the request
func NewErrorResponse(req *ClientMessage, err *Error, message string) *ClientMessage {
	body := goetty.NewByteBuf(32)
	body.WriteUInt16(err.Code)
	WriteBigString(message, body)

	rsp := NewResponse(req, body)
	rsp.Flags |= FlagError
	return rsp
}

// IsResponse returns true if the message is a response
func (m *ClientMessage) IsResponse() bool {
	return m.Flags&FlagResponse != 0
}

// IsError returns true if the message is a error response
func (m *ClientMessage) IsError() bool {
	return m.Flags&FlagError != 0
}

// IsEvent returns true if the message is a event
func (m *ClientMessage) IsEvent() bool {
	return m.Flags&FlagEvent != 0
}

// ErrorResponse returns the error response, nil if the message is not a error
func (m *ClientMessage) ErrorResponse() *ErrorResponse {
	if !m.IsError() {
		return nil
	}

	buf := m.BodyBuf()
	defer buf.Release()

	return &ErrorResponse{
		Code:    ReadUInt16(buf),
		Message: ReadBigString(buf),
	}
}

// BodyBuf returns a buf to read the body, the caller must release it
func (m *ClientMessage) BodyBuf() *goetty.ByteBuf {
	buf := goetty.NewByteBuf(len(m.Body))
	buf.Write(m.Body)
	return buf
}

// WriteData write the message as a length prefixed frame
func (m *ClientMessage) WriteData(out *codec.ObjectDataOutput) error {
	header := make([]byte, 4+HeaderSize)
	m.encodeHeader(header)
	err := out.Write(header)
	if err != nil {
		return err
	}

	return out.Write(m.Body)
}

// ReadData read a length prefixed frame
func (m *ClientMessage) ReadData(in *codec.ObjectDataInput) error {
	size, err := in.ReadInt32()
	if err != nil {
		return err
	}

	if size < HeaderSize || size > MaxFrameSize {
		return codec.ErrCorruptPayload
	}

	frame, err := in.ReadFully(int(size))
	if err != nil {
		return err
	}

	m.decode(frame)
	return nil
}

func (m *ClientMessage) String() string {
	return fmt.Sprintf("%s[%d] partition %d, flags %d, %d bytes",
		m.Type.Name(),
		m.CorrelationID,
		m.PartitionID,
		m.Flags,
		len(m.Body))
}

func (m *ClientMessage) encodeHeader(header []byte) {
	binary.BigEndian.PutUint32(header[0:], uint32(HeaderSize+len(m.Body)))
	binary.BigEndian.PutUint64(header[4:], m.CorrelationID)
	binary.BigEndian.PutUint16(header[12:], uint16(m.Type))
	binary.BigEndian.PutUint32(header[14:], uint32(m.PartitionID))
	header[18] = m.Flags
}

func (m *ClientMessage) decode(frame []byte) {
	m.CorrelationID = binary.BigEndian.Uint64(frame[0:])
	m.Type = MessageType(binary.BigEndian.Uint16(frame[8:]))
	m.PartitionID = int32(binary.BigEndian.Uint32(frame[10:]))
	m.Flags = frame[14]
	m.Body = make([]byte, len(frame)-HeaderSize)
	copy(m.Body, frame[HeaderSize:])
}

func readAll(buf *goetty.ByteBuf) []byte {
	if buf == nil {
		return nil
	}

	_, data, _ := buf.ReadAll()
	buf.Release()
	return data
}
