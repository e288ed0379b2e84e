package meta

import (
	"bytes"
	"testing"

	"github.com/fagongzi/goetty"
	"github.com/infinivision/gridcore/pkg/codec"
	"github.com/stretchr/testify/assert"
)

func TestClientMessageFrame(t *testing.T) {
	body := goetty.NewByteBuf(32)
	WriteString("map", body)
	WriteData([]byte{1, 2, 3}, body)

	req := NewRequest(TypeMapGet, 7, body)
	req.CorrelationID = 100

	buf := bytes.NewBuffer(nil)
	assert.Nil(t, req.WriteData(codec.NewObjectDataOutput(buf)), "check write failed")
	assert.Equal(t, 4+HeaderSize+len(req.Body), buf.Len(), "check frame size failed")

	value := &ClientMessage{}
	assert.Nil(t, value.ReadData(codec.NewObjectDataInput(buf)), "check read failed")
	assert.Equal(t, req, value, "check frame failed")

	in := value.BodyBuf()
	assert.Equal(t, "map", ReadString(in), "check name failed")
	data, ok := MaybeReadData(in)
	assert.True(t, ok, "check data failed")
	assert.Equal(t, []byte{1, 2, 3}, data, "check data failed")
	in.Release()
}

func TestOversizedFrame(t *testing.T) {
	in := codec.NewObjectDataInput(bytes.NewReader([]byte{0x7f, 0xff, 0xff, 0xff, 0, 0}))
	err := (&ClientMessage{}).ReadData(in)
	assert.NotNil(t, err, "check oversized frame failed")

	in = codec.NewObjectDataInput(bytes.NewReader([]byte{0, 0, 0, 1, 0}))
	err = (&ClientMessage{}).ReadData(in)
	assert.NotNil(t, err, "check short frame failed")
}

func TestDataSliceCount(t *testing.T) {
	buf := goetty.NewByteBuf(32)
	buf.WriteInt(1 << 30)
	WriteData([]byte{1}, buf)
	_, ok := MaybeReadDataSlice(buf)
	assert.False(t, ok, "check huge count failed")
	buf.Release()

	buf = goetty.NewByteBuf(32)
	WriteDataSlice([][]byte{{1}, {}, {2, 3}}, buf)
	values, ok := MaybeReadDataSlice(buf)
	assert.True(t, ok, "check slice failed")
	assert.Equal(t, [][]byte{{1}, {}, {2, 3}}, values, "check values failed")
	buf.Release()
}

func TestErrorResponse(t *testing.T) {
	req := NewRequest(TypeMapKeySet, AnyPartition, nil)
	req.CorrelationID = 1

	rsp := NewErrorResponse(req, ErrPermissionDenied, "map:m read")
	assert.True(t, rsp.IsResponse(), "check response flag failed")
	assert.True(t, rsp.IsError(), "check error flag failed")
	assert.Equal(t, req.CorrelationID, rsp.CorrelationID, "check correlation failed")

	value := rsp.ErrorResponse()
	assert.True(t, value.Is(ErrPermissionDenied), "check code failed")
	assert.Equal(t, "map:m read", value.Message, "check message failed")
}

func TestXidKey(t *testing.T) {
	xid := NewXid("test")
	assert.True(t, xid.Valid(), "check valid failed")

	value, err := ParseXid(xid.Key())
	assert.Nil(t, err, "check parse failed")
	assert.True(t, xid.Equal(value), "check parse xid failed")

	_, err = ParseXid("1:zz")
	assert.NotNil(t, err, "check invalid xid failed")
}

func TestParseEndpoint(t *testing.T) {
	e, err := ParseEndpoint("127.0.0.1:5701")
	assert.Nil(t, err, "check parse failed")
	assert.Equal(t, NewEndpoint("127.0.0.1", 5701), e, "check endpoint failed")
	assert.Equal(t, "127.0.0.1:5701", e.String(), "check string failed")

	_, err = ParseEndpoint("127.0.0.1")
	assert.NotNil(t, err, "check invalid endpoint failed")
}
