package task

import (
	"context"
	"sync"

	"github.com/fagongzi/goetty"
	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/meta"
)

// NewPartitionLostEvent returns the event message pushed to the listener
// registered by the request
func NewPartitionLostEvent(req *meta.ClientMessage, event meta.PartitionLostEvent) *meta.ClientMessage {
	body := goetty.NewByteBuf(32)
	body.WriteInt(int(event.PartitionID))
	body.WriteInt(int(event.LostBackup))
	meta.WriteString(event.Member, body)

	return meta.NewEvent(req, meta.TypePartitionLostEvent, event.PartitionID, body)
}

// DecodePartitionLostEvent decodes the event message
func DecodePartitionLostEvent(msg *meta.ClientMessage) (meta.PartitionLostEvent, bool) {
	in := msg.BodyBuf()
	defer in.Release()

	if in.Readable() < 8 {
		return meta.PartitionLostEvent{}, false
	}

	event := meta.PartitionLostEvent{
		PartitionID: int32(meta.ReadInt(in)),
		LostBackup:  int32(meta.ReadInt(in)),
	}
	member, ok := meta.MaybeReadString(in)
	if !ok {
		return meta.PartitionLostEvent{}, false
	}
	event.Member = member
	return event, true
}

type addPartitionLostListenerTask struct {
	req *meta.ClientMessage
}

func newAddPartitionLostListenerTask(req *meta.ClientMessage) Task {
	return &addPartitionLostListenerTask{req: req}
}

func (t *addPartitionLostListenerTask) Decode(msg *meta.ClientMessage) error {
	return nil
}

func (t *addPartitionLostListenerTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	buf := goetty.NewByteBuf(32)
	meta.WriteString(result.(string), buf)
	return buf, nil
}

func (t *addPartitionLostListenerTask) RequiredPermission() *Permission {
	return nil
}

func (t *addPartitionLostListenerTask) DistributedObjectName() string {
	return ""
}

func (t *addPartitionLostListenerTask) MethodName() string {
	return "addPartitionLostListener"
}

func (t *addPartitionLostListenerTask) Call(ctx context.Context, env *Env, conn Responder) (interface{}, error) {
	var once sync.Once
	registered := make(chan string, 1)
	remove := func() {
		once.Do(func() {
			registration := <-registered
			env.Partitions.RemovePartitionLostListener(registration)
			log.Infof("[conn-%d]: partition lost listener %s removed with the connection",
				conn.ID(),
				registration)
		})
	}

	registration, err := env.Partitions.AddPartitionLostListener(func(event meta.PartitionLostEvent) {
		if conn.IsClosed() {
			go remove()
			return
		}

		err := conn.Respond(NewPartitionLostEvent(t.req, event))
		if err != nil {
			log.Errorf("[conn-%d]: push partition lost event failed with %+v", conn.ID(), err)
		}
	})
	if err != nil {
		return nil, err
	}

	registered <- registration
	return registration, nil
}

type removePartitionLostListenerTask struct {
	registration string
}

func newRemovePartitionLostListenerTask(req *meta.ClientMessage) Task {
	return &removePartitionLostListenerTask{}
}

func (t *removePartitionLostListenerTask) Decode(msg *meta.ClientMessage) error {
	in := msg.BodyBuf()
	defer in.Release()

	registration, ok := meta.MaybeReadString(in)
	if !ok {
		return decodeError("registration id")
	}

	t.registration = registration
	return nil
}

func (t *removePartitionLostListenerTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	buf := goetty.NewByteBuf(1)
	meta.WriteBool(result.(bool), buf)
	return buf, nil
}

func (t *removePartitionLostListenerTask) RequiredPermission() *Permission {
	return nil
}

func (t *removePartitionLostListenerTask) DistributedObjectName() string {
	return ""
}

func (t *removePartitionLostListenerTask) MethodName() string {
	return "removePartitionLostListener"
}

func (t *removePartitionLostListenerTask) Call(ctx context.Context, env *Env, conn Responder) (interface{}, error) {
	return env.Partitions.RemovePartitionLostListener(t.registration), nil
}
