package member

import (
	"fmt"
	"sync/atomic"

	"github.com/fagongzi/goetty"
	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/reactor"
)

// session one client connection, all writes run on the bound loop
type session struct {
	id     uint64
	conn   goetty.IOSession
	loop   *reactor.Loop
	closed int32
}

func newSession(id uint64, conn goetty.IOSession, loop *reactor.Loop) *session {
	return &session{
		id:   id,
		conn: conn,
		loop: loop,
	}
}

func (s *session) ID() uint64 {
	return s.id
}

func (s *session) IsClosed() bool {
	return atomic.LoadInt32(&s.closed) == 1
}

func (s *session) Respond(msg *meta.ClientMessage) error {
	if s.IsClosed() {
		return meta.ErrClosed
	}

	return s.loop.AddTaskAndWakeup(func() {
		if s.IsClosed() {
			log.Debugf("%s: drop %s, closed", s, msg)
			return
		}

		err := s.conn.WriteAndFlush(msg)
		if err != nil {
			log.Errorf("%s: write %s failed with %+v", s, msg, err)
			s.close()
		}
	})
}

func (s *session) close() {
	if atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		s.conn.Close()
	}
}

func (s *session) String() string {
	return fmt.Sprintf("session[%d/%v]", s.id, s.conn.ID())
}
