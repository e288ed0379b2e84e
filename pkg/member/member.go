package member

import (
	"io"
	"sync"

	"github.com/fagongzi/goetty"
	"github.com/fagongzi/log"
	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
	"github.com/infinivision/gridcore/pkg/reactor"
	"github.com/infinivision/gridcore/pkg/store"
	"github.com/infinivision/gridcore/pkg/task"
)

// Member one grid member, serves the client protocol at the address
type Member struct {
	sync.RWMutex

	addr       string
	cluster    *operation.Cluster
	svr        *goetty.Server
	reactor    *reactor.Reactor
	operations *operation.Service
	dispatcher *task.Dispatcher
	ids        id.Generator
	sessions   map[uint64]*session
}

// NewMember returns a member, the address is the member id
func NewMember(addr string, partitions *partition.Service, cluster *operation.Cluster, opts ...Option) *Member {
	value := &options{}
	for _, opt := range opts {
		opt(value)
	}
	value.adjust()

	m := &Member{
		addr:    addr,
		cluster: cluster,
		svr: goetty.NewServer(addr,
			goetty.WithServerDecoder(meta.ClientDecoder),
			goetty.WithServerEncoder(meta.ClientEncoder),
			goetty.WithServerIDGenerator(goetty.NewUUIDV4IdGenerator())),
		reactor:    reactor.New(addr, reactor.WithLoops(value.reactorLoops)),
		operations: operation.NewService(addr, store.New(), partitions, operation.WithWorkers(value.operationWorkers)),
		ids:        id.NewMemGenerator(),
		sessions:   make(map[uint64]*session),
	}
	m.dispatcher = task.NewDispatcher(&task.Env{
		Member:     addr,
		Partitions: partitions,
		Invoker:    cluster,
	}, value.registry, value.taskOptions...)
	return m
}

// ID returns the member id
func (m *Member) ID() string {
	return m.addr
}

// Dispatcher returns the task dispatcher
func (m *Member) Dispatcher() *task.Dispatcher {
	return m.dispatcher
}

// Sessions returns the count of the connected clients
func (m *Member) Sessions() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.sessions)
}

// Start start the member and join the cluster, returns after the listener
// is ready
func (m *Member) Start() error {
	m.operations.Start()
	m.dispatcher.Start()
	m.reactor.Start()
	m.cluster.Join(m.operations)

	errC := make(chan error, 1)
	go func() {
		errC <- m.svr.Start(m.doConnection)
	}()

	select {
	case <-m.svr.Started():
		log.Infof("[%s]: started", m.addr)
		return nil
	case err := <-errC:
		m.cluster.Leave(m.addr)
		return err
	}
}

// Stop leave the cluster and stop the member
func (m *Member) Stop() {
	m.cluster.Leave(m.addr)
	m.svr.Stop()

	m.Lock()
	for _, s := range m.sessions {
		s.close()
	}
	m.Unlock()

	m.reactor.Shutdown()
	m.dispatcher.Stop()
	m.operations.Stop()
	log.Infof("[%s]: stopped", m.addr)
}

func (m *Member) doConnection(conn goetty.IOSession) error {
	s := m.addSession(conn)
	log.Infof("[%s]: %s connected", m.addr, s)

	defer func() {
		log.Infof("[%s]: %s disconnected", m.addr, s)
		m.removeSession(s)
	}()

	for {
		data, err := conn.Read()
		if err != nil {
			if err != io.EOF {
				log.Errorf("[%s]: %s read failed with %+v", m.addr, s, err)
			}
			return err
		}

		msg, ok := data.(*meta.ClientMessage)
		if !ok {
			log.Fatalf("[%s]: bug, %T read from client", m.addr, data)
		}

		log.Debugf("[%s]: %s from client: %s", m.addr, s, msg)
		err = s.loop.Notify(reactor.Event{
			Source: s.id,
			Handler: func() error {
				return m.dispatcher.Dispatch(s, msg)
			},
		})
		if err != nil {
			return err
		}
	}
}

func (m *Member) addSession(conn goetty.IOSession) *session {
	sid := id.MustGen(m.ids)
	s := newSession(sid, conn, m.reactor.Next(sid))

	m.Lock()
	m.sessions[sid] = s
	m.Unlock()

	metrics.SessionGauge.Inc()
	return s
}

func (m *Member) removeSession(s *session) {
	s.close()

	m.Lock()
	delete(m.sessions, s.id)
	m.Unlock()

	metrics.SessionGauge.Dec()
}
