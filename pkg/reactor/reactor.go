package reactor

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fagongzi/log"
	"github.com/fagongzi/util/task"
)

const (
	batch int64 = 64
)

var (
	// ErrStopped the loop is stopped
	ErrStopped = errors.New("reactor loop is stopped")
)

// Event a readiness event, the handler runs on the loop goroutine
// and must not block
type Event struct {
	Source  uint64
	Handler func() error
}

// Reactor a fixed set of single goroutine event loops
type Reactor struct {
	name  string
	loops []*Loop
}

// New returns a reactor
func New(name string, opts ...Option) *Reactor {
	value := &options{}
	for _, opt := range opts {
		opt(value)
	}
	value.adjust()

	r := &Reactor{
		name: name,
	}
	for i := 0; i < value.loops; i++ {
		r.loops = append(r.loops, newLoop(fmt.Sprintf("%s-%d", name, i), value))
	}
	return r
}

// Start start all loops
func (r *Reactor) Start() {
	for _, l := range r.loops {
		l.Start()
	}
}

// Shutdown stop all loops and wait them exit
func (r *Reactor) Shutdown() {
	for _, l := range r.loops {
		l.Shutdown()
	}
}

// Next returns the loop bound to the source id
func (r *Reactor) Next(source uint64) *Loop {
	return r.loops[source%uint64(len(r.loops))]
}

// Loops returns all loops
func (r *Reactor) Loops() []*Loop {
	return r.loops
}

// Loop single goroutine event loop with a task queue
type Loop struct {
	name   string
	opts   *options
	tasks  *task.Queue
	wakeC  chan struct{}
	events chan Event

	startOnce sync.Once
	stopOnce  sync.Once
	stopC     chan struct{}
	stoppedC  chan struct{}

	failures    uint64
	consecutive uint64
	healthy     int32
}

func newLoop(name string, opts *options) *Loop {
	return &Loop{
		name:     name,
		opts:     opts,
		tasks:    task.New(opts.queueSize),
		wakeC:    make(chan struct{}, 1),
		events:   make(chan Event, opts.eventsSize),
		stopC:    make(chan struct{}),
		stoppedC: make(chan struct{}),
		healthy:  1,
	}
}

// Name returns the loop name
func (l *Loop) Name() string {
	return l.name
}

// Healthy returns false if the consecutive failures exceed the limit
func (l *Loop) Healthy() bool {
	return atomic.LoadInt32(&l.healthy) == 1
}

// Failures returns the total failures of the loop
func (l *Loop) Failures() uint64 {
	return atomic.LoadUint64(&l.failures)
}

// AddTask add a task, the task runs in the next iteration
func (l *Loop) AddTask(fn func()) error {
	err := l.tasks.Put(fn)
	if err != nil {
		return ErrStopped
	}

	return nil
}

// AddTaskAndWakeup add a task and interrupt the current blocking wait
func (l *Loop) AddTaskAndWakeup(fn func()) error {
	err := l.AddTask(fn)
	if err != nil {
		return err
	}

	l.wakeup()
	return nil
}

// Notify post a readiness event to the loop
func (l *Loop) Notify(event Event) error {
	select {
	case l.events <- event:
		return nil
	case <-l.stopC:
		return ErrStopped
	}
}

func (l *Loop) wakeup() {
	select {
	case l.wakeC <- struct{}{}:
	default:
	}
}

// Start start the loop
func (l *Loop) Start() {
	l.startOnce.Do(func() {
		go l.run()
		log.Infof("[%s]: started", l.name)
	})
}

// Shutdown stop the loop, the queued tasks run before exit
func (l *Loop) Shutdown() {
	l.stopOnce.Do(func() {
		close(l.stopC)
	})

	l.startOnce.Do(func() {
		close(l.stoppedC)
	})
	<-l.stoppedC
}

func (l *Loop) run() {
	items := make([]interface{}, batch, batch)
	timer := time.NewTimer(l.opts.selectTimeout)
	defer timer.Stop()

	for {
		l.runTasks(items)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(l.opts.selectTimeout)

		select {
		case <-l.stopC:
			l.runTasks(items)
			l.tasks.Dispose()
			close(l.stoppedC)
			log.Infof("[%s]: stopped", l.name)
			return
		case <-l.wakeC:
		case event := <-l.events:
			l.handle(event)
			l.drainEvents()
		case <-timer.C:
		}
	}
}

func (l *Loop) drainEvents() {
	for i := int64(0); i < batch; i++ {
		select {
		case event := <-l.events:
			l.handle(event)
		default:
			return
		}
	}
}

func (l *Loop) runTasks(items []interface{}) {
	for l.tasks.Len() > 0 {
		n, err := l.tasks.Get(batch, items)
		if err != nil {
			return
		}

		for i := int64(0); i < n; i++ {
			fn := items[i].(func())
			items[i] = nil
			l.safe(func() error {
				fn()
				return nil
			})
		}
	}
}

func (l *Loop) handle(event Event) {
	l.safe(event.Handler)
}

func (l *Loop) safe(fn func() error) {
	var err error
	func() {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("panic: %v\n%s", p, debug.Stack())
			}
		}()
		err = fn()
	}()

	if err == nil {
		atomic.StoreUint64(&l.consecutive, 0)
		atomic.StoreInt32(&l.healthy, 1)
		return
	}

	l.HandleFailure(err)
}

// HandleFailure route the failure to the failure handler
func (l *Loop) HandleFailure(err error) {
	atomic.AddUint64(&l.failures, 1)
	n := atomic.AddUint64(&l.consecutive, 1)
	l.opts.failureHandler(l.name, err)

	if n >= l.opts.maxFailures && atomic.CompareAndSwapInt32(&l.healthy, 1, 0) {
		log.Errorf("[%s]: unhealthy after %d consecutive failures", l.name, n)
	}
}
