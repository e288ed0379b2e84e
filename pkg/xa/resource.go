package xa

import (
	"sync"
	"time"

	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
)

// Resource a xa resource handle of one member. A handle is associated with
// at most one branch at a time, the branches are shared by all handles of
// the service.
type Resource struct {
	sync.Mutex

	svc      *Service
	member   string
	timeout  time.Duration
	current  *branch
	scan     []meta.Xid
	scanning bool
}

func newResource(svc *Service, member string) *Resource {
	return &Resource{
		svc:    svc,
		member: member,
	}
}

// Member returns the member id of the handle
func (r *Resource) Member() string {
	return r.member
}

// IsSameRM returns true if both handles are created by the same service
func (r *Resource) IsSameRM(other *Resource) bool {
	return other != nil && r.svc.rmID == other.svc.rmID
}

// SetTransactionTimeout set the timeout of the branches started later, 0
// resets to the default timeout
func (r *Resource) SetTransactionTimeout(seconds int) bool {
	if seconds < 0 {
		return false
	}

	r.Lock()
	r.timeout = time.Duration(seconds) * time.Second
	r.Unlock()
	return true
}

// TransactionTimeout returns the timeout in seconds
func (r *Resource) TransactionTimeout() int {
	r.Lock()
	defer r.Unlock()

	return int(r.txTimeout() / time.Second)
}

func (r *Resource) txTimeout() time.Duration {
	if r.timeout > 0 {
		return r.timeout
	}

	return r.svc.opts.defaultTimeout
}

// associated returns true if the handle is associated with a live branch,
// the caller holds the handle lock
func (r *Resource) associated() bool {
	if r.current == nil {
		return false
	}

	r.current.Lock()
	live := !r.current.terminal() && !r.current.suspended && r.current.state == stateActive
	r.current.Unlock()

	if !live {
		r.current = nil
	}
	return live
}

// Start starts or joins the work of the branch
func (r *Resource) Start(xid meta.Xid, flags int) error {
	r.Lock()
	defer r.Unlock()

	if r.associated() {
		return newError(XAERProto, nil, "handle already associated with %s", r.current.xid)
	}

	var b *branch
	var err error
	switch flags {
	case TMNoFlags:
		b, err = r.svc.start(r.member, xid, r.txTimeout())
	case TMJoin, TMResume:
		b, err = r.join(xid, flags)
	default:
		err = newError(XAERInval, nil, "start flags 0x%x", flags)
	}

	if err != nil {
		metrics.XACounter.WithLabelValues(metrics.ActionStart, metrics.StatusFailed).Inc()
		return err
	}

	r.current = b
	metrics.XACounter.WithLabelValues(metrics.ActionStart, metrics.StatusSucceed).Inc()
	return nil
}

func (r *Resource) join(xid meta.Xid, flags int) (*branch, error) {
	b, err := r.svc.lockBranch(xid)
	if err != nil {
		return nil, err
	}
	defer b.Unlock()

	if b.expired() {
		r.svc.rollbackLocked(b, true)
		return nil, newError(XARBTimeout, nil, "%s", xid)
	}

	if b.state != stateActive {
		return nil, newError(XAERProto, nil, "join %s in state %s", xid, b.state)
	}

	if flags == TMResume {
		if !b.suspended {
			return nil, newError(XAERProto, nil, "resume %s not suspended", xid)
		}
		b.suspended = false
	}

	return b, nil
}

// End ends the work of the branch
func (r *Resource) End(xid meta.Xid, flags int) error {
	b, err := r.svc.lockBranch(xid)
	if err != nil {
		return err
	}

	err = r.svc.end(b, flags)
	b.Unlock()

	r.Lock()
	if r.current == b {
		r.current = nil
	}
	r.Unlock()
	return err
}

// Prepare prepares the branch, returns XAOK if the branch is prepared
func (r *Resource) Prepare(xid meta.Xid) (int, error) {
	err := r.svc.prepare(xid)
	if err != nil {
		return CodeOf(err), err
	}

	return XAOK, nil
}

// Commit commits the branch, onePhase commits a ended branch without prepare
func (r *Resource) Commit(xid meta.Xid, onePhase bool) error {
	return r.svc.commit(xid, onePhase)
}

// Rollback rolls back the branch
func (r *Resource) Rollback(xid meta.Xid) error {
	return r.svc.rollback(xid)
}

// Forget forgets the heuristically completed branch
func (r *Resource) Forget(xid meta.Xid) error {
	return r.svc.forget(xid)
}

// Recover returns the prepared branches. TMStartRScan opens a scan and
// TMEndRScan closes it, both can be used in one call. TMNoFlags continues
// the opened scan.
func (r *Resource) Recover(flags int) ([]meta.Xid, error) {
	if flags&^(TMStartRScan|TMEndRScan) != 0 {
		return nil, newError(XAERInval, nil, "recover flags 0x%x", flags)
	}

	r.Lock()
	defer r.Unlock()

	if flags&TMStartRScan != 0 {
		r.scan = r.svc.recover()
		r.scanning = true
	} else if !r.scanning {
		return nil, newError(XAERProto, nil, "recover scan not started")
	}

	xids := r.scan
	if xids == nil {
		xids = make([]meta.Xid, 0)
	}
	r.scan = nil

	if flags&TMEndRScan != 0 {
		r.scanning = false
	}

	return xids, nil
}

// TransactionContext returns the context of the branch associated with the handle
func (r *Resource) TransactionContext() *TransactionContext {
	r.Lock()
	defer r.Unlock()

	return &TransactionContext{
		svc: r.svc,
		b:   r.current,
	}
}
