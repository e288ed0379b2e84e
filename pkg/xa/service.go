package xa

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fagongzi/log"
	"github.com/google/uuid"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/metrics"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
	"github.com/infinivision/gridcore/pkg/util"
	"github.com/pkg/errors"
)

// Executor executes partition operations on the owner members
type Executor interface {
	InvokeOnPartition(ctx context.Context, op operation.Operation) (interface{}, error)
}

// Service the shared transactional state of the cluster, all resources
// created by the service are the same resource manager
type Service struct {
	sync.RWMutex

	opts       options
	rmID       string
	partitions *partition.Service
	executor   Executor

	branches   map[string]*branch
	tombstones map[string]time.Time
	heuristics map[string]int
}

// NewService returns a xa service, the prepared records in the storage are
// loaded as prepared branches
func NewService(partitions *partition.Service, executor Executor, opts ...Option) (*Service, error) {
	s := &Service{
		rmID:       uuid.New().String(),
		partitions: partitions,
		executor:   executor,
		branches:   make(map[string]*branch),
		tombstones: make(map[string]time.Time),
		heuristics: make(map[string]int),
	}
	for _, opt := range opts {
		opt(&s.opts)
	}
	s.opts.adjust()

	err := s.opts.storage.Load(func(r *meta.PreparedRecord) error {
		b := branchFromRecord(r)
		err := s.lockKeys(b)
		if err != nil {
			return err
		}

		s.branches[r.Xid.Key()] = b
		log.Infof("%s: loaded, prepared %s ago",
			meta.TagXid(r.Xid, "recover"),
			r.Age())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load prepared records")
	}

	metrics.XAActiveGauge.Set(float64(len(s.branches)))
	return s, nil
}

// RMID returns the resource manager id
func (s *Service) RMID() string {
	return s.rmID
}

// Resource returns a new xa resource handle of the member
func (s *Service) Resource(member string) *Resource {
	return newResource(s, member)
}

// Branches returns the view of all branches in xid key order
func (s *Service) Branches() []BranchInfo {
	s.RLock()
	values := make([]*branch, 0, len(s.branches))
	for _, b := range s.branches {
		values = append(values, b)
	}
	s.RUnlock()

	infos := make([]BranchInfo, 0, len(values))
	for _, b := range values {
		b.Lock()
		if !b.terminal() {
			infos = append(infos, b.info())
		}
		b.Unlock()
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Xid < infos[j].Xid
	})
	return infos
}

// Active returns the number of branches not yet completed
func (s *Service) Active() int {
	s.RLock()
	defer s.RUnlock()

	return len(s.branches)
}

// missing returns the error of a xid not in the branch table
func (s *Service) missing(xid meta.Xid) error {
	s.RLock()
	defer s.RUnlock()

	key := xid.Key()
	if _, ok := s.tombstones[key]; ok {
		return newError(XARBTimeout, nil, "%s rolled back by timeout", xid)
	}

	if code, ok := s.heuristics[key]; ok {
		return newError(code, nil, "%s heuristically completed", xid)
	}

	return newError(XAERNotA, nil, "%s", xid)
}

// lockBranch returns the locked branch of the xid, the caller must unlock it
func (s *Service) lockBranch(xid meta.Xid) (*branch, error) {
	s.RLock()
	b, ok := s.branches[xid.Key()]
	s.RUnlock()

	if !ok {
		return nil, s.missing(xid)
	}

	b.Lock()
	if b.terminal() {
		b.Unlock()
		return nil, s.missing(xid)
	}

	return b, nil
}

func (s *Service) start(member string, xid meta.Xid, timeout time.Duration) (*branch, error) {
	if !xid.Valid() {
		return nil, newError(XAERInval, nil, "invalid xid %s", xid)
	}

	key := xid.Key()
	s.Lock()
	defer s.Unlock()

	if _, ok := s.branches[key]; ok {
		return nil, newError(XAERDupID, nil, "%s", xid)
	}

	if _, ok := s.tombstones[key]; ok {
		return nil, newError(XAERDupID, nil, "%s timed out", xid)
	}

	b := newBranch(xid, member, timeout)
	timer, err := util.DefaultTW.Schedule(timeout, s.onTimeout, key)
	if err != nil {
		return nil, newError(XAERRMErr, err, "schedule timeout")
	}
	b.timer = timer
	b.hasTimer = true

	s.branches[key] = b
	metrics.XAActiveGauge.Set(float64(len(s.branches)))
	log.Debugf("%s: timeout %s", meta.TagXid(xid, "start"), timeout)
	return b, nil
}

func (s *Service) onTimeout(arg interface{}) {
	key := arg.(string)

	s.RLock()
	b, ok := s.branches[key]
	s.RUnlock()
	if !ok {
		return
	}

	b.Lock()
	defer b.Unlock()

	b.hasTimer = false
	if b.terminal() || b.state == statePrepared {
		return
	}

	s.rollbackLocked(b, true)
}

// rollbackLocked discards the writes and removes the branch, leaves a
// tombstone if rolled back by timeout
func (s *Service) rollbackLocked(b *branch, timeout bool) error {
	if b.state == statePrepared {
		err := s.opts.storage.Remove(b.xid)
		if err != nil {
			metrics.XACounter.WithLabelValues(metrics.ActionRollback, metrics.StatusFailed).Inc()
			return newError(XAERRMErr, err, "remove prepared record")
		}
	}

	// the tombstone goes first, a lookup never sees the branch gone and unmarked
	if timeout {
		s.addTombstone(b.xid)
	}

	s.finish(b, stateRolledBack)
	b.writes = nil

	if timeout {
		metrics.XACounter.WithLabelValues(metrics.ActionTimeout, metrics.StatusSucceed).Inc()
		log.Warnf("%s: rolled back after %s", meta.TagXid(b.xid, "timeout"), b.timeout)
		return nil
	}

	metrics.XACounter.WithLabelValues(metrics.ActionRollback, metrics.StatusSucceed).Inc()
	log.Debugf("%s: rolled back", meta.TagXid(b.xid, "rollback"))
	return nil
}

// lockKeys locks the written keys of the loaded prepared branch
func (s *Service) lockKeys(b *branch) error {
	for name, keys := range b.writtenKeys() {
		ok, holder, err := s.opts.locker.Lock(name, b.xid.Key(), keys...)
		if err != nil {
			return errors.Wrapf(err, "lock %s keys of %s", name, b.xid)
		}

		if !ok {
			log.Fatalf("%s: bug, %s keys locked by %s", meta.TagXid(b.xid, "recover"), name, holder)
		}
	}

	return nil
}

func (s *Service) unlockKeys(b *branch) {
	for name, keys := range b.writtenKeys() {
		err := s.opts.locker.Unlock(name, b.xid.Key(), keys...)
		if err != nil {
			log.Errorf("%s: unlock %s keys failed with %+v", meta.TagXid(b.xid, "unlock"), name, err)
		}
	}
}

func (s *Service) unlockKey(name string, b *branch, key []byte) {
	err := s.opts.locker.Unlock(name, b.xid.Key(), string(key))
	if err != nil {
		log.Errorf("%s: unlock %s key failed with %+v", meta.TagXid(b.xid, "unlock"), name, err)
	}
}

func (s *Service) addTombstone(xid meta.Xid) {
	key := xid.Key()
	s.Lock()
	s.tombstones[key] = time.Now()
	s.Unlock()

	_, err := util.DefaultTW.Schedule(s.opts.tombstoneTTL, s.removeTombstone, key)
	if err != nil {
		log.Errorf("%s: schedule tombstone removal failed with %+v", meta.TagXid(xid, "timeout"), err)
	}
}

func (s *Service) removeTombstone(arg interface{}) {
	s.Lock()
	delete(s.tombstones, arg.(string))
	s.Unlock()
}

// finish moves the branch to the terminal state, releases the key locks and
// removes it from the table
func (s *Service) finish(b *branch, st state) {
	b.state = st
	b.stopTimer()
	s.unlockKeys(b)

	s.Lock()
	delete(s.branches, b.xid.Key())
	metrics.XAActiveGauge.Set(float64(len(s.branches)))
	s.Unlock()

	metrics.XADurationHistogram.Observe(time.Since(b.startAt).Seconds())
}

func (s *Service) end(b *branch, flags int) error {
	if b.expired() {
		s.rollbackLocked(b, true)
		return newError(XARBTimeout, nil, "%s", b.xid)
	}

	if b.state != stateActive {
		return newError(XAERProto, nil, "end %s in state %s", b.xid, b.state)
	}

	switch flags {
	case TMSuccess:
		b.state = stateEnded
		b.suspended = false
	case TMFail:
		b.state = stateEnded
		b.suspended = false
		b.rollbackOnly = true
	case TMSuspend:
		b.suspended = true
	default:
		return newError(XAERInval, nil, "end flags 0x%x", flags)
	}

	metrics.XACounter.WithLabelValues(metrics.ActionEnd, metrics.StatusSucceed).Inc()
	return nil
}

func (s *Service) prepare(xid meta.Xid) error {
	b, err := s.lockBranch(xid)
	if err != nil {
		return err
	}
	defer b.Unlock()

	if b.expired() {
		s.rollbackLocked(b, true)
		return newError(XARBTimeout, nil, "%s", xid)
	}

	if b.state != stateEnded {
		return newError(XAERProto, nil, "prepare %s in state %s", xid, b.state)
	}

	if b.rollbackOnly {
		s.rollbackLocked(b, false)
		return newError(XARBRollback, nil, "%s is rollback only", xid)
	}

	b.preparedAt = time.Now()
	err = s.opts.storage.Put(b.record())
	if err != nil {
		metrics.XACounter.WithLabelValues(metrics.ActionPrepare, metrics.StatusFailed).Inc()
		return newError(XAERRMErr, err, "persist prepared record")
	}

	b.state = statePrepared
	b.stopTimer()
	metrics.XACounter.WithLabelValues(metrics.ActionPrepare, metrics.StatusSucceed).Inc()
	log.Debugf("%s: %d writes", meta.TagXid(xid, "prepare"), len(b.writes))
	return nil
}

func (s *Service) commit(xid meta.Xid, onePhase bool) error {
	b, err := s.lockBranch(xid)
	if err != nil {
		return err
	}
	defer b.Unlock()

	if onePhase {
		if !s.opts.onePhase {
			return newError(XAERProto, nil, "one phase commit is disabled")
		}

		if b.expired() {
			s.rollbackLocked(b, true)
			return newError(XARBTimeout, nil, "%s", xid)
		}

		if b.state != stateEnded {
			return newError(XAERProto, nil, "one phase commit %s in state %s", xid, b.state)
		}

		if b.rollbackOnly {
			s.rollbackLocked(b, false)
			return newError(XARBRollback, nil, "%s is rollback only", xid)
		}
	} else if b.state != statePrepared {
		if b.expired() {
			s.rollbackLocked(b, true)
			return newError(XARBTimeout, nil, "%s", xid)
		}

		return newError(XAERProto, nil, "commit %s in state %s", xid, b.state)
	}

	return s.commitLocked(b)
}

func (s *Service) commitLocked(b *branch) error {
	err := s.apply(b)
	if err != nil {
		metrics.XACounter.WithLabelValues(metrics.ActionCommit, metrics.StatusFailed).Inc()
		return newError(XAERRMErr, err, "apply writes of %s", b.xid)
	}

	if b.state == statePrepared {
		err = s.opts.storage.Remove(b.xid)
		if err != nil {
			log.Errorf("%s: remove prepared record failed with %+v",
				meta.TagXid(b.xid, "commit"),
				err)
		}
	}

	s.finish(b, stateCommitted)
	metrics.XACounter.WithLabelValues(metrics.ActionCommit, metrics.StatusSucceed).Inc()
	log.Debugf("%s: %d writes applied", meta.TagXid(b.xid, "commit"), len(b.writes))
	return nil
}

// apply applies the staged writes in order, retry of a failed apply is safe
// since the writes are idempotent
func (s *Service) apply(b *branch) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.applyTimeout)
	defer cancel()

	count := s.partitions.Snapshot().Count()
	for _, w := range b.writes {
		id := partition.PartitionOf(w.Key, count)

		var op operation.Operation
		switch w.Op {
		case meta.PutOp:
			op = &operation.PutOperation{PartitionID: id, Name: w.Map, Key: w.Key, Value: w.Value}
		case meta.RemoveOp:
			op = &operation.RemoveOperation{PartitionID: id, Name: w.Map, Key: w.Key}
		default:
			log.Fatalf("%s: unknown write op %d", meta.TagXid(b.xid, "apply"), w.Op)
		}

		_, err := s.executor.InvokeOnPartition(ctx, op)
		if err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) rollback(xid meta.Xid) error {
	b, err := s.lockBranch(xid)
	if err != nil {
		return err
	}
	defer b.Unlock()

	return s.rollbackLocked(b, false)
}

func (s *Service) recover() []meta.Xid {
	s.RLock()
	values := make([]*branch, 0, len(s.branches))
	for _, b := range s.branches {
		values = append(values, b)
	}
	s.RUnlock()

	xids := make([]meta.Xid, 0, len(values))
	for _, b := range values {
		b.Lock()
		if b.state == statePrepared {
			xids = append(xids, b.xid)
		}
		b.Unlock()
	}

	sort.Slice(xids, func(i, j int) bool {
		return xids[i].Key() < xids[j].Key()
	})
	return xids
}

func (s *Service) forget(xid meta.Xid) error {
	key := xid.Key()

	s.Lock()
	defer s.Unlock()

	if _, ok := s.heuristics[key]; !ok {
		return newError(XAERNotA, nil, "%s is not heuristically completed", xid)
	}

	delete(s.heuristics, key)
	return nil
}

// HeuristicCommit commits the prepared branch without the transaction
// manager, the outcome is remembered until forgotten
func (s *Service) HeuristicCommit(xid meta.Xid) error {
	return s.heuristic(xid, XAHeurCom)
}

// HeuristicRollback rolls back the prepared branch without the transaction
// manager, the outcome is remembered until forgotten
func (s *Service) HeuristicRollback(xid meta.Xid) error {
	return s.heuristic(xid, XAHeurRB)
}

func (s *Service) heuristic(xid meta.Xid, code int) error {
	b, err := s.lockBranch(xid)
	if err != nil {
		return err
	}
	defer b.Unlock()

	if b.state != statePrepared {
		return newError(XAERProto, nil, "heuristic completion of %s in state %s", xid, b.state)
	}

	if code == XAHeurCom {
		err = s.commitLocked(b)
	} else {
		err = s.rollbackLocked(b, false)
	}
	if err != nil {
		return err
	}

	s.Lock()
	s.heuristics[xid.Key()] = code
	s.Unlock()

	log.Warnf("%s: heuristically completed with %s", meta.TagXid(xid, "heuristic"), codeName(code))
	return nil
}
