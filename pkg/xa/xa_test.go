package xa

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/infinivision/gridcore/pkg/id"
	"github.com/infinivision/gridcore/pkg/lock"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
	"github.com/infinivision/gridcore/pkg/storage/mem"
	"github.com/infinivision/gridcore/pkg/store"
	"github.com/stretchr/testify/assert"
)

type storeExecutor struct {
	s *store.Store
}

func (e storeExecutor) InvokeOnPartition(ctx context.Context, op operation.Operation) (interface{}, error) {
	return op.Run(ctx, e.s)
}

type testEnv struct {
	svc    *Service
	store  *store.Store
	first  *Resource
	second *Resource
	xid    meta.Xid
}

func newTestEnv(t *testing.T, opts ...Option) *testEnv {
	ps := partition.NewService(16, id.NewMemGenerator())
	ps.Assign([]string{"m1", "m2"})

	s := store.New()
	svc, err := NewService(ps, storeExecutor{s: s}, opts...)
	assert.Nilf(t, err, "check create service failed with %+v", err)

	return &testEnv{
		svc:    svc,
		store:  s,
		first:  svc.Resource("m1"),
		second: svc.Resource("m2"),
		xid:    meta.NewXid("test"),
	}
}

func (e *testEnv) value(key string) []byte {
	count := int32(16)
	return e.store.Get(partition.PartitionOf([]byte(key), count), "map", []byte(key))
}

func doSomeWork(t *testing.T, r *Resource, xid meta.Xid) {
	assert.Nil(t, r.Start(xid, TMNoFlags), "check start failed")

	m := r.TransactionContext().Map("map")
	_, err := m.Put(context.Background(), []byte("key"), []byte("value"))
	assert.Nilf(t, err, "check put failed with %+v", err)

	assert.Nil(t, r.End(xid, TMSuccess), "check end failed")
}

func prepare(t *testing.T, r *Resource, xid meta.Xid) {
	code, err := r.Prepare(xid)
	assert.Nilf(t, err, "check prepare failed with %+v", err)
	assert.Equal(t, XAOK, code, "check prepare code failed")
}

func assertRollbackTolerated(t *testing.T, err error) {
	if err == nil {
		return
	}

	code := CodeOf(err)
	assert.True(t, IsRollback(err) || code == XAERNotA, "rollback gives unexpected code %d", code)
}

func TestIsSameRM(t *testing.T) {
	e := newTestEnv(t)
	assert.True(t, e.first.IsSameRM(e.second), "check same rm failed")
	assert.False(t, e.first.IsSameRM(nil), "check nil rm failed")

	other := newTestEnv(t)
	assert.False(t, e.first.IsSameRM(other.first), "check other rm failed")
}

func TestRecoveryRequiresRollbackOfPreparedXidOnSecondResource(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	prepare(t, e.first, e.xid)

	assertRollbackTolerated(t, e.second.Rollback(e.xid))
	assert.Nil(t, e.value("key"), "check rolled back value failed")
	assert.Equal(t, 0, e.svc.Active(), "check branch removed failed")
}

func TestRecoveryRequiresCommitOfPreparedXidOnSecondResource(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	prepare(t, e.first, e.xid)

	assert.Nil(t, e.value("key"), "check value before commit failed")
	assert.Nil(t, e.second.Commit(e.xid, false), "check commit failed")
	assert.Equal(t, []byte("value"), e.value("key"), "check committed value failed")
	assert.Equal(t, 0, e.svc.Active(), "check branch removed failed")

	err := e.second.Commit(e.xid, false)
	assert.True(t, errors.Is(err, ErrNotA), "check commit again failed")
}

func TestRecoveryReturnsPreparedXid(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	prepare(t, e.first, e.xid)

	for _, r := range []*Resource{e.first, e.second} {
		xids, err := r.Recover(TMStartRScan | TMEndRScan)
		assert.Nil(t, err, "check recover failed")
		assert.Equal(t, 1, len(xids), "check recover xids failed")
		assert.True(t, e.xid.Equal(xids[0]), "check recover xid failed")
	}
}

func TestRecoverEmpty(t *testing.T) {
	e := newTestEnv(t)
	xids, err := e.first.Recover(TMStartRScan | TMEndRScan)
	assert.Nil(t, err, "check recover failed")
	assert.NotNil(t, xids, "check recover empty slice failed")
	assert.Equal(t, 0, len(xids), "check recover empty failed")
}

func TestRecoverScan(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	prepare(t, e.first, e.xid)

	_, err := e.first.Recover(TMNoFlags)
	assert.True(t, errors.Is(err, ErrProto), "check recover without scan failed")

	_, err = e.first.Recover(TMSuccess)
	assert.True(t, errors.Is(err, ErrInval), "check recover invalid flags failed")

	xids, err := e.first.Recover(TMStartRScan)
	assert.Nil(t, err, "check recover start failed")
	assert.Equal(t, 1, len(xids), "check recover start failed")

	xids, err = e.first.Recover(TMNoFlags)
	assert.Nil(t, err, "check recover continue failed")
	assert.Equal(t, 0, len(xids), "check recover continue failed")

	xids, err = e.first.Recover(TMEndRScan)
	assert.Nil(t, err, "check recover end failed")
	assert.Equal(t, 0, len(xids), "check recover end failed")

	_, err = e.first.Recover(TMNoFlags)
	assert.True(t, errors.Is(err, ErrProto), "check recover after end failed")
}

func TestRollbackOfUnknownXid(t *testing.T) {
	e := newTestEnv(t)
	err := e.first.Rollback(e.xid)
	assertRollbackTolerated(t, err)
	assert.True(t, errors.Is(err, ErrNotA), "check unknown xid failed")
}

func TestRecoveryAllowedAtAnyTime(t *testing.T) {
	e := newTestEnv(t)
	recoverAll := func() {
		_, err := e.first.Recover(TMStartRScan | TMEndRScan)
		assert.Nil(t, err, "check recover failed")
	}

	recoverAll()
	doSomeWork(t, e.first, e.xid)
	recoverAll()
	prepare(t, e.first, e.xid)
	recoverAll()
	assert.Nil(t, e.first.Commit(e.xid, false), "check commit failed")
	recoverAll()
}

func TestManualLifecycleForbidden(t *testing.T) {
	e := newTestEnv(t)
	assert.Nil(t, e.first.Start(e.xid, TMNoFlags), "check start failed")

	c := e.first.TransactionContext()
	assert.True(t, e.xid.Equal(c.Xid()), "check context xid failed")
	assert.Equal(t, ErrManualLifecycleForbidden, c.Begin(), "check manual begin failed")
	assert.Equal(t, ErrManualLifecycleForbidden, c.Commit(), "check manual commit failed")
	assert.Equal(t, ErrManualLifecycleForbidden, c.Rollback(), "check manual rollback failed")
}

func TestTransactionTimeout(t *testing.T) {
	e := newTestEnv(t)
	assert.False(t, e.first.SetTransactionTimeout(-1), "check negative timeout failed")
	assert.True(t, e.first.SetTransactionTimeout(1), "check set timeout failed")
	assert.Equal(t, 1, e.first.TransactionTimeout(), "check timeout failed")

	assert.Nil(t, e.first.Start(e.xid, TMNoFlags), "check start failed")
	_, err := e.first.TransactionContext().Map("map").Put(context.Background(), []byte("key"), []byte("val"))
	assert.Nil(t, err, "check put failed")
	assert.Nil(t, e.first.End(e.xid, TMSuccess), "check end failed")

	time.Sleep(time.Millisecond * 1500)

	err = e.first.Commit(e.xid, true)
	assert.True(t, IsTimeout(err), "check commit after timeout failed: %+v", err)
	assert.True(t, IsRollback(err), "check rollback class failed")
	assert.Nil(t, e.value("key"), "check timed out value failed")

	err = e.first.Rollback(e.xid)
	assert.True(t, IsTimeout(err), "check rollback after timeout failed")

	assert.True(t, e.first.SetTransactionTimeout(0), "check reset timeout failed")
	assert.Equal(t, int(DefaultTimeout/time.Second), e.first.TransactionTimeout(), "check default timeout failed")
}

func TestStartFlags(t *testing.T) {
	e := newTestEnv(t)

	err := e.first.Start(e.xid, TMJoin)
	assert.True(t, errors.Is(err, ErrNotA), "check join unknown failed")

	err = e.first.Start(e.xid, TMResume)
	assert.True(t, errors.Is(err, ErrNotA), "check resume unknown failed")

	err = e.first.Start(e.xid, TMFail)
	assert.True(t, errors.Is(err, ErrInval), "check invalid start flags failed")

	assert.Nil(t, e.first.Start(e.xid, TMNoFlags), "check start failed")
	err = e.second.Start(e.xid, TMNoFlags)
	assert.True(t, errors.Is(err, ErrDupID), "check duplicate xid failed")

	assert.Nil(t, e.second.Start(e.xid, TMJoin), "check join failed")
	assert.Nil(t, e.second.End(e.xid, TMSuspend), "check suspend failed")
	assert.Nil(t, e.second.Start(e.xid, TMResume), "check resume failed")
	assert.Nil(t, e.second.End(e.xid, TMSuccess), "check end failed")

	err = e.first.End(e.xid, TMSuccess)
	assert.True(t, errors.Is(err, ErrProto), "check end twice failed")
}

func TestEndFailIsRollbackOnly(t *testing.T) {
	e := newTestEnv(t)
	assert.Nil(t, e.first.Start(e.xid, TMNoFlags), "check start failed")
	assert.Nil(t, e.first.End(e.xid, TMFail), "check end failed")

	code, err := e.first.Prepare(e.xid)
	assert.Equal(t, XARBRollback, code, "check prepare rollback only failed")
	assert.True(t, IsRollback(err), "check rollback class failed")
	assert.Equal(t, 0, e.svc.Active(), "check branch removed failed")
}

func TestOnePhaseCommit(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	assert.Nil(t, e.first.Commit(e.xid, true), "check one phase commit failed")
	assert.Equal(t, []byte("value"), e.value("key"), "check committed value failed")

	e = newTestEnv(t, WithOnePhaseCommit(false))
	doSomeWork(t, e.first, e.xid)
	err := e.first.Commit(e.xid, true)
	assert.True(t, errors.Is(err, ErrProto), "check one phase disabled failed")

	err = e.first.Commit(e.xid, false)
	assert.True(t, errors.Is(err, ErrProto), "check commit not prepared failed")
}

func TestReadYourWrites(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.store.Put(partition.PartitionOf([]byte("k1"), 16), "map", []byte("k1"), []byte("v0"))

	assert.Nil(t, e.first.Start(e.xid, TMNoFlags), "check start failed")
	m := e.first.TransactionContext().Map("map")

	value, err := m.Get(ctx, []byte("k1"))
	assert.Nil(t, err, "check get failed")
	assert.Equal(t, []byte("v0"), value, "check backing value failed")

	old, err := m.Put(ctx, []byte("k1"), []byte("v1"))
	assert.Nil(t, err, "check put failed")
	assert.Equal(t, []byte("v0"), old, "check old value failed")

	value, _ = m.Get(ctx, []byte("k1"))
	assert.Equal(t, []byte("v1"), value, "check staged value failed")

	old, err = m.Remove(ctx, []byte("k1"))
	assert.Nil(t, err, "check remove failed")
	assert.Equal(t, []byte("v1"), old, "check removed value failed")

	value, _ = m.Get(ctx, []byte("k1"))
	assert.Nil(t, value, "check staged remove failed")
	assert.Equal(t, []byte("v0"), e.value("k1"), "check backing value untouched failed")

	assert.Nil(t, e.first.End(e.xid, TMSuccess), "check end failed")
	_, err = m.Get(ctx, []byte("k1"))
	assert.True(t, errors.Is(err, ErrProto), "check work after end failed")

	assert.Nil(t, e.first.Commit(e.xid, true), "check commit failed")
	assert.Nil(t, e.value("k1"), "check committed remove failed")
}

func TestPreparedRecordsReloaded(t *testing.T) {
	ps := partition.NewService(16, id.NewMemGenerator())
	ps.Assign([]string{"m1"})
	s := store.New()
	records := mem.NewStorage()

	svc, err := NewService(ps, storeExecutor{s: s}, WithStorage(records))
	assert.Nil(t, err, "check create service failed")

	xid := meta.NewXid("reload")
	doSomeWork(t, svc.Resource("m1"), xid)
	_, err = svc.Resource("m1").Prepare(xid)
	assert.Nil(t, err, "check prepare failed")

	c, _ := records.Count()
	assert.Equal(t, uint64(1), c, "check prepared record failed")

	restarted, err := NewService(ps, storeExecutor{s: s}, WithStorage(records))
	assert.Nil(t, err, "check restart service failed")

	r := restarted.Resource("m1")
	xids, err := r.Recover(TMStartRScan | TMEndRScan)
	assert.Nil(t, err, "check recover failed")
	assert.Equal(t, 1, len(xids), "check reloaded xid failed")

	assert.Nil(t, r.Commit(xid, false), "check commit reloaded failed")
	c, _ = records.Count()
	assert.Equal(t, uint64(0), c, "check prepared record removed failed")
	assert.Equal(t, []byte("value"), s.Get(partition.PartitionOf([]byte("key"), 16), "map", []byte("key")), "check committed value failed")
}

func TestHeuristicCompletion(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	prepare(t, e.first, e.xid)

	assert.Nil(t, e.svc.HeuristicCommit(e.xid), "check heuristic commit failed")
	assert.Equal(t, []byte("value"), e.value("key"), "check heuristic committed value failed")

	err := e.second.Commit(e.xid, false)
	assert.Equal(t, XAHeurCom, CodeOf(err), "check commit after heuristic failed")

	assert.Nil(t, e.second.Forget(e.xid), "check forget failed")
	err = e.second.Forget(e.xid)
	assert.True(t, errors.Is(err, ErrNotA), "check forget again failed")

	err = e.second.Commit(e.xid, false)
	assert.True(t, errors.Is(err, ErrNotA), "check commit after forget failed")
}

func TestConcurrentCompletion(t *testing.T) {
	e := newTestEnv(t)
	doSomeWork(t, e.first, e.xid)
	prepare(t, e.first, e.xid)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, r := range []*Resource{e.first, e.second} {
		wg.Add(1)
		go func(r *Resource) {
			defer wg.Done()
			errs <- r.Commit(e.xid, false)
		}(r)
	}
	wg.Wait()
	close(errs)

	succeed := 0
	for err := range errs {
		if err == nil {
			succeed++
			continue
		}
		assert.True(t, errors.Is(err, ErrNotA), "check loser failed")
	}
	assert.Equal(t, 1, succeed, "check exactly one commit failed")
}

func TestConflictingWritesLocked(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	other := meta.NewXid("other")

	doSomeWork(t, e.first, e.xid)

	assert.Nil(t, e.second.Start(other, TMNoFlags), "check start other failed")
	m := e.second.TransactionContext().Map("map")
	_, err := m.Put(ctx, []byte("key"), []byte("other"))
	assert.True(t, errors.Is(err, ErrKeyLocked), "check conflicting put failed: %+v", err)

	_, err = m.Put(ctx, []byte("free"), []byte("other"))
	assert.Nil(t, err, "check put free key failed")

	value, err := m.Get(ctx, []byte("key"))
	assert.Nil(t, err, "check read locked key failed")
	assert.Nil(t, value, "check read uncommitted value failed")

	assert.Nil(t, e.first.Commit(e.xid, true), "check commit failed")

	_, err = m.Remove(ctx, []byte("key"))
	assert.Nil(t, err, "check remove after commit failed")
	assert.Nil(t, e.second.End(other, TMSuccess), "check end other failed")
	assert.Nil(t, e.second.Rollback(other), "check rollback other failed")

	doSomeWork(t, e.first, meta.NewXid("third"))
}

type flakyExecutor struct {
	storeExecutor
	failures int32
}

func (e *flakyExecutor) InvokeOnPartition(ctx context.Context, op operation.Operation) (interface{}, error) {
	if atomic.AddInt32(&e.failures, -1) >= 0 {
		return nil, operation.ErrWrongTarget
	}

	return e.storeExecutor.InvokeOnPartition(ctx, op)
}

func TestFailedWriteReleasesKey(t *testing.T) {
	ps := partition.NewService(16, id.NewMemGenerator())
	ps.Assign([]string{"m1"})

	svc, err := NewService(ps, &flakyExecutor{storeExecutor: storeExecutor{s: store.New()}, failures: 1})
	assert.Nilf(t, err, "check create service failed with %+v", err)

	ctx := context.Background()
	r := svc.Resource("m1")
	x1 := meta.NewXid("x1")
	assert.Nil(t, r.Start(x1, TMNoFlags), "check start failed")

	_, err = r.TransactionContext().Map("map").Put(ctx, []byte("key"), []byte("v1"))
	assert.Equal(t, XAERRMErr, CodeOf(err), "check failed read failed: %+v", err)
	assert.Nil(t, r.End(x1, TMSuccess), "check end failed")
	assert.Nil(t, r.Rollback(x1), "check rollback failed")

	x2 := meta.NewXid("x2")
	assert.Nil(t, r.Start(x2, TMNoFlags), "check start x2 failed")
	_, err = r.TransactionContext().Map("map").Put(ctx, []byte("key"), []byte("v2"))
	assert.Nilf(t, err, "check put after failed write failed with %+v", err)
	assert.Nil(t, r.End(x2, TMSuccess), "check end x2 failed")
	assert.Nil(t, r.Commit(x2, true), "check commit x2 failed")
}

func TestFailedWriteKeepsStagedKeyLocked(t *testing.T) {
	ps := partition.NewService(16, id.NewMemGenerator())
	ps.Assign([]string{"m1"})

	ex := &flakyExecutor{storeExecutor: storeExecutor{s: store.New()}}
	svc, err := NewService(ps, ex)
	assert.Nilf(t, err, "check create service failed with %+v", err)

	ctx := context.Background()
	first := svc.Resource("m1")
	x1 := meta.NewXid("x1")
	assert.Nil(t, first.Start(x1, TMNoFlags), "check start failed")

	m := first.TransactionContext().Map("map")
	_, err = m.Put(ctx, []byte("key"), []byte("v1"))
	assert.Nil(t, err, "check put failed")

	// the staged key is read from the branch, a failed read of another key
	// must not release it
	atomic.StoreInt32(&ex.failures, 1)
	_, err = m.Put(ctx, []byte("other"), []byte("v1"))
	assert.NotNil(t, err, "check failed put failed")

	second := svc.Resource("m1")
	x2 := meta.NewXid("x2")
	assert.Nil(t, second.Start(x2, TMNoFlags), "check start x2 failed")
	_, err = second.TransactionContext().Map("map").Put(ctx, []byte("key"), []byte("v2"))
	assert.True(t, errors.Is(err, ErrKeyLocked), "check staged key still locked failed: %+v", err)
}

// observedLocker reports the lookup result of the xid each time keys are
// released
type observedLocker struct {
	lock.ResourceLock

	mu       sync.Mutex
	onUnlock func() error
	seen     []error
}

func (l *observedLocker) Unlock(resource string, owner string, keys ...string) error {
	l.mu.Lock()
	if l.onUnlock != nil {
		l.seen = append(l.seen, l.onUnlock())
	}
	l.mu.Unlock()

	return l.ResourceLock.Unlock(resource, owner, keys...)
}

func TestTimeoutTombstoneBeforeRelease(t *testing.T) {
	locker := &observedLocker{ResourceLock: lock.NewMemResourceLocker()}
	e := newTestEnv(t, WithLocker(locker))
	locker.mu.Lock()
	locker.onUnlock = func() error {
		return e.svc.missing(e.xid)
	}
	locker.mu.Unlock()

	assert.True(t, e.first.SetTransactionTimeout(1), "check set timeout failed")
	doSomeWork(t, e.first, e.xid)

	time.Sleep(time.Millisecond * 1500)

	err := e.first.Commit(e.xid, true)
	assert.True(t, IsTimeout(err), "check commit after timeout failed: %+v", err)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.NotEmpty(t, locker.seen, "check keys released failed")
	for _, err := range locker.seen {
		assert.True(t, IsTimeout(err), "check lookup during release failed: %+v", err)
	}
}
