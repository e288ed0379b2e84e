package xa

import (
	"context"

	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
	pkgerrors "github.com/pkg/errors"
)

// TransactionContext the context of a xa branch, the lifecycle is driven
// by the xa resource
type TransactionContext struct {
	svc *Service
	b   *branch
}

// Xid returns the xid of the branch, the zero xid if no branch associated
func (c *TransactionContext) Xid() meta.Xid {
	if c.b == nil {
		return meta.Xid{}
	}

	return c.b.xid
}

// Begin always fails, the branch is started by the resource
func (c *TransactionContext) Begin() error {
	return c.forbidden()
}

// Commit always fails, the branch is completed by the resource
func (c *TransactionContext) Commit() error {
	return c.forbidden()
}

// Rollback always fails, the branch is completed by the resource
func (c *TransactionContext) Rollback() error {
	return c.forbidden()
}

func (c *TransactionContext) forbidden() error {
	if c.b == nil {
		return newError(XAEROutside, nil, "no branch associated")
	}

	return ErrManualLifecycleForbidden
}

// Map returns the transactional map of the name
func (c *TransactionContext) Map(name string) *TransactionalMap {
	return &TransactionalMap{
		ctx:  c,
		name: name,
	}
}

// TransactionalMap stages the writes into the branch, the writes are
// applied on commit
type TransactionalMap struct {
	ctx  *TransactionContext
	name string
}

// Name returns the map name
func (m *TransactionalMap) Name() string {
	return m.name
}

// Put stages the put, returns the value visible to the branch before
func (m *TransactionalMap) Put(ctx context.Context, key, value []byte) ([]byte, error) {
	return m.write(ctx, meta.StagedWrite{Op: meta.PutOp, Map: m.name, Key: key, Value: value})
}

// Remove stages the remove, returns the value visible to the branch before
func (m *TransactionalMap) Remove(ctx context.Context, key []byte) ([]byte, error) {
	return m.write(ctx, meta.StagedWrite{Op: meta.RemoveOp, Map: m.name, Key: key})
}

// Get returns the value visible to the branch, the staged writes first
func (m *TransactionalMap) Get(ctx context.Context, key []byte) ([]byte, error) {
	b, err := m.lockActive()
	if err != nil {
		return nil, err
	}
	defer b.Unlock()

	return m.readLocked(ctx, b, key)
}

func (m *TransactionalMap) write(ctx context.Context, w meta.StagedWrite) ([]byte, error) {
	b, err := m.lockActive()
	if err != nil {
		return nil, err
	}
	defer b.Unlock()

	svc := m.ctx.svc
	_, staged := b.staged(m.name, w.Key)
	ok, holder, err := svc.opts.locker.Lock(m.name, b.xid.Key(), string(w.Key))
	if err != nil {
		return nil, newError(XAERRMErr, err, "lock %s", m.name)
	}
	if !ok {
		return nil, pkgerrors.Wrapf(ErrKeyLocked, "%s locked by %s", m.name, holder)
	}

	old, err := m.readLocked(ctx, b, w.Key)
	if err != nil {
		// the branch only releases the keys it staged
		if !staged {
			svc.unlockKey(m.name, b, w.Key)
		}
		return nil, err
	}

	b.stage(w)
	return old, nil
}

func (m *TransactionalMap) lockActive() (*branch, error) {
	b := m.ctx.b
	if b == nil {
		return nil, newError(XAEROutside, nil, "no branch associated")
	}

	b.Lock()
	if b.terminal() {
		b.Unlock()
		return nil, m.ctx.svc.missing(b.xid)
	}

	if b.expired() {
		m.ctx.svc.rollbackLocked(b, true)
		b.Unlock()
		return nil, newError(XARBTimeout, nil, "%s", b.xid)
	}

	if b.state != stateActive || b.suspended {
		b.Unlock()
		return nil, newError(XAERProto, nil, "work on %s in state %s", b.xid, b.state)
	}

	return b, nil
}

func (m *TransactionalMap) readLocked(ctx context.Context, b *branch, key []byte) ([]byte, error) {
	if w, ok := b.staged(m.name, key); ok {
		if w.Op == meta.RemoveOp {
			return nil, nil
		}
		return w.Value, nil
	}

	svc := m.ctx.svc
	value, err := svc.executor.InvokeOnPartition(ctx, &operation.GetOperation{
		PartitionID: partition.PartitionOf(key, svc.partitions.Snapshot().Count()),
		Name:        m.name,
		Key:         key,
	})
	if err != nil {
		return nil, newError(XAERRMErr, err, "read %s", m.name)
	}

	data, _ := value.([]byte)
	return data, nil
}
