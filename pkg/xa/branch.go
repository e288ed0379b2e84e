package xa

import (
	"fmt"
	"sync"
	"time"

	"github.com/fagongzi/goetty"
	"github.com/infinivision/gridcore/pkg/meta"
)

type state int

const (
	stateActive = state(iota)
	stateEnded
	statePrepared
	stateCommitted
	stateRolledBack
)

func (s state) String() string {
	switch s {
	case stateActive:
		return "ACTIVE"
	case stateEnded:
		return "ENDED"
	case statePrepared:
		return "PREPARED"
	case stateCommitted:
		return "COMMITTED"
	case stateRolledBack:
		return "ROLLED_BACK"
	}

	return fmt.Sprintf("UNKNOWN(%d)", int(s))
}

// branch one transaction branch, all transitions hold the mutex
type branch struct {
	sync.Mutex

	xid          meta.Xid
	member       string
	state        state
	rollbackOnly bool
	suspended    bool
	startAt      time.Time
	preparedAt   time.Time
	timeout      time.Duration
	writes       []meta.StagedWrite

	timer    goetty.Timeout
	hasTimer bool
}

func newBranch(xid meta.Xid, member string, timeout time.Duration) *branch {
	return &branch{
		xid:     xid,
		member:  member,
		state:   stateActive,
		startAt: time.Now(),
		timeout: timeout,
	}
}

func (b *branch) expired() bool {
	return b.state != statePrepared && time.Since(b.startAt) > b.timeout
}

func (b *branch) terminal() bool {
	return b.state == stateCommitted || b.state == stateRolledBack
}

func (b *branch) stopTimer() {
	if b.hasTimer {
		b.timer.Stop()
		b.hasTimer = false
	}
}

func (b *branch) stage(write meta.StagedWrite) {
	b.writes = append(b.writes, write)
}

// writtenKeys returns the written keys by map name
func (b *branch) writtenKeys() map[string][]string {
	values := make(map[string][]string)
	for _, w := range b.writes {
		values[w.Map] = append(values[w.Map], string(w.Key))
	}
	return values
}

// staged returns the last staged write of the key
func (b *branch) staged(name string, key []byte) (meta.StagedWrite, bool) {
	for i := len(b.writes) - 1; i >= 0; i-- {
		w := b.writes[i]
		if w.Map == name && string(w.Key) == string(key) {
			return w, true
		}
	}

	return meta.StagedWrite{}, false
}

func (b *branch) record() *meta.PreparedRecord {
	return &meta.PreparedRecord{
		Xid:        b.xid,
		Member:     b.member,
		StartAt:    b.startAt.UnixNano(),
		PreparedAt: b.preparedAt.UnixNano(),
		Writes:     b.writes,
	}
}

func branchFromRecord(r *meta.PreparedRecord) *branch {
	return &branch{
		xid:        r.Xid,
		member:     r.Member,
		state:      statePrepared,
		startAt:    time.Unix(0, r.StartAt),
		preparedAt: time.Unix(0, r.PreparedAt),
		writes:     r.Writes,
	}
}

// BranchInfo the view of a branch
type BranchInfo struct {
	Xid          string `json:"xid"`
	Member       string `json:"member"`
	State        string `json:"state"`
	RollbackOnly bool   `json:"rollbackOnly"`
	StartAt      int64  `json:"startAt"`
	Timeout      int64  `json:"timeout"`
	Writes       int    `json:"writes"`
}

func (b *branch) info() BranchInfo {
	return BranchInfo{
		Xid:          b.xid.Key(),
		Member:       b.member,
		State:        b.state.String(),
		RollbackOnly: b.rollbackOnly,
		StartAt:      b.startAt.Unix(),
		Timeout:      int64(b.timeout / time.Second),
		Writes:       len(b.writes),
	}
}
