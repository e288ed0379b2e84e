package meta

import (
	"fmt"
	"time"
)

// TagXid returns a log tag of the xid
func TagXid(xid Xid, action string) string {
	return fmt.Sprintf("XA[%s]-%s", xid.String(), action)
}

// TagPartition returns a log tag of the partition
func TagPartition(id int32) string {
	return fmt.Sprintf("[partition-%d]", id)
}

// TagTask returns a log tag of the task
func TagTask(conn uint64, msg *ClientMessage) string {
	return fmt.Sprintf("[conn-%d]: %s[%d]", conn, msg.Type.Name(), msg.CorrelationID)
}

// WriteOp the kind of a staged write
type WriteOp byte

const (
	// PutOp put the key
	PutOp = WriteOp(0)
	// RemoveOp remove the key
	RemoveOp = WriteOp(1)
)

// StagedWrite a write staged by a transaction branch
type StagedWrite struct {
	Op    WriteOp `json:"op"`
	Map   string  `json:"map"`
	Key   []byte  `json:"key"`
	Value []byte  `json:"value,omitempty"`
}

// PreparedRecord the durable record of a prepared transaction branch
type PreparedRecord struct {
	Xid        Xid           `json:"xid"`
	Member     string        `json:"member"`
	StartAt    int64         `json:"startAt"`
	PreparedAt int64         `json:"preparedAt"`
	Writes     []StagedWrite `json:"writes,omitempty"`
}

// Age returns the age of the record since prepared
func (r *PreparedRecord) Age() time.Duration {
	return time.Since(time.Unix(0, r.PreparedAt))
}

// PartitionLostEvent a partition lost all its replicas
type PartitionLostEvent struct {
	PartitionID int32  `json:"partitionId"`
	LostBackup  int32  `json:"lostBackup"`
	Member      string `json:"member"`
}

// JSONResult json result
type JSONResult struct {
	Code  int         `json:"code"`
	Value interface{} `json:"value,omitempty"`
}

// MemberInfo the published endpoints of one grid member
type MemberInfo struct {
	ID        string `json:"id"`
	Addr      string `json:"addr"`
	AdminAddr string `json:"adminAddr,omitempty"`
}
