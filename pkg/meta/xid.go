package meta

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/fagongzi/util/format"
	"github.com/google/uuid"
)

const (
	// DefaultFormatID format id used by xids created in this process
	DefaultFormatID int32 = 0x4752

	// MaxGtridSize max size of the global transaction id
	MaxGtridSize = 64
	// MaxBqualSize max size of the branch qualifier
	MaxBqualSize = 64
)

// Xid global transaction identifier
type Xid struct {
	FormatID            int32  `json:"formatId"`
	GlobalTransactionID []byte `json:"gtrid"`
	BranchQualifier     []byte `json:"bqual"`
}

// NewXid returns a xid with a random global transaction id
func NewXid(bqual string) Xid {
	id := uuid.New()
	return Xid{
		FormatID:            DefaultFormatID,
		GlobalTransactionID: []byte(id.String()),
		BranchQualifier:     []byte(bqual),
	}
}

// Valid returns true if the xid fits the 2pc limits
func (x Xid) Valid() bool {
	return len(x.GlobalTransactionID) > 0 &&
		len(x.GlobalTransactionID) <= MaxGtridSize &&
		len(x.BranchQualifier) <= MaxBqualSize
}

// Equal returns true if the two xids are same
func (x Xid) Equal(other Xid) bool {
	return x.FormatID == other.FormatID &&
		bytes.Equal(x.GlobalTransactionID, other.GlobalTransactionID) &&
		bytes.Equal(x.BranchQualifier, other.BranchQualifier)
}

// Key returns the canonical string form: formatID:hex(gtrid):hex(bqual)
func (x Xid) Key() string {
	return fmt.Sprintf("%d:%s:%s",
		x.FormatID,
		hex.EncodeToString(x.GlobalTransactionID),
		hex.EncodeToString(x.BranchQualifier))
}

func (x Xid) String() string {
	return fmt.Sprintf("%d/%s/%s",
		x.FormatID,
		x.GlobalTransactionID,
		x.BranchQualifier)
}

// ParseXid parse the value returned by Key
func ParseXid(key string) (Xid, error) {
	var value Xid

	values := strings.Split(key, ":")
	if len(values) != 3 {
		return value, fmt.Errorf("invalid xid key %s", key)
	}

	formatID, err := format.ParseStrInt64(values[0])
	if err != nil {
		return value, err
	}

	gtrid, err := hex.DecodeString(values[1])
	if err != nil {
		return value, err
	}

	bqual, err := hex.DecodeString(values[2])
	if err != nil {
		return value, err
	}

	value.FormatID = int32(formatID)
	value.GlobalTransactionID = gtrid
	value.BranchQualifier = bqual
	return value, nil
}
