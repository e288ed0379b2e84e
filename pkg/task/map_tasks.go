package task

import (
	"bytes"
	"sort"

	"github.com/fagongzi/goetty"
	"github.com/infinivision/gridcore/pkg/meta"
	"github.com/infinivision/gridcore/pkg/operation"
	"github.com/infinivision/gridcore/pkg/partition"
)

type mapTask struct {
	method string
	name   string
	key    []byte
	value  []byte
}

func (t *mapTask) decodeName(in *goetty.ByteBuf) error {
	name, ok := meta.MaybeReadString(in)
	if !ok {
		return decodeError("map name")
	}

	t.name = name
	return nil
}

func (t *mapTask) decodeKey(in *goetty.ByteBuf) error {
	key, ok := meta.MaybeReadData(in)
	if !ok {
		return decodeError("map key")
	}

	t.key = key
	return nil
}

func (t *mapTask) DistributedObjectName() string {
	return t.name
}

func (t *mapTask) MethodName() string {
	return t.method
}

func (t *mapTask) partition(table *partition.Table) int32 {
	return partition.PartitionOf(t.key, table.Count())
}

func encodeData(result interface{}) (*goetty.ByteBuf, error) {
	value, _ := result.([]byte)
	buf := goetty.NewByteBuf(len(value) + 4)
	meta.WriteData(value, buf)
	return buf, nil
}

type mapPutTask struct {
	mapTask
}

func newMapPutTask(req *meta.ClientMessage) Task {
	return &mapPutTask{mapTask{method: "put"}}
}

func (t *mapPutTask) Decode(msg *meta.ClientMessage) error {
	in := msg.BodyBuf()
	defer in.Release()

	err := t.decodeName(in)
	if err != nil {
		return err
	}

	err = t.decodeKey(in)
	if err != nil {
		return err
	}

	value, ok := meta.MaybeReadData(in)
	if !ok {
		return decodeError("map value")
	}
	t.value = value
	return nil
}

func (t *mapPutTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	return encodeData(result)
}

func (t *mapPutTask) RequiredPermission() *Permission {
	return MapPermission(t.name, ActionPut)
}

func (t *mapPutTask) Operation(table *partition.Table) operation.Operation {
	return &operation.PutOperation{
		PartitionID: t.partition(table),
		Name:        t.name,
		Key:         t.key,
		Value:       t.value,
	}
}

type mapGetTask struct {
	mapTask
}

func newMapGetTask(req *meta.ClientMessage) Task {
	return &mapGetTask{mapTask{method: "get"}}
}

func (t *mapGetTask) Decode(msg *meta.ClientMessage) error {
	in := msg.BodyBuf()
	defer in.Release()

	err := t.decodeName(in)
	if err != nil {
		return err
	}

	return t.decodeKey(in)
}

func (t *mapGetTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	return encodeData(result)
}

func (t *mapGetTask) RequiredPermission() *Permission {
	return MapPermission(t.name, ActionRead)
}

func (t *mapGetTask) Operation(table *partition.Table) operation.Operation {
	return &operation.GetOperation{
		PartitionID: t.partition(table),
		Name:        t.name,
		Key:         t.key,
	}
}

type mapRemoveTask struct {
	mapTask
}

func newMapRemoveTask(req *meta.ClientMessage) Task {
	return &mapRemoveTask{mapTask{method: "remove"}}
}

func (t *mapRemoveTask) Decode(msg *meta.ClientMessage) error {
	in := msg.BodyBuf()
	defer in.Release()

	err := t.decodeName(in)
	if err != nil {
		return err
	}

	return t.decodeKey(in)
}

func (t *mapRemoveTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	return encodeData(result)
}

func (t *mapRemoveTask) RequiredPermission() *Permission {
	return MapPermission(t.name, ActionRemove)
}

func (t *mapRemoveTask) Operation(table *partition.Table) operation.Operation {
	return &operation.RemoveOperation{
		PartitionID: t.partition(table),
		Name:        t.name,
		Key:         t.key,
	}
}

// mapKeySetTask returns the union of the keys of all partitions
type mapKeySetTask struct {
	mapTask
}

func newMapKeySetTask(req *meta.ClientMessage) Task {
	return &mapKeySetTask{mapTask{method: "keySet"}}
}

func (t *mapKeySetTask) Decode(msg *meta.ClientMessage) error {
	in := msg.BodyBuf()
	defer in.Release()

	return t.decodeName(in)
}

func (t *mapKeySetTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	keys := result.([][]byte)
	buf := goetty.NewByteBuf(64)
	meta.WriteDataSlice(keys, buf)
	return buf, nil
}

func (t *mapKeySetTask) RequiredPermission() *Permission {
	return MapPermission(t.name, ActionRead)
}

func (t *mapKeySetTask) Factory() operation.Factory {
	return operation.KeySetFactory{Name: t.name}
}

func (t *mapKeySetTask) Reduce(results map[int32]interface{}) (interface{}, error) {
	return UnionKeys(results)
}

// mapSizeTask returns the sum of the record count of all partitions
type mapSizeTask struct {
	mapTask
}

func newMapSizeTask(req *meta.ClientMessage) Task {
	return &mapSizeTask{mapTask{method: "size"}}
}

func (t *mapSizeTask) Decode(msg *meta.ClientMessage) error {
	in := msg.BodyBuf()
	defer in.Release()

	return t.decodeName(in)
}

func (t *mapSizeTask) Encode(result interface{}) (*goetty.ByteBuf, error) {
	buf := goetty.NewByteBuf(8)
	buf.WriteUInt64(uint64(result.(int)))
	return buf, nil
}

func (t *mapSizeTask) RequiredPermission() *Permission {
	return MapPermission(t.name, ActionRead)
}

func (t *mapSizeTask) Factory() operation.Factory {
	return operation.SizeFactory{Name: t.name}
}

func (t *mapSizeTask) Reduce(results map[int32]interface{}) (interface{}, error) {
	total := 0
	for id, value := range results {
		n, ok := value.(int)
		if !ok {
			return nil, newDispatchError(KindTaskFailure, nil, "%s: size result %T", meta.TagPartition(id), value)
		}
		total += n
	}

	return total, nil
}

// UnionKeys returns the sorted union of the partial key sets, duplicated
// keys appear once
func UnionKeys(results map[int32]interface{}) ([][]byte, error) {
	seen := make(map[string]struct{})
	keys := make([][]byte, 0)
	for id, value := range results {
		partial, ok := value.([][]byte)
		if !ok {
			return nil, newDispatchError(KindTaskFailure, nil, "%s: key set result %T", meta.TagPartition(id), value)
		}

		for _, key := range partial {
			if _, ok := seen[string(key)]; ok {
				continue
			}

			seen[string(key)] = struct{}{}
			keys = append(keys, key)
		}
	}

	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i], keys[j]) < 0
	})
	return keys, nil
}
