package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateResourceLock(t *testing.T) {
	l, err := CreateResourceLock("mem://")
	assert.Nil(t, err, "check mem failed")
	assert.NotNil(t, l, "check mem lock failed")

	l, err = CreateResourceLock("redis://127.0.0.1:6379?maxActive=10")
	assert.Nil(t, err, "check redis failed")
	assert.NotNil(t, l, "check redis lock failed")

	_, err = CreateResourceLock("zk://127.0.0.1:2181")
	assert.NotNil(t, err, "check unknown schema failed")
}
