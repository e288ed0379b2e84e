package cell

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreparedKey(t *testing.T) {
	assert.Equal(t, "__gridcore_c1_xa_prepared__", preparedKey("c1"), "preparedKey failed")
}
