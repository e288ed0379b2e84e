package registry

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEtcdConfig(t *testing.T) {
	u, err := url.Parse("etcd://127.0.0.1:2379?servers=127.0.0.1:2380&servers=127.0.0.1:2381&user=u&password=p&lease=3&group=g")
	assert.Nil(t, err, "check parse failed")

	cfg := etcdConfig(u)
	assert.Equal(t, []string{"http://127.0.0.1:2379", "http://127.0.0.1:2380", "http://127.0.0.1:2381"}, cfg.Endpoints, "check endpoints failed")
	assert.Equal(t, "u", cfg.Username, "check user failed")
	assert.Equal(t, "p", cfg.Password, "check password failed")
	assert.Equal(t, time.Second*5, cfg.DialTimeout, "check dial timeout failed")
	assert.Equal(t, 2, len(etcdOptions(u)), "check options failed")
}

func TestUnsupportedSchema(t *testing.T) {
	_, err := NewRegistry("zk://127.0.0.1:2181")
	assert.NotNil(t, err, "check unsupported schema failed")
}
