package metrics

import (
	"context"
	"time"

	"github.com/fagongzi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// MetricConfig is the metric configuration.
type MetricConfig struct {
	PushJob      string        `toml:"job" json:"job"`
	PushAddress  string        `toml:"address" json:"address"`
	PushInterval time.Duration `toml:"interval" json:"interval"`
}

// Enabled returns true if the push gateway is configured
func (cfg *MetricConfig) Enabled() bool {
	return cfg.PushInterval > 0 && cfg.PushAddress != ""
}

func pushOnce(job, addr string) {
	err := push.FromGatherer(
		job, push.HostnameGroupingKey(),
		addr,
		prometheus.DefaultGatherer,
	)
	if err != nil {
		log.Errorf("push metrics to prometheus pushgateway failed with %+v", err)
	}
}

// Push metrics in background until ctx done.
func Push(ctx context.Context, cfg *MetricConfig) {
	if !cfg.Enabled() {
		log.Infof("disable prometheus push client")
		return
	}

	log.Infof("start prometheus push client to %s every %s",
		cfg.PushAddress,
		cfg.PushInterval)

	go func() {
		ticker := time.NewTicker(cfg.PushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				pushOnce(cfg.PushJob, cfg.PushAddress)
				log.Infof("prometheus push client stopped")
				return
			case <-ticker.C:
				pushOnce(cfg.PushJob, cfg.PushAddress)
			}
		}
	}()
}
