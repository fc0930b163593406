package metrics

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
)

type redisCollector struct {
	rdb    *redis.Client
	logger *slog.Logger

	streamDepthDesc  *prometheus.Desc
	trackedTasksDesc *prometheus.Desc
	activeSeedsDesc  *prometheus.Desc
}

func newRedisCollector(rdb *redis.Client, logger *slog.Logger) *redisCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisCollector{
		rdb:    rdb,
		logger: logger,
		streamDepthDesc: prometheus.NewDesc(
			"scanq_stream_depth",
			"Current length of the task intake stream.",
			nil,
			nil,
		),
		trackedTasksDesc: prometheus.NewDesc(
			"scanq_tasks_tracked",
			"Current number of task records inside the retention window.",
			nil,
			nil,
		),
		activeSeedsDesc: prometheus.NewDesc(
			"scanq_seeds_active",
			"Current number of unexpired result share seeds.",
			nil,
			nil,
		),
	}
}

func (c *redisCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.streamDepthDesc
	ch <- c.trackedTasksDesc
	ch <- c.activeSeedsDesc
}

func (c *redisCollector) Collect(ch chan<- prometheus.Metric) {
	if c.rdb == nil {
		return
	}

	// Keep Redis reads bounded so scrapes do not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	nowUnix := time.Now().UTC().Unix()
	minScore := strconv.FormatInt(nowUnix, 10)

	pipe := c.rdb.Pipeline()
	streamLen := pipe.XLen(ctx, keyTasksStream)
	tracked := pipe.ZCard(ctx, keyTasksTTL)
	seeds := pipe.ZCount(ctx, keySeedsTTL, minScore, "+inf")

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		c.logger.Warn("prometheus redis collector failed", "err", err)
		return
	}

	emitGauge(ch, c.streamDepthDesc, float64(streamLen.Val()))
	emitGauge(ch, c.trackedTasksDesc, float64(tracked.Val()))
	emitGauge(ch, c.activeSeedsDesc, float64(seeds.Val()))
}

func emitGauge(ch chan<- prometheus.Metric, desc *prometheus.Desc, v float64, labelValues ...string) {
	m, err := prometheus.NewConstMetric(desc, prometheus.GaugeValue, v, labelValues...)
	if err != nil {
		return
	}
	ch <- m
}

const (
	keyTasksStream = "scanq:tasks:stream"
	keyTasksTTL    = "scanq:tasks:ttl"
	keySeedsTTL    = "scanq:seeds:ttl"
)

var registerRedisCollectorOnce sync.Once

func RegisterRedisCollector(rdb *redis.Client, logger *slog.Logger) {
	registerRedisCollectorOnce.Do(func() {
		prometheus.MustRegister(newRedisCollector(rdb, logger))
	})
}
