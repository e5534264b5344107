package syncer

import (
	"time"

	"github.com/eigerco/beerus/internal/lite"
	"github.com/eigerco/beerus/internal/metrics"
	"github.com/eigerco/beerus/internal/state"
	"github.com/sirupsen/logrus"
)

const (
	defaultInterval = 5 * time.Second
	defaultTimeout  = 30 * time.Second
)

type Config struct {
	lite     lite.Lite
	store    *state.Store
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
}

type Option func(*Config)

func WithLite(lite lite.Lite) Option {
	return func(c *Config) {
		c.lite = lite
	}
}

func WithStore(store *state.Store) Option {
	return func(c *Config) {
		c.store = store
	}
}

// WithInterval sets the time between two polls.
func WithInterval(interval time.Duration) Option {
	return func(c *Config) {
		c.interval = interval
	}
}

// WithTimeout bounds each poll.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.timeout = timeout
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) {
		c.metrics = m
	}
}

func GenerateConfig(opts ...Option) (*Config, error) {
	config := &Config{
		interval: defaultInterval,
		timeout:  defaultTimeout,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(config)
	}

	return config, nil
}
