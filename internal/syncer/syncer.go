package syncer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eigerco/beerus/internal/lite"
	"github.com/eigerco/beerus/internal/metrics"
	"github.com/eigerco/beerus/internal/state"
	"github.com/meshplus/bitxhub-kit/log"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

var _ Syncer = (*StateSyncer)(nil)

var logger = log.NewWithModule("syncer")

// StateSyncer keeps the state store current by polling the light client on
// a fixed interval. A failed poll leaves the previous snapshot in place.
type StateSyncer struct {
	lite     lite.Lite
	store    *state.Store
	interval time.Duration
	timeout  time.Duration
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics

	polls     atomic.Uint64
	failures  atomic.Uint64
	regressed atomic.Uint64

	started atomic.Bool
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a StateSyncer. A lite client and a store are required.
func New(opts ...Option) (*StateSyncer, error) {
	config, err := GenerateConfig(opts...)
	if err != nil {
		return nil, err
	}
	if config.lite == nil {
		return nil, fmt.Errorf("syncer: lite client is required")
	}
	if config.store == nil {
		return nil, fmt.Errorf("syncer: state store is required")
	}
	if config.interval <= 0 {
		return nil, fmt.Errorf("syncer: invalid poll interval %s", config.interval)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &StateSyncer{
		lite:     config.lite,
		store:    config.store,
		interval: config.interval,
		timeout:  config.timeout,
		logger:   config.logger,
		metrics:  config.metrics,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start implements Syncer
func (syncer *StateSyncer) Start() error {
	if !syncer.started.CAS(false, true) {
		return fmt.Errorf("syncer already started")
	}

	syncer.wg.Add(1)
	go syncer.loop()

	syncer.logger.WithFields(logrus.Fields{
		"interval": syncer.interval,
	}).Info("Syncer started")

	return nil
}

// Stop implements Syncer
func (syncer *StateSyncer) Stop() error {
	syncer.cancel()
	syncer.wg.Wait()

	syncer.logger.Info("Syncer stopped")

	return nil
}

func (syncer *StateSyncer) loop() {
	defer syncer.wg.Done()

	ticker := time.NewTicker(syncer.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			// the outcome is logged by Poll
			_, _ = syncer.Poll(syncer.ctx)
		case <-syncer.ctx.Done():
			return
		}
	}
}

// Poll implements Syncer
func (syncer *StateSyncer) Poll(ctx context.Context) (Outcome, error) {
	syncer.polls.Inc()

	if syncer.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, syncer.timeout)
		defer cancel()
	}

	fresh, err := syncer.lite.FetchState(ctx)
	if err != nil {
		syncer.failures.Inc()
		syncer.metrics.ObservePoll(metrics.PollError)
		syncer.logger.WithField("error", err).Warn("Poll state failed, keep current state")
		return OutcomeFailed, err
	}
	syncer.metrics.ObservePoll(metrics.PollOK)

	outcome := OutcomeUpdated
	if prev, err := syncer.store.Read(); err == nil {
		switch {
		case fresh.BlockNumber < prev.BlockNumber:
			outcome = OutcomeRegressed
			syncer.regressed.Inc()
			syncer.logger.WithFields(logrus.Fields{
				"current_height": prev.BlockNumber,
				"new_height":     fresh.BlockNumber,
				"new_hash":       fresh.BlockHash.String(),
			}).Warn("Block number went backwards, possible reorganisation")
		case fresh.BlockNumber == prev.BlockNumber && fresh.BlockHash.Equal(prev.BlockHash):
			outcome = OutcomeUnchanged
		}
	}

	syncer.store.Replace(fresh)
	syncer.metrics.SetBlockNumber(fresh.BlockNumber)

	if outcome != OutcomeUnchanged {
		syncer.logger.WithFields(logrus.Fields{
			"height": fresh.BlockNumber,
			"hash":   fresh.BlockHash.String(),
			"root":   fresh.Root.String(),
		}).Info("State updated")
	}

	return outcome, nil
}

// Stats implements Syncer
func (syncer *StateSyncer) Stats() Stats {
	return Stats{
		Polls:     syncer.polls.Load(),
		Failures:  syncer.failures.Load(),
		Regressed: syncer.regressed.Load(),
	}
}
