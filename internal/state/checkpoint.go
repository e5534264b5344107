package state

import (
	"encoding/json"
	"fmt"

	"github.com/eigerco/beerus/pkg/model"
	"github.com/meshplus/bitxhub-kit/storage"
	"github.com/sirupsen/logrus"
)

// Checkpoint keeps the latest accepted snapshot on disk so a restarted
// process can tell how far the upstream head moved while it was down. It
// never feeds a snapshot back into the Store.
type Checkpoint struct {
	storage storage.Storage
	logger  logrus.FieldLogger
}

func NewCheckpoint(s storage.Storage, logger logrus.FieldLogger) *Checkpoint {
	return &Checkpoint{
		storage: s,
		logger:  logger,
	}
}

// Load returns the persisted snapshot, or nil if none was written yet.
func (c *Checkpoint) Load() (*model.State, error) {
	v := c.storage.Get(model.LatestStateKey())
	if v == nil {
		return nil, nil
	}

	s := &model.State{}
	if err := json.Unmarshal(v, s); err != nil {
		return nil, fmt.Errorf("unmarshal checkpoint: %w", err)
	}
	return s, nil
}

// Save persists s as the latest snapshot.
func (c *Checkpoint) Save(s model.State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	c.storage.Put(model.LatestStateKey(), data)
	return nil
}

// Hook adapts Save for Store.OnReplace; failures are logged only.
func (c *Checkpoint) Hook() func(model.State) {
	return func(s model.State) {
		if err := c.Save(s); err != nil {
			c.logger.WithFields(logrus.Fields{
				"block_number": s.BlockNumber,
				"error":        err,
			}).Warn("Persist checkpoint")
		}
	}
}

// Compare logs how fresh relates to the previous run's checkpoint. A lower
// block number is reported as a possible reorganisation; the fresh
// snapshot is authoritative either way.
func (c *Checkpoint) Compare(fresh model.State) {
	prev, err := c.Load()
	if err != nil {
		c.logger.WithField("error", err).Warn("Load checkpoint")
		return
	}
	if prev == nil {
		return
	}

	fields := logrus.Fields{
		"checkpoint_number": prev.BlockNumber,
		"current_number":    fresh.BlockNumber,
	}
	switch {
	case fresh.BlockNumber < prev.BlockNumber:
		c.logger.WithFields(fields).Warn("Upstream head is behind the last checkpoint")
	case fresh.BlockNumber == prev.BlockNumber && !fresh.BlockHash.Equal(prev.BlockHash):
		fields["checkpoint_hash"] = prev.BlockHash.String()
		fields["current_hash"] = fresh.BlockHash.String()
		c.logger.WithFields(fields).Warn("Block hash differs from the last checkpoint")
	default:
		c.logger.WithFields(fields).Info("Resumed from checkpoint")
	}
}
