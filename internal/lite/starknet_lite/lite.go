package starknet_lite

import (
	"context"
	"errors"
	"fmt"

	"github.com/eigerco/beerus/internal/lite"
	"github.com/eigerco/beerus/internal/upstream"
	"github.com/eigerco/beerus/pkg/model"
	"github.com/eigerco/beerus/pkg/starknet"
	"github.com/sirupsen/logrus"
)

var _ lite.Lite = (*StarknetLite)(nil)

// ErrVersionMismatch is returned by CheckVersion when the upstream reports
// a spec version other than starknet.SpecVersion.
var ErrVersionMismatch = errors.New("rpc spec version mismatch")

type StarknetLite struct {
	client   upstream.Client
	expected string
	logger   logrus.FieldLogger
}

func New(client upstream.Client, logger logrus.FieldLogger) *StarknetLite {
	return &StarknetLite{
		client:   client,
		expected: starknet.SpecVersion,
		logger:   logger,
	}
}

func (l *StarknetLite) SpecVersion(ctx context.Context) (string, error) {
	version, err := upstream.SpecVersion(ctx, l.client)
	if err != nil {
		return "", fmt.Errorf("get spec version: %w", err)
	}
	return version, nil
}

func (l *StarknetLite) CheckVersion(ctx context.Context) error {
	version, err := l.SpecVersion(ctx)
	if err != nil {
		return err
	}
	if version != l.expected {
		return fmt.Errorf("%w: expected %s but got %s", ErrVersionMismatch, l.expected, version)
	}

	l.logger.WithField("version", version).Info("Spec version checked")
	return nil
}

// FetchState reads hash, number and root from one header so the snapshot
// never mixes two blocks.
func (l *StarknetLite) FetchState(ctx context.Context) (model.State, error) {
	header, err := l.QueryHeader(ctx, model.LatestBlock())
	if err != nil {
		return model.State{}, err
	}

	s, err := header.State()
	if err != nil {
		return model.State{}, fmt.Errorf("latest block: %w", err)
	}
	return s, nil
}

func (l *StarknetLite) QueryHeader(ctx context.Context, id model.BlockID) (*model.BlockHeader, error) {
	header, err := upstream.BlockHeader(ctx, l.client, id)
	if err != nil {
		return nil, fmt.Errorf("get block header: %w", err)
	}
	return header, nil
}
