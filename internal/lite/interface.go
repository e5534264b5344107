package lite

import (
	"context"

	"github.com/eigerco/beerus/pkg/model"
)

//go:generate mockgen -destination mock_lite/mock_lite.go -package mock_lite -source interface.go
type Lite interface {
	// SpecVersion returns the Starknet JSON-RPC version the upstream reports
	SpecVersion(ctx context.Context) (string, error)

	// CheckVersion fails unless the upstream serves the pinned API version
	CheckVersion(ctx context.Context) error

	// FetchState builds a snapshot from the upstream's latest block header
	FetchState(ctx context.Context) (model.State, error)

	// QueryHeader gets the block header for the given block id
	QueryHeader(ctx context.Context, id model.BlockID) (*model.BlockHeader, error)
}
