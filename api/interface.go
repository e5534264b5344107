package api

import (
	"context"

	"github.com/eigerco/beerus/pkg/model"
)

// Handler serves JSON-RPC bodies. It is implemented by rpc.Dispatcher.
type Handler interface {
	// Handle serves a raw request body; false means no response is due
	Handle(ctx context.Context, body []byte) ([]byte, bool)

	// State returns the current trusted snapshot
	State() (model.State, error)
}
