package upstream

import (
	"context"
	"encoding/json"
)

//go:generate mockgen -destination mock_upstream/mock_upstream.go -package mock_upstream -source interface.go
type Client interface {
	// Call issues one JSON-RPC call to the upstream node and returns the raw
	// result. Params are sent as given; nil params are omitted.
	Call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error)
}
