package syncer

import (
	"context"
)

// Syncer keeps the trusted state current by polling the upstream.
type Syncer interface {
	// Start starts the background polling of the trusted state
	Start() error

	// Stop stops polling and waits for the running poll to finish
	Stop() error

	// Poll fetches the latest state once and stores it
	Poll(ctx context.Context) (Outcome, error)

	// Stats returns poll counters
	Stats() Stats
}
