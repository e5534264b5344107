package syncer

import "fmt"

// Outcome is the result of a single poll.
type Outcome int

const (
	// OutcomeUpdated means a snapshot for a higher block replaced the old one
	OutcomeUpdated Outcome = iota
	// OutcomeUnchanged means the upstream still reports the same block
	OutcomeUnchanged
	// OutcomeRegressed means the new snapshot is for a lower block. It is
	// stored anyway.
	OutcomeRegressed
	// OutcomeFailed means the fetch failed and the old snapshot is kept
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeRegressed:
		return "regressed"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

type Stats struct {
	Polls     uint64
	Failures  uint64
	Regressed uint64
}
