package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// State is the trusted snapshot. All three fields describe the same block.
type State struct {
	BlockNumber uint64 `json:"block_number"`
	BlockHash   Felt   `json:"block_hash"`
	Root        Felt   `json:"root"`
}

func (s State) String() string {
	return fmt.Sprintf("State{number: %d, hash: %s, root: %s}", s.BlockNumber, s.BlockHash, s.Root)
}

// BlockHashAndNumber is the result of starknet_blockHashAndNumber.
type BlockHashAndNumber struct {
	BlockHash   Felt   `json:"block_hash"`
	BlockNumber uint64 `json:"block_number"`
}

// BlockHeader holds the BLOCK_HEADER fields the light client reads.
type BlockHeader struct {
	Status           string  `json:"status,omitempty"`
	BlockHash        *Felt   `json:"block_hash,omitempty"`
	ParentHash       Felt    `json:"parent_hash"`
	BlockNumber      *uint64 `json:"block_number,omitempty"`
	NewRoot          *Felt   `json:"new_root,omitempty"`
	Timestamp        uint64  `json:"timestamp"`
	SequencerAddress Felt    `json:"sequencer_address"`
}

// ErrPendingBlock is returned when a header has no hash, number or root,
// which is how the pending block is reported.
var ErrPendingBlock = errors.New("pending block has no hash")

// State builds the snapshot described by this header.
func (h *BlockHeader) State() (State, error) {
	if h.BlockHash == nil || h.BlockNumber == nil || h.NewRoot == nil {
		return State{}, ErrPendingBlock
	}
	return State{
		BlockNumber: *h.BlockNumber,
		BlockHash:   *h.BlockHash,
		Root:        *h.NewRoot,
	}, nil
}

const (
	TagLatest  = "latest"
	TagPending = "pending"
)

// BlockID is one of: a tag ("latest", "pending"), {"block_hash": felt} or
// {"block_number": n}.
type BlockID struct {
	Tag    string
	Hash   *Felt
	Number *uint64
}

func LatestBlock() BlockID {
	return BlockID{Tag: TagLatest}
}

func BlockNumber(n uint64) BlockID {
	return BlockID{Number: &n}
}

func (id BlockID) MarshalJSON() ([]byte, error) {
	switch {
	case id.Tag != "":
		return json.Marshal(id.Tag)
	case id.Hash != nil:
		return json.Marshal(map[string]Felt{"block_hash": *id.Hash})
	case id.Number != nil:
		return json.Marshal(map[string]uint64{"block_number": *id.Number})
	}
	return nil, errors.New("empty block id")
}

func (id *BlockID) UnmarshalJSON(data []byte) error {
	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != TagLatest && tag != TagPending {
			return fmt.Errorf("unknown block tag %q", tag)
		}
		*id = BlockID{Tag: tag}
		return nil
	}

	var obj struct {
		BlockHash   *Felt   `json:"block_hash"`
		BlockNumber *uint64 `json:"block_number"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid block id: %w", err)
	}
	if (obj.BlockHash == nil) == (obj.BlockNumber == nil) {
		return errors.New("block id needs exactly one of block_hash, block_number")
	}
	*id = BlockID{Hash: obj.BlockHash, Number: obj.BlockNumber}
	return nil
}
