package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eigerco/beerus/internal/upstream"
	"github.com/eigerco/beerus/pkg/jsonrpc"
	"github.com/eigerco/beerus/pkg/model"
	"github.com/tidwall/gjson"
)

// handlerFunc serves one method. params have already been checked against
// m.Params.
type handlerFunc func(ctx context.Context, d *Dispatcher, m *Method, params json.RawMessage) (json.RawMessage, error)

func forward(ctx context.Context, d *Dispatcher, m *Method, params json.RawMessage) (json.RawMessage, error) {
	return d.client.Call(ctx, m.Name, params)
}

func blockNumber(ctx context.Context, d *Dispatcher, m *Method, params json.RawMessage) (json.RawMessage, error) {
	s, err := d.store.Read()
	if err != nil {
		return nil, err
	}
	return json.Marshal(s.BlockNumber)
}

func blockHashAndNumber(ctx context.Context, d *Dispatcher, m *Method, params json.RawMessage) (json.RawMessage, error) {
	s, err := d.store.Read()
	if err != nil {
		return nil, err
	}
	return json.Marshal(model.BlockHashAndNumber{
		BlockHash:   s.BlockHash,
		BlockNumber: s.BlockNumber,
	})
}

// getClassAt resolves the class hash of the contract and then fetches the
// class. Both calls go to the same block id.
func getClassAt(ctx context.Context, d *Dispatcher, m *Method, params json.RawMessage) (json.RawMessage, error) {
	var (
		blockID model.BlockID
		address model.Felt
	)
	if err := json.Unmarshal(lookupParam(m.Params, params, "block_id"), &blockID); err != nil {
		return nil, jsonrpc.InvalidParamsError(err)
	}
	if err := json.Unmarshal(lookupParam(m.Params, params, "contract_address"), &address); err != nil {
		return nil, jsonrpc.InvalidParamsError(err)
	}

	classHash, err := upstream.ClassHashAt(ctx, d.client, blockID, address)
	if err != nil {
		return nil, err
	}
	return upstream.Class(ctx, d.client, blockID, classHash)
}

// syncing forwards the call. A sync status object gets its current block
// fields replaced by the trusted state; false is returned as is.
func syncing(ctx context.Context, d *Dispatcher, m *Method, params json.RawMessage) (json.RawMessage, error) {
	res, err := d.client.Call(ctx, m.Name, params)
	if err != nil {
		return nil, err
	}
	if gjson.ParseBytes(res).Type == gjson.False {
		return res, nil
	}

	status := map[string]json.RawMessage{}
	if err := json.Unmarshal(res, &status); err != nil {
		return nil, &upstream.Error{
			Kind:   upstream.KindDecode,
			Method: m.Name,
			Err:    fmt.Errorf("sync status: %w", err),
		}
	}

	s, err := d.store.Read()
	if err != nil {
		return nil, err
	}
	if status["current_block_num"], err = json.Marshal(s.BlockNumber); err != nil {
		return nil, err
	}
	if status["current_block_hash"], err = json.Marshal(s.BlockHash); err != nil {
		return nil, err
	}
	return json.Marshal(status)
}
