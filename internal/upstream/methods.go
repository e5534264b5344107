package upstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/eigerco/beerus/pkg/model"
	"github.com/eigerco/beerus/pkg/starknet"
)

// Typed helpers over Call for the methods beerus itself needs. They work
// with any Client.

func call(ctx context.Context, c Client, method string, params interface{}, result interface{}) error {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return &Error{Kind: KindDecode, Method: method, Err: fmt.Errorf("marshal params: %w", err)}
		}
		raw = data
	}

	res, err := c.Call(ctx, method, raw)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(res, result); err != nil {
		return &Error{Kind: KindDecode, Method: method, Err: fmt.Errorf("unmarshal result: %w", err)}
	}
	return nil
}

func SpecVersion(ctx context.Context, c Client) (string, error) {
	var version string
	err := call(ctx, c, starknet.MethodSpecVersion, nil, &version)
	return version, err
}

func ChainID(ctx context.Context, c Client) (string, error) {
	var chainID string
	err := call(ctx, c, starknet.MethodChainID, nil, &chainID)
	return chainID, err
}

// BlockHeader fetches the header part of getBlockWithTxHashes.
func BlockHeader(ctx context.Context, c Client, id model.BlockID) (*model.BlockHeader, error) {
	header := &model.BlockHeader{}
	params := map[string]model.BlockID{"block_id": id}
	if err := call(ctx, c, starknet.MethodGetBlockWithTxHashes, params, header); err != nil {
		return nil, err
	}
	return header, nil
}

func ClassHashAt(ctx context.Context, c Client, id model.BlockID, address model.Felt) (model.Felt, error) {
	var hash model.Felt
	params := []interface{}{id, address}
	err := call(ctx, c, starknet.MethodGetClassHashAt, params, &hash)
	return hash, err
}

// Class returns the raw contract class; its shape depends on the class
// version and is not interpreted here.
func Class(ctx context.Context, c Client, id model.BlockID, classHash model.Felt) (json.RawMessage, error) {
	var class json.RawMessage
	params := []interface{}{id, classHash}
	err := call(ctx, c, starknet.MethodGetClass, params, &class)
	return class, err
}
