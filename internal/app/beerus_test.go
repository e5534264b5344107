package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/eigerco/beerus/internal/lite/starknet_lite"
	"github.com/eigerco/beerus/internal/repo"
	"github.com/eigerco/beerus/internal/testnode"
	"github.com/eigerco/beerus/pkg/jsonrpc"
	"github.com/eigerco/beerus/pkg/model"
	"github.com/eigerco/beerus/pkg/starknet"
	"github.com/stretchr/testify/require"
)

const (
	blockHash = "0x3ab5b5d1a8f8c2b1"
	stateRoot = "0x2a5aa70350b7d047cd3dd2f5ad01f8925409a64fc42e509e8e79c3a2c17425"
)

func testConfig(t *testing.T, node *testnode.Node) *repo.Config {
	config := repo.DefaultConfig()
	config.RepoRoot = t.TempDir()
	config.StarknetRPC = node.URL()
	config.RPCAddr = "127.0.0.1:0"
	config.TimeoutSecs = 2
	config.StartupAttempts = 2
	return config
}

func newBeerus(t *testing.T, config *repo.Config) *Beerus {
	b, err := NewBeerus(config, WithRetryWait(10*time.Millisecond))
	require.Nil(t, err)
	return b
}

func rpcCall(t *testing.T, port int, method string) jsonrpc.Response {
	req, err := jsonrpc.NewRequest(7, method, nil)
	require.Nil(t, err)
	body, err := json.Marshal(req)
	require.Nil(t, err)

	resp, err := http.Post(fmt.Sprintf("http://127.0.0.1:%d/", port), "application/json", bytes.NewReader(body))
	require.Nil(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.Nil(t, err)

	var out jsonrpc.Response
	require.Nil(t, json.Unmarshal(data, &out))
	return out
}

func TestNewBeerusInvalidConfig(t *testing.T) {
	config := repo.DefaultConfig()
	_, err := NewBeerus(config)
	require.NotNil(t, err)
}

func TestStart(t *testing.T) {
	node := testnode.New(t).
		WithSpecVersion(starknet.SpecVersion).
		WithLatestBlock(652076, blockHash, stateRoot).
		WithChainID()

	b := newBeerus(t, testConfig(t, node))
	require.Equal(t, 0, b.Port())
	require.Nil(t, b.Done())

	require.Nil(t, b.Start(context.Background()))
	require.NotZero(t, b.Port())
	require.NotNil(t, b.Done())
	require.Equal(t, testnode.ChainID, b.ChainID())

	s, err := b.State()
	require.Nil(t, err)
	require.Equal(t, uint64(652076), s.BlockNumber)
	require.Equal(t, blockHash, s.BlockHash.String())

	resp := rpcCall(t, b.Port(), starknet.MethodBlockNumber)
	require.Nil(t, resp.Error)
	require.JSONEq(t, `652076`, string(resp.Result))

	resp = rpcCall(t, b.Port(), starknet.MethodChainID)
	require.Nil(t, resp.Error)
	require.JSONEq(t, `"0x4b4154414e41"`, string(resp.Result))

	require.Nil(t, b.Stop())
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestStartVersionMismatch(t *testing.T) {
	node := testnode.New(t).
		WithSpecVersion("0.5.1").
		WithLatestBlock(1, blockHash, stateRoot)

	b := newBeerus(t, testConfig(t, node))
	err := b.Start(context.Background())
	require.NotNil(t, err)
	require.True(t, errors.Is(err, starknet_lite.ErrVersionMismatch))
	require.Equal(t, 0, b.Port())

	// a mismatch is not retried and nothing else is asked
	require.Equal(t, 1, node.Calls(starknet.MethodSpecVersion))
	require.Equal(t, 0, node.Calls(starknet.MethodGetBlockWithTxHashes))
	require.Nil(t, b.Stop())
}

func TestStartUpstreamDown(t *testing.T) {
	node := testnode.New(t).
		On(starknet.MethodSpecVersion, testnode.Reply{Status: http.StatusServiceUnavailable})

	b := newBeerus(t, testConfig(t, node))
	err := b.Start(context.Background())
	require.NotNil(t, err)
	require.False(t, errors.Is(err, starknet_lite.ErrVersionMismatch))
	require.Equal(t, 0, b.Port())
	require.GreaterOrEqual(t, node.Calls(starknet.MethodSpecVersion), 2)
	require.Nil(t, b.Stop())
}

func TestStartFirstFetchFails(t *testing.T) {
	node := testnode.New(t).
		WithSpecVersion(starknet.SpecVersion).
		On(starknet.MethodGetBlockWithTxHashes, testnode.Reply{
			Error: &jsonrpc.Error{Code: starknet.CodeBlockNotFound, Message: "Block not found"},
		})

	b := newBeerus(t, testConfig(t, node))
	err := b.Start(context.Background())
	require.NotNil(t, err)
	require.Equal(t, 0, b.Port())
	// the chain id is informational, its failure alone does not stop startup
	require.Equal(t, "", b.ChainID())
	require.Equal(t, 1, node.Calls(starknet.MethodChainID))

	_, err = b.State()
	require.NotNil(t, err)
	require.Nil(t, b.Stop())
}

func TestStartWithCheckpoint(t *testing.T) {
	node := testnode.New(t).
		WithSpecVersion(starknet.SpecVersion).
		WithLatestBlock(652076, blockHash, stateRoot)

	config := testConfig(t, node)
	config.Store.Enabled = true
	config.Metrics.Enabled = false

	b := newBeerus(t, config)
	require.Nil(t, b.Start(context.Background()))
	require.Nil(t, b.Stop())

	// restart against a node that moved backwards; the fresh state wins
	node.WithLatestBlock(652070, "0x77", stateRoot)
	b = newBeerus(t, config)
	require.Nil(t, b.Start(context.Background()))
	s, err := b.State()
	require.Nil(t, err)
	require.Equal(t, uint64(652070), s.BlockNumber)
	require.True(t, s.BlockHash.Equal(model.MustFelt("0x77")))
	require.Nil(t, b.Stop())
}
