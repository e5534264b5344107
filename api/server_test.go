package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/eigerco/beerus/internal/metrics"
	"github.com/eigerco/beerus/internal/rpc"
	"github.com/eigerco/beerus/internal/state"
	"github.com/eigerco/beerus/internal/testnode"
	"github.com/eigerco/beerus/internal/upstream"
	"github.com/eigerco/beerus/pkg/jsonrpc"
	"github.com/eigerco/beerus/pkg/model"
	"github.com/eigerco/beerus/pkg/starknet"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

var trusted = model.State{
	BlockNumber: 652076,
	BlockHash:   model.MustFelt("0x3ab5b5d1a8f8c2b1"),
	Root:        model.MustFelt("0x2a5aa70350b7d047cd3dd2f5ad01f8925409a64fc42e509e8e79c3a2c17425"),
}

func prepare(t *testing.T, store *state.Store) (*Server, *testnode.Node) {
	node := testnode.New(t)
	client, err := upstream.New(node.URL(), upstream.WithTimeout(time.Second))
	require.Nil(t, err)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.Nil(t, err)

	d := rpc.New(client, store, rpc.WithMetrics(m))
	srv, err := Serve(context.Background(), d, "127.0.0.1:0", WithMetrics(reg))
	require.Nil(t, err)
	t.Cleanup(func() {
		require.Nil(t, srv.Stop(context.Background()))
	})

	return srv, node
}

func url(srv *Server, path string) string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", srv.Port(), path)
}

func post(t *testing.T, srv *Server, body string) (int, []byte) {
	resp, err := http.Post(url(srv, "/"), "application/json", bytes.NewBufferString(body))
	require.Nil(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.Nil(t, err)
	return resp.StatusCode, data
}

func call(t *testing.T, srv *Server, method string, params interface{}) jsonrpc.Response {
	req, err := jsonrpc.NewRequest(1, method, params)
	require.Nil(t, err)
	body, err := json.Marshal(req)
	require.Nil(t, err)

	status, data := post(t, srv, string(body))
	require.Equal(t, http.StatusOK, status)

	var resp jsonrpc.Response
	require.Nil(t, json.Unmarshal(data, &resp))
	require.Equal(t, `1`, string(resp.ID))
	return resp
}

func TestChainID(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithChainID()

	resp := call(t, srv, starknet.MethodChainID, nil)
	require.Nil(t, resp.Error)
	require.Equal(t, `"0x4b4154414e41"`, string(resp.Result))
	require.Equal(t, 1, node.Calls(starknet.MethodChainID))
}

func TestChainIDAndNonce(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithChainID().WithNonce()

	resp := call(t, srv, starknet.MethodChainID, nil)
	require.Nil(t, resp.Error)

	resp = call(t, srv, starknet.MethodGetNonce, []interface{}{"latest", "0x0"})
	require.Nil(t, resp.Error)
	require.Equal(t, `"0x0"`, string(resp.Result))
	require.JSONEq(t, `["latest","0x0"]`, string(node.Params(starknet.MethodGetNonce)[0]))
}

func TestChainIDTwice(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithChainID()

	require.Nil(t, call(t, srv, starknet.MethodChainID, nil).Error)
	require.Nil(t, call(t, srv, starknet.MethodChainID, nil).Error)
	require.Equal(t, 2, node.Calls(starknet.MethodChainID))
}

// A node replying with the same id to every call is still served.
func TestFixedIDNode(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithFixedID(1).WithChainID().WithNonce()

	require.Nil(t, call(t, srv, starknet.MethodChainID, nil).Error)
	resp := call(t, srv, starknet.MethodGetNonce, []interface{}{"latest", "0x0"})
	require.Nil(t, resp.Error)
	require.Equal(t, `"0x0"`, string(resp.Result))
	resp = call(t, srv, starknet.MethodChainID, nil)
	require.Nil(t, resp.Error)
	require.Equal(t, `"0x4b4154414e41"`, string(resp.Result))
}

func TestGetClass(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))

	node.WithClassError()
	resp := call(t, srv, starknet.MethodGetClass, []interface{}{"latest", "0x0"})
	require.NotNil(t, resp.Error)
	require.Equal(t, starknet.CodeClassHashNotFound, resp.Error.Code)
	require.Equal(t, "Class hash not found", resp.Error.Message)

	node.WithClassSuccess()
	resp = call(t, srv, starknet.MethodGetClass, []interface{}{"latest", "0x0"})
	require.Nil(t, resp.Error)
	expected, err := json.Marshal(testnode.Class)
	require.Nil(t, err)
	require.JSONEq(t, string(expected), string(resp.Result))
}

func TestSpecVersionEstimateFee(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithSpecVersion(starknet.SpecVersion).WithEstimateFee()

	resp := call(t, srv, starknet.MethodSpecVersion, nil)
	require.Nil(t, resp.Error)
	require.Equal(t, `"0.6.0"`, string(resp.Result))

	resp = call(t, srv, starknet.MethodEstimateFee, []interface{}{
		[]interface{}{testnode.DeclareTransaction},
		[]string{},
		"latest",
	})
	require.Nil(t, resp.Error)
	var fees []struct {
		OverallFee model.Felt `json:"overall_fee"`
		Unit       string     `json:"unit"`
	}
	require.Nil(t, json.Unmarshal(resp.Result, &fees))
	require.Len(t, fees, 1)
	require.Equal(t, "WEI", fees[0].Unit)
	require.Equal(t, "0x2402a36771800", fees[0].OverallFee.String())
}

// Every step must behave exactly as it does on its own.
func TestSequence(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithFixedID(1).WithChainID().WithClassError().WithNonce().WithSpecVersion(starknet.SpecVersion).
		WithEstimateFee().WithAddDeclareTransaction()

	require.Nil(t, call(t, srv, starknet.MethodChainID, nil).Error)

	resp := call(t, srv, starknet.MethodGetClass, []interface{}{"latest", "0x0"})
	require.Equal(t, starknet.CodeClassHashNotFound, resp.Error.Code)

	require.Nil(t, call(t, srv, starknet.MethodChainID, nil).Error)
	require.Nil(t, call(t, srv, starknet.MethodGetNonce, []interface{}{"latest", "0x0"}).Error)
	require.Nil(t, call(t, srv, starknet.MethodSpecVersion, nil).Error)
	require.Nil(t, call(t, srv, starknet.MethodEstimateFee, map[string]interface{}{
		"request":          []interface{}{testnode.DeclareTransaction},
		"simulation_flags": []string{},
		"block_id":         "latest",
	}).Error)

	resp = call(t, srv, starknet.MethodAddDeclareTransaction, []interface{}{testnode.DeclareTransaction})
	require.Nil(t, resp.Error)
	var declared struct {
		TransactionHash model.Felt `json:"transaction_hash"`
		ClassHash       model.Felt `json:"class_hash"`
	}
	require.Nil(t, json.Unmarshal(resp.Result, &declared))
	require.Equal(t, "0x5e1a93c4f1", declared.ClassHash.String())

	require.Equal(t, 2, node.Calls(starknet.MethodChainID))
	require.Equal(t, 1, node.Calls(starknet.MethodAddDeclareTransaction))
}

func TestLocalMethodsSkipUpstream(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))

	resp := call(t, srv, starknet.MethodBlockNumber, nil)
	require.Nil(t, resp.Error)
	require.Equal(t, `652076`, string(resp.Result))

	resp = call(t, srv, starknet.MethodBlockHashAndNumber, nil)
	require.Nil(t, resp.Error)
	require.JSONEq(t, `{"block_hash":"0x3ab5b5d1a8f8c2b1","block_number":652076}`, string(resp.Result))

	require.Equal(t, 0, node.Calls(starknet.MethodBlockNumber))
	require.Equal(t, 0, node.Calls(starknet.MethodBlockHashAndNumber))
}

func TestUpstreamUnavailable(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.On(starknet.MethodChainID, testnode.Reply{Status: http.StatusBadGateway})

	resp := call(t, srv, starknet.MethodChainID, nil)
	require.Equal(t, jsonrpc.CodeUpstreamUnavailable, resp.Error.Code)
	require.Empty(t, resp.Error.Data)
}

func TestConcurrentRequests(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithChainID().WithClassError()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			resp := call(t, srv, starknet.MethodGetClass, []interface{}{"latest", "0x0"})
			require.Equal(t, starknet.CodeClassHashNotFound, resp.Error.Code)
		}()
		go func() {
			defer wg.Done()
			resp := call(t, srv, starknet.MethodChainID, nil)
			require.Nil(t, resp.Error)
		}()
	}
	wg.Wait()
}

func TestNotificationAndBatch(t *testing.T) {
	srv, node := prepare(t, state.NewStoreWith(trusted))
	node.WithChainID()

	status, data := post(t, srv, `{"jsonrpc":"2.0","method":"starknet_chainId"}`)
	require.Equal(t, http.StatusNoContent, status)
	require.Empty(t, data)

	status, data = post(t, srv, `[
		{"jsonrpc":"2.0","id":"a","method":"starknet_chainId"},
		{"jsonrpc":"2.0","id":"b","method":"starknet_blockNumber"}
	]`)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[
		{"jsonrpc":"2.0","id":"a","result":"0x4b4154414e41"},
		{"jsonrpc":"2.0","id":"b","result":652076}
	]`, string(data))
}

func TestStateEndpoint(t *testing.T) {
	srv, _ := prepare(t, state.NewStoreWith(trusted))

	resp, err := http.Get(url(srv, "/v1/state"))
	require.Nil(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var s model.State
	require.Nil(t, json.NewDecoder(resp.Body).Decode(&s))
	require.Equal(t, trusted, s)

	empty, _ := prepare(t, state.NewStore())
	resp, err = http.Get(url(empty, "/v1/state"))
	require.Nil(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := prepare(t, state.NewStoreWith(trusted))
	require.Nil(t, call(t, srv, starknet.MethodBlockNumber, nil).Error)

	resp, err := http.Get(url(srv, "/metrics"))
	require.Nil(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.Nil(t, err)
	require.Contains(t, string(data), `beerus_rpc_requests_total{kind="local",method="starknet_blockNumber",result="ok"} 1`)
}

func TestStop(t *testing.T) {
	d := rpc.New(nil, state.NewStoreWith(trusted))
	ctx, cancel := context.WithCancel(context.Background())
	srv, err := Serve(ctx, d, "127.0.0.1:0")
	require.Nil(t, err)
	require.NotZero(t, srv.Port())
	require.False(t, srv.Stopped())

	cancel()
	select {
	case <-srv.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
	require.True(t, srv.Stopped())
	require.Nil(t, srv.Err())
	require.Nil(t, srv.Stop(context.Background()))
}

func TestServeBindError(t *testing.T) {
	srv, _ := prepare(t, state.NewStoreWith(trusted))

	_, err := Serve(context.Background(), rpc.New(nil, state.NewStore()), srv.Addr())
	require.NotNil(t, err)
}
