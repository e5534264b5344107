// Package testnode runs an in-process Starknet node stand-in that answers
// JSON-RPC calls with canned replies. It is meant for tests only.
package testnode

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/eigerco/beerus/pkg/jsonrpc"
	"github.com/eigerco/beerus/pkg/starknet"
)

// Reply is the canned answer for one method.
type Reply struct {
	Result interface{}
	Error  *jsonrpc.Error
	// Status, when set, makes the node answer with this HTTP status and no
	// body.
	Status int
}

type Node struct {
	srv *httptest.Server

	mu      sync.Mutex
	replies map[string]Reply
	calls   map[string]int
	params  map[string][]json.RawMessage
	fixedID json.RawMessage
}

// New starts a node that is closed when the test ends.
func New(t testing.TB) *Node {
	n := &Node{
		replies: make(map[string]Reply),
		calls:   make(map[string]int),
		params:  make(map[string][]json.RawMessage),
	}
	n.srv = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.srv.Close)
	return n
}

func (n *Node) URL() string {
	return n.srv.URL
}

// On sets the reply for method, replacing any earlier one.
func (n *Node) On(method string, reply Reply) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies[method] = reply
	return n
}

// WithFixedID makes the node answer every call with id instead of echoing
// the request id.
func (n *Node) WithFixedID(id uint64) *Node {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fixedID = json.RawMessage(strconv.FormatUint(id, 10))
	return n
}

// Calls returns how many times method was called.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

// Params returns the params of every call to method, in call order.
func (n *Node) Params(method string) []json.RawMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]json.RawMessage(nil), n.params[method]...)
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req jsonrpc.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, jsonrpc.ErrorResponse(jsonrpc.ParseError(err)))
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	n.params[req.Method] = append(n.params[req.Method], req.Params)
	reply, ok := n.replies[req.Method]
	if n.fixedID != nil && !req.IsNotification() {
		req.ID = n.fixedID
	}
	n.mu.Unlock()

	switch {
	case !ok:
		writeJSON(w, req.MakeError(jsonrpc.MethodNotFoundError(req.Method)))
	case reply.Status != 0:
		w.WriteHeader(reply.Status)
	case reply.Error != nil:
		writeJSON(w, req.MakeError(reply.Error))
	default:
		data, err := json.Marshal(reply.Result)
		if err != nil {
			writeJSON(w, req.MakeError(jsonrpc.InternalError()))
			return
		}
		writeJSON(w, req.MakeResponse(data))
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// Canned replies of a Katana devnet node.

const ChainID = "0x4b4154414e41"

func (n *Node) WithChainID() *Node {
	return n.On(starknet.MethodChainID, Reply{Result: ChainID})
}

func (n *Node) WithSpecVersion(version string) *Node {
	return n.On(starknet.MethodSpecVersion, Reply{Result: version})
}

func (n *Node) WithNonce() *Node {
	return n.On(starknet.MethodGetNonce, Reply{Result: "0x0"})
}

func (n *Node) WithClassError() *Node {
	return n.On(starknet.MethodGetClass, Reply{Error: &jsonrpc.Error{
		Code:    starknet.CodeClassHashNotFound,
		Message: "Class hash not found",
	}})
}

// Class is the contract class returned by WithClassSuccess.
var Class = map[string]interface{}{
	"sierra_program":         []string{"0x1"},
	"contract_class_version": "0.1.0",
	"entry_points_by_type": map[string]interface{}{
		"CONSTRUCTOR": []map[string]interface{}{
			{"selector": "0x2", "function_idx": 2},
		},
		"EXTERNAL": []map[string]interface{}{
			{"selector": "0x3", "function_idx": 3},
			{"selector": "0x4", "function_idx": 4},
		},
		"L1_HANDLER": []map[string]interface{}{},
	},
	"abi": "some_abi",
}

func (n *Node) WithClassSuccess() *Node {
	return n.On(starknet.MethodGetClass, Reply{Result: Class})
}

func (n *Node) WithEstimateFee() *Node {
	return n.On(starknet.MethodEstimateFee, Reply{Result: []map[string]string{{
		"gas_consumed": "0x18bf",
		"gas_price":    "0x174876e800",
		"overall_fee":  "0x2402a36771800",
		"unit":         "WEI",
	}}})
}

func (n *Node) WithAddDeclareTransaction() *Node {
	return n.On(starknet.MethodAddDeclareTransaction, Reply{Result: map[string]string{
		"transaction_hash": "0x3d3b1c9a8e2f",
		"class_hash":       "0x5e1a93c4f1",
	}})
}

// WithLatestBlock makes getBlockWithTxHashes report an accepted block.
func (n *Node) WithLatestBlock(number uint64, hash, root string) *Node {
	return n.On(starknet.MethodGetBlockWithTxHashes, Reply{Result: map[string]interface{}{
		"status":            "ACCEPTED_ON_L2",
		"block_hash":        hash,
		"parent_hash":       "0x1",
		"block_number":      number,
		"new_root":          root,
		"timestamp":         1700000000,
		"sequencer_address": "0x1",
		"transactions":      []string{},
	}})
}

// DeclareTransaction is a v2 declare of Class.
var DeclareTransaction = map[string]interface{}{
	"type":                "DECLARE",
	"version":             "0x2",
	"compiled_class_hash": "0x0",
	"contract_class":      Class,
	"max_fee":             "0x0",
	"nonce":               "0x0",
	"signature":           []string{"0x5"},
	"sender_address":      "0x6",
}
