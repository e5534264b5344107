package rpc

import (
	"fmt"

	"github.com/eigerco/beerus/pkg/starknet"
)

// Kind is how a method is served.
type Kind int

const (
	// KindLocal methods are answered from the trusted state
	KindLocal Kind = iota
	// KindForwarded methods are relayed to the upstream node unchanged
	KindForwarded
	// KindTransformed methods are forwarded and the result is rebuilt,
	// possibly from several upstream calls
	KindTransformed
)

func (k Kind) String() string {
	switch k {
	case KindLocal:
		return "local"
	case KindForwarded:
		return "forwarded"
	case KindTransformed:
		return "transformed"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Method is one registry entry.
type Method struct {
	Name    string
	Kind    Kind
	Params  []Param
	handler handlerFunc
}

var (
	blockIDParam         = Param{Name: "block_id", Kind: ParamBlockID}
	txHashParam          = Param{Name: "transaction_hash", Kind: ParamFelt}
	contractAddressParam = Param{Name: "contract_address", Kind: ParamFelt}
	simulationFlagsParam = Param{Name: "simulation_flags", Kind: ParamSimulationFlags}
)

func local(name string, h handlerFunc, params ...Param) *Method {
	return &Method{Name: name, Kind: KindLocal, Params: params, handler: h}
}

func forwarded(name string, params ...Param) *Method {
	return &Method{Name: name, Kind: KindForwarded, Params: params, handler: forward}
}

func transformed(name string, h handlerFunc, params ...Param) *Method {
	return &Method{Name: name, Kind: KindTransformed, Params: params, handler: h}
}

// registry lists every method of the pinned Starknet API version.
func registry() []*Method {
	return []*Method{
		// Read API
		forwarded(starknet.MethodSpecVersion),
		forwarded(starknet.MethodGetBlockWithTxHashes, blockIDParam),
		forwarded(starknet.MethodGetBlockWithTxs, blockIDParam),
		forwarded(starknet.MethodGetStateUpdate, blockIDParam),
		forwarded(starknet.MethodGetStorageAt,
			contractAddressParam,
			Param{Name: "key", Kind: ParamFelt},
			blockIDParam),
		forwarded(starknet.MethodGetTransactionStatus, txHashParam),
		forwarded(starknet.MethodGetTransactionByHash, txHashParam),
		forwarded(starknet.MethodGetTransactionByBlockIDAndIndex,
			blockIDParam,
			Param{Name: "index", Kind: ParamUint}),
		forwarded(starknet.MethodGetTransactionReceipt, txHashParam),
		forwarded(starknet.MethodGetClass,
			blockIDParam,
			Param{Name: "class_hash", Kind: ParamFelt}),
		forwarded(starknet.MethodGetClassHashAt, blockIDParam, contractAddressParam),
		transformed(starknet.MethodGetClassAt, getClassAt, blockIDParam, contractAddressParam),
		forwarded(starknet.MethodGetBlockTransactionCount, blockIDParam),
		forwarded(starknet.MethodCall,
			Param{Name: "request", Kind: ParamFunctionCall},
			blockIDParam),
		forwarded(starknet.MethodEstimateFee,
			Param{Name: "request", Kind: ParamBroadcastedTxns},
			simulationFlagsParam,
			blockIDParam),
		forwarded(starknet.MethodEstimateMessageFee,
			Param{Name: "message", Kind: ParamMsgFromL1},
			blockIDParam),
		local(starknet.MethodBlockNumber, blockNumber),
		local(starknet.MethodBlockHashAndNumber, blockHashAndNumber),
		forwarded(starknet.MethodChainID),
		transformed(starknet.MethodSyncing, syncing),
		forwarded(starknet.MethodGetEvents, Param{Name: "filter", Kind: ParamEventFilter}),
		forwarded(starknet.MethodGetNonce, blockIDParam, contractAddressParam),

		// Write API
		forwarded(starknet.MethodAddInvokeTransaction,
			Param{Name: "invoke_transaction", Kind: ParamBroadcastedTxn}),
		forwarded(starknet.MethodAddDeclareTransaction,
			Param{Name: "declare_transaction", Kind: ParamBroadcastedTxn}),
		forwarded(starknet.MethodAddDeployAccountTransaction,
			Param{Name: "deploy_account_transaction", Kind: ParamBroadcastedTxn}),

		// Trace API
		forwarded(starknet.MethodTraceTransaction, txHashParam),
		forwarded(starknet.MethodSimulateTransactions,
			blockIDParam,
			Param{Name: "transactions", Kind: ParamBroadcastedTxns},
			simulationFlagsParam),
		forwarded(starknet.MethodTraceBlockTransactions, blockIDParam),
	}
}
