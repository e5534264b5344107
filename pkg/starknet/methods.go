// Package starknet names the Starknet JSON-RPC methods served and forwarded
// by beerus, pinned to one version of the published API.
package starknet

// SpecVersion is the Starknet JSON-RPC API version beerus implements. The
// upstream node must report exactly this version.
const SpecVersion = "0.6.0"

// Read API
const (
	MethodSpecVersion                     = "starknet_specVersion"
	MethodGetBlockWithTxHashes            = "starknet_getBlockWithTxHashes"
	MethodGetBlockWithTxs                 = "starknet_getBlockWithTxs"
	MethodGetStateUpdate                  = "starknet_getStateUpdate"
	MethodGetStorageAt                    = "starknet_getStorageAt"
	MethodGetTransactionStatus            = "starknet_getTransactionStatus"
	MethodGetTransactionByHash            = "starknet_getTransactionByHash"
	MethodGetTransactionByBlockIDAndIndex = "starknet_getTransactionByBlockIdAndIndex"
	MethodGetTransactionReceipt           = "starknet_getTransactionReceipt"
	MethodGetClass                        = "starknet_getClass"
	MethodGetClassHashAt                  = "starknet_getClassHashAt"
	MethodGetClassAt                      = "starknet_getClassAt"
	MethodGetBlockTransactionCount        = "starknet_getBlockTransactionCount"
	MethodCall                            = "starknet_call"
	MethodEstimateFee                     = "starknet_estimateFee"
	MethodEstimateMessageFee              = "starknet_estimateMessageFee"
	MethodBlockNumber                     = "starknet_blockNumber"
	MethodBlockHashAndNumber              = "starknet_blockHashAndNumber"
	MethodChainID                         = "starknet_chainId"
	MethodSyncing                         = "starknet_syncing"
	MethodGetEvents                       = "starknet_getEvents"
	MethodGetNonce                        = "starknet_getNonce"
)

// Write API
const (
	MethodAddInvokeTransaction        = "starknet_addInvokeTransaction"
	MethodAddDeclareTransaction       = "starknet_addDeclareTransaction"
	MethodAddDeployAccountTransaction = "starknet_addDeployAccountTransaction"
)

// Trace API
const (
	MethodTraceTransaction       = "starknet_traceTransaction"
	MethodSimulateTransactions   = "starknet_simulateTransactions"
	MethodTraceBlockTransactions = "starknet_traceBlockTransactions"
)

// Error codes defined by the Starknet API that beerus refers to.
const (
	CodeBlockNotFound     = 24
	CodeClassHashNotFound = 28
	CodeContractNotFound  = 20
)
