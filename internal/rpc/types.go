package rpc

import (
	"encoding/json"

	"github.com/Klingon-tech/kaschess/pkg/tx"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeRejected       = -32000
	CodeUnavailable    = -32001
)

// Method names served by a node.
const (
	MethodSubmitTransaction   = "submitTransaction"
	MethodGetUtxosByAddresses = "getUtxosByAddresses"
	MethodGetBalanceByAddress = "getBalanceByAddress"
	MethodGetBlockDagInfo     = "getBlockDagInfo"
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id,omitempty"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

// ── Param and result types ──────────────────────────────────────────────

// SubmitTransactionParams is used by submitTransaction.
type SubmitTransactionParams struct {
	Transaction *tx.RPCTransaction `json:"transaction"`
	AllowOrphan bool               `json:"allowOrphan"`
}

// SubmitTransactionResult is returned by submitTransaction.
type SubmitTransactionResult struct {
	TransactionID string `json:"transactionId"`
}

// GetUtxosByAddressesParams is used by getUtxosByAddresses.
type GetUtxosByAddressesParams struct {
	Addresses []string `json:"addresses"`
}

// GetUtxosByAddressesResult is returned by getUtxosByAddresses.
type GetUtxosByAddressesResult struct {
	Entries []*tx.RPCUtxoEntry `json:"entries"`
}

// GetBalanceByAddressParams is used by getBalanceByAddress.
type GetBalanceByAddressParams struct {
	Address string `json:"address"`
}

// GetBalanceByAddressResult is returned by getBalanceByAddress.
type GetBalanceByAddressResult struct {
	Balance uint64 `json:"balance"`
}

// GetBlockDagInfoResult is returned by getBlockDagInfo.
type GetBlockDagInfoResult struct {
	VirtualDAAScore uint64 `json:"virtualDaaScore"`
}
