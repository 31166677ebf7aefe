package mocknode

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/Klingon-tech/kaschess/internal/rpc"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

const maxSubmitBody = 1 << 20

// Handler returns the node's HTTP surface:
//
//	GET  /addresses/{address}/utxos
//	GET  /addresses/{address}/balance
//	POST /transactions
//	GET  /transactions/{id}
//	GET  /info/blockdag
//	     /ws    JSON-RPC over websocket or POST
func (n *Node) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /addresses/{address}/utxos", n.handleUTXOs)
	mux.HandleFunc("GET /addresses/{address}/balance", n.handleBalance)
	mux.HandleFunc("POST /transactions", n.handleSubmit)
	mux.HandleFunc("GET /transactions/{id}", n.handleTransaction)
	mux.HandleFunc("GET /info/blockdag", n.handleBlockDag)
	mux.Handle("/ws", n.rpcServer)
	return mux
}

type errorBody struct {
	Error string `json:"error"`
}

type balanceBody struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorBody{Error: err.Error()})
}

func (n *Node) handleUTXOs(w http.ResponseWriter, r *http.Request) {
	addr, err := n.parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := n.UTXOs(addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, toRPCEntries(addr, entries))
}

func (n *Node) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr, err := n.parseAddress(r.PathValue("address"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	balance, err := n.Balance(addr)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceBody{Address: addr.String(), Balance: balance})
}

func (n *Node) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxSubmitBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	var req rpc.SubmitTransactionParams
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	id, err := n.Submit(r.Context(), req.Transaction)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rpc.SubmitTransactionResult{TransactionID: id.String()})
	case errors.Is(err, ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusBadRequest, err)
	}
}

func (n *Node) handleTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := types.HexToHash(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	t, ok := n.Transaction(id)
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("transaction not found"))
		return
	}
	writeJSON(w, http.StatusOK, tx.ToRPC(t))
}

func (n *Node) handleBlockDag(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rpc.GetBlockDagInfoResult{VirtualDAAScore: n.VirtualDAAScore()})
}

func (n *Node) registerRPC() {
	n.rpcServer.Register(rpc.MethodSubmitTransaction, n.rpcSubmit)
	n.rpcServer.Register(rpc.MethodGetUtxosByAddresses, n.rpcUTXOs)
	n.rpcServer.Register(rpc.MethodGetBalanceByAddress, n.rpcBalance)
	n.rpcServer.Register(rpc.MethodGetBlockDagInfo, func(context.Context, json.RawMessage) (any, *rpc.Error) {
		return rpc.GetBlockDagInfoResult{VirtualDAAScore: n.VirtualDAAScore()}, nil
	})
}

func (n *Node) rpcSubmit(ctx context.Context, params json.RawMessage) (any, *rpc.Error) {
	var p rpc.SubmitTransactionParams
	if rpcErr := rpc.ParseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	id, err := n.Submit(ctx, p.Transaction)
	if err != nil {
		code := rpc.CodeRejected
		if errors.Is(err, ErrUnavailable) {
			code = rpc.CodeUnavailable
		}
		return nil, &rpc.Error{Code: code, Message: err.Error()}
	}
	return rpc.SubmitTransactionResult{TransactionID: id.String()}, nil
}

func (n *Node) rpcUTXOs(_ context.Context, params json.RawMessage) (any, *rpc.Error) {
	var p rpc.GetUtxosByAddressesParams
	if rpcErr := rpc.ParseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	result := rpc.GetUtxosByAddressesResult{Entries: []*tx.RPCUtxoEntry{}}
	for _, s := range p.Addresses {
		addr, err := n.parseAddress(s)
		if err != nil {
			return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
		}
		entries, err := n.UTXOs(addr)
		if err != nil {
			return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
		}
		result.Entries = append(result.Entries, toRPCEntries(addr, entries)...)
	}
	return result, nil
}

func (n *Node) rpcBalance(_ context.Context, params json.RawMessage) (any, *rpc.Error) {
	var p rpc.GetBalanceByAddressParams
	if rpcErr := rpc.ParseParams(params, &p); rpcErr != nil {
		return nil, rpcErr
	}
	addr, err := n.parseAddress(p.Address)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInvalidParams, Message: err.Error()}
	}
	balance, err := n.Balance(addr)
	if err != nil {
		return nil, &rpc.Error{Code: rpc.CodeInternalError, Message: err.Error()}
	}
	return rpc.GetBalanceByAddressResult{Balance: balance}, nil
}

func toRPCEntries(addr types.Address, entries []*tx.UtxoEntry) []*tx.RPCUtxoEntry {
	s := addr.String()
	out := make([]*tx.RPCUtxoEntry, len(entries))
	for i, e := range entries {
		out[i] = e.ToRPC(s)
	}
	return out
}
