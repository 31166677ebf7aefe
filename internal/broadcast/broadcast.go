// Package broadcast submits signed transactions to a node. Every submit ends
// in exactly one of: accepted with the node's id, a *RejectionError, or a
// *TransportError. Nothing is retried here.
package broadcast

import (
	"context"
	"errors"
	"fmt"

	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/restclient"
	"github.com/Klingon-tech/kaschess/internal/rpc"
	"github.com/Klingon-tech/kaschess/internal/rpcclient"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// Broadcaster submits a transaction and returns the id the node assigned.
type Broadcaster interface {
	Submit(ctx context.Context, t *tx.RPCTransaction) (types.Hash, error)
}

// Caller issues a JSON-RPC call. *rpcclient.Conn satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// REST submits through POST /transactions.
type REST struct {
	client *restclient.Client
}

// NewREST creates a REST broadcaster.
func NewREST(client *restclient.Client) *REST {
	return &REST{client: client}
}

// Submit implements Broadcaster.
func (b *REST) Submit(ctx context.Context, t *tx.RPCTransaction) (types.Hash, error) {
	// The REST body has the same shape as the RPC params.
	var resp rpc.SubmitTransactionResult
	err := b.client.Post(ctx, "/transactions", rpc.SubmitTransactionParams{Transaction: t}, &resp)
	if err != nil {
		var he *restclient.HTTPError
		if errors.As(err, &he) && he.Verdict() {
			return types.Hash{}, logged(&RejectionError{Reason: he.Message()})
		}
		return types.Hash{}, logged(&TransportError{Op: "POST /transactions", Err: err})
	}
	return parseID("POST /transactions", resp.TransactionID)
}

// RPC submits through submitTransaction on a persistent connection.
type RPC struct {
	conn Caller
}

// NewRPC creates an RPC broadcaster.
func NewRPC(conn Caller) *RPC {
	return &RPC{conn: conn}
}

// Submit implements Broadcaster.
func (b *RPC) Submit(ctx context.Context, t *tx.RPCTransaction) (types.Hash, error) {
	var resp rpc.SubmitTransactionResult
	err := b.conn.Call(ctx, rpc.MethodSubmitTransaction, rpc.SubmitTransactionParams{Transaction: t}, &resp)
	if err != nil {
		var re *rpcclient.RPCError
		if errors.As(err, &re) && re.Verdict() {
			return types.Hash{}, logged(&RejectionError{Reason: re.Message})
		}
		return types.Hash{}, logged(&TransportError{Op: rpc.MethodSubmitTransaction, Err: err})
	}
	return parseID(rpc.MethodSubmitTransaction, resp.TransactionID)
}

func parseID(op, s string) (types.Hash, error) {
	id, err := types.HexToHash(s)
	if err != nil {
		return types.Hash{}, logged(&TransportError{Op: op, Err: fmt.Errorf("unparseable transaction id %q: %w", s, err)})
	}
	klog.Broadcast.Info().Str("tx", id.String()).Msg("transaction accepted")
	return id, nil
}

func logged(err error) error {
	klog.Broadcast.Warn().Err(err).Str("outcome", Classify(err).String()).Msg("submit failed")
	return err
}
