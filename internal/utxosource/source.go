// Package utxosource reads the spendable outputs of an address from a node.
// Every read is a point-in-time snapshot: nothing is locked, and an output
// may be spent by someone else between the read and a later submit.
package utxosource

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/restclient"
	"github.com/Klingon-tech/kaschess/internal/rpc"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
)

// ErrMalformedEntry is returned when the node lists an entry that cannot be
// used.
var ErrMalformedEntry = errors.New("malformed utxo entry")

// Source lists UTXOs and balances.
type Source interface {
	UTXOs(ctx context.Context, addr types.Address) ([]*tx.UtxoEntry, error)
	Balance(ctx context.Context, addr types.Address) (uint64, error)
}

// DAAScorer reports the virtual DAA score a node measures spendability
// against. REST and RPC implement it.
type DAAScorer interface {
	VirtualDAAScore(ctx context.Context) (uint64, error)
}

// Caller issues a JSON-RPC call. *rpcclient.Conn satisfies it.
type Caller interface {
	Call(ctx context.Context, method string, params, result any) error
}

// REST reads from a node's REST API.
type REST struct {
	client *restclient.Client
}

// NewREST creates a REST source.
func NewREST(client *restclient.Client) *REST {
	return &REST{client: client}
}

type balanceResponse struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
}

// UTXOs implements Source.
func (s *REST) UTXOs(ctx context.Context, addr types.Address) ([]*tx.UtxoEntry, error) {
	var raw []*tx.RPCUtxoEntry
	path := "/addresses/" + url.PathEscape(addr.String()) + "/utxos"
	if err := s.client.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("fetch utxos for %s: %w", addr, err)
	}
	return convertEntries(addr, raw)
}

// Balance implements Source.
func (s *REST) Balance(ctx context.Context, addr types.Address) (uint64, error) {
	var resp balanceResponse
	path := "/addresses/" + url.PathEscape(addr.String()) + "/balance"
	if err := s.client.Get(ctx, path, &resp); err != nil {
		return 0, fmt.Errorf("fetch balance for %s: %w", addr, err)
	}
	return resp.Balance, nil
}

// VirtualDAAScore implements DAAScorer.
func (s *REST) VirtualDAAScore(ctx context.Context) (uint64, error) {
	var resp rpc.GetBlockDagInfoResult
	if err := s.client.Get(ctx, "/info/blockdag", &resp); err != nil {
		return 0, fmt.Errorf("fetch virtual daa score: %w", err)
	}
	return resp.VirtualDAAScore, nil
}

// RPC reads over a JSON-RPC connection.
type RPC struct {
	conn Caller
}

// NewRPC creates an RPC source.
func NewRPC(conn Caller) *RPC {
	return &RPC{conn: conn}
}

// UTXOs implements Source.
func (s *RPC) UTXOs(ctx context.Context, addr types.Address) ([]*tx.UtxoEntry, error) {
	var resp rpc.GetUtxosByAddressesResult
	params := rpc.GetUtxosByAddressesParams{Addresses: []string{addr.String()}}
	if err := s.conn.Call(ctx, rpc.MethodGetUtxosByAddresses, params, &resp); err != nil {
		return nil, fmt.Errorf("fetch utxos for %s: %w", addr, err)
	}
	return convertEntries(addr, resp.Entries)
}

// Balance implements Source.
func (s *RPC) Balance(ctx context.Context, addr types.Address) (uint64, error) {
	var resp rpc.GetBalanceByAddressResult
	params := rpc.GetBalanceByAddressParams{Address: addr.String()}
	if err := s.conn.Call(ctx, rpc.MethodGetBalanceByAddress, params, &resp); err != nil {
		return 0, fmt.Errorf("fetch balance for %s: %w", addr, err)
	}
	return resp.Balance, nil
}

// VirtualDAAScore implements DAAScorer.
func (s *RPC) VirtualDAAScore(ctx context.Context) (uint64, error) {
	var resp rpc.GetBlockDagInfoResult
	if err := s.conn.Call(ctx, rpc.MethodGetBlockDagInfo, nil, &resp); err != nil {
		return 0, fmt.Errorf("fetch virtual daa score: %w", err)
	}
	return resp.VirtualDAAScore, nil
}

// convertEntries decodes wire entries and drops none silently: one bad entry
// fails the whole snapshot.
func convertEntries(addr types.Address, raw []*tx.RPCUtxoEntry) ([]*tx.UtxoEntry, error) {
	want := addr.String()
	out := make([]*tx.UtxoEntry, 0, len(raw))
	for i, r := range raw {
		if r == nil {
			return nil, fmt.Errorf("%w: entry %d is null", ErrMalformedEntry, i)
		}
		if r.Address != "" && r.Address != want {
			return nil, fmt.Errorf("%w: entry %d belongs to %s", ErrMalformedEntry, i, r.Address)
		}
		e, err := tx.UtxoEntryFromRPC(r)
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrMalformedEntry, i, err)
		}
		out = append(out, e)
	}
	klog.UTXO.Debug().Str("address", want).Int("count", len(out)).Msg("utxo snapshot")
	return out, nil
}
