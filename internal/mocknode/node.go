// Package mocknode is an in-memory node for development and tests. It keeps
// a confirmed UTXO set and a mempool, verifies submitted transactions the way
// a real node would, and serves the REST and JSON-RPC surfaces the client
// packages talk to.
//
// The UTXO listing reflects the confirmed set only. Outputs spent by a
// mempool transaction stay listed until Confirm, so two clients reading the
// same snapshot may both try to spend them; the second submit is rejected.
package mocknode

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/rpc"
	"github.com/Klingon-tech/kaschess/pkg/crypto"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
	"github.com/rs/zerolog"
)

// Node errors.
var (
	ErrRejected    = errors.New("transaction rejected")
	ErrUnavailable = errors.New("node unavailable")
	ErrBadAddress  = errors.New("address not valid on this network")
)

// FailureMode makes submissions fail at the transport level.
type FailureMode int

const (
	FailNone        FailureMode = iota
	FailUnavailable             // answer 503 / CodeUnavailable
	FailHang                    // never answer until the caller gives up
)

func (m FailureMode) String() string {
	switch m {
	case FailNone:
		return "none"
	case FailUnavailable:
		return "unavailable"
	case FailHang:
		return "hang"
	default:
		return fmt.Sprintf("FailureMode(%d)", int(m))
	}
}

// ParseFailureMode parses the String form of a FailureMode.
func ParseFailureMode(s string) (FailureMode, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return FailNone, nil
	case "unavailable":
		return FailUnavailable, nil
	case "hang":
		return FailHang, nil
	}
	return FailNone, fmt.Errorf("unknown failure mode %q", s)
}

// Node is a single-process stand-in for a real node.
type Node struct {
	mu        sync.Mutex
	prefix    types.Prefix
	minFee    uint64
	confirmed map[types.Outpoint]*tx.UtxoEntry
	pending   map[types.Outpoint]*tx.UtxoEntry // outputs of mempool txs
	mempool   map[types.Hash]*tx.Transaction
	spentBy   map[types.Outpoint]types.Hash // conflict index
	daaScore  uint64
	funded    uint64

	failure   FailureMode
	failCount int // remaining failures; 0 with a mode set means forever

	autoConfirm bool
	metrics     *Metrics

	rpcServer *rpc.Server
	done      chan struct{}
	closeOnce sync.Once
	logger    zerolog.Logger
}

// Option configures a Node.
type Option func(*Node)

// WithMinFee sets the minimum fee a submission must pay.
func WithMinFee(fee uint64) Option {
	return func(n *Node) { n.minFee = fee }
}

// WithAutoConfirm confirms every accepted transaction immediately.
func WithAutoConfirm() Option {
	return func(n *Node) { n.autoConfirm = true }
}

// WithMetrics counts submissions in m.
func WithMetrics(m *Metrics) Option {
	return func(n *Node) { n.metrics = m }
}

// New creates an empty node for the given network prefix.
func New(prefix types.Prefix, opts ...Option) (*Node, error) {
	if !prefix.Valid() {
		return nil, fmt.Errorf("unknown address prefix %q", prefix)
	}
	n := &Node{
		prefix:    prefix,
		minFee:    tx.DefaultMinFee,
		confirmed: make(map[types.Outpoint]*tx.UtxoEntry),
		pending:   make(map[types.Outpoint]*tx.UtxoEntry),
		mempool:   make(map[types.Hash]*tx.Transaction),
		spentBy:   make(map[types.Outpoint]types.Hash),
		done:      make(chan struct{}),
		logger:    klog.Node.With().Str("prefix", string(prefix)).Logger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.rpcServer = rpc.NewServer()
	n.registerRPC()
	return n, nil
}

// Prefix returns the network prefix the node accepts addresses for.
func (n *Node) Prefix() types.Prefix { return n.prefix }

// SetMinFee changes the minimum fee.
func (n *Node) SetMinFee(fee uint64) {
	n.mu.Lock()
	n.minFee = fee
	n.mu.Unlock()
}

// SetFailure makes the next count submissions fail with mode. count <= 0
// keeps failing until SetFailure(FailNone, 0).
func (n *Node) SetFailure(mode FailureMode, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failure = mode
	n.failCount = count
	if count < 0 {
		n.failCount = 0
	}
}

// Fund adds a confirmed output of amount paying to addr.
func (n *Node) Fund(addr types.Address, amount uint64) (types.Outpoint, error) {
	if err := n.checkAddress(addr); err != nil {
		return types.Outpoint{}, err
	}
	spk, err := addr.ScriptPublicKey()
	if err != nil {
		return types.Outpoint{}, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.funded++
	n.daaScore++
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], n.funded)
	op := types.Outpoint{TxID: crypto.HashConcat([]byte("kaschess/fund"), seed[:])}
	n.confirmed[op] = &tx.UtxoEntry{
		Outpoint:        op,
		Amount:          amount,
		ScriptPublicKey: spk,
		BlockDAAScore:   n.daaScore,
		IsCoinbase:      true,
	}
	n.logger.Info().Str("address", addr.String()).Uint64("amount", amount).Str("outpoint", op.String()).Msg("funded")
	return op, nil
}

// VirtualDAAScore returns the score of the node's virtual tip. Every Fund
// and every non-empty Confirm advances it by one.
func (n *Node) VirtualDAAScore() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.daaScore
}

// AdvanceDAAScore moves the virtual score forward by blocks without
// confirming anything.
func (n *Node) AdvanceDAAScore(blocks uint64) {
	n.mu.Lock()
	n.daaScore += blocks
	n.mu.Unlock()
}

// Confirm moves every mempool transaction into the confirmed set and
// returns how many there were.
func (n *Node) Confirm() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.confirmLocked()
}

func (n *Node) confirmLocked() int {
	count := len(n.mempool)
	if count == 0 {
		return 0
	}
	n.daaScore++
	// Outputs first: a mempool tx may spend another one's output.
	for op, e := range n.pending {
		e.BlockDAAScore = n.daaScore
		n.confirmed[op] = e
	}
	for op := range n.spentBy {
		delete(n.confirmed, op)
	}
	n.pending = make(map[types.Outpoint]*tx.UtxoEntry)
	n.mempool = make(map[types.Hash]*tx.Transaction)
	n.spentBy = make(map[types.Outpoint]types.Hash)
	n.logger.Debug().Int("txs", count).Uint64("daa_score", n.daaScore).Msg("confirmed")
	return count
}

// UTXOs lists the confirmed outputs paying to addr, oldest first.
func (n *Node) UTXOs(addr types.Address) ([]*tx.UtxoEntry, error) {
	if err := n.checkAddress(addr); err != nil {
		return nil, err
	}
	spk, err := addr.ScriptPublicKey()
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	var out []*tx.UtxoEntry
	for _, e := range n.confirmed {
		if e.ScriptPublicKey.Equal(spk) {
			cp := *e
			out = append(out, &cp)
		}
	}
	n.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].BlockDAAScore != out[j].BlockDAAScore {
			return out[i].BlockDAAScore < out[j].BlockDAAScore
		}
		return out[i].Outpoint.String() < out[j].Outpoint.String()
	})
	return out, nil
}

// Balance sums the confirmed outputs paying to addr.
func (n *Node) Balance(addr types.Address) (uint64, error) {
	entries, err := n.UTXOs(addr)
	if err != nil {
		return 0, err
	}
	return tx.SumEntries(entries)
}

// Transaction returns a mempool transaction by id.
func (n *Node) Transaction(id types.Hash) (*tx.Transaction, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	t, ok := n.mempool[id]
	if !ok {
		return nil, false
	}
	return t.Clone(), true
}

// MempoolSize returns the number of unconfirmed transactions.
func (n *Node) MempoolSize() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.mempool)
}

// Submit verifies a transaction and adds it to the mempool. Rejections wrap
// ErrRejected; injected failures wrap ErrUnavailable.
func (n *Node) Submit(ctx context.Context, rt *tx.RPCTransaction) (types.Hash, error) {
	if err := n.injectFailure(ctx); err != nil {
		n.metrics.observe(resultUnavailable)
		return types.Hash{}, err
	}

	id, err := n.accept(rt)
	if err != nil {
		n.metrics.observe(resultRejected)
		n.logger.Info().Err(err).Msg("transaction rejected")
		return types.Hash{}, err
	}
	n.metrics.observe(resultAccepted)
	n.logger.Info().Str("txid", id.String()).Msg("transaction accepted")
	return id, nil
}

func (n *Node) accept(rt *tx.RPCTransaction) (types.Hash, error) {
	if rt == nil {
		return types.Hash{}, fmt.Errorf("%w: missing transaction", ErrRejected)
	}
	t, err := tx.FromRPC(rt)
	if err != nil {
		return types.Hash{}, fmt.Errorf("%w: %v", ErrRejected, err)
	}
	id := t.ID()

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.mempool[id]; exists {
		return types.Hash{}, fmt.Errorf("%w: transaction %s is already in the mempool", ErrRejected, id)
	}
	for _, in := range t.Inputs {
		if conflict, exists := n.spentBy[in.PreviousOutpoint]; exists {
			return types.Hash{}, fmt.Errorf("%w: output %s already spent by transaction %s in the mempool",
				ErrRejected, in.PreviousOutpoint, conflict)
		}
	}

	fee, err := t.ValidateWithUTXOs(view{n}, n.minFee)
	if err != nil {
		if errors.Is(err, tx.ErrInputNotFound) {
			return types.Hash{}, fmt.Errorf("%w: transaction %s is an orphan: %v", ErrRejected, id, err)
		}
		return types.Hash{}, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	n.mempool[id] = t
	for _, in := range t.Inputs {
		n.spentBy[in.PreviousOutpoint] = id
	}
	for i, out := range t.Outputs {
		op := types.Outpoint{TxID: id, Index: uint32(i)}
		n.pending[op] = &tx.UtxoEntry{
			Outpoint:        op,
			Amount:          out.Amount,
			ScriptPublicKey: out.ScriptPublicKey,
		}
	}
	n.logger.Debug().Str("txid", id.String()).Uint64("fee", fee).Int("inputs", len(t.Inputs)).Msg("mempool add")
	if n.autoConfirm {
		n.confirmLocked()
	}
	return id, nil
}

// injectFailure applies the configured failure mode, if any.
func (n *Node) injectFailure(ctx context.Context) error {
	n.mu.Lock()
	mode := n.failure
	if mode != FailNone && n.failCount > 0 {
		n.failCount--
		if n.failCount == 0 {
			n.failure = FailNone
		}
	}
	n.mu.Unlock()

	switch mode {
	case FailUnavailable:
		return ErrUnavailable
	case FailHang:
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-n.done:
			return fmt.Errorf("%w: node closed", ErrUnavailable)
		}
	}
	return nil
}

// Close releases hanging submissions and drops websocket connections.
func (n *Node) Close() {
	n.closeOnce.Do(func() {
		close(n.done)
		n.rpcServer.Close()
	})
}

func (n *Node) checkAddress(addr types.Address) error {
	if addr.IsZero() || addr.Prefix != n.prefix {
		return fmt.Errorf("%w: %s", ErrBadAddress, addr)
	}
	return nil
}

func (n *Node) parseAddress(s string) (types.Address, error) {
	addr, err := types.DecodeAddress(s)
	if err != nil {
		return types.Address{}, fmt.Errorf("%w: %v", ErrBadAddress, err)
	}
	if err := n.checkAddress(addr); err != nil {
		return types.Address{}, err
	}
	return addr, nil
}

// view resolves outpoints against confirmed and mempool outputs. The caller
// holds n.mu.
type view struct{ n *Node }

func (v view) GetUTXO(op types.Outpoint) (*tx.UtxoEntry, bool) {
	if e, ok := v.n.confirmed[op]; ok {
		return e, true
	}
	e, ok := v.n.pending[op]
	return e, ok
}
