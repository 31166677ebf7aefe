// Package publish turns a chess event into a signed, submitted transaction.
//
// One Publish is: fetch UTXOs, price the fee, select inputs, build outputs
// (primary first, then change to self), sign through the session backend,
// validate, and submit. Publishes share no transaction state. Two publishes
// issued before the node's UTXO view moves on may pick the same output; the
// node rejects the second one.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Klingon-tech/kaschess/internal/broadcast"
	"github.com/Klingon-tech/kaschess/internal/history"
	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/utxosource"
	"github.com/Klingon-tech/kaschess/internal/wallet"
	"github.com/Klingon-tech/kaschess/pkg/payload"
	"github.com/Klingon-tech/kaschess/pkg/tx"
	"github.com/Klingon-tech/kaschess/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Defaults applied by New.
const (
	DefaultAmount      = 1_000
	DefaultMaxAttempts = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

// Construction and input errors.
var (
	ErrNoBroadcaster   = errors.New("publisher needs a broadcaster")
	ErrNoSource        = errors.New("publisher needs a utxo source")
	ErrNoDAAScore      = errors.New("coinbase maturity needs a source that reports the virtual daa score")
	ErrZeroAmount      = errors.New("output amount must be positive")
	ErrAmountBelowDust = errors.New("output amount is below the dust threshold")
	ErrConservation    = errors.New("inputs do not equal outputs plus fee")
)

// Options configures a Publisher.
type Options struct {
	Fee         uint64        // fixed fee; 0 estimates from FeeRate
	FeeRate     uint64        // sompi per mass unit when Fee is 0
	MinFee      uint64        // floor for an estimated fee
	Dust        uint64        // change below this is absorbed into the fee
	Amount      uint64        // primary output amount of an event publish
	Destination types.Address // primary output of an event publish; zero means self
	MaxAttempts int           // PublishWithRetry attempts

	// CoinbaseMaturity is the DAA score distance before a coinbase output
	// may be spent. 0 spends coinbase outputs at once.
	CoinbaseMaturity uint64
}

// Receipt describes an accepted transaction.
type Receipt struct {
	TxID     types.Hash // as returned by the node
	Fee      uint64     // effective fee, including Absorbed
	Change   uint64
	Absorbed uint64
	Inputs   []types.Outpoint
	Outputs  []*tx.Output
	Mass     uint64
}

// Publisher builds and submits transactions.
type Publisher struct {
	source      utxosource.Source
	broadcaster broadcast.Broadcaster
	opts        Options
	history     *history.Store
	metrics     *Metrics
	retryDelay  time.Duration
	logger      zerolog.Logger
}

// Option customizes a Publisher.
type Option func(*Publisher)

// WithHistory records every attempt in h.
func WithHistory(h *history.Store) Option {
	return func(p *Publisher) { p.history = h }
}

// WithRegisterer exports publish metrics to reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Publisher) { p.metrics.Register(reg) }
}

// WithRetryDelay sets the pause between retry attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(p *Publisher) { p.retryDelay = d }
}

// New creates a publisher. A nil broadcaster is an error: a publish either
// reaches a node or fails.
func New(source utxosource.Source, b broadcast.Broadcaster, opts Options, options ...Option) (*Publisher, error) {
	if source == nil {
		return nil, ErrNoSource
	}
	if b == nil {
		return nil, ErrNoBroadcaster
	}
	if opts.Amount == 0 {
		opts.Amount = DefaultAmount
	}
	if opts.Fee == 0 && opts.FeeRate == 0 {
		opts.FeeRate = 1
	}
	if opts.MinFee == 0 {
		opts.MinFee = tx.DefaultMinFee
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Amount < opts.Dust {
		return nil, fmt.Errorf("%w: amount %d, dust %d", ErrAmountBelowDust, opts.Amount, opts.Dust)
	}
	if _, ok := source.(utxosource.DAAScorer); opts.CoinbaseMaturity > 0 && !ok {
		return nil, ErrNoDAAScore
	}

	p := &Publisher{
		source:      source,
		broadcaster: b,
		opts:        opts,
		metrics:     &Metrics{},
		retryDelay:  DefaultRetryDelay,
		logger:      klog.Publish,
	}
	for _, o := range options {
		o(p)
	}
	return p, nil
}

// Options returns the effective options.
func (p *Publisher) Options() Options { return p.opts }

// Publish encodes ev into the payload and sends Options.Amount to
// Options.Destination, or to the session's own address when unset.
func (p *Publisher) Publish(ctx context.Context, sess *Session, ev payload.Event) (*Receipt, error) {
	data, err := payload.Encode(ev)
	if err != nil {
		return nil, err
	}
	return p.send(ctx, sess, p.destination(sess), p.opts.Amount, data, ev.Kind.String(), ev.GameID)
}

// Send pays amount to dest with an arbitrary payload.
func (p *Publisher) Send(ctx context.Context, sess *Session, dest types.Address, amount uint64, data []byte) (*Receipt, error) {
	return p.send(ctx, sess, dest, amount, data, "send", "")
}

// PublishWithRetry retries Publish after transport failures only. Each
// attempt fetches UTXOs again and signs a new transaction. A rejection or
// local error ends the loop at once.
func (p *Publisher) PublishWithRetry(ctx context.Context, sess *Session, ev payload.Event) (*Receipt, error) {
	return p.retry(ctx, func() (*Receipt, error) { return p.Publish(ctx, sess, ev) })
}

// SendWithRetry is Send with the PublishWithRetry policy.
func (p *Publisher) SendWithRetry(ctx context.Context, sess *Session, dest types.Address, amount uint64, data []byte) (*Receipt, error) {
	return p.retry(ctx, func() (*Receipt, error) { return p.Send(ctx, sess, dest, amount, data) })
}

func (p *Publisher) retry(ctx context.Context, attempt func() (*Receipt, error)) (*Receipt, error) {
	var err error
	for i := 1; i <= p.opts.MaxAttempts; i++ {
		var r *Receipt
		r, err = attempt()
		if broadcast.Classify(err) != broadcast.OutcomeTransport {
			return r, err
		}
		if i == p.opts.MaxAttempts {
			break
		}
		p.logger.Warn().Err(err).Int("attempt", i).Msg("transport failure, retrying with fresh utxos")
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("retry aborted: %w", ctx.Err())
		case <-time.After(p.retryDelay * time.Duration(i)):
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", p.opts.MaxAttempts, err)
}

func (p *Publisher) destination(sess *Session) types.Address {
	if p.opts.Destination.IsZero() {
		return sess.Address()
	}
	return p.opts.Destination
}

func (p *Publisher) send(ctx context.Context, sess *Session, dest types.Address, amount uint64, data []byte, kind, gameID string) (*Receipt, error) {
	start := time.Now()
	r, err := p.attempt(ctx, sess, dest, amount, data)
	outcome := broadcast.Classify(err)
	p.metrics.observe(outcome, time.Since(start))
	p.record(sess, kind, gameID, outcome, r, err)

	ev := p.logger.Info()
	if err != nil {
		ev = p.logger.Warn().Err(err)
	}
	ev = ev.Str("address", sess.Address().String()).Str("kind", kind).Str("outcome", outcome.String())
	if r != nil {
		ev = ev.Str("tx", r.TxID.String()).Uint64("fee", r.Fee)
	}
	ev.Msg("publish")
	return r, err
}

// verdict is implemented by *restclient.HTTPError and *rpcclient.RPCError.
type verdict interface {
	Verdict() bool
}

// sourceError classifies a failed read. A malformed listing or a node
// verdict on the query will not change on retry.
func sourceError(op string, err error) error {
	var v verdict
	if errors.Is(err, utxosource.ErrMalformedEntry) || (errors.As(err, &v) && v.Verdict()) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return &broadcast.TransportError{Op: op, Err: err}
}

// spendable lists the UTXOs of addr, minus immature coinbase outputs when
// CoinbaseMaturity is set.
func (p *Publisher) spendable(ctx context.Context, addr types.Address) ([]*tx.UtxoEntry, error) {
	utxos, err := p.source.UTXOs(ctx, addr)
	if err != nil {
		return nil, sourceError("fetch utxos", err)
	}
	if p.opts.CoinbaseMaturity == 0 {
		return utxos, nil
	}
	score, err := p.source.(utxosource.DAAScorer).VirtualDAAScore(ctx)
	if err != nil {
		return nil, sourceError("fetch virtual daa score", err)
	}
	mature := wallet.FilterMature(utxos, score, p.opts.CoinbaseMaturity)
	if dropped := len(utxos) - len(mature); dropped > 0 {
		p.logger.Debug().Int("immature", dropped).Uint64("virtual_daa_score", score).Msg("skipping immature coinbase outputs")
	}
	return mature, nil
}

func (p *Publisher) attempt(ctx context.Context, sess *Session, dest types.Address, amount uint64, data []byte) (*Receipt, error) {
	if sess.Closed() {
		return nil, ErrSessionClosed
	}
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	if amount < p.opts.Dust {
		return nil, fmt.Errorf("%w: %d < %d", ErrAmountBelowDust, amount, p.opts.Dust)
	}
	if dest.IsZero() {
		return nil, types.ErrInvalidAddress
	}

	utxos, err := p.spendable(ctx, sess.Address())
	if err != nil {
		return nil, err
	}

	sel, err := p.selectInputs(utxos, amount, len(data))
	if err != nil {
		return nil, err
	}

	destScript, err := dest.ScriptPublicKey()
	if err != nil {
		return nil, err
	}
	outputs := []*tx.Output{{Amount: amount, ScriptPublicKey: destScript}}
	if sel.Change > 0 {
		changeScript, err := sess.Address().ScriptPublicKey()
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, &tx.Output{Amount: sel.Change, ScriptPublicKey: changeScript})
	}

	t, err := tx.Build(sel.Inputs, outputs, data)
	if err != nil {
		return nil, err
	}
	if err := sess.sign(ctx, t, sel.Inputs); err != nil {
		return nil, err
	}
	if err := t.ValidateSigned(); err != nil {
		return nil, err
	}
	if err := checkConservation(t, sel); err != nil {
		return nil, err
	}

	id, err := p.broadcaster.Submit(ctx, tx.ToRPC(t))
	if err != nil {
		return nil, err
	}

	r := &Receipt{
		TxID:     id,
		Fee:      sel.Fee,
		Change:   sel.Change,
		Absorbed: sel.Absorbed,
		Inputs:   make([]types.Outpoint, len(t.Inputs)),
		Outputs:  t.Outputs,
		Mass:     t.Mass(),
	}
	for i, in := range t.Inputs {
		r.Inputs[i] = in.PreviousOutpoint
	}
	return r, nil
}

// selectInputs prices the fee for the input count it ends up with. A fixed
// fee needs one pass. An estimated fee is re-priced until the selection
// stops growing.
func (p *Publisher) selectInputs(utxos []*tx.UtxoEntry, amount uint64, payloadLen int) (*wallet.Selection, error) {
	if p.opts.Fee > 0 {
		return wallet.SelectUTXOs(utxos, amount, p.opts.Fee, p.opts.Dust)
	}
	nIn := 1
	for {
		fee := tx.Fee(tx.EstimateMass(nIn, 2, payloadLen), p.opts.FeeRate, p.opts.MinFee)
		sel, err := wallet.SelectUTXOs(utxos, amount, fee, p.opts.Dust)
		if err != nil {
			return nil, err
		}
		if len(sel.Inputs) <= nIn {
			return sel, nil
		}
		nIn = len(sel.Inputs)
	}
}

func checkConservation(t *tx.Transaction, sel *wallet.Selection) error {
	in, err := tx.SumEntries(sel.Inputs)
	if err != nil {
		return err
	}
	out, err := t.TotalOutputValue()
	if err != nil {
		return err
	}
	if in != out+sel.Fee {
		return fmt.Errorf("%w: in %d, out %d, fee %d", ErrConservation, in, out, sel.Fee)
	}
	return nil
}

func (p *Publisher) record(sess *Session, kind, gameID string, outcome broadcast.Outcome, r *Receipt, err error) {
	if p.history == nil {
		return
	}
	rec := &history.Record{
		Address: sess.Address().String(),
		Kind:    kind,
		GameID:  gameID,
		Outcome: outcome.String(),
	}
	if r != nil {
		rec.TxID = r.TxID
		rec.Fee = r.Fee
	}
	var re *broadcast.RejectionError
	if errors.As(err, &re) {
		rec.Reason = re.Reason
	} else if err != nil {
		rec.Reason = err.Error()
	}
	if herr := p.history.Append(rec); herr != nil {
		p.logger.Error().Err(herr).Msg("history append failed")
	}
}
