// kaschess-devnode runs an in-memory node for local testing. It serves the
// REST and JSON-RPC APIs the CLI talks to, funds the configured addresses
// at startup and confirms its mempool on a timer.
//
// Usage:
//
//	kaschess-devnode --network=devnet --fund=kaspadev:q...=100000000
//	kaschess-devnode --help
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Klingon-tech/kaschess/config"
	klog "github.com/Klingon-tech/kaschess/internal/log"
	"github.com/Klingon-tech/kaschess/internal/mocknode"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, flags, err := config.Load("kaschess-devnode", os.Args[1:])
	if config.IsHelp(err) {
		fmt.Fprintln(os.Stderr, "Usage: kaschess-devnode [--network n] [--listen addr] [--fund addr=sompi,...] [--confirm-interval d] [--metrics addr]")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if flags.Version {
		fmt.Println("kaschess-devnode version 0.1.0")
		return
	}
	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	logFile, err := klog.Init(klog.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON, File: cfg.Log.File, Console: os.Stdout})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logFile.Close()
	logger := klog.WithComponent("devnode")

	prefix, err := cfg.Prefix()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := &mocknode.Metrics{}
	metrics.Register(registry)

	opts := []mocknode.Option{mocknode.WithMinFee(cfg.DevNode.MinFee), mocknode.WithMetrics(metrics)}
	if cfg.DevNode.ConfirmInterval == 0 {
		opts = append(opts, mocknode.WithAutoConfirm())
	}
	node, err := mocknode.New(prefix, opts...)
	if err != nil {
		return err
	}
	defer node.Close()

	for _, entry := range cfg.DevNode.Fund {
		addr, amount, err := config.ParseFund(entry, prefix)
		if err != nil {
			return err
		}
		op, err := node.Fund(addr, amount)
		if err != nil {
			return err
		}
		logger.Info().Str("address", addr.String()).Uint64("amount", amount).Str("outpoint", op.String()).Msg("Funded")
	}

	mux := http.NewServeMux()
	mux.Handle("/", node.Handler())
	if cfg.Metrics.Addr == "" {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	servers := []*http.Server{newServer(cfg.DevNode.Addr, mux)}
	if cfg.Metrics.Addr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		servers = append(servers, newServer(cfg.Metrics.Addr, metricsMux))
	}

	errCh := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			logger.Info().Str("addr", srv.Addr).Msg("Listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("listen %s: %w", srv.Addr, err)
			}
		}(srv)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if d := cfg.DevNode.ConfirmInterval; d > 0 {
		go confirmLoop(ctx, node, d)
	}
	logger.Info().Str("network", string(cfg.Network)).Dur("confirm", cfg.DevNode.ConfirmInterval).Msg("Dev node started")

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	logger.Info().Msg("Shutting down")
	// Close the node first so hung submits and websocket sessions release.
	node.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, srv := range servers {
		srv.Shutdown(shutdownCtx)
	}
	return err
}

func newServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// confirmLoop moves the mempool into the confirmed set every interval.
func confirmLoop(ctx context.Context, node *mocknode.Node, interval time.Duration) {
	logger := klog.WithComponent("devnode")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := node.Confirm(); n > 0 {
				logger.Debug().Int("txs", n).Msg("Confirmed")
			}
		}
	}
}
