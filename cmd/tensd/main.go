// Command tensd is a small administrative daemon that owns a TokenMemory
// store's background upkeep: periodic GC of orphaned materialization cache
// entries, optional tokenizer warm-up at boot, and an optional Prometheus
// /metrics endpoint. It serves no request traffic of its own (spec's
// resource-lifecycle and invalidate(collection) concerns live here instead
// of in an HTTP handler, since HTTP serving is out of scope).
//
// Grounded on dca's cmd/dca/main.go (flag.Parse + a lifecycle type that runs
// under a stopTimeout) generalized onto internal/lifecycle.Daemon, which
// owns the GC loop itself and takes any further loops this boot needs via
// AddLoop, instead of dca's single service/config.Run.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/coredatalabs/tens/internal/config"
	"github.com/coredatalabs/tens/internal/lifecycle"
	"github.com/coredatalabs/tens/internal/logging"
	"github.com/coredatalabs/tens/internal/metrics"
	"github.com/coredatalabs/tens/internal/store"
	"github.com/coredatalabs/tens/internal/tokenizer"
)

func main() {
	configPath := flag.String("config", "", "path to tens.yaml")
	stopTimeout := flag.Duration("stop-timeout", 10*time.Second, "grace period for shutdown after SIGINT")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tensd:", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Logging)

	cfgHolder := &atomic.Value{}
	cfgHolder.Store(cfg)

	mtr := metrics.New()
	tok := tokenizer.NewManager()
	tm, err := store.New(cfg.Store.Root, tok, mtr)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}

	daemon := lifecycle.NewDaemon(tm, mtr, logger, cfgHolder)
	daemon.AddLoop(func(ctx context.Context) error { return statsLoop(ctx, logger, tm, mtr) })
	if cfg.Metrics.Enabled {
		daemon.AddLoop(func(ctx context.Context) error { return serveMetrics(ctx, logger, cfg.Metrics.Addr, mtr) })
	}

	// setup runs under the daemon's own SIGINT-cancelable context, so
	// config.Watch's fsnotify goroutine stops at shutdown instead of
	// outliving the daemon.
	setup := func(ctx context.Context) {
		if err := config.Watch(ctx, *configPath, logger, func(next *config.Config) {
			cfgHolder.Store(next)
		}); err != nil {
			logger.Warn("config hot-reload disabled", "error", err)
		}
		if cfg.Tokenizer.WarmEncodingsAtBoot {
			warmTokenizers(logger, tok)
		}
	}

	if err := daemon.Run(context.Background(), *stopTimeout, setup); err != nil {
		logger.Error("tensd exited with error", "error", err)
		os.Exit(1)
	}
}

func warmTokenizers(logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}, tok *tokenizer.Manager) {
	for _, enc := range []tokenizer.Encoding{tokenizer.EncodingCl100kBase, tokenizer.EncodingO200kBase} {
		if err := tok.Warm(enc); err != nil {
			logger.Warn("tokenizer warm-up failed", "encoding", enc, "error", err)
			continue
		}
		logger.Info("tokenizer warmed", "encoding", enc)
	}
}

// statsLoop periodically refreshes the IR/materialization-cache occupancy
// gauges so /metrics reflects current disk state between GC sweeps.
func statsLoop(ctx context.Context, logger interface {
	Error(msg string, args ...any)
}, tm *store.TokenMemory, mtr *metrics.Metrics) error {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			stats, err := tm.Stats()
			if err != nil {
				logger.Error("stats refresh failed", "error", err)
				continue
			}
			mtr.UpdateStoreStats(stats.IRCount, stats.MaterializeCount)
		}
	}
}

func serveMetrics(ctx context.Context, logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}, addr string, mtr *metrics.Metrics) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", mtr.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
