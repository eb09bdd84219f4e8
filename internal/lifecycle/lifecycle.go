// Copyright 2018 The Solid Core Data Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lifecycle owns tensd's background upkeep. The materialization
// cache GC sweep is the one loop every tensd process always runs — that
// sweep is this daemon's entire reason to exist — so Daemon owns it
// directly rather than treating it as just another caller-supplied loop.
// Any further loops a particular boot needs (stats refresh, a metrics
// server) register with AddLoop and run alongside it under the same
// SIGINT-triggered context and shutdown drain.
package lifecycle

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/coredatalabs/tens/internal/config"
	"github.com/coredatalabs/tens/internal/metrics"
	"github.com/coredatalabs/tens/internal/store"
)

// defaultGCInterval is used when a loaded config's Store.GCIntervalSecs is
// non-positive (config.Validate accepts 0).
const defaultGCInterval = time.Hour

// RunFunc is one long-running loop tied to the daemon's lifetime; it must
// return promptly once ctx is cancelled.
type RunFunc func(ctx context.Context) error

// Daemon sequences tensd's startup, its background loops, and a final
// shutdown drain.
type Daemon struct {
	store     *store.TokenMemory
	metrics   *metrics.Metrics
	logger    *slog.Logger
	cfgHolder *atomic.Value

	extra []RunFunc
}

// NewDaemon builds a Daemon around an already-opened store. cfgHolder must
// hold a *config.Config and is re-read on every GC tick, so a hot config
// reload (config.Watch) changes the sweep interval without a process
// restart.
func NewDaemon(tm *store.TokenMemory, mtr *metrics.Metrics, logger *slog.Logger, cfgHolder *atomic.Value) *Daemon {
	return &Daemon{store: tm, metrics: mtr, logger: logger, cfgHolder: cfgHolder}
}

// AddLoop registers an additional loop (stats refresh, a metrics server) to
// run alongside the daemon's built-in GC loop.
func (d *Daemon) AddLoop(run RunFunc) {
	d.extra = append(d.extra, run)
}

// Run starts the GC loop and every registered extra loop under a context
// cancelled on SIGINT, waiting up to stopTimeout for them to exit cleanly.
// Either way it finishes with one last GC sweep, so a materialization-cache
// entry orphaned just before shutdown doesn't sit stale until the next
// scheduled tick.
//
// setup, if non-nil, runs once with the cancelable context before any loop
// starts — the hook a boot uses for one-time work that must stop when the
// daemon does (e.g. config.Watch's fsnotify goroutine), as opposed to a
// recurring AddLoop.
func (d *Daemon) Run(ctx context.Context, stopTimeout time.Duration, setup func(ctx context.Context)) error {
	notify := make(chan os.Signal, 3)
	signal.Notify(notify, os.Interrupt)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if setup != nil {
		setup(ctx)
	}

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error { return d.gcLoop(gctx) })
	for _, run := range d.extra {
		run := run
		group.Go(func() error { return run(gctx) })
	}

	done := make(chan error, 1)
	go func() { done <- group.Wait() }()

	var runErr error
	select {
	case <-notify:
		cancel()
	case runErr = <-done:
		cancel()
	}

	select {
	case err := <-done:
		if runErr == nil {
			runErr = err
		}
	case <-time.After(stopTimeout):
		d.logger.Warn("shutdown grace period exceeded, exiting without draining remaining loops")
	}

	d.finalSweep()
	return runErr
}

func (d *Daemon) finalSweep() {
	removed, err := d.store.GC()
	if err != nil {
		d.logger.Error("final gc sweep failed", "error", err)
		return
	}
	d.logger.Info("final gc sweep complete", "removed", removed)
}

// gcLoop runs store.GC on the live config's Store.GCIntervalSecs,
// re-reading the interval from cfgHolder on every tick.
func (d *Daemon) gcLoop(ctx context.Context) error {
	for {
		interval := d.cfgHolder.Load().(*config.Config).Store.GCIntervalSecs
		wait := time.Duration(interval) * time.Second
		if interval <= 0 {
			wait = defaultGCInterval
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(wait):
		}

		start := time.Now()
		removed, err := d.store.GC()
		d.metrics.RecordStoreOp("gc", time.Since(start), err)
		if err != nil {
			d.logger.Error("gc sweep failed", "error", err)
			continue
		}
		d.metrics.RecordGC(removed)
		d.logger.Info("gc sweep complete", "removed", removed)
	}
}
