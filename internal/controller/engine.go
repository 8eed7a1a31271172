/*
Copyright 2025 The VoltFleet Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
	"github.com/shopspring/decimal"
	"k8s.io/utils/clock"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/assetstore"
	"github.com/voltfleet/fleet-core/internal/engines/retirement"
	"github.com/voltfleet/fleet-core/internal/ledger"
	"github.com/voltfleet/fleet-core/internal/logging"
	"github.com/voltfleet/fleet-core/internal/market"
	"github.com/voltfleet/fleet-core/internal/metrics"
	"github.com/voltfleet/fleet-core/internal/simulator"
)

// DefaultTickInterval is the period between simulator ticks.
const DefaultTickInterval = 5 * time.Second

// Command names used in logs and the command error metric.
const (
	CommandSwap   = "swap"
	CommandCharge = "charge"
	CommandMint   = "mint"
)

// EngineConfig wires the engine's collaborators.
type EngineConfig struct {
	Store     *assetstore.Store
	Simulator *simulator.Simulator
	Gate      retirement.Gate
	Registry  market.Registry
	Ledger    *ledger.Ledger
	Emitter   *metrics.Emitter

	// Clock drives the tick timer. Defaults to the real clock.
	Clock clock.Clock
	// Interval is the tick period. Defaults to DefaultTickInterval.
	Interval time.Duration
	// Logger defaults to the process-wide logger.
	Logger *logr.Logger
}

// TickReport is the outcome of one tick.
type TickReport struct {
	At          time.Time
	Duration    time.Duration
	Updated     int
	Skipped     int
	Failures    []simulator.AssetFailure
	NewListings []fleetv1alpha1.SLXListing
}

// Engine serialises ticks and commands over the fleet state.
type Engine struct {
	// mu is the single execution context: every tick and command holds it.
	mu sync.Mutex

	store     *assetstore.Store
	simulator *simulator.Simulator
	gate      retirement.Gate
	registry  market.Registry
	ledger    *ledger.Ledger
	emitter   *metrics.Emitter
	clock     clock.Clock
	interval  time.Duration
	logger    logr.Logger

	ticks atomic.Uint64

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewEngine validates cfg and creates an engine.
func NewEngine(cfg EngineConfig) (*Engine, error) {
	var missing []string
	if cfg.Store == nil {
		missing = append(missing, "store")
	}
	if cfg.Simulator == nil {
		missing = append(missing, "simulator")
	}
	if cfg.Gate == nil {
		missing = append(missing, "gate")
	}
	if cfg.Registry == nil {
		missing = append(missing, "registry")
	}
	if cfg.Ledger == nil {
		missing = append(missing, "ledger")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("engine config missing: %s", strings.Join(missing, ", "))
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", cfg.Interval)
	}

	e := &Engine{
		store:     cfg.Store,
		simulator: cfg.Simulator,
		gate:      cfg.Gate,
		registry:  cfg.Registry,
		ledger:    cfg.Ledger,
		emitter:   cfg.Emitter,
		clock:     cfg.Clock,
		interval:  cfg.Interval,
	}
	if e.clock == nil {
		e.clock = clock.RealClock{}
	}
	if e.interval == 0 {
		e.interval = DefaultTickInterval
	}
	if e.emitter == nil {
		emitter, err := metrics.NewEmitter(nil)
		if err != nil {
			return nil, fmt.Errorf("create metrics emitter: %w", err)
		}
		e.emitter = emitter
	}
	if cfg.Logger != nil {
		e.logger = *cfg.Logger
	} else {
		e.logger = ctrllog.Log
	}
	e.logger = e.logger.WithName("engine")
	return e, nil
}

// Interval returns the tick period.
func (e *Engine) Interval() time.Duration {
	return e.interval
}

// TicksCompleted returns the number of ticks run so far.
func (e *Engine) TicksCompleted() uint64 {
	return e.ticks.Load()
}

// Tick runs one tick synchronously. The registry commit uses a context
// detached from ctx's cancellation so that a started tick always completes.
func (e *Engine) Tick(ctx context.Context) (TickReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ctx = ctrllog.IntoContext(ctx, e.logger)
	start := e.clock.Now()

	res := e.simulator.Tick(ctx)
	candidates := e.gate.Evaluate(ctx, res.Assets, e.registry, res.At)

	report := TickReport{
		At:       res.At,
		Updated:  res.Updated,
		Skipped:  res.Skipped,
		Failures: res.Failures,
	}

	var commitErr error
	if len(candidates) > 0 {
		added, err := e.registry.Add(context.WithoutCancel(ctx), candidates)
		if err != nil {
			commitErr = fmt.Errorf("commit listings: %w", err)
			e.logger.Error(err, "Failed to commit listings, assets will be re-evaluated next tick",
				"candidates", len(candidates))
		}
		report.NewListings = added
	}
	for _, l := range report.NewListings {
		e.logger.Info("Asset retired to secondary market",
			"asset", l.AssetID,
			"soh", l.Soh,
			"salvageValue", l.SalvageValue.String())
	}

	report.Duration = e.clock.Since(start)
	e.ticks.Add(1)
	e.emitter.EmitTick(report.Duration, len(report.Failures), len(report.NewListings))
	e.emitter.EmitAssets(res.Assets)

	e.logger.V(logging.DEBUG).Info("Tick completed",
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failures", len(report.Failures),
		"newListings", len(report.NewListings),
		"duration", report.Duration)
	return report, commitErr
}

// Start begins the periodic tick. Calling Start on a running engine is a
// no-op. The loop stops when ctx is cancelled or Stop is called; either way
// the engine can be started again afterwards.
func (e *Engine) Start(ctx context.Context) {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done

	e.logger.Info("Starting simulation", "interval", e.interval)
	go e.run(runCtx, done)
}

// Stop halts the periodic tick and waits for an in-flight tick to finish.
// Calling Stop on a stopped engine is a no-op.
func (e *Engine) Stop() {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.cancel == nil {
		return
	}

	e.cancel()
	<-e.done
	e.cancel = nil
	e.done = nil
	e.logger.Info("Simulation stopped", "ticks", e.ticks.Load())
}

// Running reports whether the periodic tick is active.
func (e *Engine) Running() bool {
	e.runMu.Lock()
	defer e.runMu.Unlock()
	return e.cancel != nil
}

// run re-arms the timer only after each tick returns.
func (e *Engine) run(ctx context.Context, done chan struct{}) {
	defer e.release(done)

	timer := e.clock.NewTimer(e.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C():
			if _, err := e.Tick(ctx); err != nil {
				e.logger.V(logging.DEBUG).Info("Tick finished with errors", "error", err.Error())
			}
			timer.Reset(e.interval)
		}
	}
}

// release marks the loop owning done as finished. Stop clears the run state
// itself; release clears it when the loop ended because its parent context
// was cancelled.
func (e *Engine) release(done chan struct{}) {
	close(done)

	e.runMu.Lock()
	defer e.runMu.Unlock()
	if e.done != done {
		return
	}
	e.cancel()
	e.cancel = nil
	e.done = nil
	e.logger.Info("Simulation stopped by context", "ticks", e.ticks.Load())
}

// SimulateSwap records one battery swap on an asset.
func (e *Engine) SimulateSwap(ctx context.Context, assetID string) (fleetv1alpha1.Asset, error) {
	return e.mutateAsset(ctx, CommandSwap, assetID, e.store.ApplySwap)
}

// SimulateCharge records one charge on an asset.
func (e *Engine) SimulateCharge(ctx context.Context, assetID string) (fleetv1alpha1.Asset, error) {
	return e.mutateAsset(ctx, CommandCharge, assetID, e.store.ApplyCharge)
}

func (e *Engine) mutateAsset(
	_ context.Context,
	command, assetID string,
	apply func(string) (fleetv1alpha1.Asset, error),
) (fleetv1alpha1.Asset, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	asset, err := apply(assetID)
	if err != nil {
		e.emitter.EmitCommandError(command, err)
		e.logger.V(logging.DEBUG).Info("Command rejected", "command", command, "asset", assetID, "error", err.Error())
		return fleetv1alpha1.Asset{}, err
	}
	e.emitter.EmitAsset(asset)
	e.logger.V(logging.DEBUG).Info("Command applied",
		"command", command, "asset", assetID, "soh", asset.Soh, "swaps", asset.Swaps)
	return asset, nil
}

// MintToken mints a token for investorID. The ledger is unchanged on error.
func (e *Engine) MintToken(
	_ context.Context,
	investorID, assetID string,
	fraction float64,
	amount decimal.Decimal,
) (fleetv1alpha1.Token, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	token, err := e.ledger.Mint(investorID, assetID, fraction, amount)
	if err != nil {
		e.emitter.EmitCommandError(CommandMint, err)
		e.logger.V(logging.DEBUG).Info("Command rejected", "command", CommandMint, "asset", assetID, "error", err.Error())
		return fleetv1alpha1.Token{}, err
	}
	e.emitter.EmitMint()
	e.logger.Info("Token minted",
		"token", token.ID,
		"investor", investorID,
		"asset", assetID,
		"fraction", fraction,
		"investAmount", amount.String(),
		"roiProjection", token.RoiProjection.String())
	return token, nil
}
