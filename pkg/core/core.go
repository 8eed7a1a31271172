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

package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"k8s.io/utils/clock"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/analysis"
	"github.com/voltfleet/fleet-core/internal/assetstore"
	simconfig "github.com/voltfleet/fleet-core/internal/config"
	"github.com/voltfleet/fleet-core/internal/controller"
	"github.com/voltfleet/fleet-core/internal/engines/retirement"
	"github.com/voltfleet/fleet-core/internal/interfaces"
	"github.com/voltfleet/fleet-core/internal/ledger"
	"github.com/voltfleet/fleet-core/internal/logging"
	"github.com/voltfleet/fleet-core/internal/market"
	"github.com/voltfleet/fleet-core/internal/market/sqlite"
	"github.com/voltfleet/fleet-core/internal/metrics"
	"github.com/voltfleet/fleet-core/internal/metricscache"
	"github.com/voltfleet/fleet-core/internal/seed"
	"github.com/voltfleet/fleet-core/internal/simulator"
	"github.com/voltfleet/fleet-core/pkg/config"
)

// Error kinds returned by commands. Test with errors.Is.
var (
	ErrNotFound        = interfaces.ErrNotFound
	ErrInvalidArgument = interfaces.ErrInvalidArgument
	ErrAlreadyExists   = interfaces.ErrAlreadyExists
)

type (
	// TickReport is the outcome of one tick.
	TickReport = controller.TickReport
	// Summary is a point-in-time view of fleet health and investment.
	Summary = analysis.Summary
	// SeedData is the initial fleet: assets, tokens, listings and payouts.
	SeedData = seed.Data
	// TimeSeries is the recorded soh history of one asset.
	TimeSeries = metricscache.TimeSeries
	// Source supplies the random draws of the telemetry simulator.
	Source = simulator.Source
)

// staleTicks is the number of missed ticks after which history is stale.
const staleTicks = 3

// ParseSeed parses seed YAML into validated seed data.
func ParseSeed(raw []byte) (*SeedData, error) {
	return seed.Parse(raw)
}

type options struct {
	seed       *SeedData
	source     Source
	clock      clock.Clock
	registerer prometheus.Registerer
	logger     *logr.Logger
}

// Option customises New.
type Option func(*options)

// WithSeedData uses data instead of the configured seed file.
func WithSeedData(data *SeedData) Option {
	return func(o *options) { o.seed = data }
}

// WithSource replaces the random telemetry source.
func WithSource(src Source) Option {
	return func(o *options) { o.source = src }
}

// WithClock replaces the real clock for ticks and timestamps.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithRegisterer registers fleet metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogger overrides the process-wide logger.
func WithLogger(l logr.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// Core is the fleet lifecycle engine and its read models.
type Core struct {
	cfg config.Config

	store    *assetstore.Store
	ledger   *ledger.Ledger
	payouts  *ledger.PayoutBook
	registry market.Registry
	history  *metricscache.History
	analyzer *analysis.Analyzer
	engine   *controller.Engine
	logger   logr.Logger
}

// New builds a Core from cfg and seeds it. The simulation is not started.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Core, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = clock.RealClock{}
	}
	logger := ctrllog.Log
	if o.logger != nil {
		logger = *o.logger
	}

	data := o.seed
	if data == nil {
		var err error
		if data, err = seed.Load(cfg.SeedFile); err != nil {
			return nil, err
		}
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("seed data: %w", err)
	}

	store, err := assetstore.NewWithAssets(data.Assets)
	if err != nil {
		return nil, fmt.Errorf("seed assets: %w", err)
	}
	led := ledger.New(store, ledger.WithClock(o.clock))
	if err := led.Seed(data.Tokens); err != nil {
		return nil, fmt.Errorf("seed tokens: %w", err)
	}

	registry, err := openRegistry(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Core{
		cfg:      cfg,
		store:    store,
		ledger:   led,
		payouts:  ledger.NewPayoutBook(data.Payouts),
		registry: registry,
		logger:   logger.WithName("core"),
	}
	if err := c.build(ctx, data, o); err != nil {
		_ = registry.Close()
		return nil, err
	}
	c.logger.Info("Fleet loaded",
		"assets", store.Len(),
		"tokens", led.Len(),
		"listings", registry.Len(),
		"payouts", len(data.Payouts),
		"marketBackend", cfg.MarketBackend)
	return c, nil
}

func (c *Core) build(ctx context.Context, data *SeedData, o options) error {
	if len(data.Listings) > 0 {
		if _, err := c.registry.Add(ctx, data.Listings); err != nil {
			return fmt.Errorf("seed listings: %w", err)
		}
	}

	var profiles simconfig.SimulationProfiles
	if c.cfg.ProfilesFile != "" {
		var err error
		if profiles, err = simconfig.LoadSimulationProfilesFile(c.cfg.ProfilesFile); err != nil {
			return err
		}
	}

	source := o.source
	if source == nil {
		seedValue := c.cfg.RandomSeed
		if seedValue == 0 {
			var err error
			if seedValue, err = simulator.NewSeed(); err != nil {
				return err
			}
		}
		source = simulator.NewRandSource(seedValue)
		c.logger.V(logging.DEBUG).Info("Telemetry source seeded", "seed", seedValue)
	}

	c.history = metricscache.NewHistory(c.cfg.HistoryRetention, c.cfg.HistoryMaxPoints, o.clock)
	sim, err := simulator.New(c.store, source,
		simulator.WithProfiles(profiles),
		simulator.WithHistory(c.history),
		simulator.WithClock(o.clock))
	if err != nil {
		return err
	}

	gate, err := retirement.NewThresholdGate(retirement.DefaultThresholdGateConfig())
	if err != nil {
		return err
	}
	analyzerConfig := analysis.DefaultConfig()
	analyzerConfig.SohThreshold = gate.Threshold()
	analyzerConfig.StaleAfter = staleTicks * c.cfg.TickInterval
	if c.analyzer, err = analysis.NewAnalyzer(analyzerConfig, c.history, o.clock); err != nil {
		return err
	}

	emitter, err := metrics.NewEmitter(o.registerer)
	if err != nil {
		return err
	}
	c.engine, err = controller.NewEngine(controller.EngineConfig{
		Store:     c.store,
		Simulator: sim,
		Gate:      gate,
		Registry:  c.registry,
		Ledger:    c.ledger,
		Emitter:   emitter,
		Clock:     o.clock,
		Interval:  c.cfg.TickInterval,
		Logger:    &c.logger,
	})
	return err
}

func openRegistry(ctx context.Context, cfg config.Config) (market.Registry, error) {
	switch cfg.MarketBackend {
	case config.MarketBackendSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLiteDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite market: %w", err)
		}
		return store, nil
	case config.MarketBackendMemory:
		return market.NewMemoryRegistry(), nil
	default:
		return nil, fmt.Errorf("unknown market backend %q", cfg.MarketBackend)
	}
}

// Config returns the configuration the core was built with.
func (c *Core) Config() config.Config {
	return c.cfg
}

// Start begins the periodic tick. It is a no-op when already running.
func (c *Core) Start(ctx context.Context) {
	c.engine.Start(ctx)
}

// Stop halts the periodic tick, letting an in-flight tick finish.
// It is a no-op when already stopped.
func (c *Core) Stop() {
	c.engine.Stop()
}

// Running reports whether the periodic tick is active.
func (c *Core) Running() bool {
	return c.engine.Running()
}

// Close stops the simulation and releases the market registry.
func (c *Core) Close() error {
	c.engine.Stop()
	return c.registry.Close()
}

// Tick runs one tick immediately.
func (c *Core) Tick(ctx context.Context) (TickReport, error) {
	return c.engine.Tick(ctx)
}

// TicksCompleted returns the number of ticks run so far.
func (c *Core) TicksCompleted() uint64 {
	return c.engine.TicksCompleted()
}

// Assets returns a snapshot of every asset in seed order.
func (c *Core) Assets() []fleetv1alpha1.Asset {
	return c.store.List()
}

// Asset returns one asset or ErrNotFound.
func (c *Core) Asset(id string) (fleetv1alpha1.Asset, error) {
	return c.store.Get(id)
}

// Tokens returns a snapshot of every token in mint order.
func (c *Core) Tokens() []fleetv1alpha1.Token {
	return c.ledger.List()
}

// Token returns one token or ErrNotFound.
func (c *Core) Token(id string) (fleetv1alpha1.Token, error) {
	return c.ledger.Get(id)
}

// TokensByAsset returns the tokens minted against assetID.
func (c *Core) TokensByAsset(assetID string) []fleetv1alpha1.Token {
	return c.ledger.ByAsset(assetID)
}

// TokensByInvestor returns the tokens held by investorID.
func (c *Core) TokensByInvestor(investorID string) []fleetv1alpha1.Token {
	return c.ledger.ByInvestor(investorID)
}

// Listings returns a snapshot of every secondary market listing in listing order.
func (c *Core) Listings(ctx context.Context) ([]fleetv1alpha1.SLXListing, error) {
	return c.registry.List(ctx)
}

// Payouts returns every payout.
func (c *Core) Payouts() []fleetv1alpha1.Payout {
	return c.payouts.List()
}

// PayoutsForToken returns the payouts of one token.
func (c *Core) PayoutsForToken(tokenID string) []fleetv1alpha1.Payout {
	return c.payouts.ForToken(tokenID)
}

// SimulateSwap records one battery swap on an asset.
func (c *Core) SimulateSwap(ctx context.Context, assetID string) (fleetv1alpha1.Asset, error) {
	return c.engine.SimulateSwap(ctx, assetID)
}

// SimulateCharge records one charge on an asset.
func (c *Core) SimulateCharge(ctx context.Context, assetID string) (fleetv1alpha1.Asset, error) {
	return c.engine.SimulateCharge(ctx, assetID)
}

// MintToken mints a token for the configured default investor.
func (c *Core) MintToken(
	ctx context.Context,
	assetID string,
	fraction float64,
	amount decimal.Decimal,
) (fleetv1alpha1.Token, error) {
	return c.engine.MintToken(ctx, c.cfg.DefaultInvestorID, assetID, fraction, amount)
}

// MintTokenFor mints a token for investorID.
func (c *Core) MintTokenFor(
	ctx context.Context,
	investorID, assetID string,
	fraction float64,
	amount decimal.Decimal,
) (fleetv1alpha1.Token, error) {
	return c.engine.MintToken(ctx, investorID, assetID, fraction, amount)
}

// History returns a copy of an asset's recorded soh series, or nil.
func (c *Core) History(assetID string) *TimeSeries {
	return c.history.Series(assetID)
}

// Summary computes fleet health and investment totals.
func (c *Core) Summary(ctx context.Context) (Summary, error) {
	listings, err := c.registry.List(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("list listings: %w", err)
	}
	return c.analyzer.Summarize(c.store.List(), listings, c.ledger.List()), nil
}

// IsNotFound reports whether err is a NotFound failure.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidArgument reports whether err is an InvalidArgument failure.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}
