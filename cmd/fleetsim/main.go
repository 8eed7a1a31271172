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

// Command fleetsim runs the fleet lifecycle simulation as a process.
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

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	versioncollector "github.com/prometheus/client_golang/prometheus/collectors/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/version"
	"github.com/spf13/pflag"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/voltfleet/fleet-core/internal/logging"
	"github.com/voltfleet/fleet-core/pkg/config"
	"github.com/voltfleet/fleet-core/pkg/core"
)

const programName = "fleetsim"

func main() {
	fs := config.NewFlagSet(programName)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}
	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}

	logger := logging.NewLogger(cfg.LogDevelopment, cfg.LogVerbosity)
	ctrllog.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger.WithName(programName)); err != nil {
		logger.Error(err, "Fleet simulation failed")
		os.Exit(1)
	}
}

// run blocks until ctx is cancelled, then stops the simulation and lets the
// in-flight tick finish.
func run(ctx context.Context, cfg config.Config, logger logr.Logger) error {
	logger.Info("Starting", "version", version.Info(), "build", version.BuildContext())

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		versioncollector.NewCollector(programName),
	)

	fleet, err := core.New(ctx, cfg, core.WithRegisterer(reg), core.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("build fleet: %w", err)
	}
	defer func() {
		if err := fleet.Close(); err != nil {
			logger.Error(err, "Failed to close fleet")
		}
	}()

	var server *http.Server
	serveErr := make(chan error, 1)
	if cfg.MetricsEnabled() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		server = &http.Server{
			Addr:              cfg.MetricsBindAddress,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("Serving metrics", "address", cfg.MetricsBindAddress)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
		}()
	}

	fleet.Start(ctx)

	var summaries <-chan time.Time
	if cfg.SummaryInterval > 0 {
		ticker := time.NewTicker(cfg.SummaryInterval)
		defer ticker.Stop()
		summaries = ticker.C
	}

	var runErr error
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case err := <-serveErr:
			runErr = fmt.Errorf("metrics server: %w", err)
			break loop
		case <-summaries:
			logSummary(ctx, fleet, logger)
		}
	}

	fleet.Stop()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(err, "Failed to shut down metrics server")
		}
	}
	logSummary(context.WithoutCancel(ctx), fleet, logger)
	logger.Info("Stopped", "ticks", fleet.TicksCompleted())
	return runErr
}

func logSummary(ctx context.Context, fleet *core.Core, logger logr.Logger) {
	s, err := fleet.Summary(ctx)
	if err != nil {
		logger.Error(err, "Failed to summarise fleet")
		return
	}
	logger.Info("Fleet summary",
		"assets", s.AssetCount,
		"meanSoh", s.MeanSoh,
		"minSoh", s.MinSoh,
		"belowThreshold", s.BelowThreshold,
		"listed", s.Listed,
		"tokens", s.TokenCount,
		"totalInvested", s.TotalInvested.String(),
		"totalSalvageValue", s.TotalSalvageValue.String(),
		"trackedAssets", s.TrackedAssets)
	if s.HistoryStale && fleet.Running() {
		logger.Info("Telemetry history is stale", "lastRecord", s.LastRecord)
	}
	for _, trend := range s.Trends {
		if trend.TimeToThreshold == nil {
			continue
		}
		logger.V(logging.DEBUG).Info("Asset approaching retirement",
			"asset", trend.AssetID,
			"soh", trend.Soh,
			"slopePerHour", trend.SlopePerHour,
			"timeToThreshold", trend.TimeToThreshold.String())
	}
}
