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

// Package metrics emits the fleet core's operational metrics to Prometheus.
//
// # Emitted metrics
//
//	fleet_ticks_total                          simulator ticks completed
//	fleet_tick_duration_seconds                wall time of one tick incl. retirement
//	fleet_asset_update_failures_total          per-asset tick failures
//	fleet_listings_created_total               secondary-market listings created
//	fleet_tokens_minted_total                  tokens minted
//	fleet_command_errors_total{command,reason} rejected commands
//	fleet_asset_soh{asset_id,asset_type}       latest state of health
//
// The Emitter registers on any prometheus.Registerer; cmd/fleetsim serves
// the registry on /metrics when a bind address is configured.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

const namespace = "fleet"

// Error reasons used as the reason label of fleet_command_errors_total.
const (
	ReasonNotFound        = "not_found"
	ReasonInvalidArgument = "invalid_argument"
	ReasonInternal        = "internal"
)

// Emitter owns the fleet collectors.
type Emitter struct {
	ticks          prometheus.Counter
	tickDuration   prometheus.Histogram
	updateFailures prometheus.Counter
	listings       prometheus.Counter
	tokens         prometheus.Counter
	commandErrors  *prometheus.CounterVec
	assetSoh       *prometheus.GaugeVec
}

// NewEmitter creates the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewEmitter(reg prometheus.Registerer) (*Emitter, error) {
	e := &Emitter{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of completed simulator ticks.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Duration of one simulator tick including the retirement commit.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		updateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_update_failures_total",
			Help:      "Number of per-asset updates abandoned during a tick.",
		}),
		listings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Number of secondary-market listings created.",
		}),
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_minted_total",
			Help:      "Number of fractional ownership tokens minted.",
		}),
		commandErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "command_errors_total",
			Help:      "Number of rejected commands by command and reason.",
		}, []string{"command", "reason"}),
		assetSoh: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "asset_soh",
			Help:      "Latest state of health of an asset in percent.",
		}, []string{"asset_id", "asset_type"}),
	}
	if reg == nil {
		return e, nil
	}
	for _, c := range e.collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Emitter) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		e.ticks, e.tickDuration, e.updateFailures, e.listings,
		e.tokens, e.commandErrors, e.assetSoh,
	}
}

// EmitTick records a completed tick.
func (e *Emitter) EmitTick(duration time.Duration, failures, listings int) {
	e.ticks.Inc()
	e.tickDuration.Observe(duration.Seconds())
	e.updateFailures.Add(float64(failures))
	e.listings.Add(float64(listings))
}

// EmitAssets publishes the soh of every asset.
func (e *Emitter) EmitAssets(assets []fleetv1alpha1.Asset) {
	for _, a := range assets {
		e.EmitAsset(a)
	}
}

// EmitAsset publishes the soh of one asset.
func (e *Emitter) EmitAsset(a fleetv1alpha1.Asset) {
	e.assetSoh.WithLabelValues(a.ID, string(a.Type)).Set(a.Soh)
}

// EmitMint counts a minted token.
func (e *Emitter) EmitMint() {
	e.tokens.Inc()
}

// EmitCommandError counts a rejected command.
func (e *Emitter) EmitCommandError(command string, err error) {
	e.commandErrors.WithLabelValues(command, Reason(err)).Inc()
}

// Reason maps an error to its reason label.
func Reason(err error) string {
	switch {
	case errors.Is(err, interfaces.ErrNotFound):
		return ReasonNotFound
	case errors.Is(err, interfaces.ErrInvalidArgument):
		return ReasonInvalidArgument
	default:
		return ReasonInternal
	}
}
