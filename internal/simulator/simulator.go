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

package simulator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"k8s.io/utils/clock"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/assetstore"
	"github.com/voltfleet/fleet-core/internal/config"
	"github.com/voltfleet/fleet-core/internal/logging"
	"github.com/voltfleet/fleet-core/internal/metricscache"
)

// errSkipped aborts an asset update without counting it as a failure.
var errSkipped = errors.New("skipped")

// AssetFailure records an asset whose update was abandoned during a tick.
type AssetFailure struct {
	AssetID string
	Err     error
}

// TickResult summarises one tick.
type TickResult struct {
	// At is the tick timestamp.
	At time.Time
	// Updated counts assets whose telemetry was recomputed.
	Updated int
	// Skipped counts assets at the terminal soh floor or with simulation disabled.
	Skipped int
	// Failures lists assets whose update failed; they keep their previous state.
	Failures []AssetFailure
	// Assets is the full asset snapshot after the update.
	Assets []fleetv1alpha1.Asset
}

// Simulator applies one round of simulated telemetry to every asset.
type Simulator struct {
	store    *assetstore.Store
	source   Source
	profiles config.SimulationProfiles
	history  metricscache.Writer
	clock    clock.PassiveClock
}

// Option configures a Simulator.
type Option func(*Simulator)

// WithProfiles sets per-asset-type simulation profiles.
func WithProfiles(p config.SimulationProfiles) Option {
	return func(s *Simulator) { s.profiles = p }
}

// WithHistory records every asset's soh after each tick.
func WithHistory(w metricscache.Writer) Option {
	return func(s *Simulator) { s.history = w }
}

// WithClock overrides the clock used to timestamp ticks.
func WithClock(c clock.PassiveClock) Option {
	return func(s *Simulator) { s.clock = c }
}

// New creates a simulator over store drawing from source.
func New(store *assetstore.Store, source Source, opts ...Option) (*Simulator, error) {
	if store == nil {
		return nil, fmt.Errorf("asset store cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("telemetry source cannot be nil")
	}
	s := &Simulator{
		store:  store,
		source: source,
		clock:  clock.RealClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Tick updates every asset once. A failing asset is logged and left
// untouched; the remaining assets are still updated.
func (s *Simulator) Tick(ctx context.Context) TickResult {
	logger := ctrllog.FromContext(ctx)
	result := TickResult{At: s.clock.Now()}

	for _, id := range s.store.IDs() {
		_, err := s.store.Update(id, s.step)
		switch {
		case err == nil:
			result.Updated++
		case errors.Is(err, errSkipped):
			result.Skipped++
		default:
			logger.Error(err, "Asset update failed, keeping previous state", "asset", id)
			result.Failures = append(result.Failures, AssetFailure{AssetID: id, Err: err})
		}
	}

	result.Assets = s.store.List()
	if s.history != nil {
		samples := make([]metricscache.Sample, 0, len(result.Assets))
		for _, a := range result.Assets {
			samples = append(samples, metricscache.Sample{AssetID: a.ID, Soh: a.Soh})
		}
		s.history.Record(result.At, samples)
		s.history.Prune()
	}

	logger.V(logging.DEBUG).Info("Telemetry tick applied",
		"source", s.source.Name(),
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", len(result.Failures))
	return result
}

// step recomputes one asset's telemetry in place.
func (s *Simulator) step(a *fleetv1alpha1.Asset) error {
	if a.Soh <= fleetv1alpha1.MinSoh {
		return errSkipped
	}
	profile := s.profiles.ForType(a.Type)
	if !profile.Enabled() {
		return errSkipped
	}

	delta := s.source.HealthDelta(*a, profile.SohDriftBound)
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("source %s returned non-finite soh delta %v", s.source.Name(), delta)
	}
	a.Soh = Round2(assetstore.ClampSoh(a.Soh + delta))

	if a.Status == fleetv1alpha1.AssetStatusInUse {
		inc := s.source.SwapIncrement(*a, profile.DailySwapIncrementLimit)
		if inc < 0 {
			return fmt.Errorf("source %s returned negative swap increment %d", s.source.Name(), inc)
		}
		a.DailySwaps += inc
	}
	return nil
}
