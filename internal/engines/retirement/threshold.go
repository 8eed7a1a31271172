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

package retirement

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
	"github.com/voltfleet/fleet-core/internal/logging"
)

const (
	// DefaultSohThreshold is the health below which an asset is retired.
	DefaultSohThreshold = 50.0
)

// DefaultSalvageRatio is the share of the original value assigned to a
// retired asset.
var DefaultSalvageRatio = decimal.RequireFromString("0.2")

// ThresholdGateConfig holds configuration for the ThresholdGate.
type ThresholdGateConfig struct {
	// SohThreshold: an asset qualifies when soh < SohThreshold (strict).
	SohThreshold float64
	// SalvageRatio: salvageValue = originalValue * SalvageRatio.
	SalvageRatio decimal.Decimal
}

// DefaultThresholdGateConfig returns the standard retirement configuration.
func DefaultThresholdGateConfig() *ThresholdGateConfig {
	return &ThresholdGateConfig{
		SohThreshold: DefaultSohThreshold,
		SalvageRatio: DefaultSalvageRatio,
	}
}

// ThresholdGate retires assets whose health falls strictly below a fixed
// threshold and that have no listing yet.
type ThresholdGate struct {
	config *ThresholdGateConfig
}

// NewThresholdGate creates a new ThresholdGate instance.
func NewThresholdGate(config *ThresholdGateConfig) (*ThresholdGate, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if math.IsNaN(config.SohThreshold) || config.SohThreshold < fleetv1alpha1.MinSoh || config.SohThreshold > fleetv1alpha1.MaxSoh {
		return nil, fmt.Errorf("soh threshold must be between %.0f and %.0f, got %v",
			fleetv1alpha1.MinSoh, fleetv1alpha1.MaxSoh, config.SohThreshold)
	}
	if config.SalvageRatio.IsNegative() || config.SalvageRatio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("salvage ratio must be between 0 and 1, got %s", config.SalvageRatio)
	}
	return &ThresholdGate{config: config}, nil
}

// Threshold returns the configured retirement threshold.
func (g *ThresholdGate) Threshold() float64 {
	return g.config.SohThreshold
}

// Decide classifies every asset below the threshold. Assets at or above the
// threshold produce no decision.
func (g *ThresholdGate) Decide(
	assets []fleetv1alpha1.Asset,
	listed interfaces.ListingLookup,
) []interfaces.RetirementDecision {
	var decisions []interfaces.RetirementDecision
	seen := make(map[string]struct{})
	for _, a := range assets {
		if !(a.Soh < g.config.SohThreshold) {
			continue
		}
		_, dup := seen[a.ID]
		already := dup || (listed != nil && listed.Contains(a.ID))
		seen[a.ID] = struct{}{}
		decisions = append(decisions, interfaces.RetirementDecision{
			AssetID:       a.ID,
			Soh:           a.Soh,
			Qualified:     !already,
			AlreadyListed: already,
		})
	}
	return decisions
}

// Evaluate implements Gate.
func (g *ThresholdGate) Evaluate(
	ctx context.Context,
	assets []fleetv1alpha1.Asset,
	listed interfaces.ListingLookup,
	now time.Time,
) []fleetv1alpha1.SLXListing {
	logger := ctrllog.FromContext(ctx)

	byID := make(map[string]fleetv1alpha1.Asset, len(assets))
	for _, a := range assets {
		if _, ok := byID[a.ID]; !ok {
			byID[a.ID] = a
		}
	}

	var listings []fleetv1alpha1.SLXListing
	for _, d := range g.Decide(assets, listed) {
		if !d.Qualified {
			logger.V(logging.TRACE).Info("Asset below threshold already listed", "asset", d.AssetID, "soh", d.Soh)
			continue
		}
		a := byID[d.AssetID]
		listing := fleetv1alpha1.SLXListing{
			AssetID:      a.ID,
			Soh:          a.Soh,
			SalvageValue: SalvageValue(a.OriginalValue, g.config.SalvageRatio),
			ListedAt:     now,
		}
		logger.V(logging.DEBUG).Info("Asset qualifies for retirement",
			"asset", a.ID, "soh", a.Soh, "salvageValue", listing.SalvageValue.String())
		listings = append(listings, listing)
	}
	return listings
}

var _ Gate = (*ThresholdGate)(nil)
