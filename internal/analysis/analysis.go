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

package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
	"k8s.io/utils/clock"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/engines/retirement"
	"github.com/voltfleet/fleet-core/internal/metricscache"
)

const (
	// flatSlopeEpsilon is the smallest soh change per hour treated as a trend.
	flatSlopeEpsilon = 1e-6
	// maxProjectionHours keeps projections within time.Duration range.
	maxProjectionHours = float64(math.MaxInt64/int64(time.Hour)) - 1
)

// Config tunes the analyzer.
type Config struct {
	// SohThreshold is the retirement threshold used for counts and projections.
	SohThreshold float64
	// TrendWindow limits the history used for slope estimation.
	TrendWindow time.Duration
	// MinTrendPoints is the minimum number of points needed to fit a trend.
	MinTrendPoints int
	// StaleAfter marks the history stale when nothing was recorded for longer.
	StaleAfter time.Duration
}

// DefaultConfig returns the standard analyzer configuration.
func DefaultConfig() Config {
	return Config{
		SohThreshold:   retirement.DefaultSohThreshold,
		TrendWindow:    time.Hour,
		MinTrendPoints: 3,
		StaleAfter:     time.Minute,
	}
}

// AssetTrend is the estimated degradation of one asset.
type AssetTrend struct {
	AssetID string
	Soh     float64
	// Points is the number of history points used for the fit.
	Points int
	// SlopePerHour is the filtered soh change per hour. Rates smaller in
	// magnitude than flatSlopeEpsilon are reported as zero.
	SlopePerHour float64
	// TimeToThreshold is set only when the asset is at or above the
	// threshold and declining.
	TimeToThreshold *time.Duration
}

// Summary is a point-in-time view of fleet health and investment.
type Summary struct {
	At time.Time

	AssetCount int
	ByType     map[fleetv1alpha1.AssetType]int
	ByStatus   map[fleetv1alpha1.AssetStatus]int

	MeanSoh   float64
	StdDevSoh float64
	MinSoh    float64

	// BelowThreshold counts assets with soh strictly below the threshold.
	BelowThreshold int
	Listed         int

	TotalOriginalValue decimal.Decimal
	TotalSalvageValue  decimal.Decimal

	TokenCount        int
	TotalInvested     decimal.Decimal
	TotalProjectedROI decimal.Decimal

	// TrackedAssets is the number of assets with recorded history.
	TrackedAssets int
	// LastRecord is when the last telemetry batch was recorded.
	LastRecord time.Time
	// HistoryStale is set when no batch was recorded within StaleAfter.
	HistoryStale bool

	// Trends holds one entry per asset with enough history, in asset order.
	Trends []AssetTrend
}

// Analyzer computes fleet summaries.
type Analyzer struct {
	config  Config
	history metricscache.Reader
	clock   clock.PassiveClock
}

// NewAnalyzer creates an analyzer. history may be nil, in which case no
// trends are computed.
func NewAnalyzer(config Config, history metricscache.Reader, clk clock.PassiveClock) (*Analyzer, error) {
	if config.SohThreshold < fleetv1alpha1.MinSoh || config.SohThreshold > fleetv1alpha1.MaxSoh {
		return nil, fmt.Errorf("soh threshold must be between %.0f and %.0f, got %v",
			fleetv1alpha1.MinSoh, fleetv1alpha1.MaxSoh, config.SohThreshold)
	}
	if config.MinTrendPoints < 2 {
		return nil, fmt.Errorf("minTrendPoints must be >= 2, got %d", config.MinTrendPoints)
	}
	if config.TrendWindow <= 0 {
		return nil, fmt.Errorf("trendWindow must be positive, got %s", config.TrendWindow)
	}
	if config.StaleAfter <= 0 {
		return nil, fmt.Errorf("staleAfter must be positive, got %s", config.StaleAfter)
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Analyzer{config: config, history: history, clock: clk}, nil
}

// Summarize builds a summary from snapshots of the three collections.
func (a *Analyzer) Summarize(
	assets []fleetv1alpha1.Asset,
	listings []fleetv1alpha1.SLXListing,
	tokens []fleetv1alpha1.Token,
) Summary {
	now := a.clock.Now()
	s := Summary{
		At:                 now,
		AssetCount:         len(assets),
		ByType:             make(map[fleetv1alpha1.AssetType]int),
		ByStatus:           make(map[fleetv1alpha1.AssetStatus]int),
		Listed:             len(listings),
		TotalOriginalValue: decimal.Zero,
		TotalSalvageValue:  decimal.Zero,
		TokenCount:         len(tokens),
		TotalInvested:      decimal.Zero,
		TotalProjectedROI:  decimal.Zero,
	}

	sohs := make([]float64, 0, len(assets))
	for _, asset := range assets {
		s.ByType[asset.Type]++
		s.ByStatus[asset.Status]++
		s.TotalOriginalValue = s.TotalOriginalValue.Add(asset.OriginalValue)
		if asset.Soh < a.config.SohThreshold {
			s.BelowThreshold++
		}
		sohs = append(sohs, asset.Soh)

		if trend, ok := a.trend(asset, now); ok {
			s.Trends = append(s.Trends, trend)
		}
	}
	s.MeanSoh, s.StdDevSoh, s.MinSoh = describe(sohs)

	if a.history != nil {
		s.TrackedAssets = len(a.history.AssetIDs())
		s.LastRecord = a.history.LastRecordTime()
		s.HistoryStale = a.history.IsStale(a.config.StaleAfter)
	}

	for _, l := range listings {
		s.TotalSalvageValue = s.TotalSalvageValue.Add(l.SalvageValue)
	}
	for _, t := range tokens {
		s.TotalInvested = s.TotalInvested.Add(t.InvestAmount)
		s.TotalProjectedROI = s.TotalProjectedROI.Add(t.RoiProjection)
	}
	return s
}

// describe returns the mean, sample standard deviation and minimum of xs.
func describe(xs []float64) (mean, stddev, minimum float64) {
	switch len(xs) {
	case 0:
		return 0, 0, 0
	case 1:
		return xs[0], 0, xs[0]
	}
	mean, stddev = stat.MeanStdDev(xs, nil)
	minimum = xs[0]
	for _, x := range xs[1:] {
		minimum = math.Min(minimum, x)
	}
	return mean, stddev, minimum
}

// trend estimates the asset's degradation rate from its recent history.
func (a *Analyzer) trend(asset fleetv1alpha1.Asset, now time.Time) (AssetTrend, bool) {
	if a.history == nil {
		return AssetTrend{}, false
	}
	ts := a.history.Series(asset.ID)
	if ts == nil {
		return AssetTrend{}, false
	}
	points := ts.InWindow(now, a.config.TrendWindow)
	if len(points) < a.config.MinTrendPoints {
		return AssetTrend{}, false
	}

	origin := points[0].Timestamp
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Timestamp.Sub(origin).Hours()
		ys[i] = p.Value
	}
	if xs[len(xs)-1] == xs[0] {
		return AssetTrend{}, false
	}

	slope, err := filteredSlope(xs, ys)
	if err != nil {
		_, slope = stat.LinearRegression(xs, ys, nil, false)
	}
	if math.IsNaN(slope) || math.IsInf(slope, 0) {
		return AssetTrend{}, false
	}
	if math.Abs(slope) < flatSlopeEpsilon {
		slope = 0
	}

	trend := AssetTrend{
		AssetID:      asset.ID,
		Soh:          asset.Soh,
		Points:       len(points),
		SlopePerHour: slope,
	}
	if slope < 0 && asset.Soh >= a.config.SohThreshold {
		hours := math.Min((asset.Soh-a.config.SohThreshold)/-slope, maxProjectionHours)
		d := time.Duration(hours * float64(time.Hour))
		trend.TimeToThreshold = &d
	}
	return trend, true
}
