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

// Package metricscache keeps a bounded state-of-health history per asset.
// The simulator writes one point per asset per tick; the analysis package
// reads the series to estimate degradation trends.
package metricscache

import (
	"time"
)

// DataPoint represents a single time-series data point.
type DataPoint struct {
	// Timestamp is when this data point was recorded.
	Timestamp time.Time

	// Value is the state of health at this timestamp.
	Value float64
}

// TimeSeries is the recorded health history of one asset.
// Note: This type is not thread-safe. Concurrency control is handled by
// History.
type TimeSeries struct {
	// AssetID identifies the asset this series belongs to.
	AssetID string

	// Points are the data points in chronological order.
	Points []DataPoint
}

// NewTimeSeries creates an empty series for assetID.
func NewTimeSeries(assetID string) *TimeSeries {
	return &TimeSeries{
		AssetID: assetID,
		Points:  make([]DataPoint, 0),
	}
}

// AddPoint appends a data point. Points recorded out of order are dropped so
// that the series stays chronological.
func (ts *TimeSeries) AddPoint(timestamp time.Time, value float64) bool {
	if latest := ts.Latest(); latest != nil && timestamp.Before(latest.Timestamp) {
		return false
	}
	ts.Points = append(ts.Points, DataPoint{
		Timestamp: timestamp,
		Value:     value,
	})
	return true
}

// Latest returns the most recent data point, or nil if empty.
func (ts *TimeSeries) Latest() *DataPoint {
	if len(ts.Points) == 0 {
		return nil
	}
	return &ts.Points[len(ts.Points)-1]
}

// InWindow returns data points where now - window <= timestamp <= now.
func (ts *TimeSeries) InWindow(now time.Time, window time.Duration) []DataPoint {
	cutoff := now.Add(-window)

	var result []DataPoint
	for _, p := range ts.Points {
		if !p.Timestamp.Before(cutoff) && !p.Timestamp.After(now) {
			result = append(result, p)
		}
	}
	return result
}

// Prune removes data points recorded before cutoff.
func (ts *TimeSeries) Prune(cutoff time.Time) {
	var kept []DataPoint
	for _, p := range ts.Points {
		if !p.Timestamp.Before(cutoff) {
			kept = append(kept, p)
		}
	}
	ts.Points = kept
}

// Trim keeps only the most recent maxPoints points (0 = unlimited).
func (ts *TimeSeries) Trim(maxPoints int) {
	if maxPoints > 0 && len(ts.Points) > maxPoints {
		ts.Points = append([]DataPoint(nil), ts.Points[len(ts.Points)-maxPoints:]...)
	}
}

// Clone returns a deep copy of the series.
func (ts *TimeSeries) Clone() *TimeSeries {
	out := &TimeSeries{
		AssetID: ts.AssetID,
		Points:  make([]DataPoint, len(ts.Points)),
	}
	copy(out.Points, ts.Points)
	return out
}

// Sample is one asset's state of health observed during a tick.
type Sample struct {
	AssetID string
	Soh     float64
}
