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

package metricscache

import (
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"
)

const (
	// DefaultRetention is how long points are kept when no retention is set.
	DefaultRetention = time.Hour
	// DefaultMaxPoints bounds every series when no limit is set.
	DefaultMaxPoints = 720
)

// History is a concurrency-safe, bounded per-asset soh history.
type History struct {
	mu         sync.RWMutex
	clock      clock.PassiveClock
	retention  time.Duration
	maxPoints  int
	series     map[string]*TimeSeries
	lastRecord time.Time
}

// NewHistory creates a history bounded by retention and maxPoints.
// Non-positive values select the defaults.
func NewHistory(retention time.Duration, maxPoints int, clk clock.PassiveClock) *History {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if maxPoints <= 0 {
		maxPoints = DefaultMaxPoints
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &History{
		clock:     clk,
		retention: retention,
		maxPoints: maxPoints,
		series:    make(map[string]*TimeSeries),
	}
}

// Record implements Writer.
func (h *History) Record(at time.Time, samples []Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, s := range samples {
		ts, ok := h.series[s.AssetID]
		if !ok {
			ts = NewTimeSeries(s.AssetID)
			h.series[s.AssetID] = ts
		}
		ts.AddPoint(at, s.Soh)
		ts.Trim(h.maxPoints)
	}
	if at.After(h.lastRecord) {
		h.lastRecord = at
	}
}

// Prune implements Writer.
func (h *History) Prune() {
	cutoff := h.clock.Now().Add(-h.retention)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ts := range h.series {
		ts.Prune(cutoff)
		if len(ts.Points) == 0 {
			delete(h.series, id)
		}
	}
}

// Series implements Reader.
func (h *History) Series(assetID string) *TimeSeries {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ts, ok := h.series[assetID]
	if !ok {
		return nil
	}
	return ts.Clone()
}

// AssetIDs implements Reader.
func (h *History) AssetIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.series))
	for id := range h.series {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsStale implements Reader.
func (h *History) IsStale(ttl time.Duration) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastRecord.IsZero() || h.clock.Since(h.lastRecord) > ttl
}

// LastRecordTime implements Reader.
func (h *History) LastRecordTime() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastRecord
}

var _ ReadWriter = (*History)(nil)
