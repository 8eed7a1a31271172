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
	"time"
)

// Reader provides read-only access to the health history.
// This interface is used by the analysis package.
type Reader interface {
	// Series returns a copy of the series for assetID, or nil if the asset
	// has no recorded points.
	Series(assetID string) *TimeSeries

	// AssetIDs returns the ids of all tracked assets, sorted.
	AssetIDs() []string

	// IsStale returns true if nothing was recorded within ttl.
	IsStale(ttl time.Duration) bool

	// LastRecordTime returns the timestamp of the last recorded batch.
	LastRecordTime() time.Time
}

// Writer provides write access to the health history.
// This interface is used by the simulator at the end of every tick.
type Writer interface {
	// Record stores one batch of samples taken at the given time.
	Record(at time.Time, samples []Sample)

	// Prune removes points older than the configured retention.
	Prune()
}

// ReadWriter combines both read and write access to the history.
type ReadWriter interface {
	Reader
	Writer
}
