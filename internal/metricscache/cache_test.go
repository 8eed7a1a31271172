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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

var start = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

func TestHistoryRecordAndRead(t *testing.T) {
	clk := clocktesting.NewFakeClock(start)
	h := NewHistory(time.Hour, 10, clk)

	h.Record(start, []Sample{{AssetID: "A1", Soh: 52}, {AssetID: "B2", Soh: 80}})
	h.Record(start.Add(5*time.Second), []Sample{{AssetID: "A1", Soh: 47}})

	ts := h.Series("A1")
	require.NotNil(t, ts)
	require.Len(t, ts.Points, 2)
	assert.Equal(t, 47.0, ts.Points[1].Value)

	b2 := h.Series("B2")
	require.NotNil(t, b2)
	assert.Equal(t, 80.0, b2.Latest().Value)

	assert.Nil(t, h.Series("GHOST"))
	assert.Equal(t, []string{"A1", "B2"}, h.AssetIDs())
	assert.Equal(t, start.Add(5*time.Second), h.LastRecordTime())
}

func TestHistorySeriesIsCopy(t *testing.T) {
	h := NewHistory(0, 0, clocktesting.NewFakeClock(start))
	h.Record(start, []Sample{{AssetID: "A1", Soh: 52}})

	ts := h.Series("A1")
	ts.Points[0].Value = 0

	assert.Equal(t, 52.0, h.Series("A1").Latest().Value)
}

func TestHistoryMaxPoints(t *testing.T) {
	h := NewHistory(time.Hour, 3, clocktesting.NewFakeClock(start))
	for i := 0; i < 5; i++ {
		h.Record(start.Add(time.Duration(i)*time.Second), []Sample{{AssetID: "A1", Soh: float64(90 - i)}})
	}

	ts := h.Series("A1")
	require.Len(t, ts.Points, 3)
	assert.Equal(t, 88.0, ts.Points[0].Value)
	assert.Equal(t, 86.0, ts.Points[2].Value)
}

func TestHistoryPrune(t *testing.T) {
	clk := clocktesting.NewFakeClock(start)
	h := NewHistory(10*time.Minute, 0, clk)

	h.Record(start, []Sample{{AssetID: "A1", Soh: 60}, {AssetID: "B2", Soh: 70}})
	clk.Step(8 * time.Minute)
	h.Record(clk.Now(), []Sample{{AssetID: "A1", Soh: 59}})
	clk.Step(5 * time.Minute)
	h.Prune()

	ts := h.Series("A1")
	require.NotNil(t, ts)
	assert.Len(t, ts.Points, 1)
	assert.Nil(t, h.Series("B2"), "series with no remaining points is dropped")
}

func TestHistoryIsStale(t *testing.T) {
	clk := clocktesting.NewFakeClock(start)
	h := NewHistory(time.Hour, 0, clk)
	assert.True(t, h.IsStale(time.Minute))

	h.Record(clk.Now(), []Sample{{AssetID: "A1", Soh: 60}})
	assert.False(t, h.IsStale(time.Minute))

	clk.Step(2 * time.Minute)
	assert.True(t, h.IsStale(time.Minute))
}

func TestTimeSeriesWindowAndOrdering(t *testing.T) {
	ts := NewTimeSeries("A1")
	assert.True(t, ts.AddPoint(start, 50))
	assert.True(t, ts.AddPoint(start.Add(time.Minute), 49))
	assert.False(t, ts.AddPoint(start.Add(30*time.Second), 10), "out of order point is dropped")
	assert.True(t, ts.AddPoint(start.Add(2*time.Minute), 48))

	got := ts.InWindow(start.Add(2*time.Minute), 90*time.Second)
	require.Len(t, got, 2)
	assert.Equal(t, 49.0, got[0].Value)
}
