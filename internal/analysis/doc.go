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

// Package analysis summarises fleet health for operators and investors.
//
// Example usage:
//
//	analyzer, err := analysis.NewAnalyzer(analysis.DefaultConfig(), history, clock.RealClock{})
//	if err != nil {
//	    return err
//	}
//	summary := analyzer.Summarize(assets, listings, tokens)
//
//	log.Info("fleet summary",
//	    "assets", summary.AssetCount,
//	    "meanSoh", summary.MeanSoh,
//	    "belowThreshold", summary.BelowThreshold,
//	    "listed", summary.Listed)
//
// Trend logic:
//
// For every asset with enough recorded history inside the trend window, the
// analyzer runs a Kalman filter over the state [soh, soh per hour] and takes
// the final rate as the slope. A series the filter rejects falls back to a
// least squares fit. A negative slope projects when the asset will cross the
// retirement threshold:
//
//	timeToThreshold = (soh - threshold) / -slope
//
// Slopes smaller than 1e-6 soh per hour count as flat. Assets already below
// the threshold, or not declining, get no projection. Projections are capped
// at the largest time.Duration.
package analysis
