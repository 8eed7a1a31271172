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

// Package controller drives the fleet core's single logical timeline.
//
// The Engine owns the periodic tick and serialises it with the external
// commands (swap, charge, mint) on one mutex, so no command ever observes a
// half-applied tick.
//
// # Tick Flow
//
//  1. Apply simulated telemetry to every asset (internal/simulator)
//  2. Evaluate the retirement gate against the updated snapshot
//     (internal/engines/retirement)
//  3. Commit new listings to the secondary-market registry (internal/market)
//  4. Emit tick, listing and per-asset soh metrics (internal/metrics)
//
// The next tick is armed only after the previous one returns, so ticks never
// overlap.
//
// # Lifecycle
//
// Start and Stop are idempotent. Stop waits for an in-flight tick, including
// its registry commit, to finish.
//
// # Error Handling
//
// Per-asset simulator failures are logged and counted but never abort a
// tick. A registry commit failure is logged; the qualifying assets are
// re-evaluated on the next tick because listing membership is the only
// record of retirement.
//
// See also:
//   - pkg/core: Public facade over the engine
//   - internal/metrics: Metric emission
package controller
