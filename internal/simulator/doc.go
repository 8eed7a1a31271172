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

// Package simulator produces synthetic telemetry for the fleet. On every tick
// it nudges each asset's state of health by a small random drift and, for
// assets in use, accrues daily swaps.
//
// # Sources
//
// Randomness is isolated behind the Source interface:
//   - RandSource: seeded PCG generator used in production
//   - ScriptedSource: queued per-asset values used by tests and demos
//
// # Tick semantics
//
// For every asset with soh > 0:
//
//  1. delta is drawn from [-bound, bound] (bound from the asset type's profile)
//  2. soh = round2(clamp(soh + delta, 0, 100))
//  3. if status is In Use, dailySwaps += a draw from {0, ..., limit-1}
//
// Assets at soh == 0 are never touched again by the simulator. Each asset is
// updated in its own store critical section, so a failing asset leaves the
// others unaffected.
package simulator
