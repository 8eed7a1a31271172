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

// Package core is the in-process boundary of the fleet lifecycle engine.
//
// A Core owns the asset store, the telemetry simulator, the retirement gate,
// the tokenization ledger and the secondary market registry, and serialises
// every tick and command through a single engine.
//
// Example usage:
//
//	fleet, err := core.New(ctx, config.Defaults())
//	if err != nil {
//	    return err
//	}
//	defer fleet.Close()
//
//	fleet.Start(ctx)
//	token, err := fleet.MintToken(ctx, "EV-001", 0.3, decimal.NewFromInt(100000))
//	if errors.Is(err, core.ErrNotFound) {
//	    // unknown asset
//	}
//
// Reads return snapshots; mutating a returned slice never affects the fleet.
package core
