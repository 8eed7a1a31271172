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

// Package config provides process configuration for the fleet simulator.
//
// Configuration Sources:
//
//  1. Command-line flags (highest priority)
//  2. Environment variables prefixed with FLEET_ (e.g. FLEET_TICK_INTERVAL)
//  3. Optional YAML config file given by --config
//  4. Default values (lowest priority)
//
// Example usage:
//
//	fs := config.NewFlagSet("fleetsim")
//	if err := fs.Parse(os.Args[1:]); err != nil {
//	    return err
//	}
//	cfg, err := config.Load(fs)
//	if err != nil {
//	    return err
//	}
//
// All values are validated on load: positive durations, a known market
// backend, a non-empty investor id.
package config
