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

// Package assetclass maps free-form asset type and status labels found in
// seed data onto the canonical fleet values.
package assetclass

import (
	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

// LabelConfig describes which label values map to which canonical value.
// Matching ignores case, spaces, dashes and underscores.
type LabelConfig struct {
	// TypeValues are the accepted spellings per asset type.
	TypeValues map[fleetv1alpha1.AssetType][]string
	// StatusValues are the accepted spellings per asset status.
	StatusValues map[fleetv1alpha1.AssetStatus][]string
	// IDPrefixes infer a type from an asset id when no type label is set.
	IDPrefixes map[string]fleetv1alpha1.AssetType
}

// DefaultLabelConfig returns the standard label configuration.
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{
		TypeValues: map[fleetv1alpha1.AssetType][]string{
			fleetv1alpha1.AssetTypeEV:      {"EV", "electric vehicle", "vehicle", "bike", "motorbike"},
			fleetv1alpha1.AssetTypeBattery: {"Battery", "bat", "pack", "battery pack"},
			fleetv1alpha1.AssetTypeCabinet: {"Cabinet", "cab", "swap cabinet", "station", "swap station"},
		},
		StatusValues: map[fleetv1alpha1.AssetStatus][]string{
			fleetv1alpha1.AssetStatusAvailable:   {"Available", "idle", "ready"},
			fleetv1alpha1.AssetStatusInUse:       {"In Use", "InUse", "active", "deployed"},
			fleetv1alpha1.AssetStatusCharging:    {"Charging"},
			fleetv1alpha1.AssetStatusMaintenance: {"Maintenance", "repair", "servicing"},
		},
		IDPrefixes: map[string]fleetv1alpha1.AssetType{
			"EV":  fleetv1alpha1.AssetTypeEV,
			"BAT": fleetv1alpha1.AssetTypeBattery,
			"CAB": fleetv1alpha1.AssetTypeCabinet,
		},
	}
}
