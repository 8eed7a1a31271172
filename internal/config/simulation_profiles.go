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

// Package config holds per-asset-type simulation profiles. Profiles are read
// from ConfigMap-shaped YAML: a "default" entry carries fleet-wide values and
// every other entry overrides them for one asset type.
package config

import (
	"fmt"
	"math"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
	"k8s.io/utils/ptr"
	ctrllog "sigs.k8s.io/controller-runtime/pkg/log"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/logging"
	"github.com/voltfleet/fleet-core/internal/utils/assetclass"
)

const (
	// GlobalDefaultsKey is the entry holding fleet-wide profile values.
	GlobalDefaultsKey = "default"

	// DefaultSohDriftBound bounds the per-tick soh drift to [-0.05, 0.05].
	DefaultSohDriftBound = 0.05

	// DefaultDailySwapIncrementLimit is the exclusive upper bound of the
	// per-tick daily swap increment, i.e. increments are drawn from {0, 1}.
	DefaultDailySwapIncrementLimit = 2
)

// SimulationProfile tunes the telemetry simulation for one asset type.
type SimulationProfile struct {
	// AssetType is the type this override applies to (only used in override entries).
	// Aliases such as "battery pack" are accepted.
	AssetType string `yaml:"assetType,omitempty" json:"assetType,omitempty"`

	// SohDriftBound: each tick draws a soh delta uniformly from [-bound, bound].
	SohDriftBound float64 `yaml:"sohDriftBound,omitempty" json:"sohDriftBound,omitempty"`

	// DailySwapIncrementLimit: InUse assets gain a daily swap count drawn
	// from {0, ..., limit-1} per tick.
	DailySwapIncrementLimit int `yaml:"dailySwapIncrementLimit,omitempty" json:"dailySwapIncrementLimit,omitempty"`

	// EnableSimulation turns the per-tick update on or off for the type.
	// Use pointer to allow omitting this field and inheriting from global defaults.
	EnableSimulation *bool `yaml:"enableSimulation,omitempty" json:"enableSimulation,omitempty"`
}

// DefaultSimulationProfile returns the built-in profile.
func DefaultSimulationProfile() SimulationProfile {
	return SimulationProfile{
		SohDriftBound:           DefaultSohDriftBound,
		DailySwapIncrementLimit: DefaultDailySwapIncrementLimit,
		EnableSimulation:        ptr.To(true),
	}
}

// Validate checks for invalid configuration values.
func (p *SimulationProfile) Validate() error {
	if math.IsNaN(p.SohDriftBound) || p.SohDriftBound < 0 || p.SohDriftBound > fleetv1alpha1.MaxSoh {
		return fmt.Errorf("sohDriftBound must be between 0 and %.0f, got %v", fleetv1alpha1.MaxSoh, p.SohDriftBound)
	}
	if p.DailySwapIncrementLimit < 0 {
		return fmt.Errorf("dailySwapIncrementLimit must be >= 0, got %d", p.DailySwapIncrementLimit)
	}
	if p.AssetType != "" {
		if _, err := assetclass.ParseType(p.AssetType, assetclass.DefaultLabelConfig()); err != nil {
			return err
		}
	}
	return nil
}

// Enabled reports whether simulation is enabled, defaulting to true.
func (p SimulationProfile) Enabled() bool {
	return ptr.Deref(p.EnableSimulation, true)
}

// SimulationProfiles holds parsed profiles keyed by GlobalDefaultsKey or
// canonical asset type.
type SimulationProfiles map[string]SimulationProfile

// ParseSimulationProfiles parses profiles from ConfigMap-shaped data.
// The format:
//   - "default": global defaults for all asset types
//   - "<override-name>": per-type profile with an assetType field
//
// Malformed or invalid entries are logged and skipped.
func ParseSimulationProfiles(data map[string]string) SimulationProfiles {
	out := make(SimulationProfiles)
	if data == nil {
		return out
	}
	log := ctrllog.Log
	typeToKey := make(map[fleetv1alpha1.AssetType]string)

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var profile SimulationProfile
		if err := yaml.Unmarshal([]byte(data[key]), &profile); err != nil {
			log.Info("Failed to parse simulation profile entry, skipping",
				"key", key,
				"error", err)
			continue
		}

		if err := profile.Validate(); err != nil {
			log.Info("Invalid simulation profile entry, skipping",
				"key", key,
				"error", err)
			continue
		}

		if key == GlobalDefaultsKey {
			out[GlobalDefaultsKey] = profile
			continue
		}

		if profile.AssetType == "" {
			log.Info("Skipping simulation profile without assetType field",
				"key", key)
			continue
		}
		assetType, _ := assetclass.ParseType(profile.AssetType, assetclass.DefaultLabelConfig())

		if winningKey, exists := typeToKey[assetType]; exists {
			log.Info("Duplicate assetType found in simulation profiles - first key wins",
				"assetType", assetType,
				"winningKey", winningKey,
				"duplicateKey", key)
			continue
		}
		typeToKey[assetType] = key

		profile.AssetType = string(assetType)
		out[string(assetType)] = profile
	}

	log.V(logging.DEBUG).Info("Parsed simulation profiles",
		"profileCount", len(out))

	return out
}

// LoadSimulationProfilesFile reads a YAML file whose top-level keys map to
// profile documents, the same shape as a ConfigMap's data section.
func LoadSimulationProfilesFile(path string) (SimulationProfiles, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read simulation profiles: %w", err)
	}
	var data map[string]string
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse simulation profiles %s: %w", path, err)
	}
	return ParseSimulationProfiles(data), nil
}

// ForType returns the effective profile for an asset type. It merges, in
// increasing precedence, the built-in profile, the "default" entry and the
// type override. Zero-valued fields inherit.
func (data SimulationProfiles) ForType(assetType fleetv1alpha1.AssetType) SimulationProfile {
	result := DefaultSimulationProfile()
	result = merge(result, data[GlobalDefaultsKey])
	if override, ok := data[string(assetType)]; ok {
		result = merge(result, override)
	}
	result.AssetType = string(assetType)
	return result
}

func merge(base, override SimulationProfile) SimulationProfile {
	if override.SohDriftBound != 0 {
		base.SohDriftBound = override.SohDriftBound
	}
	if override.DailySwapIncrementLimit != 0 {
		base.DailySwapIncrementLimit = override.DailySwapIncrementLimit
	}
	if override.EnableSimulation != nil {
		base.EnableSimulation = ptr.To(*override.EnableSimulation)
	}
	return base
}
