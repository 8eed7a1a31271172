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

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

func TestParseSimulationProfiles(t *testing.T) {
	tests := []struct {
		name      string
		data      map[string]string
		assetType fleetv1alpha1.AssetType
		wantDrift float64
		wantLimit int
		wantOn    bool
	}{
		{
			name:      "Test case 1: no data yields built-in profile",
			data:      nil,
			assetType: fleetv1alpha1.AssetTypeEV,
			wantDrift: 0.05, wantLimit: 2, wantOn: true,
		},
		{
			name: "Test case 2: default entry applies to every type",
			data: map[string]string{
				"default": "sohDriftBound: 0.1\n",
			},
			assetType: fleetv1alpha1.AssetTypeCabinet,
			wantDrift: 0.1, wantLimit: 2, wantOn: true,
		},
		{
			name: "Test case 3: override wins over default",
			data: map[string]string{
				"default":  "sohDriftBound: 0.1\n",
				"cabinets": "assetType: swap station\nenableSimulation: false\ndailySwapIncrementLimit: 5\n",
			},
			assetType: fleetv1alpha1.AssetTypeCabinet,
			wantDrift: 0.1, wantLimit: 5, wantOn: false,
		},
		{
			name: "Test case 4: override for other type does not leak",
			data: map[string]string{
				"cabinets": "assetType: Cabinet\nenableSimulation: false\n",
			},
			assetType: fleetv1alpha1.AssetTypeBattery,
			wantDrift: 0.05, wantLimit: 2, wantOn: true,
		},
		{
			name: "Test case 5: invalid entries are skipped",
			data: map[string]string{
				"default": "sohDriftBound: -1\n",
				"broken":  "assetType: [",
				"scooter": "assetType: Scooter\nsohDriftBound: 3\n",
			},
			assetType: fleetv1alpha1.AssetTypeEV,
			wantDrift: 0.05, wantLimit: 2, wantOn: true,
		},
		{
			name: "Test case 6: first key wins on duplicate type",
			data: map[string]string{
				"a-batteries": "assetType: Battery\nsohDriftBound: 0.2\n",
				"b-batteries": "assetType: bat\nsohDriftBound: 0.3\n",
			},
			assetType: fleetv1alpha1.AssetTypeBattery,
			wantDrift: 0.2, wantLimit: 2, wantOn: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := ParseSimulationProfiles(tt.data).ForType(tt.assetType)
			assert.Equal(t, tt.wantDrift, profile.SohDriftBound)
			assert.Equal(t, tt.wantLimit, profile.DailySwapIncrementLimit)
			assert.Equal(t, tt.wantOn, profile.Enabled())
			assert.Equal(t, string(tt.assetType), profile.AssetType)
		})
	}
}

func TestOverrideWithoutAssetTypeIsSkipped(t *testing.T) {
	profiles := ParseSimulationProfiles(map[string]string{
		"orphan": "sohDriftBound: 0.3\n",
	})
	assert.Empty(t, profiles)
}

func TestForTypeDoesNotAliasProfiles(t *testing.T) {
	profiles := ParseSimulationProfiles(map[string]string{
		"default": "enableSimulation: true\n",
	})
	p := profiles.ForType(fleetv1alpha1.AssetTypeEV)
	*p.EnableSimulation = false

	assert.True(t, profiles.ForType(fleetv1alpha1.AssetTypeEV).Enabled())
}

func TestLoadSimulationProfilesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	content := `default: |
  sohDriftBound: 0.02
evs: |
  assetType: EV
  dailySwapIncrementLimit: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	profiles, err := LoadSimulationProfilesFile(path)
	require.NoError(t, err)

	ev := profiles.ForType(fleetv1alpha1.AssetTypeEV)
	assert.Equal(t, 0.02, ev.SohDriftBound)
	assert.Equal(t, 4, ev.DailySwapIncrementLimit)

	_, err = LoadSimulationProfilesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
