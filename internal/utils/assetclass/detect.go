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

package assetclass

import (
	"fmt"
	"sort"
	"strings"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

// normalize folds a label for comparison.
func normalize(value string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '\t':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(value)))
}

// ParseType resolves a type label. Unknown labels fail with
// ErrInvalidArgument.
func ParseType(value string, config LabelConfig) (fleetv1alpha1.AssetType, error) {
	key := normalize(value)
	if key != "" {
		for _, t := range fleetv1alpha1.AssetTypes {
			if matchValue(key, config.TypeValues[t]) {
				return t, nil
			}
		}
	}
	return "", fmt.Errorf("unknown asset type %q: %w", value, interfaces.ErrInvalidArgument)
}

// ParseStatus resolves a status label. Unknown labels fail with
// ErrInvalidArgument.
func ParseStatus(value string, config LabelConfig) (fleetv1alpha1.AssetStatus, error) {
	key := normalize(value)
	if key != "" {
		for _, s := range fleetv1alpha1.AssetStatuses {
			if matchValue(key, config.StatusValues[s]) {
				return s, nil
			}
		}
	}
	return "", fmt.Errorf("unknown asset status %q: %w", value, interfaces.ErrInvalidArgument)
}

// InferType derives a type from the id prefix (e.g. "BAT-007"). The longest
// matching prefix wins.
func InferType(assetID string, config LabelConfig) (fleetv1alpha1.AssetType, bool) {
	id := strings.ToUpper(strings.TrimSpace(assetID))
	prefixes := make([]string, 0, len(config.IDPrefixes))
	for p := range config.IDPrefixes {
		prefixes = append(prefixes, p)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	for _, p := range prefixes {
		if strings.HasPrefix(id, strings.ToUpper(p)) {
			return config.IDPrefixes[p], true
		}
	}
	return "", false
}

// ResolveType parses value, falling back to the id prefix when value is
// empty.
func ResolveType(value, assetID string, config LabelConfig) (fleetv1alpha1.AssetType, error) {
	if strings.TrimSpace(value) != "" {
		return ParseType(value, config)
	}
	if t, ok := InferType(assetID, config); ok {
		return t, nil
	}
	return "", fmt.Errorf("asset %q: no type label and no known id prefix: %w", assetID, interfaces.ErrInvalidArgument)
}

func matchValue(key string, values []string) bool {
	for _, v := range values {
		if key == normalize(v) {
			return true
		}
	}
	return false
}
