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

package market

import (
	"context"
	"sync"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/engines/common"
)

// MemoryRegistry keeps listings in process memory.
type MemoryRegistry struct {
	mu       sync.RWMutex
	index    *common.ListingIndex
	listings []fleetv1alpha1.SLXListing
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{index: common.NewListingIndex()}
}

// Add implements Registry.
func (r *MemoryRegistry) Add(ctx context.Context, listings []fleetv1alpha1.SLXListing) ([]fleetv1alpha1.SLXListing, error) {
	if err := ValidateListings(listings); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var added []fleetv1alpha1.SLXListing
	for _, l := range listings {
		if !r.index.Insert(l.AssetID) {
			continue
		}
		r.listings = append(r.listings, l)
		added = append(added, l)
	}
	return added, nil
}

// List implements Registry.
func (r *MemoryRegistry) List(context.Context) ([]fleetv1alpha1.SLXListing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]fleetv1alpha1.SLXListing, len(r.listings))
	copy(out, r.listings)
	return out, nil
}

// Contains implements interfaces.ListingLookup.
func (r *MemoryRegistry) Contains(assetID string) bool {
	return r.index.Contains(assetID)
}

// Len implements Registry.
func (r *MemoryRegistry) Len() int {
	return r.index.Len()
}

// Close implements Registry.
func (r *MemoryRegistry) Close() error {
	return nil
}

var _ Registry = (*MemoryRegistry)(nil)
