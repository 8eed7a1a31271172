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

// Package assetstore owns the authoritative collection of fleet assets and
// enforces the telemetry invariants on every mutation.
package assetstore

import (
	"fmt"
	"math"
	"sync"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

const (
	// SwapSohCost is the health consumed by one battery swap.
	SwapSohCost = 1.0
	// ChargeSohGain is the health restored by one charge command.
	ChargeSohGain = 20.0
)

// MutateFunc edits a working copy of an asset. Returning an error discards
// the copy and leaves the stored asset untouched.
type MutateFunc func(asset *fleetv1alpha1.Asset) error

// Store is an in-memory, mutex-guarded asset store. Snapshots preserve
// insertion order. Assets are never deleted.
type Store struct {
	mu     sync.RWMutex
	order  []string
	assets map[string]*fleetv1alpha1.Asset
}

// New creates an empty store.
func New() *Store {
	return &Store{
		assets: make(map[string]*fleetv1alpha1.Asset),
	}
}

// NewWithAssets creates a store seeded with the given assets, in order.
func NewWithAssets(assets []fleetv1alpha1.Asset) (*Store, error) {
	s := New()
	for _, a := range assets {
		if err := s.Add(a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ClampSoh bounds a state-of-health value to [MinSoh, MaxSoh].
// NaN is mapped to MinSoh so that the invariant can never be bypassed.
func ClampSoh(soh float64) float64 {
	if math.IsNaN(soh) {
		return fleetv1alpha1.MinSoh
	}
	return math.Max(fleetv1alpha1.MinSoh, math.Min(fleetv1alpha1.MaxSoh, soh))
}

// Add inserts a new asset. It fails with ErrInvalidArgument for a malformed
// asset and ErrAlreadyExists for a duplicate id.
func (s *Store) Add(asset fleetv1alpha1.Asset) error {
	if err := asset.Validate(); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidArgument, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.assets[asset.ID]; ok {
		return fmt.Errorf("asset %q: %w", asset.ID, interfaces.ErrAlreadyExists)
	}
	a := asset
	s.assets[a.ID] = &a
	s.order = append(s.order, a.ID)
	return nil
}

// Get returns a copy of the asset with the given id.
func (s *Store) Get(id string) (fleetv1alpha1.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.assets[id]
	if !ok {
		return fleetv1alpha1.Asset{}, fmt.Errorf("asset %q: %w", id, interfaces.ErrNotFound)
	}
	return *a, nil
}

// List returns a snapshot of all assets in insertion order.
func (s *Store) List() []fleetv1alpha1.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]fleetv1alpha1.Asset, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.assets[id])
	}
	return out
}

// IDs returns the asset ids in insertion order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len returns the number of stored assets.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// ApplySwap records one battery swap: soh drops by SwapSohCost (floor 0),
// swaps and dailySwaps each increase by one.
func (s *Store) ApplySwap(id string) (fleetv1alpha1.Asset, error) {
	return s.Update(id, func(a *fleetv1alpha1.Asset) error {
		a.Soh = a.Soh - SwapSohCost
		a.Swaps++
		a.DailySwaps++
		return nil
	})
}

// ApplyCharge records one charge: soh rises by ChargeSohGain (ceiling 100).
func (s *Store) ApplyCharge(id string) (fleetv1alpha1.Asset, error) {
	return s.Update(id, func(a *fleetv1alpha1.Asset) error {
		a.Soh = a.Soh + ChargeSohGain
		return nil
	})
}

// Update applies mutate to a copy of the asset and commits it atomically.
// After mutate returns, soh is clamped to [0,100] and the identity and
// monotonic-counter invariants are verified; a violation discards the copy.
func (s *Store) Update(id string, mutate MutateFunc) (fleetv1alpha1.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.assets[id]
	if !ok {
		return fleetv1alpha1.Asset{}, fmt.Errorf("asset %q: %w", id, interfaces.ErrNotFound)
	}

	working := *current
	if err := mutate(&working); err != nil {
		return *current, err
	}
	working.Soh = ClampSoh(working.Soh)

	if err := checkTransition(current, &working); err != nil {
		return *current, err
	}

	*current = working
	return working, nil
}

// checkTransition rejects mutations that would break the asset invariants.
func checkTransition(before, after *fleetv1alpha1.Asset) error {
	switch {
	case after.ID != before.ID:
		return fmt.Errorf("asset %q: id is immutable: %w", before.ID, interfaces.ErrInvalidArgument)
	case after.Type != before.Type:
		return fmt.Errorf("asset %q: type is immutable: %w", before.ID, interfaces.ErrInvalidArgument)
	case !after.OriginalValue.Equal(before.OriginalValue):
		return fmt.Errorf("asset %q: originalValue is immutable: %w", before.ID, interfaces.ErrInvalidArgument)
	case after.Swaps < before.Swaps:
		return fmt.Errorf("asset %q: swaps cannot decrease (%d -> %d): %w",
			before.ID, before.Swaps, after.Swaps, interfaces.ErrInvalidArgument)
	case after.DailySwaps < 0:
		return fmt.Errorf("asset %q: dailySwaps cannot be negative: %w", before.ID, interfaces.ErrInvalidArgument)
	case !after.Status.IsValid():
		return fmt.Errorf("asset %q: unknown status %q: %w", before.ID, after.Status, interfaces.ErrInvalidArgument)
	}
	return nil
}

var _ interfaces.AssetLookup = (*Store)(nil)
