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

package simulator

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

// Source draws the random telemetry applied on every tick. Implementations
// must be safe for use by one tick at a time; the simulator never calls a
// source concurrently with itself.
type Source interface {
	// Name returns the unique name of this source (e.g., "rand", "scripted").
	Name() string

	// HealthDelta returns a soh delta, nominally drawn uniformly from
	// [-bound, bound].
	HealthDelta(asset fleetv1alpha1.Asset, bound float64) float64

	// SwapIncrement returns a daily swap increment drawn uniformly from
	// {0, ..., limit-1}.
	SwapIncrement(asset fleetv1alpha1.Asset, limit int) int64
}

// NewSeed generates a random seed using crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// RandSource draws from a seeded PCG generator, so a fixed seed replays the
// same fleet history.
type RandSource struct {
	mu   sync.Mutex
	seed int64
	rng  *rand.Rand
}

// NewRandSource creates a source seeded with seed.
func NewRandSource(seed int64) *RandSource {
	return &RandSource{
		seed: seed,
		rng:  rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)),
	}
}

// Name implements Source.
func (s *RandSource) Name() string { return "rand" }

// Seed returns the seed the source was created with.
func (s *RandSource) Seed() int64 { return s.seed }

// HealthDelta implements Source.
func (s *RandSource) HealthDelta(_ fleetv1alpha1.Asset, bound float64) float64 {
	if bound <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return (s.rng.Float64()*2 - 1) * bound
}

// SwapIncrement implements Source.
func (s *RandSource) SwapIncrement(_ fleetv1alpha1.Asset, limit int) int64 {
	if limit <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(s.rng.IntN(limit))
}

// ScriptedSource replays queued values per asset and falls back to fixed
// defaults once a queue is drained. It makes tick outcomes deterministic.
type ScriptedSource struct {
	mu           sync.Mutex
	deltas       map[string][]float64
	swaps        map[string][]int64
	defaultDelta float64
	defaultSwaps int64
}

// NewScriptedSource creates a source whose unscripted draws are zero.
func NewScriptedSource() *ScriptedSource {
	return &ScriptedSource{
		deltas: make(map[string][]float64),
		swaps:  make(map[string][]int64),
	}
}

// Name implements Source.
func (s *ScriptedSource) Name() string { return "scripted" }

// PushDeltas queues health deltas for assetID, consumed one per tick.
func (s *ScriptedSource) PushDeltas(assetID string, deltas ...float64) *ScriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deltas[assetID] = append(s.deltas[assetID], deltas...)
	return s
}

// PushSwapIncrements queues daily swap increments for assetID.
func (s *ScriptedSource) PushSwapIncrements(assetID string, increments ...int64) *ScriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.swaps[assetID] = append(s.swaps[assetID], increments...)
	return s
}

// SetDefaults sets the values returned once an asset's queue is empty.
func (s *ScriptedSource) SetDefaults(delta float64, swaps int64) *ScriptedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defaultDelta = delta
	s.defaultSwaps = swaps
	return s
}

// HealthDelta implements Source. The bound is ignored.
func (s *ScriptedSource) HealthDelta(asset fleetv1alpha1.Asset, _ float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.deltas[asset.ID]
	if len(q) == 0 {
		return s.defaultDelta
	}
	s.deltas[asset.ID] = q[1:]
	return q[0]
}

// SwapIncrement implements Source. The limit is ignored.
func (s *ScriptedSource) SwapIncrement(asset fleetv1alpha1.Asset, _ int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.swaps[asset.ID]
	if len(q) == 0 {
		return s.defaultSwaps
	}
	s.swaps[asset.ID] = q[1:]
	return q[0]
}

var (
	_ Source = (*RandSource)(nil)
	_ Source = (*ScriptedSource)(nil)
)
