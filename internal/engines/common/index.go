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

// Package common holds state shared by the decision engines.
package common

import "sync"

// ListingIndex is a concurrency-safe set of asset ids that already have a
// secondary-market listing. It gives the retirement engine constant-time
// membership checks regardless of how many listings exist.
type ListingIndex struct {
	mu    sync.RWMutex
	items map[string]struct{}
}

// NewListingIndex creates an index pre-populated with the given asset ids.
func NewListingIndex(assetIDs ...string) *ListingIndex {
	idx := &ListingIndex{
		items: make(map[string]struct{}, len(assetIDs)),
	}
	for _, id := range assetIDs {
		idx.items[id] = struct{}{}
	}
	return idx
}

// Contains reports whether assetID is indexed.
func (i *ListingIndex) Contains(assetID string) bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	_, ok := i.items[assetID]
	return ok
}

// Insert adds assetID to the index. It returns false if the id was already
// present, which makes Insert usable as an atomic check-and-set.
func (i *ListingIndex) Insert(assetID string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.items[assetID]; ok {
		return false
	}
	i.items[assetID] = struct{}{}
	return true
}

// Len returns the number of indexed asset ids.
func (i *ListingIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.items)
}
