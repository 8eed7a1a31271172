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

package common

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestListingIndex(t *testing.T) {
	idx := NewListingIndex("BAT-001")

	if !idx.Contains("BAT-001") {
		t.Error("Expected seeded asset to be found in index")
	}
	if idx.Contains("EV-001") {
		t.Error("Expected unknown asset to not be found")
	}

	if !idx.Insert("EV-001") {
		t.Error("Expected first insert to succeed")
	}
	if idx.Insert("EV-001") {
		t.Error("Expected second insert of the same asset to be rejected")
	}
	if idx.Len() != 2 {
		t.Errorf("Expected 2 indexed assets, got %d", idx.Len())
	}
}

func TestListingIndexConcurrentInsertOnce(t *testing.T) {
	idx := NewListingIndex()

	// Test Concurrency: exactly one writer wins per asset id
	var wins atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if idx.Insert(fmt.Sprintf("CAB-%d", i%10)) {
				wins.Add(1)
			}
			idx.Contains("CAB-0")
		}(i)
	}
	wg.Wait()

	if wins.Load() != 10 {
		t.Errorf("Expected 10 successful inserts, got %d", wins.Load())
	}
	if idx.Len() != 10 {
		t.Errorf("Expected 10 indexed assets, got %d", idx.Len())
	}
}
