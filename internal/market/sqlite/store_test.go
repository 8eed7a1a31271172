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

package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

func TestOpenRequiresDSN(t *testing.T) {
	t.Parallel()

	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected empty dsn error")
	}
}

func TestAddListRoundTrip(t *testing.T) {
	t.Parallel()

	store := openMemoryStore(t)
	ctx := context.Background()
	listedAt := time.Date(2025, time.March, 4, 10, 15, 30, 123456789, time.UTC)
	input := []fleetv1alpha1.SLXListing{
		{AssetID: "BAT-007", Soh: 48.93, SalvageValue: decimal.RequireFromString("90000.2"), ListedAt: listedAt},
		{AssetID: "EV-003", Soh: 12, SalvageValue: decimal.RequireFromString("66666.666"), ListedAt: listedAt.Add(time.Second)},
	}

	added, err := store.Add(ctx, input)
	if err != nil {
		t.Fatalf("add listings: %v", err)
	}
	if len(added) != 2 {
		t.Fatalf("added = %d, want 2", len(added))
	}

	got, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list listings: %v", err)
	}
	if diff := cmp.Diff(input, got); diff != "" {
		t.Fatalf("List() mismatch (-want +got):\n%s", diff)
	}
	if !store.Contains("BAT-007") || store.Contains("CAB-001") {
		t.Fatal("index does not mirror stored listings")
	}
}

func TestAddSkipsListedAssets(t *testing.T) {
	t.Parallel()

	store := openMemoryStore(t)
	ctx := context.Background()
	first := fleetv1alpha1.SLXListing{AssetID: "A1", Soh: 47, SalvageValue: decimal.NewFromInt(100)}

	if _, err := store.Add(ctx, []fleetv1alpha1.SLXListing{first}); err != nil {
		t.Fatalf("add initial listing: %v", err)
	}
	again := first
	again.Soh = 40
	added, err := store.Add(ctx, []fleetv1alpha1.SLXListing{again, {AssetID: "A2", Soh: 10, SalvageValue: decimal.Zero}})
	if err != nil {
		t.Fatalf("add second batch: %v", err)
	}
	if len(added) != 1 || added[0].AssetID != "A2" {
		t.Fatalf("added = %+v, want only A2", added)
	}

	got, _ := store.List(ctx)
	if len(got) != 2 || got[0].Soh != 47 {
		t.Fatalf("listing for A1 must keep its original snapshot, got %+v", got)
	}
	if store.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", store.Len())
	}
}

func TestReopenLoadsIndex(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "market.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := store.Add(ctx, []fleetv1alpha1.SLXListing{{AssetID: "A1", Soh: 30, SalvageValue: decimal.NewFromInt(5)}}); err != nil {
		t.Fatalf("add listing: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	if !reopened.Contains("A1") {
		t.Fatal("reopened store lost listing index")
	}
	added, err := reopened.Add(ctx, []fleetv1alpha1.SLXListing{{AssetID: "A1", Soh: 20, SalvageValue: decimal.NewFromInt(5)}})
	if err != nil {
		t.Fatalf("add after reopen: %v", err)
	}
	if len(added) != 0 {
		t.Fatalf("asset listed twice across restarts")
	}
}

func TestAddHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	store := openMemoryStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := store.Add(ctx, []fleetv1alpha1.SLXListing{{AssetID: "A1"}}); err == nil {
		t.Fatal("expected context error")
	}
	if store.Len() != 0 {
		t.Fatal("cancelled add must not store anything")
	}
}

func openMemoryStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(context.Background(), MemoryDSN)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
