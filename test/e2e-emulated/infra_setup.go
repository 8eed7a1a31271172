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

package e2eemulated

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/logging"
	"github.com/voltfleet/fleet-core/internal/seed"
	"github.com/voltfleet/fleet-core/pkg/config"
	"github.com/voltfleet/fleet-core/pkg/core"
)

// Emulated fleet shape.
const (
	assetsPerType = 40
	// floorAssets are seeded at soh 0 and must never move.
	floorAssets = 5
	tickInterval = 10 * time.Millisecond
)

// aggressiveProfiles makes assets cross the retirement threshold within a
// few hundred ticks.
const aggressiveProfiles = `
default: |
  sohDriftBound: 4
  dailySwapIncrementLimit: 5
`

var (
	// Optional Environment Variables:
	// - E2E_MARKET_BACKEND=sqlite: run the suite against the sqlite registry.
	marketBackend = os.Getenv("E2E_MARKET_BACKEND")

	fleet    *core.Core
	reg      *prometheus.Registry
	tmpDir   string
	seedData *seed.Data
)

// emulatedFleet builds assetsPerType assets of every type with a spread of
// initial health, plus floorAssets batteries at soh 0.
func emulatedFleet() *seed.Data {
	data := &seed.Data{}
	prefixes := map[fleetv1alpha1.AssetType]string{
		fleetv1alpha1.AssetTypeEV:      "EV",
		fleetv1alpha1.AssetTypeBattery: "BAT",
		fleetv1alpha1.AssetTypeCabinet: "CAB",
	}
	for _, t := range fleetv1alpha1.AssetTypes {
		for i := range assetsPerType {
			status := fleetv1alpha1.AssetStatuses[i%len(fleetv1alpha1.AssetStatuses)]
			data.Assets = append(data.Assets, fleetv1alpha1.Asset{
				ID:            fmt.Sprintf("%s-%03d", prefixes[t], i+1),
				Type:          t,
				Model:         "emulated",
				Status:        status,
				Soh:           float64(55 + i%45),
				Location:      "Lagos - Emulated Hub",
				OriginalValue: decimal.NewFromInt(int64(100_000 * (i + 1))),
			})
		}
	}
	for i := range floorAssets {
		data.Assets = append(data.Assets, fleetv1alpha1.Asset{
			ID:            fmt.Sprintf("DEAD-%03d", i+1),
			Type:          fleetv1alpha1.AssetTypeBattery,
			Model:         "emulated",
			Status:        fleetv1alpha1.AssetStatusInUse,
			Soh:           0,
			DailySwaps:    int64(i),
			Location:      "Lagos - Emulated Hub",
			OriginalValue: decimal.NewFromInt(250_000),
		})
	}
	return data
}

// setupFleet builds and starts the emulated fleet on the real clock.
func setupFleet() {
	logging.NewTestLogger()

	var err error
	tmpDir, err = os.MkdirTemp("", "fleet-emulated-")
	Expect(err).NotTo(HaveOccurred())

	profilesFile := filepath.Join(tmpDir, "profiles.yaml")
	Expect(os.WriteFile(profilesFile, []byte(aggressiveProfiles), 0o600)).To(Succeed())

	cfg := config.Defaults()
	cfg.TickInterval = tickInterval
	cfg.RandomSeed = 20250101
	cfg.ProfilesFile = profilesFile
	if marketBackend == config.MarketBackendSQLite {
		_, _ = fmt.Fprintf(GinkgoWriter, "E2E_MARKET_BACKEND=sqlite: using the sqlite registry\n")
		cfg.MarketBackend = config.MarketBackendSQLite
		cfg.SQLiteDSN = filepath.Join(tmpDir, "market.db")
	}

	seedData = emulatedFleet()
	reg = prometheus.NewRegistry()

	By("building the emulated fleet")
	fleet, err = core.New(context.Background(), cfg, core.WithSeedData(seedData), core.WithRegisterer(reg))
	Expect(err).NotTo(HaveOccurred())

	By("starting the simulation")
	fleet.Start(context.Background())
	Expect(fleet.Running()).To(BeTrue())
}

// teardownFleet stops the simulation and removes temporary files.
func teardownFleet() {
	if fleet != nil {
		Expect(fleet.Close()).To(Succeed())
	}
	if tmpDir != "" {
		Expect(os.RemoveAll(tmpDir)).To(Succeed())
	}
}

// waitForTicks blocks until at least n more ticks have completed.
func waitForTicks(n uint64) {
	target := fleet.TicksCompleted() + n
	Eventually(fleet.TicksCompleted, time.Duration(n)*tickInterval*20, tickInterval).
		Should(BeNumerically(">=", target))
}
