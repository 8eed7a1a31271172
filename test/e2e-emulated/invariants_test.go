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
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/pkg/core"
)

var _ = Describe("Fleet lifecycle invariants", Ordered, func() {
	ctx := context.Background()

	It("should keep every soh within [0, 100]", func() {
		for range 5 {
			waitForTicks(20)
			for _, a := range fleet.Assets() {
				Expect(a.Soh).To(BeNumerically(">=", fleetv1alpha1.MinSoh), "asset %s", a.ID)
				Expect(a.Soh).To(BeNumerically("<=", fleetv1alpha1.MaxSoh), "asset %s", a.ID)
			}
		}
	})

	It("should leave assets at the floor untouched", func() {
		for _, seeded := range seedData.Assets {
			if seeded.Soh != 0 {
				continue
			}
			current, err := fleet.Asset(seeded.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.Soh).To(Equal(0.0), "asset %s", seeded.ID)
			Expect(current.DailySwaps).To(Equal(seeded.DailySwaps), "asset %s", seeded.ID)
		}
	})

	It("should list every degraded asset exactly once", func() {
		By("waiting for a sizeable share of the fleet to degrade")
		Eventually(func(g Gomega) {
			listings, err := fleet.Listings(ctx)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(len(listings)).To(BeNumerically(">=", floorAssets+10))
		}, 30*time.Second, 50*time.Millisecond).Should(Succeed())

		waitForTicks(10)
		listings, err := fleet.Listings(ctx)
		Expect(err).NotTo(HaveOccurred())

		seen := make(map[string]bool, len(listings))
		for _, l := range listings {
			Expect(seen).NotTo(HaveKey(l.AssetID), "duplicate listing for %s", l.AssetID)
			seen[l.AssetID] = true

			Expect(l.Soh).To(BeNumerically("<", 50.0))
			asset, err := fleet.Asset(l.AssetID)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.SalvageValue.Equal(asset.OriginalValue.Mul(decimal.RequireFromString("0.2")))).
				To(BeTrue(), "salvage value of %s", l.AssetID)
		}
		for _, seeded := range seedData.Assets {
			if seeded.Soh == 0 {
				Expect(seen).To(HaveKey(seeded.ID))
			}
		}
	})

	It("should serialise commands with the running tick", func() {
		const workers = 8
		const perWorker = 25

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			minted []fleetv1alpha1.Token
		)
		assets := fleet.Assets()
		for w := range workers {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				for i := range perWorker {
					id := assets[(w*perWorker+i)%len(assets)].ID
					switch i % 3 {
					case 0:
						_, err := fleet.SimulateSwap(ctx, id)
						Expect(err).NotTo(HaveOccurred())
					case 1:
						_, err := fleet.SimulateCharge(ctx, id)
						Expect(err).NotTo(HaveOccurred())
					default:
						token, err := fleet.MintTokenFor(ctx, fmt.Sprintf("investor-%d", w), id, 0.01, decimal.NewFromInt(10_000))
						Expect(err).NotTo(HaveOccurred())
						mu.Lock()
						minted = append(minted, token)
						mu.Unlock()
					}
				}
				_, err := fleet.SimulateSwap(ctx, "GHOST")
				Expect(core.IsNotFound(err)).To(BeTrue())
			}()
		}
		wg.Wait()

		ids := make(map[string]bool, len(minted))
		for _, t := range minted {
			Expect(ids).NotTo(HaveKey(t.ID))
			ids[t.ID] = true
			Expect(t.RoiProjection.Equal(decimal.NewFromInt(4_500))).To(BeTrue())
		}
		Expect(fleet.Tokens()).To(HaveLen(len(minted)))

		waitForTicks(5)
		for _, a := range fleet.Assets() {
			Expect(a.Soh).To(BeNumerically(">=", fleetv1alpha1.MinSoh))
			Expect(a.Soh).To(BeNumerically("<=", fleetv1alpha1.MaxSoh))
		}
	})

	It("should summarise the fleet from recorded history", func() {
		summary, err := fleet.Summary(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(summary.AssetCount).To(Equal(len(seedData.Assets)))
		Expect(summary.Listed).To(BeNumerically(">", 0))
		Expect(summary.Trends).NotTo(BeEmpty())
		Expect(summary.TrackedAssets).To(BeNumerically(">", 0))
		Expect(summary.LastRecord.IsZero()).To(BeFalse())
		for _, trend := range summary.Trends {
			if trend.TimeToThreshold != nil {
				Expect(*trend.TimeToThreshold).To(BeNumerically(">=", 0))
			}
		}
	})

	It("should stop idempotently and tick no more", func() {
		fleet.Stop()
		fleet.Stop()
		Expect(fleet.Running()).To(BeFalse())

		ticks := fleet.TicksCompleted()
		Consistently(fleet.TicksCompleted, 10*tickInterval, tickInterval).Should(Equal(ticks))

		fleet.Start(ctx)
		waitForTicks(2)
		fleet.Stop()
	})
})
