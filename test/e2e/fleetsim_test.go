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

package e2e

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/voltfleet/fleet-core/internal/market/sqlite"
)

var _ = Describe("fleetsim process", Ordered, func() {
	listingCounts := func(ctx context.Context) map[string]int {
		store, err := sqlite.Open(ctx, marketPath())
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = store.Close() }()
		listings, err := store.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		counts := make(map[string]int)
		for _, l := range listings {
			counts[l.AssetID]++
		}
		return counts
	}

	It("should tick, retire the degraded assets once and stop cleanly", func(ctx SpecContext) {
		p := startFleetsim()

		By("waiting for several ticks to be reported on /metrics")
		var body string
		Eventually(func(g Gomega) {
			var err error
			body, err = p.scrape(ctx)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(metricValue(body, "fleet_ticks_total")).To(BeNumerically(">=", 5))
		}, 10*time.Second, 100*time.Millisecond).Should(Succeed())

		By("checking the retirement and health metrics")
		Expect(metricValue(body, "fleet_listings_created_total")).To(Equal(2.0))
		Expect(metricValue(body, "fleet_asset_update_failures_total")).To(Equal(0.0))
		Expect(sohValue(body, "BAT-201")).To(Equal(0.0), "an asset at the floor stays at the floor")
		Expect(sohValue(body, "CAB-301")).To(Equal(80.0), "simulation is disabled for cabinets")
		ev := sohValue(body, "EV-101")
		Expect(ev).To(BeNumerically(">=", 0))
		Expect(ev).To(BeNumerically("<", 50))
		Expect(body).To(ContainSubstring("fleetsim_build_info"))

		p.stop()
		Expect(p.output.String()).To(ContainSubstring("Stopped"))

		By("checking the persisted secondary market")
		counts := listingCounts(ctx)
		Expect(counts).To(Equal(map[string]int{"BAT-007": 1, "BAT-201": 1, "EV-101": 1}))
	}, SpecTimeout(30*time.Second))

	It("should not list an asset again after a restart", func(ctx SpecContext) {
		p := startFleetsim()

		Eventually(func(g Gomega) {
			body, err := p.scrape(ctx)
			g.Expect(err).NotTo(HaveOccurred())
			g.Expect(metricValue(body, "fleet_ticks_total")).To(BeNumerically(">=", 3))
			g.Expect(metricValue(body, "fleet_listings_created_total")).To(Equal(0.0))
		}, 10*time.Second, 100*time.Millisecond).Should(Succeed())

		p.stop()
		Expect(listingCounts(ctx)).To(Equal(map[string]int{"BAT-007": 1, "BAT-201": 1, "EV-101": 1}))
	}, SpecTimeout(30*time.Second))
})
