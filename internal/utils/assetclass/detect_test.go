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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

var _ = Describe("ParseType", func() {
	var config LabelConfig

	BeforeEach(func() {
		config = DefaultLabelConfig()
	})

	Context("with canonical values", func() {
		It("should accept every canonical type", func() {
			for _, t := range fleetv1alpha1.AssetTypes {
				Expect(ParseType(string(t), config)).To(Equal(t))
			}
		})
	})

	Context("with aliases", func() {
		It("should fold case and separators", func() {
			Expect(ParseType("battery_pack", config)).To(Equal(fleetv1alpha1.AssetTypeBattery))
			Expect(ParseType(" Swap-Station ", config)).To(Equal(fleetv1alpha1.AssetTypeCabinet))
			Expect(ParseType("ev", config)).To(Equal(fleetv1alpha1.AssetTypeEV))
		})
	})

	Context("with unknown values", func() {
		It("should fail with invalid argument", func() {
			_, err := ParseType("scooter", config)
			Expect(err).To(MatchError(interfaces.ErrInvalidArgument))
		})

		It("should reject an empty label", func() {
			_, err := ParseType("", config)
			Expect(err).To(HaveOccurred())
		})
	})

	Context("with custom label config", func() {
		It("should only accept configured spellings", func() {
			custom := LabelConfig{
				TypeValues: map[fleetv1alpha1.AssetType][]string{
					fleetv1alpha1.AssetTypeBattery: {"akku"},
				},
			}
			Expect(ParseType("Akku", custom)).To(Equal(fleetv1alpha1.AssetTypeBattery))
			_, err := ParseType("Battery", custom)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("ParseStatus", func() {
	var config LabelConfig

	BeforeEach(func() {
		config = DefaultLabelConfig()
	})

	It("should map InUse spellings to the display value", func() {
		for _, v := range []string{"In Use", "InUse", "in-use", "IN_USE", "active"} {
			Expect(ParseStatus(v, config)).To(Equal(fleetv1alpha1.AssetStatusInUse), "value %q", v)
		}
	})

	It("should accept every canonical status", func() {
		for _, s := range fleetv1alpha1.AssetStatuses {
			Expect(ParseStatus(string(s), config)).To(Equal(s))
		}
	})

	It("should reject unknown statuses", func() {
		_, err := ParseStatus("lost", config)
		Expect(err).To(MatchError(interfaces.ErrInvalidArgument))
	})
})

var _ = Describe("InferType and ResolveType", func() {
	var config LabelConfig

	BeforeEach(func() {
		config = DefaultLabelConfig()
	})

	It("should infer the type from the id prefix", func() {
		t, ok := InferType("BAT-007", config)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(fleetv1alpha1.AssetTypeBattery))

		t, ok = InferType("cab-lag-02", config)
		Expect(ok).To(BeTrue())
		Expect(t).To(Equal(fleetv1alpha1.AssetTypeCabinet))
	})

	It("should report unknown prefixes", func() {
		_, ok := InferType("A1", config)
		Expect(ok).To(BeFalse())
	})

	It("should prefer the explicit label over the id prefix", func() {
		Expect(ResolveType("Cabinet", "EV-001", config)).To(Equal(fleetv1alpha1.AssetTypeCabinet))
	})

	It("should fall back to the id prefix when the label is empty", func() {
		Expect(ResolveType("", "EV-001", config)).To(Equal(fleetv1alpha1.AssetTypeEV))
	})

	It("should fail when neither label nor prefix resolve", func() {
		_, err := ResolveType("", "A1", config)
		Expect(err).To(MatchError(interfaces.ErrInvalidArgument))
	})
})
