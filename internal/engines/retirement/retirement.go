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

// Package retirement decides when a degraded asset moves to the secondary
// market. The decision is a pure function of the asset snapshot and the
// current listing set; "list at most once" is enforced by listing
// membership, never by a flag on the asset.
package retirement

import (
	"context"
	"time"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

// Gate evaluates assets against the current listings and returns the new
// listings to append.
type Gate interface {
	// Evaluate returns one new listing per qualifying asset. It does not
	// mutate its inputs.
	Evaluate(
		ctx context.Context,
		assets []fleetv1alpha1.Asset,
		listed interfaces.ListingLookup,
		now time.Time,
	) []fleetv1alpha1.SLXListing
}
