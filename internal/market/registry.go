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

// Package market holds the secondary-market registry: the append-only set of
// listings for retired assets, at most one per asset.
package market

import (
	"context"
	"fmt"
	"strings"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

// Registry stores secondary-market listings.
type Registry interface {
	interfaces.ListingLookup

	// Add appends the listings whose asset has no listing yet and returns
	// the ones actually added, in input order. The membership check and the
	// append are atomic, so concurrent callers can never list an asset twice.
	Add(ctx context.Context, listings []fleetv1alpha1.SLXListing) ([]fleetv1alpha1.SLXListing, error)

	// List returns a snapshot of all listings in the order they were added.
	List(ctx context.Context) ([]fleetv1alpha1.SLXListing, error)

	// Len returns the number of listings.
	Len() int

	// Close releases backend resources.
	Close() error
}

// ValidateListing rejects listings that cannot be stored.
func ValidateListing(l fleetv1alpha1.SLXListing) error {
	if strings.TrimSpace(l.AssetID) == "" {
		return fmt.Errorf("listing asset id must not be empty: %w", interfaces.ErrInvalidArgument)
	}
	if l.Soh < fleetv1alpha1.MinSoh || l.Soh > fleetv1alpha1.MaxSoh {
		return fmt.Errorf("listing %s: soh %v out of range: %w", l.AssetID, l.Soh, interfaces.ErrInvalidArgument)
	}
	if l.SalvageValue.IsNegative() {
		return fmt.Errorf("listing %s: negative salvage value: %w", l.AssetID, interfaces.ErrInvalidArgument)
	}
	return nil
}

// ValidateListings validates every listing before any is stored.
func ValidateListings(listings []fleetv1alpha1.SLXListing) error {
	for _, l := range listings {
		if err := ValidateListing(l); err != nil {
			return err
		}
	}
	return nil
}
