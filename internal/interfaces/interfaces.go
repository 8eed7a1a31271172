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

// Package interfaces holds the contracts and error kinds shared between the
// fleet components, so that no component has to import another's
// implementation package.
package interfaces

import (
	"errors"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

var (
	// ErrNotFound indicates that a command referenced an asset id that is
	// absent from the asset store.
	ErrNotFound = errors.New("not found")

	// ErrInvalidArgument indicates a malformed command argument, such as a
	// negative investment amount or a fraction outside (0,1].
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists indicates that a record with the same identity was
	// already added.
	ErrAlreadyExists = errors.New("already exists")
)

// AssetLookup resolves assets by id. It is the read-only view of the asset
// store handed to components that only need asset identity.
type AssetLookup interface {
	// Get returns a copy of the asset, or an error wrapping ErrNotFound.
	Get(id string) (fleetv1alpha1.Asset, error)
}

// ListingLookup answers whether an asset already has a secondary-market
// listing. Implementations must answer in constant time.
type ListingLookup interface {
	Contains(assetID string) bool
}

// RetirementDecision records why an asset was (or was not) moved to the
// secondary market during one evaluation.
type RetirementDecision struct {
	AssetID string
	Soh     float64

	// Qualified is true when the asset is below the threshold and unlisted.
	Qualified bool

	// AlreadyListed is true when the asset is below the threshold but a
	// listing already exists.
	AlreadyListed bool
}
