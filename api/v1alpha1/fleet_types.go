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

// Package v1alpha1 contains the data types shared by the fleet core and its
// presentation layer: physical assets, fractional ownership tokens, secondary
// market listings and investor payouts.
package v1alpha1

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// MinSoh is the lower bound of an asset's state of health.
	MinSoh = 0.0
	// MaxSoh is the upper bound of an asset's state of health.
	MaxSoh = 100.0
)

// AssetType classifies a physical asset.
type AssetType string

const (
	AssetTypeEV      AssetType = "EV"
	AssetTypeBattery AssetType = "Battery"
	AssetTypeCabinet AssetType = "Cabinet"
)

// AssetTypes lists every known asset type in display order.
var AssetTypes = []AssetType{AssetTypeEV, AssetTypeBattery, AssetTypeCabinet}

// IsValid reports whether t is one of the known asset types.
func (t AssetType) IsValid() bool {
	switch t {
	case AssetTypeEV, AssetTypeBattery, AssetTypeCabinet:
		return true
	}
	return false
}

// AssetStatus is the operational status of an asset.
// The values are the display strings used by the dashboards.
type AssetStatus string

const (
	AssetStatusAvailable   AssetStatus = "Available"
	AssetStatusInUse       AssetStatus = "In Use"
	AssetStatusCharging    AssetStatus = "Charging"
	AssetStatusMaintenance AssetStatus = "Maintenance"
)

// AssetStatuses lists every known asset status in display order.
var AssetStatuses = []AssetStatus{AssetStatusAvailable, AssetStatusInUse, AssetStatusCharging, AssetStatusMaintenance}

// IsValid reports whether s is one of the known asset statuses.
func (s AssetStatus) IsValid() bool {
	switch s {
	case AssetStatusAvailable, AssetStatusInUse, AssetStatusCharging, AssetStatusMaintenance:
		return true
	}
	return false
}

// Asset is a physical fleet asset and its mutable telemetry.
type Asset struct {
	// ID uniquely identifies the asset within the fleet.
	ID string `json:"id" yaml:"id"`

	// Type classifies the asset (EV, Battery, Cabinet).
	Type AssetType `json:"type" yaml:"type"`

	// Model is the manufacturer model name.
	Model string `json:"model" yaml:"model"`

	// Status is the operational status. Only InUse assets accrue simulated daily swaps.
	Status AssetStatus `json:"status" yaml:"status"`

	// Soh is the state of health in percent, always within [MinSoh, MaxSoh].
	Soh float64 `json:"soh" yaml:"soh"`

	// Swaps is the lifetime swap counter. It never decreases.
	Swaps int64 `json:"swaps" yaml:"swaps"`

	// DailySwaps counts swaps for the current day. Resetting it is the
	// responsibility of an external collaborator.
	DailySwaps int64 `json:"dailySwaps" yaml:"dailySwaps"`

	// Location is a free-form site description.
	Location string `json:"location" yaml:"location"`

	// OriginalValue is the acquisition value in Naira, fixed at creation.
	OriginalValue decimal.Decimal `json:"originalValue" yaml:"originalValue"`
}

// Validate checks that the asset is well formed.
func (a *Asset) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("asset id must not be empty")
	}
	if !a.Type.IsValid() {
		return fmt.Errorf("asset %s: unknown type %q", a.ID, a.Type)
	}
	if !a.Status.IsValid() {
		return fmt.Errorf("asset %s: unknown status %q", a.ID, a.Status)
	}
	if math.IsNaN(a.Soh) || a.Soh < MinSoh || a.Soh > MaxSoh {
		return fmt.Errorf("asset %s: soh must be between %.0f and %.0f, got %v", a.ID, MinSoh, MaxSoh, a.Soh)
	}
	if a.Swaps < 0 {
		return fmt.Errorf("asset %s: swaps must be >= 0, got %d", a.ID, a.Swaps)
	}
	if a.DailySwaps < 0 {
		return fmt.Errorf("asset %s: dailySwaps must be >= 0, got %d", a.ID, a.DailySwaps)
	}
	if a.OriginalValue.IsNegative() {
		return fmt.Errorf("asset %s: originalValue must be >= 0, got %s", a.ID, a.OriginalValue)
	}
	return nil
}

// Token records a fractional ownership stake minted against an asset.
// Tokens are immutable once minted.
type Token struct {
	ID         string `json:"id" yaml:"id"`
	InvestorID string `json:"investorId" yaml:"investorId"`

	// AssetID references an asset in the asset store. The reference is
	// non-owning; the asset keeps mutating after the token is minted.
	AssetID string `json:"assetId" yaml:"assetId"`

	// Fraction is the ownership share in (0,1]. Fractions across tokens of
	// the same asset are not capped in aggregate.
	Fraction float64 `json:"fraction" yaml:"fraction"`

	InvestAmount decimal.Decimal `json:"investAmount" yaml:"investAmount"`

	// RoiProjection is derived at mint time as InvestAmount * RoiMultiple.
	RoiProjection decimal.Decimal `json:"roiProjection" yaml:"roiProjection"`

	MintedAt time.Time `json:"mintedAt" yaml:"mintedAt"`
}

// SLXListing is a secondary-market listing for a retired asset.
// It is a snapshot taken when the asset crossed the retirement threshold and
// is never updated afterwards.
type SLXListing struct {
	AssetID string `json:"assetId" yaml:"assetId"`

	// Soh is the asset's state of health at listing time.
	Soh float64 `json:"soh" yaml:"soh"`

	// SalvageValue is OriginalValue * SalvageRatio.
	SalvageValue decimal.Decimal `json:"salvageValue" yaml:"salvageValue"`

	ListedAt time.Time `json:"listedAt" yaml:"listedAt"`
}

// Payout is externally supplied revenue-share reference data for a token.
// The core only stores and returns payouts; it never generates them.
type Payout struct {
	PayoutID string `json:"payoutId" yaml:"payoutId"`
	TokenID  string `json:"tokenId" yaml:"tokenId"`

	// Month is formatted as YYYY-MM.
	Month string `json:"month" yaml:"month"`

	GrossRevenue  decimal.Decimal `json:"grossRevenue" yaml:"grossRevenue"`
	InvestorShare decimal.Decimal `json:"investorShare" yaml:"investorShare"`
}
