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

// Package seed loads the initial fleet: assets, tokens, listings and
// payouts. A demo fleet is embedded for runs without a seed file.
package seed

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
	"github.com/voltfleet/fleet-core/internal/ledger"
	"github.com/voltfleet/fleet-core/internal/utils/assetclass"
)

//go:embed default_fleet.yaml
var defaultFleet []byte

// Data is a parsed and validated seed.
type Data struct {
	Assets   []fleetv1alpha1.Asset
	Tokens   []fleetv1alpha1.Token
	Listings []fleetv1alpha1.SLXListing
	Payouts  []fleetv1alpha1.Payout
}

type file struct {
	Assets   []assetRecord   `yaml:"assets"`
	Tokens   []tokenRecord   `yaml:"tokens"`
	Listings []listingRecord `yaml:"listings"`
	Payouts  []payoutRecord  `yaml:"payouts"`
}

type assetRecord struct {
	ID            string  `yaml:"id"`
	Type          string  `yaml:"type"`
	Model         string  `yaml:"model"`
	Status        string  `yaml:"status"`
	Soh           float64 `yaml:"soh"`
	Swaps         int64   `yaml:"swaps"`
	DailySwaps    int64   `yaml:"dailySwaps"`
	Location      string  `yaml:"location"`
	OriginalValue string  `yaml:"originalValue"`
}

type tokenRecord struct {
	ID            string  `yaml:"id"`
	InvestorID    string  `yaml:"investorId"`
	AssetID       string  `yaml:"assetId"`
	Fraction      float64 `yaml:"fraction"`
	InvestAmount  string  `yaml:"investAmount"`
	RoiProjection string  `yaml:"roiProjection"`
	MintedAt      string  `yaml:"mintedAt"`
}

type listingRecord struct {
	AssetID      string  `yaml:"assetId"`
	Soh          float64 `yaml:"soh"`
	SalvageValue string  `yaml:"salvageValue"`
	ListedAt     string  `yaml:"listedAt"`
}

type payoutRecord struct {
	PayoutID      string `yaml:"payoutId"`
	TokenID       string `yaml:"tokenId"`
	Month         string `yaml:"month"`
	GrossRevenue  string `yaml:"grossRevenue"`
	InvestorShare string `yaml:"investorShare"`
}

// Default returns the embedded demo fleet.
func Default() (*Data, error) {
	return Parse(defaultFleet)
}

// Load reads a seed file. An empty path selects the embedded demo fleet.
func Load(path string) (*Data, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	data, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	return data, nil
}

// Parse decodes and validates a YAML seed document.
func Parse(raw []byte) (*Data, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode seed: %w: %v", interfaces.ErrInvalidArgument, err)
	}

	labels := assetclass.DefaultLabelConfig()
	data := &Data{}
	for i, r := range f.Assets {
		a, err := r.toAsset(labels)
		if err != nil {
			return nil, fmt.Errorf("assets[%d]: %w", i, err)
		}
		data.Assets = append(data.Assets, a)
	}
	for i, r := range f.Tokens {
		t, err := r.toToken()
		if err != nil {
			return nil, fmt.Errorf("tokens[%d]: %w", i, err)
		}
		data.Tokens = append(data.Tokens, t)
	}
	for i, r := range f.Listings {
		l, err := r.toListing()
		if err != nil {
			return nil, fmt.Errorf("listings[%d]: %w", i, err)
		}
		data.Listings = append(data.Listings, l)
	}
	for i, r := range f.Payouts {
		p, err := r.toPayout()
		if err != nil {
			return nil, fmt.Errorf("payouts[%d]: %w", i, err)
		}
		data.Payouts = append(data.Payouts, p)
	}

	if err := data.Validate(); err != nil {
		return nil, err
	}
	return data, nil
}

// Validate checks identity uniqueness and cross references.
func (d *Data) Validate() error {
	assets := make(map[string]struct{}, len(d.Assets))
	for _, a := range d.Assets {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("%w: %v", interfaces.ErrInvalidArgument, err)
		}
		if _, dup := assets[a.ID]; dup {
			return fmt.Errorf("asset %q: %w", a.ID, interfaces.ErrAlreadyExists)
		}
		assets[a.ID] = struct{}{}
	}

	tokens := make(map[string]struct{}, len(d.Tokens))
	for _, t := range d.Tokens {
		if err := ledger.ValidateToken(t); err != nil {
			return err
		}
		if _, ok := assets[t.AssetID]; !ok {
			return fmt.Errorf("token %q references asset %q: %w", t.ID, t.AssetID, interfaces.ErrNotFound)
		}
		if _, dup := tokens[t.ID]; dup {
			return fmt.Errorf("token %q: %w", t.ID, interfaces.ErrAlreadyExists)
		}
		tokens[t.ID] = struct{}{}
	}

	listed := make(map[string]struct{}, len(d.Listings))
	for _, l := range d.Listings {
		if _, ok := assets[l.AssetID]; !ok {
			return fmt.Errorf("listing references asset %q: %w", l.AssetID, interfaces.ErrNotFound)
		}
		if _, dup := listed[l.AssetID]; dup {
			return fmt.Errorf("listing for asset %q: %w", l.AssetID, interfaces.ErrAlreadyExists)
		}
		listed[l.AssetID] = struct{}{}
	}

	payouts := make(map[string]struct{}, len(d.Payouts))
	for _, p := range d.Payouts {
		if _, ok := tokens[p.TokenID]; !ok {
			return fmt.Errorf("payout %q references token %q: %w", p.PayoutID, p.TokenID, interfaces.ErrNotFound)
		}
		if _, dup := payouts[p.PayoutID]; dup {
			return fmt.Errorf("payout %q: %w", p.PayoutID, interfaces.ErrAlreadyExists)
		}
		payouts[p.PayoutID] = struct{}{}
	}
	return nil
}

func (r assetRecord) toAsset(labels assetclass.LabelConfig) (fleetv1alpha1.Asset, error) {
	assetType, err := assetclass.ResolveType(r.Type, r.ID, labels)
	if err != nil {
		return fleetv1alpha1.Asset{}, err
	}
	status, err := assetclass.ParseStatus(r.Status, labels)
	if err != nil {
		return fleetv1alpha1.Asset{}, fmt.Errorf("asset %q: %w", r.ID, err)
	}
	value, err := parseMoney("originalValue", r.OriginalValue)
	if err != nil {
		return fleetv1alpha1.Asset{}, fmt.Errorf("asset %q: %w", r.ID, err)
	}
	return fleetv1alpha1.Asset{
		ID:            strings.TrimSpace(r.ID),
		Type:          assetType,
		Model:         r.Model,
		Status:        status,
		Soh:           r.Soh,
		Swaps:         r.Swaps,
		DailySwaps:    r.DailySwaps,
		Location:      r.Location,
		OriginalValue: value,
	}, nil
}

func (r tokenRecord) toToken() (fleetv1alpha1.Token, error) {
	if strings.TrimSpace(r.ID) == "" {
		return fleetv1alpha1.Token{}, fmt.Errorf("token id must not be empty: %w", interfaces.ErrInvalidArgument)
	}
	amount, err := parseMoney("investAmount", r.InvestAmount)
	if err != nil {
		return fleetv1alpha1.Token{}, fmt.Errorf("token %q: %w", r.ID, err)
	}
	roi, err := parseMoney("roiProjection", r.RoiProjection)
	if err != nil {
		return fleetv1alpha1.Token{}, fmt.Errorf("token %q: %w", r.ID, err)
	}
	mintedAt, err := parseTime("mintedAt", r.MintedAt)
	if err != nil {
		return fleetv1alpha1.Token{}, fmt.Errorf("token %q: %w", r.ID, err)
	}
	if r.Fraction <= 0 || r.Fraction > 1 {
		return fleetv1alpha1.Token{}, fmt.Errorf("token %q: fraction must be in (0,1], got %v: %w",
			r.ID, r.Fraction, interfaces.ErrInvalidArgument)
	}
	return fleetv1alpha1.Token{
		ID:            r.ID,
		InvestorID:    r.InvestorID,
		AssetID:       r.AssetID,
		Fraction:      r.Fraction,
		InvestAmount:  amount,
		RoiProjection: roi,
		MintedAt:      mintedAt,
	}, nil
}

func (r listingRecord) toListing() (fleetv1alpha1.SLXListing, error) {
	salvage, err := parseMoney("salvageValue", r.SalvageValue)
	if err != nil {
		return fleetv1alpha1.SLXListing{}, fmt.Errorf("listing %q: %w", r.AssetID, err)
	}
	listedAt, err := parseTime("listedAt", r.ListedAt)
	if err != nil {
		return fleetv1alpha1.SLXListing{}, fmt.Errorf("listing %q: %w", r.AssetID, err)
	}
	return fleetv1alpha1.SLXListing{
		AssetID:      r.AssetID,
		Soh:          r.Soh,
		SalvageValue: salvage,
		ListedAt:     listedAt,
	}, nil
}

func (r payoutRecord) toPayout() (fleetv1alpha1.Payout, error) {
	if _, err := time.Parse("2006-01", r.Month); err != nil {
		return fleetv1alpha1.Payout{}, fmt.Errorf("payout %q: month must be YYYY-MM, got %q: %w",
			r.PayoutID, r.Month, interfaces.ErrInvalidArgument)
	}
	gross, err := parseMoney("grossRevenue", r.GrossRevenue)
	if err != nil {
		return fleetv1alpha1.Payout{}, fmt.Errorf("payout %q: %w", r.PayoutID, err)
	}
	share, err := parseMoney("investorShare", r.InvestorShare)
	if err != nil {
		return fleetv1alpha1.Payout{}, fmt.Errorf("payout %q: %w", r.PayoutID, err)
	}
	return fleetv1alpha1.Payout{
		PayoutID:      r.PayoutID,
		TokenID:       r.TokenID,
		Month:         r.Month,
		GrossRevenue:  gross,
		InvestorShare: share,
	}, nil
}

func parseMoney(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, value, interfaces.ErrInvalidArgument)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must be >= 0, got %s: %w", field, d, interfaces.ErrInvalidArgument)
	}
	return d, nil
}

func parseTime(field, value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %q must be RFC3339: %w", field, value, interfaces.ErrInvalidArgument)
	}
	return t.UTC(), nil
}
