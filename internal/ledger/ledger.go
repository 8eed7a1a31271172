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

// Package ledger records fractional ownership tokens minted against fleet
// assets. Tokens are append-only and immutable once minted.
package ledger

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"k8s.io/utils/clock"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
	"github.com/voltfleet/fleet-core/internal/interfaces"
)

// RoiMultiple is the projected return on an investment: roi = amount * 0.45.
var RoiMultiple = decimal.RequireFromString("0.45")

const tokenIDFormat = "TKN-%s-%06d"

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to stamp MintedAt.
func WithClock(c clock.PassiveClock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// Ledger is the append-only token collection.
type Ledger struct {
	mu     sync.RWMutex
	assets interfaces.AssetLookup
	clock  clock.PassiveClock

	seq    uint64
	tokens []fleetv1alpha1.Token
	ids    map[string]struct{}
}

// New creates an empty ledger that resolves asset ids through assets.
func New(assets interfaces.AssetLookup, opts ...Option) *Ledger {
	l := &Ledger{
		assets: assets,
		clock:  clock.RealClock{},
		ids:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// ProjectROI returns the projected return for an investment amount.
func ProjectROI(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(RoiMultiple)
}

// Mint creates a token for investorID against assetID. The asset must exist
// (ErrNotFound otherwise); fraction must lie in (0,1] and amount must be
// strictly positive (ErrInvalidArgument otherwise). On failure the ledger is
// unchanged. Aggregate fractions per asset are not capped.
func (l *Ledger) Mint(investorID, assetID string, fraction float64, amount decimal.Decimal) (fleetv1alpha1.Token, error) {
	if _, err := l.assets.Get(assetID); err != nil {
		return fleetv1alpha1.Token{}, fmt.Errorf("mint: %w", err)
	}
	if err := validateMint(investorID, fraction, amount); err != nil {
		return fleetv1alpha1.Token{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	token := fleetv1alpha1.Token{
		ID:            l.nextIDLocked(assetID),
		InvestorID:    investorID,
		AssetID:       assetID,
		Fraction:      fraction,
		InvestAmount:  amount,
		RoiProjection: ProjectROI(amount),
		MintedAt:      l.clock.Now(),
	}
	l.appendLocked(token)
	return token, nil
}

func validateMint(investorID string, fraction float64, amount decimal.Decimal) error {
	if strings.TrimSpace(investorID) == "" {
		return fmt.Errorf("mint: investor id must not be empty: %w", interfaces.ErrInvalidArgument)
	}
	if math.IsNaN(fraction) || math.IsInf(fraction, 0) || fraction <= 0 || fraction > 1 {
		return fmt.Errorf("mint: fraction must be in (0,1], got %v: %w", fraction, interfaces.ErrInvalidArgument)
	}
	if !amount.IsPositive() {
		return fmt.Errorf("mint: invest amount must be positive, got %s: %w", amount, interfaces.ErrInvalidArgument)
	}
	return nil
}

// ValidateToken applies the mint rules to a token minted elsewhere, e.g.
// one read from seed data.
func ValidateToken(t fleetv1alpha1.Token) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("token for asset %q: id must not be empty: %w", t.AssetID, interfaces.ErrInvalidArgument)
	}
	if err := validateMint(t.InvestorID, t.Fraction, t.InvestAmount); err != nil {
		return fmt.Errorf("token %q: %w", t.ID, err)
	}
	return nil
}

// nextIDLocked returns the next unused token id. Ids taken by seeded tokens
// are skipped.
func (l *Ledger) nextIDLocked(assetID string) string {
	for {
		l.seq++
		id := fmt.Sprintf(tokenIDFormat, assetID, l.seq)
		if _, taken := l.ids[id]; !taken {
			return id
		}
	}
}

func (l *Ledger) appendLocked(t fleetv1alpha1.Token) {
	l.tokens = append(l.tokens, t)
	l.ids[t.ID] = struct{}{}
}

// Seed appends pre-existing tokens, e.g. from seed data. Every token must
// pass ValidateToken, reference a known asset and carry a unique id. Seeding is all or nothing.
func (l *Ledger) Seed(tokens []fleetv1alpha1.Token) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	batch := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if err := ValidateToken(t); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		if _, err := l.assets.Get(t.AssetID); err != nil {
			return fmt.Errorf("seed token %q: %w", t.ID, err)
		}
		if _, dup := batch[t.ID]; dup {
			return fmt.Errorf("seed token %q: %w", t.ID, interfaces.ErrAlreadyExists)
		}
		if _, dup := l.ids[t.ID]; dup {
			return fmt.Errorf("seed token %q: %w", t.ID, interfaces.ErrAlreadyExists)
		}
		batch[t.ID] = struct{}{}
	}
	for _, t := range tokens {
		l.appendLocked(t)
	}
	return nil
}

// Get returns the token with the given id.
func (l *Ledger) Get(id string) (fleetv1alpha1.Token, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, t := range l.tokens {
		if t.ID == id {
			return t, nil
		}
	}
	return fleetv1alpha1.Token{}, fmt.Errorf("token %q: %w", id, interfaces.ErrNotFound)
}

// List returns a snapshot of all tokens in mint order.
func (l *Ledger) List() []fleetv1alpha1.Token {
	return l.filter(func(fleetv1alpha1.Token) bool { return true })
}

// ByInvestor returns the tokens held by investorID in mint order.
func (l *Ledger) ByInvestor(investorID string) []fleetv1alpha1.Token {
	return l.filter(func(t fleetv1alpha1.Token) bool { return t.InvestorID == investorID })
}

// ByAsset returns the tokens minted against assetID in mint order.
func (l *Ledger) ByAsset(assetID string) []fleetv1alpha1.Token {
	return l.filter(func(t fleetv1alpha1.Token) bool { return t.AssetID == assetID })
}

func (l *Ledger) filter(keep func(fleetv1alpha1.Token) bool) []fleetv1alpha1.Token {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]fleetv1alpha1.Token, 0, len(l.tokens))
	for _, t := range l.tokens {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of tokens.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.tokens)
}
