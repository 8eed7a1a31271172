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

package ledger

import (
	"sync"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

// PayoutBook holds externally supplied revenue-share records. The core
// never generates payouts; it only stores and serves them.
type PayoutBook struct {
	mu      sync.RWMutex
	payouts []fleetv1alpha1.Payout
}

// NewPayoutBook creates a book holding a copy of payouts.
func NewPayoutBook(payouts []fleetv1alpha1.Payout) *PayoutBook {
	b := &PayoutBook{payouts: make([]fleetv1alpha1.Payout, len(payouts))}
	copy(b.payouts, payouts)
	return b
}

// List returns all payouts in load order.
func (b *PayoutBook) List() []fleetv1alpha1.Payout {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]fleetv1alpha1.Payout, len(b.payouts))
	copy(out, b.payouts)
	return out
}

// ForToken returns the payouts of one token in load order.
func (b *PayoutBook) ForToken(tokenID string) []fleetv1alpha1.Payout {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []fleetv1alpha1.Payout
	for _, p := range b.payouts {
		if p.TokenID == tokenID {
			out = append(out, p)
		}
	}
	return out
}
