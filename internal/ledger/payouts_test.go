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
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	fleetv1alpha1 "github.com/voltfleet/fleet-core/api/v1alpha1"
)

func TestPayoutBook(t *testing.T) {
	input := []fleetv1alpha1.Payout{
		{PayoutID: "P1", TokenID: "T1", Month: "2025-01", GrossRevenue: decimal.NewFromInt(100), InvestorShare: decimal.NewFromInt(25)},
		{PayoutID: "P2", TokenID: "T2", Month: "2025-01", GrossRevenue: decimal.NewFromInt(50), InvestorShare: decimal.NewFromInt(5)},
		{PayoutID: "P3", TokenID: "T1", Month: "2025-02", GrossRevenue: decimal.NewFromInt(120), InvestorShare: decimal.NewFromInt(30)},
	}
	book := NewPayoutBook(input)
	input[0].PayoutID = "mutated"

	all := book.List()
	assert.Len(t, all, 3)
	assert.Equal(t, "P1", all[0].PayoutID)

	t1 := book.ForToken("T1")
	assert.Len(t, t1, 2)
	assert.Equal(t, "2025-02", t1[1].Month)
	assert.Empty(t, book.ForToken("T9"))
}
