/*
tiers.go - Marginal tiered payout calculation

PURPOSE:
  Converts a qualified agent's credited amount into a base payout using
  ordered marginal tiers. Each tier's rate applies only to the slice of
  the amount inside [from, to), never to the whole amount.

SEMANTICS:
  - Tiers are sorted ascending by From before use; the configuration is
    expected to be contiguous and non-overlapping, but the sort makes the
    calculation insensitive to declaration order.
  - A nil To marks the final, unbounded tier.
  - Percentage tiers contribute slice * rate / 100.
  - Fixed-rate tiers contribute slice * rate (per-unit multiplier).
  - Zero or negative amounts pay zero. An empty tier list pays zero; the
    caller is responsible for warning about an empty configuration.
*/
package engine

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TieredPayout computes the marginal payout of amount over tiers.
func TieredPayout(amount decimal.Decimal, tiers []PayoutTier) decimal.Decimal {
	if amount.LessThanOrEqual(decimal.Zero) || len(tiers) == 0 {
		return decimal.Zero
	}

	sorted := make([]PayoutTier, len(tiers))
	copy(sorted, tiers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].From.LessThan(sorted[j].From)
	})

	payout := decimal.Zero
	for _, tier := range sorted {
		if amount.LessThanOrEqual(tier.From) {
			break
		}

		upper := amount
		if tier.To != nil && tier.To.LessThan(upper) {
			upper = *tier.To
		}
		slice := upper.Sub(tier.From)
		if slice.LessThanOrEqual(decimal.Zero) {
			continue
		}

		if tier.IsPercentage {
			payout = payout.Add(slice.Mul(tier.Rate).Div(hundred))
		} else {
			payout = payout.Add(slice.Mul(tier.Rate))
		}

		if tier.To != nil && amount.LessThanOrEqual(*tier.To) {
			break
		}
	}
	return payout
}
