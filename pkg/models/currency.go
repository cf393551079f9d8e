package models

import "github.com/shopspring/decimal"

// RateTable converts supported currency amounts to the base currency (SAR).
// It is static process-wide configuration injected into the components that
// need it, so tests can swap it without global state.
type RateTable map[Currency]decimal.Decimal

// DefaultRates returns the fixed production rate table.
func DefaultRates() RateTable {
	return RateTable{
		CurrencySAR: decimal.NewFromInt(1),
		CurrencyUSD: decimal.RequireFromString("3.75"),
		CurrencyEUR: decimal.RequireFromString("4.05"),
	}
}

// Normalize converts amount to the base currency. Unknown currency codes
// are treated as already normalized (rate 1.0) rather than failing; this is
// a deliberate lenience to tolerate malformed imports.
func (r RateTable) Normalize(amount decimal.Decimal, currency Currency) decimal.Decimal {
	rate, ok := r[currency]
	if !ok {
		return amount
	}
	return amount.Mul(rate)
}

// SumNormalized returns the normalized total value of the given purchase
// orders.
func (r RateTable) SumNormalized(pos []PurchaseOrder) decimal.Decimal {
	total := decimal.Zero
	for _, po := range pos {
		total = total.Add(r.Normalize(po.Value, po.Currency))
	}
	return total
}
