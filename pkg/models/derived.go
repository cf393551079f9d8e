package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Risk thresholds, in days since signature. Fixed business constants.
const (
	riskRedIdleDays   = 90 // no POs beyond this is Red
	riskAmberIdleDays = 31 // no POs from here up to riskRedIdleDays is Amber
	riskLowUtilDays   = 60 // low utilization beyond this is Amber
	agingUnder30Bound = 30
	aging30To60Bound  = 60
	aging61To90Bound  = 90
)

// riskLowUtilPercent is the utilization floor for the Amber rule.
var riskLowUtilPercent = decimal.NewFromInt(10)

// DerivedFields are computed from an agreement's stored fields and its
// purchase orders on every read. They are never persisted, so they can
// never drift out of sync with source data.
type DerivedFields struct {
	TotalPOsValue      decimal.Decimal `json:"total_pos_value_to_date"`
	CeilingNormalized  decimal.Decimal `json:"ceiling_normalized"`
	UtilizationPercent decimal.Decimal `json:"utilization_percent"`
	IsMonetizing       bool            `json:"is_monetizing"`
	DaysSinceSignature *int            `json:"days_since_signature"`
	AgingBucket        *AgingBucket    `json:"aging_bucket"`
	RiskFlag           RiskFlag        `json:"risk_flag"`
}

// Derive computes the derived fields for an agreement. totalPOs is the
// normalized sum of the agreement's purchase-order values; today anchors the
// aging computation so callers (and tests) control the clock.
func Derive(a *Agreement, totalPOs decimal.Decimal, rates RateTable, today time.Time) DerivedFields {
	ceiling := rates.Normalize(a.ValueCeiling, a.Currency)

	d := DerivedFields{
		TotalPOsValue:      totalPOs,
		CeilingNormalized:  ceiling,
		UtilizationPercent: utilization(totalPOs, ceiling),
		IsMonetizing:       totalPOs.IsPositive(),
	}

	if a.SignedDate != nil {
		days := daysBetween(*a.SignedDate, today)
		bucket := agingBucket(days)
		d.DaysSinceSignature = &days
		d.AgingBucket = &bucket
	}

	d.RiskFlag = riskFlag(a.Status, d.DaysSinceSignature, totalPOs, d.UtilizationPercent)
	return d
}

// DeriveFromPOs is Derive with the purchase orders themselves; it normalizes
// and sums them first.
func DeriveFromPOs(a *Agreement, pos []PurchaseOrder, rates RateTable, today time.Time) DerivedFields {
	return Derive(a, rates.SumNormalized(pos), rates, today)
}

// utilization is monetized value as a percentage of the normalized ceiling,
// 0 when the ceiling is non-positive (defensive; the stored invariant
// forbids it).
func utilization(totalPOs, ceiling decimal.Decimal) decimal.Decimal {
	if !ceiling.IsPositive() {
		return decimal.Zero
	}
	return totalPOs.Div(ceiling).Mul(decimal.NewFromInt(100))
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

func agingBucket(days int) AgingBucket {
	switch {
	case days < agingUnder30Bound:
		return AgingUnder30
	case days <= aging30To60Bound:
		return Aging30To60
	case days <= aging61To90Bound:
		return Aging61To90
	default:
		return AgingOver90
	}
}

// riskFlag applies the monetization health rules. Pre-signature agreements
// are always Green. A Signed/Active agreement with an unknown signature age
// should not occur, but is treated as Green rather than failing.
func riskFlag(status AgreementStatus, days *int, totalPOs, utilizationPct decimal.Decimal) RiskFlag {
	if !status.PostSignature() {
		return RiskGreen
	}
	if days == nil {
		return RiskGreen
	}

	noPOs := totalPOs.IsZero()

	if *days > riskRedIdleDays && noPOs {
		return RiskRed
	}
	if (*days >= riskAmberIdleDays && *days <= riskRedIdleDays && noPOs) ||
		(*days > riskLowUtilDays && utilizationPct.LessThan(riskLowUtilPercent)) {
		return RiskAmber
	}
	return RiskGreen
}
