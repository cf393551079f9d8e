package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseOrder is a monetization event against an agreement's ceiling.
// Customer name and account manager are denormalized copies defaulted from
// the parent agreement at creation time.
type PurchaseOrder struct {
	ID             string          `json:"po_id"`
	AgreementID    string          `json:"agreement_id"`
	PONumber       string          `json:"po_number,omitempty"`
	Date           time.Time       `json:"po_date"`
	Value          decimal.Decimal `json:"po_value"`
	Currency       Currency        `json:"currency"`
	CustomerName   string          `json:"customer_name"`
	AccountManager string          `json:"account_manager,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	LastUpdated    time.Time       `json:"last_updated"`
}
