package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Agreement is the root entity: a commercial framework agreement tracked
// through the sales-to-monetization lifecycle. Derived fields are never
// stored on it; see Derive.
type Agreement struct {
	ID                    string          `json:"agreement_id"`
	Name                  string          `json:"agreement_name"`
	CustomerName          string          `json:"customer_name"`
	CustomerSegment       CustomerSegment `json:"customer_segment"`
	Region                string          `json:"region,omitempty"`
	Industry              string          `json:"industry,omitempty"`
	AgreementType         AgreementType   `json:"agreement_type"`
	StartDate             *time.Time      `json:"start_date,omitempty"`
	EndDate               *time.Time      `json:"end_date,omitempty"`
	ValueCeiling          decimal.Decimal `json:"agreement_value_ceiling"`
	Currency              Currency        `json:"currency"`
	Status                AgreementStatus `json:"status"`
	StatusDate            time.Time       `json:"status_date"`
	AccountManager        string          `json:"account_manager"`
	SalesOwner            string          `json:"sales_owner,omitempty"`
	PartnershipsVendors   string          `json:"partnerships_vendors,omitempty"`
	ProbabilityToSign     *decimal.Decimal `json:"probability_to_sign,omitempty"`
	ExpectedSignatureDate *time.Time      `json:"expected_signature_date,omitempty"`
	SignedDate            *time.Time      `json:"signed_date,omitempty"`
	RenewalTerms          string          `json:"renewal_terms,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
	LastUpdated           time.Time       `json:"last_updated"`
}

// AgreementUpdate carries a partial update. Nil fields are left untouched.
type AgreementUpdate struct {
	Name                  *string          `json:"agreement_name,omitempty"`
	CustomerName          *string          `json:"customer_name,omitempty"`
	CustomerSegment       *CustomerSegment `json:"customer_segment,omitempty"`
	Region                *string          `json:"region,omitempty"`
	Industry              *string          `json:"industry,omitempty"`
	AgreementType         *AgreementType   `json:"agreement_type,omitempty"`
	StartDate             *time.Time       `json:"start_date,omitempty"`
	EndDate               *time.Time       `json:"end_date,omitempty"`
	ValueCeiling          *decimal.Decimal `json:"agreement_value_ceiling,omitempty"`
	Currency              *Currency        `json:"currency,omitempty"`
	Status                *AgreementStatus `json:"status,omitempty"`
	AccountManager        *string          `json:"account_manager,omitempty"`
	SalesOwner            *string          `json:"sales_owner,omitempty"`
	PartnershipsVendors   *string          `json:"partnerships_vendors,omitempty"`
	ProbabilityToSign     *decimal.Decimal `json:"probability_to_sign,omitempty"`
	ExpectedSignatureDate *time.Time       `json:"expected_signature_date,omitempty"`
	SignedDate            *time.Time       `json:"signed_date,omitempty"`
	RenewalTerms          *string          `json:"renewal_terms,omitempty"`
	Notes                 *string          `json:"notes,omitempty"`
}

// AgreementFilter narrows ListAgreements. Zero values mean no filter.
type AgreementFilter struct {
	Status          AgreementStatus
	AccountManager  string
	CustomerName    string // substring match
	Region          string
	Industry        string
	CustomerSegment CustomerSegment
}

// AgreementView is an agreement with its derived fields, the shape every
// read path returns.
type AgreementView struct {
	Agreement
	DerivedFields
}
