// Package models contains domain types for the agreements engine.
package models

import "fmt"

// CustomerSegment classifies the customer behind an agreement.
type CustomerSegment string

const (
	SegmentGovernment CustomerSegment = "Government"
	SegmentSmartCity  CustomerSegment = "SmartCity"
	SegmentEnterprise CustomerSegment = "Enterprise"
	SegmentSME        CustomerSegment = "SME"
	SegmentOther      CustomerSegment = "Other"
)

// Valid reports whether the segment is one of the closed set.
func (s CustomerSegment) Valid() bool {
	switch s {
	case SegmentGovernment, SegmentSmartCity, SegmentEnterprise, SegmentSME, SegmentOther:
		return true
	}
	return false
}

// ParseCustomerSegment validates a raw segment string at the boundary.
func ParseCustomerSegment(s string) (CustomerSegment, error) {
	seg := CustomerSegment(s)
	if !seg.Valid() {
		return "", fmt.Errorf("unknown customer segment %q", s)
	}
	return seg, nil
}

// AgreementType classifies the commercial shape of an agreement.
type AgreementType string

const (
	TypeFramework      AgreementType = "Framework"
	TypeMasterServices AgreementType = "MasterServices"
	TypeBlanketPO      AgreementType = "BlanketPO"
	TypeOther          AgreementType = "Other"
)

func (t AgreementType) Valid() bool {
	switch t {
	case TypeFramework, TypeMasterServices, TypeBlanketPO, TypeOther:
		return true
	}
	return false
}

// ParseAgreementType validates a raw agreement type string at the boundary.
func ParseAgreementType(s string) (AgreementType, error) {
	typ := AgreementType(s)
	if !typ.Valid() {
		return "", fmt.Errorf("unknown agreement type %q", s)
	}
	return typ, nil
}

// AgreementStatus is the lifecycle stage of an agreement.
type AgreementStatus string

const (
	StatusPipeline         AgreementStatus = "Pipeline"
	StatusDraft            AgreementStatus = "Draft"
	StatusLegalReview      AgreementStatus = "LegalReview"
	StatusSignaturePending AgreementStatus = "SignaturePending"
	StatusSigned           AgreementStatus = "Signed"
	StatusActive           AgreementStatus = "Active"
	StatusExpired          AgreementStatus = "Expired"
	StatusTerminated       AgreementStatus = "Terminated"
)

func (s AgreementStatus) Valid() bool {
	switch s {
	case StatusPipeline, StatusDraft, StatusLegalReview, StatusSignaturePending,
		StatusSigned, StatusActive, StatusExpired, StatusTerminated:
		return true
	}
	return false
}

// ParseAgreementStatus validates a raw status string at the boundary.
func ParseAgreementStatus(s string) (AgreementStatus, error) {
	status := AgreementStatus(s)
	if !status.Valid() {
		return "", fmt.Errorf("unknown agreement status %q", s)
	}
	return status, nil
}

// PreSignatureStatuses are the stages before a signature exists, in
// lifecycle order.
var PreSignatureStatuses = []AgreementStatus{
	StatusPipeline,
	StatusDraft,
	StatusLegalReview,
	StatusSignaturePending,
}

// PostSignatureStatuses are the stages where monetization is expected.
var PostSignatureStatuses = []AgreementStatus{
	StatusSigned,
	StatusActive,
}

// PreSignature reports whether the status precedes signature.
func (s AgreementStatus) PreSignature() bool {
	switch s {
	case StatusPipeline, StatusDraft, StatusLegalReview, StatusSignaturePending:
		return true
	}
	return false
}

// PostSignature reports whether the status is Signed or Active.
func (s AgreementStatus) PostSignature() bool {
	return s == StatusSigned || s == StatusActive
}

// Currency is a supported agreement or purchase-order currency.
type Currency string

const (
	CurrencySAR Currency = "SAR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencySAR, CurrencyUSD, CurrencyEUR:
		return true
	}
	return false
}

// ParseCurrency validates a raw currency code at the boundary.
func ParseCurrency(s string) (Currency, error) {
	cur := Currency(s)
	if !cur.Valid() {
		return "", fmt.Errorf("unknown currency %q", s)
	}
	return cur, nil
}

// RiskFlag is the traffic-light monetization health of a signed agreement.
type RiskFlag string

const (
	RiskGreen RiskFlag = "Green"
	RiskAmber RiskFlag = "Amber"
	RiskRed   RiskFlag = "Red"
)

// RiskFlags lists all flags in severity order.
var RiskFlags = []RiskFlag{RiskGreen, RiskAmber, RiskRed}

// AgingBucket is a coarse classification of days elapsed since signature.
type AgingBucket string

const (
	AgingUnder30 AgingBucket = "<30d"
	Aging30To60  AgingBucket = "30-60d"
	Aging61To90  AgingBucket = "61-90d"
	AgingOver90  AgingBucket = ">90d"
)

// AgingBuckets lists all buckets in ascending age order.
var AgingBuckets = []AgingBucket{AgingUnder30, Aging30To60, Aging61To90, AgingOver90}
