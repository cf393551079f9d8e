//go:build integration

package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/apperrors"
	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/repositories"
	"github.com/gtmhq/agreements-engine/pkg/testhelpers"
)

// testNow pins the clock for every integration test in this package.
var testNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T) LedgerService {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)

	return NewLedgerService(
		engineDB.DB,
		repositories.NewAgreementRepository(),
		repositories.NewPORepository(),
		repositories.NewStatusHistoryRepository(),
		models.DefaultRates(),
		func() time.Time { return testNow },
		zap.NewNop(),
	)
}

func newTestAgreement(name string) *models.Agreement {
	return &models.Agreement{
		Name:            name,
		CustomerName:    "Riyadh Metro Authority",
		CustomerSegment: models.SegmentGovernment,
		AgreementType:   models.TypeFramework,
		ValueCeiling:    decimal.NewFromInt(500000),
		Currency:        models.CurrencySAR,
		AccountManager:  "Huda Al-Rashid",
	}
}

func TestLedgerService_CreateAgreement(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateAgreement(ctx, newTestAgreement("Create basic"))
	require.NoError(t, err)
	assert.Regexp(t, `^AGR-2026-\d{4}$`, id)

	view, err := ledger.GetAgreement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPipeline, view.Status, "status defaults to Pipeline")
	assert.Equal(t, models.CurrencySAR, view.Currency)
	assert.Equal(t, models.RiskGreen, view.RiskFlag, "pre-signature is always Green")
	assert.False(t, view.IsMonetizing)

	history, err := ledger.GetStatusHistory(ctx, id)
	require.NoError(t, err)
	require.Len(t, history, 1, "creation logs the initial status")
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, models.StatusPipeline, history[0].NewStatus)
}

func TestLedgerService_CreateAgreement_SequentialIDs(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	first, err := ledger.CreateAgreement(ctx, newTestAgreement("Sequence A"))
	require.NoError(t, err)
	second, err := ledger.CreateAgreement(ctx, newTestAgreement("Sequence B"))
	require.NoError(t, err)

	var a, b int
	_, err = fmt.Sscanf(first, "AGR-2026-%04d", &a)
	require.NoError(t, err)
	_, err = fmt.Sscanf(second, "AGR-2026-%04d", &b)
	require.NoError(t, err)
	assert.Equal(t, a+1, b)
}

func TestLedgerService_CreateAgreement_Validation(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(a *models.Agreement)
	}{
		{"missing name", func(a *models.Agreement) { a.Name = "" }},
		{"missing customer", func(a *models.Agreement) { a.CustomerName = "" }},
		{"missing account manager", func(a *models.Agreement) { a.AccountManager = "" }},
		{"zero ceiling", func(a *models.Agreement) { a.ValueCeiling = decimal.Zero }},
		{"negative ceiling", func(a *models.Agreement) { a.ValueCeiling = decimal.NewFromInt(-1) }},
		{"unknown segment", func(a *models.Agreement) { a.CustomerSegment = "Startup" }},
		{"unknown currency", func(a *models.Agreement) { a.Currency = "GBP" }},
		{"post-signature initial status", func(a *models.Agreement) { a.Status = models.StatusActive }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAgreement("Validation " + tt.name)
			tt.mutate(a)
			_, err := ledger.CreateAgreement(ctx, a)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestLedgerService_UpdateAgreement_Transitions(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateAgreement(ctx, newTestAgreement("Transitions"))
	require.NoError(t, err)

	// Pipeline -> Active is not an allowed edge.
	active := models.StatusActive
	_, err = ledger.UpdateAgreement(ctx, id, &models.AgreementUpdate{Status: &active})
	var transitionErr *apperrors.InvalidTransitionError
	require.ErrorAs(t, err, &transitionErr)
	assert.Equal(t, "Pipeline", transitionErr.From)
	assert.Equal(t, "Active", transitionErr.To)

	// Same-status update is a no-op and never fails.
	pipeline := models.StatusPipeline
	notes := "still negotiating"
	view, err := ledger.UpdateAgreement(ctx, id, &models.AgreementUpdate{Status: &pipeline, Notes: &notes})
	require.NoError(t, err)
	assert.Equal(t, "still negotiating", view.Notes)

	history, err := ledger.GetStatusHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 1, "same-status update must not log a transition")

	// Walk the happy path to Signed.
	for _, status := range []models.AgreementStatus{
		models.StatusDraft, models.StatusLegalReview, models.StatusSignaturePending, models.StatusSigned,
	} {
		status := status
		view, err = ledger.UpdateAgreement(ctx, id, &models.AgreementUpdate{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, status, view.Status)
	}

	require.NotNil(t, view.SignedDate, "entering Signed defaults the signed date")
	assert.Equal(t, testNow.Format("2006-01-02"), view.SignedDate.Format("2006-01-02"))

	history, err = ledger.GetStatusHistory(ctx, id)
	require.NoError(t, err)
	assert.Len(t, history, 5)

	// Terminal states have no outgoing edges.
	terminated := models.StatusTerminated
	_, err = ledger.UpdateAgreement(ctx, id, &models.AgreementUpdate{Status: &terminated})
	require.NoError(t, err)
	draft := models.StatusDraft
	_, err = ledger.UpdateAgreement(ctx, id, &models.AgreementUpdate{Status: &draft})
	assert.ErrorAs(t, err, &transitionErr)
}

func TestLedgerService_UpdateAgreement_NotFound(t *testing.T) {
	ledger := newTestLedger(t)

	notes := "x"
	_, err := ledger.UpdateAgreement(context.Background(), "AGR-2026-9999", &models.AgreementUpdate{Notes: &notes})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLedgerService_CreatePO_CeilingEnforcement(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	a := newTestAgreement("Ceiling USD")
	a.ValueCeiling = decimal.NewFromInt(1000)
	a.Currency = models.CurrencyUSD
	id, err := ledger.CreateAgreement(ctx, a)
	require.NoError(t, err)
	signAgreement(t, ledger, id)

	// 200 USD -> 750 SAR against a 3750 SAR ceiling.
	poID, err := ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(200),
		Currency:    models.CurrencyUSD,
	}, false)
	require.NoError(t, err)
	assert.Regexp(t, `^PO-2026-\d{4}-\d{3}$`, poID)

	view, err := ledger.GetAgreement(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.CeilingNormalized.Equal(decimal.NewFromInt(3750)))
	assert.True(t, view.TotalPOsValue.Equal(decimal.NewFromInt(750)))
	assert.True(t, view.UtilizationPercent.Equal(decimal.NewFromInt(20)))
	assert.True(t, view.IsMonetizing)

	// 900 USD more would be 750 + 3375 = 4125 > 3750.
	_, err = ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(900),
		Currency:    models.CurrencyUSD,
	}, false)
	var ceilingErr *apperrors.CeilingExceededError
	require.ErrorAs(t, err, &ceilingErr)
	assert.True(t, ceilingErr.CurrentTotal.Equal(decimal.NewFromInt(750)))
	assert.True(t, ceilingErr.NewValue.Equal(decimal.NewFromInt(3375)))
	assert.True(t, ceilingErr.Ceiling.Equal(decimal.NewFromInt(3750)))

	// With override the same PO succeeds and the total reflects it.
	_, err = ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(900),
		Currency:    models.CurrencyUSD,
	}, true)
	require.NoError(t, err)

	view, err = ledger.GetAgreement(ctx, id)
	require.NoError(t, err)
	assert.True(t, view.TotalPOsValue.Equal(decimal.NewFromInt(4125)))
}

func TestLedgerService_CreatePO_Defaults(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateAgreement(ctx, newTestAgreement("PO defaults"))
	require.NoError(t, err)
	signAgreement(t, ledger, id)

	poID, err := ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(1000),
	}, false)
	require.NoError(t, err)

	po, err := ledger.GetPO(ctx, poID)
	require.NoError(t, err)
	assert.Equal(t, models.CurrencySAR, po.Currency)
	assert.Equal(t, "Riyadh Metro Authority", po.CustomerName, "customer defaults from parent")
	assert.Equal(t, "Huda Al-Rashid", po.AccountManager, "account manager defaults from parent")
	assert.Equal(t, testNow.Format("2006-01-02"), po.Date.Format("2006-01-02"))
}

func TestLedgerService_CreatePO_UnknownAgreement(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.CreatePO(context.Background(), &models.PurchaseOrder{
		AgreementID: "AGR-2026-9999",
		Value:       decimal.NewFromInt(100),
	}, false)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestLedgerService_DeleteAgreement_Cascades(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateAgreement(ctx, newTestAgreement("Cascade delete"))
	require.NoError(t, err)
	signAgreement(t, ledger, id)

	poID, err := ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(100),
	}, false)
	require.NoError(t, err)

	removed, err := ledger.DeleteAgreement(ctx, id)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = ledger.GetAgreement(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = ledger.GetPO(ctx, poID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Idempotent on unknown id.
	removed, err = ledger.DeleteAgreement(ctx, id)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLedgerService_DeletePO_NoCeilingRecheck(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	id, err := ledger.CreateAgreement(ctx, newTestAgreement("Delete PO"))
	require.NoError(t, err)
	signAgreement(t, ledger, id)

	poID, err := ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(100),
	}, false)
	require.NoError(t, err)

	removed, err := ledger.DeletePO(ctx, poID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = ledger.DeletePO(ctx, poID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLedgerService_ListAgreements_Filters(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()

	a := newTestAgreement("Filter target")
	a.AccountManager = "Filter Manager Alpha"
	a.CustomerName = "Unique Filter Customer"
	_, err := ledger.CreateAgreement(ctx, a)
	require.NoError(t, err)

	views, err := ledger.ListAgreements(ctx, models.AgreementFilter{AccountManager: "Filter Manager Alpha"})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Filter target", views[0].Name)

	// Substring, case-insensitive customer match.
	views, err = ledger.ListAgreements(ctx, models.AgreementFilter{CustomerName: "unique filter"})
	require.NoError(t, err)
	require.Len(t, views, 1)

	views, err = ledger.ListAgreements(ctx, models.AgreementFilter{AccountManager: "Nobody At All"})
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestLedgerService_GetStatusHistory_UnknownAgreement(t *testing.T) {
	ledger := newTestLedger(t)

	_, err := ledger.GetStatusHistory(context.Background(), "AGR-2026-9999")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// signAgreement walks an agreement from Pipeline to Signed.
func signAgreement(t *testing.T, ledger LedgerService, id string) {
	t.Helper()
	for _, status := range []models.AgreementStatus{
		models.StatusDraft, models.StatusLegalReview, models.StatusSignaturePending, models.StatusSigned,
	} {
		status := status
		_, err := ledger.UpdateAgreement(context.Background(), id, &models.AgreementUpdate{Status: &status})
		require.NoError(t, err)
	}
}
