//go:build integration

package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/repositories"
	"github.com/gtmhq/agreements-engine/pkg/testhelpers"
)

func newTestAnalytics(t *testing.T) AnalyticsService {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)

	return NewAnalyticsService(
		engineDB.DB,
		repositories.NewAgreementRepository(),
		repositories.NewPORepository(),
		models.DefaultRates(),
		func() time.Time { return testNow },
		zap.NewNop(),
	)
}

// The database is shared across the package's tests, so aggregation tests
// assert on deltas against a baseline taken before seeding.

func TestAnalyticsService_PipelineStats(t *testing.T) {
	ledger := newTestLedger(t)
	analytics := newTestAnalytics(t)
	ctx := context.Background()

	baseline, err := analytics.PipelineStats(ctx)
	require.NoError(t, err)

	prob := decimal.NewFromInt(50)
	a := newTestAgreement("Pipeline stats A")
	a.ValueCeiling = decimal.NewFromInt(100000)
	a.ProbabilityToSign = &prob
	_, err = ledger.CreateAgreement(ctx, a)
	require.NoError(t, err)

	b := newTestAgreement("Pipeline stats B")
	b.ValueCeiling = decimal.NewFromInt(1000)
	b.Currency = models.CurrencyUSD
	b.Status = models.StatusDraft
	_, err = ledger.CreateAgreement(ctx, b)
	require.NoError(t, err)

	stats, err := analytics.PipelineStats(ctx)
	require.NoError(t, err)

	assert.Equal(t, baseline.Count+2, stats.Count)
	assert.Equal(t, baseline.ByStatus[models.StatusPipeline]+1, stats.ByStatus[models.StatusPipeline])
	assert.Equal(t, baseline.ByStatus[models.StatusDraft]+1, stats.ByStatus[models.StatusDraft])

	// 100000 SAR + 1000 USD * 3.75.
	ceilingDelta := decimal.NewFromInt(103750)
	assert.True(t, stats.TotalPotentialCeiling.Sub(baseline.TotalPotentialCeiling).Equal(ceilingDelta))

	// Only A carries a probability: 100000 * 50%.
	weightedDelta := decimal.NewFromInt(50000)
	assert.True(t, stats.WeightedValue.Sub(baseline.WeightedValue).Equal(weightedDelta))

	for _, status := range models.PreSignatureStatuses {
		_, ok := stats.ByStatus[status]
		assert.True(t, ok, "every pre-signature status is present, zero or not")
	}
}

func TestAnalyticsService_MonetizationStats(t *testing.T) {
	ledger := newTestLedger(t)
	analytics := newTestAnalytics(t)
	ctx := context.Background()

	baseline, err := analytics.MonetizationStats(ctx)
	require.NoError(t, err)

	// One signed agreement with a PO, one without.
	monetized := newTestAgreement("Monetization with PO")
	monetized.ValueCeiling = decimal.NewFromInt(10000)
	monetizedID, err := ledger.CreateAgreement(ctx, monetized)
	require.NoError(t, err)
	signAgreement(t, ledger, monetizedID)
	_, err = ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: monetizedID,
		Value:       decimal.NewFromInt(2500),
	}, false)
	require.NoError(t, err)

	idle := newTestAgreement("Monetization without PO")
	idle.ValueCeiling = decimal.NewFromInt(5000)
	idleID, err := ledger.CreateAgreement(ctx, idle)
	require.NoError(t, err)
	signAgreement(t, ledger, idleID)

	stats, err := analytics.MonetizationStats(ctx)
	require.NoError(t, err)

	assert.True(t, stats.TotalSignedCeiling.Sub(baseline.TotalSignedCeiling).Equal(decimal.NewFromInt(15000)))
	assert.True(t, stats.TotalMonetizedValue.Sub(baseline.TotalMonetizedValue).Equal(decimal.NewFromInt(2500)))
	assert.Equal(t, baseline.AgreementsWithoutPOs+1, stats.AgreementsWithoutPOs)

	// Both signed today, so both are Green.
	assert.Equal(t, baseline.ByRisk[models.RiskGreen]+2, stats.ByRisk[models.RiskGreen])

	for _, flag := range models.RiskFlags {
		_, ok := stats.ByRisk[flag]
		assert.True(t, ok, "every risk flag is present, zero or not")
	}
}

func TestAnalyticsService_AccountManagerStats(t *testing.T) {
	ledger := newTestLedger(t)
	analytics := newTestAnalytics(t)
	ctx := context.Background()

	a := newTestAgreement("Manager stats signed")
	a.AccountManager = "Manager Stats Unique"
	a.ValueCeiling = decimal.NewFromInt(20000)
	id, err := ledger.CreateAgreement(ctx, a)
	require.NoError(t, err)
	signAgreement(t, ledger, id)
	_, err = ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: id,
		Value:       decimal.NewFromInt(5000),
	}, false)
	require.NoError(t, err)

	b := newTestAgreement("Manager stats pipeline")
	b.AccountManager = "Manager Stats Unique"
	_, err = ledger.CreateAgreement(ctx, b)
	require.NoError(t, err)

	stats, err := analytics.AccountManagerStats(ctx)
	require.NoError(t, err)

	var found *AccountManagerStats
	for i := range stats {
		if stats[i].AccountManager == "Manager Stats Unique" {
			found = &stats[i]
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, 2, found.AgreementCount)
	assert.Equal(t, 1, found.SignedCount)
	assert.True(t, found.SignedCeiling.Equal(decimal.NewFromInt(20000)))
	assert.True(t, found.MonetizedValue.Equal(decimal.NewFromInt(5000)))
	assert.True(t, found.Utilization.Equal(decimal.NewFromInt(25)))

	for i := 1; i < len(stats); i++ {
		assert.True(t, stats[i].MonetizedValue.LessThanOrEqual(stats[i-1].MonetizedValue),
			"sorted descending by monetized value")
	}
}

func TestAnalyticsService_AgingRiskMatrix(t *testing.T) {
	ledger := newTestLedger(t)
	analytics := newTestAnalytics(t)
	ctx := context.Background()

	baseline, err := analytics.AgingRiskMatrix(ctx)
	require.NoError(t, err)

	// Signed today: bucket <30d, Green.
	id, err := ledger.CreateAgreement(ctx, newTestAgreement("Matrix fresh signing"))
	require.NoError(t, err)
	signAgreement(t, ledger, id)

	matrix, err := analytics.AgingRiskMatrix(ctx)
	require.NoError(t, err)

	assert.Equal(t,
		baseline[models.AgingUnder30][models.RiskGreen]+1,
		matrix[models.AgingUnder30][models.RiskGreen])

	for _, bucket := range models.AgingBuckets {
		row, ok := matrix[bucket]
		require.True(t, ok)
		for _, flag := range models.RiskFlags {
			_, ok := row[flag]
			assert.True(t, ok, "every cell is present, zero or not")
		}
	}
}

func TestAnalyticsService_ForecastData(t *testing.T) {
	ledger := newTestLedger(t)
	analytics := newTestAnalytics(t)
	ctx := context.Background()

	baseline, err := analytics.ForecastData(ctx)
	require.NoError(t, err)

	prob := decimal.NewFromInt(40)
	a := newTestAgreement("Forecast pipeline")
	a.ValueCeiling = decimal.NewFromInt(50000)
	a.ProbabilityToSign = &prob
	_, err = ledger.CreateAgreement(ctx, a)
	require.NoError(t, err)

	signed, err := ledger.CreateAgreement(ctx, newTestAgreement("Forecast monetized"))
	require.NoError(t, err)
	signAgreement(t, ledger, signed)
	_, err = ledger.CreatePO(ctx, &models.PurchaseOrder{
		AgreementID: signed,
		Value:       decimal.NewFromInt(3000),
	}, false)
	require.NoError(t, err)

	data, err := analytics.ForecastData(ctx)
	require.NoError(t, err)

	assert.True(t, data.ExpectedPipelineValue.Sub(baseline.ExpectedPipelineValue).Equal(decimal.NewFromInt(20000)))

	month := testNow.Format("2006-01")
	assert.True(t, data.MonthlyPOs[month].Sub(baseline.MonthlyPOs[month]).Equal(decimal.NewFromInt(3000)))
}
