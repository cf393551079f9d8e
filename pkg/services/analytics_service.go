package services

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/database"
	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/repositories"
)

// PipelineStats summarizes the pre-signature pipeline.
type PipelineStats struct {
	Count                 int                            `json:"count"`
	ByStatus              map[models.AgreementStatus]int `json:"by_status"`
	TotalPotentialCeiling decimal.Decimal                `json:"total_potential_ceiling"`
	AvgProbability        decimal.Decimal                `json:"avg_probability"`
	WeightedValue         decimal.Decimal                `json:"weighted_value"`
}

// MonetizationStats summarizes post-signature monetization health.
type MonetizationStats struct {
	TotalSignedCeiling   decimal.Decimal         `json:"total_signed_ceiling"`
	TotalMonetizedValue  decimal.Decimal         `json:"total_monetized_value"`
	OverallUtilization   decimal.Decimal         `json:"overall_utilization"`
	AgreementsWithoutPOs int                     `json:"agreements_without_pos"`
	ByRisk               map[models.RiskFlag]int `json:"by_risk"`
}

// AccountManagerStats is one account manager's roll-up.
type AccountManagerStats struct {
	AccountManager string          `json:"account_manager"`
	AgreementCount int             `json:"agreement_count"`
	SignedCount    int             `json:"signed_count"`
	SignedCeiling  decimal.Decimal `json:"signed_ceiling"`
	MonetizedValue decimal.Decimal `json:"monetized_value"`
	Utilization    decimal.Decimal `json:"utilization"`
}

// AgingRiskMatrix counts post-signature agreements per aging bucket and
// risk flag. Every bucket/flag cell is present, zero or not.
type AgingRiskMatrix map[models.AgingBucket]map[models.RiskFlag]int

// ForecastData combines the probability-weighted pipeline value with
// monthly monetization history.
type ForecastData struct {
	ExpectedPipelineValue decimal.Decimal            `json:"expected_pipeline_value"`
	MonthlyPOs            map[string]decimal.Decimal `json:"monthly_pos"`
}

// AnalyticsService computes the read-side aggregations. Every call derives
// from current stored data; nothing is cached or incrementally maintained.
type AnalyticsService interface {
	PipelineStats(ctx context.Context) (*PipelineStats, error)
	MonetizationStats(ctx context.Context) (*MonetizationStats, error)
	AccountManagerStats(ctx context.Context) ([]AccountManagerStats, error)
	AgingRiskMatrix(ctx context.Context) (AgingRiskMatrix, error)
	ForecastData(ctx context.Context) (*ForecastData, error)
}

type analyticsService struct {
	db         *database.DB
	agreements repositories.AgreementRepository
	pos        repositories.PORepository
	rates      models.RateTable
	now        func() time.Time
	logger     *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	db *database.DB,
	agreements repositories.AgreementRepository,
	pos repositories.PORepository,
	rates models.RateTable,
	now func() time.Time,
	logger *zap.Logger,
) AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &analyticsService{
		db:         db,
		agreements: agreements,
		pos:        pos,
		rates:      rates,
		now:        now,
		logger:     logger.Named("analytics-service"),
	}
}

var _ AnalyticsService = (*analyticsService)(nil)

func (s *analyticsService) PipelineStats(ctx context.Context) (*PipelineStats, error) {
	agreements, err := s.agreements.List(ctx, s.db, models.AgreementFilter{})
	if err != nil {
		return nil, err
	}

	stats := &PipelineStats{
		ByStatus:              make(map[models.AgreementStatus]int, len(models.PreSignatureStatuses)),
		TotalPotentialCeiling: decimal.Zero,
		AvgProbability:        decimal.Zero,
		WeightedValue:         decimal.Zero,
	}
	for _, status := range models.PreSignatureStatuses {
		stats.ByStatus[status] = 0
	}

	probabilitySum := decimal.Zero
	for _, a := range agreements {
		if !a.Status.PreSignature() {
			continue
		}
		stats.Count++
		stats.ByStatus[a.Status]++

		ceiling := s.rates.Normalize(a.ValueCeiling, a.Currency)
		stats.TotalPotentialCeiling = stats.TotalPotentialCeiling.Add(ceiling)

		prob := decimal.Zero
		if a.ProbabilityToSign != nil {
			prob = *a.ProbabilityToSign
		}
		probabilitySum = probabilitySum.Add(prob)
		stats.WeightedValue = stats.WeightedValue.Add(
			ceiling.Mul(prob).Div(decimal.NewFromInt(100)))
	}

	if stats.Count > 0 {
		stats.AvgProbability = probabilitySum.Div(decimal.NewFromInt(int64(stats.Count)))
	}

	return stats, nil
}

func (s *analyticsService) MonetizationStats(ctx context.Context) (*MonetizationStats, error) {
	views, err := s.postSignatureViews(ctx)
	if err != nil {
		return nil, err
	}

	stats := &MonetizationStats{
		TotalSignedCeiling:  decimal.Zero,
		TotalMonetizedValue: decimal.Zero,
		OverallUtilization:  decimal.Zero,
		ByRisk:              make(map[models.RiskFlag]int, len(models.RiskFlags)),
	}
	for _, flag := range models.RiskFlags {
		stats.ByRisk[flag] = 0
	}

	for _, v := range views {
		stats.TotalSignedCeiling = stats.TotalSignedCeiling.Add(v.CeilingNormalized)
		stats.TotalMonetizedValue = stats.TotalMonetizedValue.Add(v.TotalPOsValue)
		if !v.IsMonetizing {
			stats.AgreementsWithoutPOs++
		}
		stats.ByRisk[v.RiskFlag]++
	}

	if stats.TotalSignedCeiling.IsPositive() {
		stats.OverallUtilization = stats.TotalMonetizedValue.
			Div(stats.TotalSignedCeiling).Mul(decimal.NewFromInt(100))
	}

	return stats, nil
}

func (s *analyticsService) AccountManagerStats(ctx context.Context) ([]AccountManagerStats, error) {
	agreements, err := s.agreements.List(ctx, s.db, models.AgreementFilter{})
	if err != nil {
		return nil, err
	}

	byManager := make(map[string]*AccountManagerStats)
	for _, a := range agreements {
		m, ok := byManager[a.AccountManager]
		if !ok {
			m = &AccountManagerStats{
				AccountManager: a.AccountManager,
				SignedCeiling:  decimal.Zero,
				MonetizedValue: decimal.Zero,
				Utilization:    decimal.Zero,
			}
			byManager[a.AccountManager] = m
		}
		m.AgreementCount++

		if !a.Status.PostSignature() {
			continue
		}
		m.SignedCount++
		m.SignedCeiling = m.SignedCeiling.Add(s.rates.Normalize(a.ValueCeiling, a.Currency))

		pos, err := s.pos.ListByAgreement(ctx, s.db, a.ID)
		if err != nil {
			return nil, err
		}
		m.MonetizedValue = m.MonetizedValue.Add(s.rates.SumNormalized(pos))
	}

	stats := make([]AccountManagerStats, 0, len(byManager))
	for _, m := range byManager {
		if m.SignedCeiling.IsPositive() {
			m.Utilization = m.MonetizedValue.Div(m.SignedCeiling).Mul(decimal.NewFromInt(100))
		}
		stats = append(stats, *m)
	}

	sort.Slice(stats, func(i, j int) bool {
		if !stats[i].MonetizedValue.Equal(stats[j].MonetizedValue) {
			return stats[i].MonetizedValue.GreaterThan(stats[j].MonetizedValue)
		}
		return stats[i].AccountManager < stats[j].AccountManager
	})

	return stats, nil
}

func (s *analyticsService) AgingRiskMatrix(ctx context.Context) (AgingRiskMatrix, error) {
	views, err := s.postSignatureViews(ctx)
	if err != nil {
		return nil, err
	}

	matrix := make(AgingRiskMatrix, len(models.AgingBuckets))
	for _, bucket := range models.AgingBuckets {
		row := make(map[models.RiskFlag]int, len(models.RiskFlags))
		for _, flag := range models.RiskFlags {
			row[flag] = 0
		}
		matrix[bucket] = row
	}

	for _, v := range views {
		if v.AgingBucket == nil {
			continue
		}
		matrix[*v.AgingBucket][v.RiskFlag]++
	}

	return matrix, nil
}

func (s *analyticsService) ForecastData(ctx context.Context) (*ForecastData, error) {
	agreements, err := s.agreements.List(ctx, s.db, models.AgreementFilter{})
	if err != nil {
		return nil, err
	}

	data := &ForecastData{
		ExpectedPipelineValue: decimal.Zero,
		MonthlyPOs:            make(map[string]decimal.Decimal),
	}

	for _, a := range agreements {
		if !a.Status.PreSignature() {
			continue
		}
		prob := decimal.Zero
		if a.ProbabilityToSign != nil {
			prob = *a.ProbabilityToSign
		}
		ceiling := s.rates.Normalize(a.ValueCeiling, a.Currency)
		data.ExpectedPipelineValue = data.ExpectedPipelineValue.Add(
			ceiling.Mul(prob).Div(decimal.NewFromInt(100)))
	}

	pos, err := s.pos.ListAll(ctx, s.db)
	if err != nil {
		return nil, err
	}
	for _, po := range pos {
		month := po.Date.Format("2006-01")
		data.MonthlyPOs[month] = data.MonthlyPOs[month].Add(
			s.rates.Normalize(po.Value, po.Currency))
	}

	return data, nil
}

// postSignatureViews loads every Signed/Active agreement with derived
// fields, the shared input of the monetization and matrix aggregations.
func (s *analyticsService) postSignatureViews(ctx context.Context) ([]*models.AgreementView, error) {
	views := make([]*models.AgreementView, 0)
	today := s.now()

	for _, status := range models.PostSignatureStatuses {
		agreements, err := s.agreements.List(ctx, s.db, models.AgreementFilter{Status: status})
		if err != nil {
			return nil, err
		}
		for _, a := range agreements {
			pos, err := s.pos.ListByAgreement(ctx, s.db, a.ID)
			if err != nil {
				return nil, err
			}
			views = append(views, &models.AgreementView{
				Agreement:     *a,
				DerivedFields: models.DeriveFromPOs(a, pos, s.rates, today),
			})
		}
	}

	return views, nil
}
