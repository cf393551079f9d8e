// Package services implements the business operations of the agreements
// engine: the ledger (agreements + purchase orders), the aggregation
// engine, and bulk transfer.
package services

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gtmhq/agreements-engine/pkg/apperrors"
	"github.com/gtmhq/agreements-engine/pkg/database"
	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/repositories"
)

// LedgerService owns creation, update, and deletion of agreements and
// purchase orders, enforcing the lifecycle state machine and the ceiling
// invariant. Every read path derives the computed fields fresh from stored
// data.
type LedgerService interface {
	// CreateAgreement assigns a new sequential id, defaults status to
	// Pipeline and status_date to today, and records the initial
	// transition-log entry. Returns the new id.
	CreateAgreement(ctx context.Context, a *models.Agreement) (string, error)

	// UpdateAgreement applies a partial update. A status change is
	// validated by the state machine and logged; a same-status update is a
	// no-op. Returns the updated agreement with derived fields.
	UpdateAgreement(ctx context.Context, id string, upd *models.AgreementUpdate) (*models.AgreementView, error)

	// DeleteAgreement removes the agreement, its purchase orders, and its
	// transition log. Reports whether an agreement was actually removed.
	DeleteAgreement(ctx context.Context, id string) (bool, error)

	GetAgreement(ctx context.Context, id string) (*models.AgreementView, error)
	ListAgreements(ctx context.Context, filter models.AgreementFilter) ([]*models.AgreementView, error)
	GetStatusHistory(ctx context.Context, id string) ([]models.StatusTransition, error)

	// CreatePO checks the new purchase order's normalized value plus the
	// agreement's current normalized total against the normalized ceiling,
	// unless overrideCeiling is set. Returns the new id.
	CreatePO(ctx context.Context, po *models.PurchaseOrder, overrideCeiling bool) (string, error)

	// DeletePO removes a purchase order without re-validating any ceiling;
	// ceilings are only checked on creation.
	DeletePO(ctx context.Context, id string) (bool, error)

	GetPO(ctx context.Context, id string) (*models.PurchaseOrder, error)
	ListPOs(ctx context.Context, agreementID string) ([]models.PurchaseOrder, error)
	ListAllPOs(ctx context.Context) ([]models.PurchaseOrder, error)
}

type ledgerService struct {
	db         *database.DB
	agreements repositories.AgreementRepository
	pos        repositories.PORepository
	history    repositories.StatusHistoryRepository
	rates      models.RateTable
	now        func() time.Time
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService. The rate table and clock
// are injected so tests can pin both.
func NewLedgerService(
	db *database.DB,
	agreements repositories.AgreementRepository,
	pos repositories.PORepository,
	history repositories.StatusHistoryRepository,
	rates models.RateTable,
	now func() time.Time,
	logger *zap.Logger,
) LedgerService {
	if now == nil {
		now = time.Now
	}
	return &ledgerService{
		db:         db,
		agreements: agreements,
		pos:        pos,
		history:    history,
		rates:      rates,
		now:        now,
		logger:     logger.Named("ledger-service"),
	}
}

var _ LedgerService = (*ledgerService)(nil)

func (s *ledgerService) CreateAgreement(ctx context.Context, a *models.Agreement) (string, error) {
	if err := validateNewAgreement(a); err != nil {
		return "", err
	}

	now := s.now()
	if a.Status == "" {
		a.Status = models.StatusPipeline
	}
	if a.Currency == "" {
		a.Currency = models.CurrencySAR
	}
	if a.StatusDate.IsZero() {
		a.StatusDate = now
	}
	a.CreatedAt = now
	a.LastUpdated = now

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		id, err := s.agreements.NextID(ctx, tx, now.Year())
		if err != nil {
			return err
		}
		a.ID = id

		if err := s.agreements.Create(ctx, tx, a); err != nil {
			return err
		}

		return s.history.Append(ctx, tx, &models.StatusTransition{
			AgreementID: a.ID,
			NewStatus:   a.Status,
			ChangedAt:   now,
		})
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Created agreement",
		zap.String("agreement_id", a.ID),
		zap.String("status", string(a.Status)))

	return a.ID, nil
}

func (s *ledgerService) UpdateAgreement(ctx context.Context, id string, upd *models.AgreementUpdate) (*models.AgreementView, error) {
	now := s.now()

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		current, err := s.agreements.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}

		oldStatus := current.Status
		if err := applyUpdate(current, upd); err != nil {
			return err
		}

		statusChanged := upd.Status != nil && *upd.Status != oldStatus
		if statusChanged {
			if !models.CanTransition(oldStatus, current.Status) {
				return &apperrors.InvalidTransitionError{
					From: string(oldStatus),
					To:   string(current.Status),
				}
			}
			current.StatusDate = now
			if current.Status == models.StatusSigned && current.SignedDate == nil {
				current.SignedDate = &now
			}
		}

		current.LastUpdated = now
		if err := s.agreements.Update(ctx, tx, current); err != nil {
			return err
		}

		if statusChanged {
			return s.history.Append(ctx, tx, &models.StatusTransition{
				AgreementID: id,
				OldStatus:   &oldStatus,
				NewStatus:   current.Status,
				ChangedAt:   now,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Updated agreement", zap.String("agreement_id", id))

	return s.GetAgreement(ctx, id)
}

func (s *ledgerService) DeleteAgreement(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if err := s.pos.DeleteByAgreement(ctx, tx, id); err != nil {
			return err
		}
		if err := s.history.DeleteByAgreement(ctx, tx, id); err != nil {
			return err
		}
		var err error
		removed, err = s.agreements.Delete(ctx, tx, id)
		return err
	})
	if err != nil {
		return false, err
	}

	if removed {
		s.logger.Info("Deleted agreement", zap.String("agreement_id", id))
	}
	return removed, nil
}

func (s *ledgerService) GetAgreement(ctx context.Context, id string) (*models.AgreementView, error) {
	a, err := s.agreements.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	pos, err := s.pos.ListByAgreement(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	return s.view(a, pos), nil
}

func (s *ledgerService) ListAgreements(ctx context.Context, filter models.AgreementFilter) ([]*models.AgreementView, error) {
	agreements, err := s.agreements.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	views := make([]*models.AgreementView, 0, len(agreements))
	for _, a := range agreements {
		pos, err := s.pos.ListByAgreement(ctx, s.db, a.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, s.view(a, pos))
	}

	return views, nil
}

func (s *ledgerService) GetStatusHistory(ctx context.Context, id string) ([]models.StatusTransition, error) {
	if _, err := s.agreements.Get(ctx, s.db, id); err != nil {
		return nil, err
	}
	return s.history.ListByAgreement(ctx, s.db, id)
}

func (s *ledgerService) CreatePO(ctx context.Context, po *models.PurchaseOrder, overrideCeiling bool) (string, error) {
	if err := validateNewPO(po); err != nil {
		return "", err
	}

	now := s.now()
	if po.Currency == "" {
		po.Currency = models.CurrencySAR
	}
	if po.Date.IsZero() {
		po.Date = now
	}
	po.CreatedAt = now
	po.LastUpdated = now

	err := database.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		// Row lock serializes the check-then-insert against concurrent PO
		// creation on the same agreement.
		agreement, err := s.agreements.GetForUpdate(ctx, tx, po.AgreementID)
		if err != nil {
			return err
		}

		existing, err := s.pos.ListByAgreement(ctx, tx, po.AgreementID)
		if err != nil {
			return err
		}

		currentTotal := s.rates.SumNormalized(existing)
		newValue := s.rates.Normalize(po.Value, po.Currency)
		ceiling := s.rates.Normalize(agreement.ValueCeiling, agreement.Currency)

		if currentTotal.Add(newValue).GreaterThan(ceiling) && !overrideCeiling {
			return &apperrors.CeilingExceededError{
				CurrentTotal: currentTotal,
				NewValue:     newValue,
				Ceiling:      ceiling,
			}
		}

		id, err := s.pos.NextID(ctx, tx, po.AgreementID)
		if err != nil {
			return err
		}
		po.ID = id

		if po.CustomerName == "" {
			po.CustomerName = agreement.CustomerName
		}
		if po.AccountManager == "" {
			po.AccountManager = agreement.AccountManager
		}

		return s.pos.Create(ctx, tx, po)
	})
	if err != nil {
		return "", err
	}

	s.logger.Info("Created purchase order",
		zap.String("po_id", po.ID),
		zap.String("agreement_id", po.AgreementID))

	return po.ID, nil
}

func (s *ledgerService) DeletePO(ctx context.Context, id string) (bool, error) {
	removed, err := s.pos.Delete(ctx, s.db, id)
	if err != nil {
		return false, err
	}

	if removed {
		s.logger.Info("Deleted purchase order", zap.String("po_id", id))
	}
	return removed, nil
}

func (s *ledgerService) GetPO(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	return s.pos.Get(ctx, s.db, id)
}

func (s *ledgerService) ListPOs(ctx context.Context, agreementID string) ([]models.PurchaseOrder, error) {
	if _, err := s.agreements.Get(ctx, s.db, agreementID); err != nil {
		return nil, err
	}
	return s.pos.ListByAgreement(ctx, s.db, agreementID)
}

func (s *ledgerService) ListAllPOs(ctx context.Context) ([]models.PurchaseOrder, error) {
	return s.pos.ListAll(ctx, s.db)
}

func (s *ledgerService) view(a *models.Agreement, pos []models.PurchaseOrder) *models.AgreementView {
	return &models.AgreementView{
		Agreement:     *a,
		DerivedFields: models.DeriveFromPOs(a, pos, s.rates, s.now()),
	}
}

func validateNewAgreement(a *models.Agreement) error {
	if a.Name == "" {
		return apperrors.NewValidationError("agreement_name", "required")
	}
	if a.CustomerName == "" {
		return apperrors.NewValidationError("customer_name", "required")
	}
	if a.AccountManager == "" {
		return apperrors.NewValidationError("account_manager", "required")
	}
	if !a.ValueCeiling.IsPositive() {
		return apperrors.NewValidationError("agreement_value_ceiling", "must be greater than zero")
	}
	if !a.CustomerSegment.Valid() {
		return apperrors.NewValidationError("customer_segment", "unknown value")
	}
	if !a.AgreementType.Valid() {
		return apperrors.NewValidationError("agreement_type", "unknown value")
	}
	if a.Currency != "" && !a.Currency.Valid() {
		return apperrors.NewValidationError("currency", "unknown value")
	}
	if a.Status != "" {
		if !a.Status.Valid() {
			return apperrors.NewValidationError("status", "unknown value")
		}
		// Creation is not a transition; it must not skip the pre-signature
		// stages of the state machine.
		if !a.Status.PreSignature() {
			return apperrors.NewValidationError("status", "initial status must be pre-signature")
		}
	}
	return validateProbability(a.ProbabilityToSign)
}

func applyUpdate(a *models.Agreement, upd *models.AgreementUpdate) error {
	if upd.Name != nil {
		if *upd.Name == "" {
			return apperrors.NewValidationError("agreement_name", "required")
		}
		a.Name = *upd.Name
	}
	if upd.CustomerName != nil {
		if *upd.CustomerName == "" {
			return apperrors.NewValidationError("customer_name", "required")
		}
		a.CustomerName = *upd.CustomerName
	}
	if upd.AccountManager != nil {
		if *upd.AccountManager == "" {
			return apperrors.NewValidationError("account_manager", "required")
		}
		a.AccountManager = *upd.AccountManager
	}
	if upd.CustomerSegment != nil {
		if !upd.CustomerSegment.Valid() {
			return apperrors.NewValidationError("customer_segment", "unknown value")
		}
		a.CustomerSegment = *upd.CustomerSegment
	}
	if upd.AgreementType != nil {
		if !upd.AgreementType.Valid() {
			return apperrors.NewValidationError("agreement_type", "unknown value")
		}
		a.AgreementType = *upd.AgreementType
	}
	if upd.ValueCeiling != nil {
		if !upd.ValueCeiling.IsPositive() {
			return apperrors.NewValidationError("agreement_value_ceiling", "must be greater than zero")
		}
		a.ValueCeiling = *upd.ValueCeiling
	}
	if upd.Currency != nil {
		if !upd.Currency.Valid() {
			return apperrors.NewValidationError("currency", "unknown value")
		}
		a.Currency = *upd.Currency
	}
	if upd.Status != nil {
		if !upd.Status.Valid() {
			return apperrors.NewValidationError("status", "unknown value")
		}
		a.Status = *upd.Status
	}
	if upd.ProbabilityToSign != nil {
		if err := validateProbability(upd.ProbabilityToSign); err != nil {
			return err
		}
		a.ProbabilityToSign = upd.ProbabilityToSign
	}
	if upd.Region != nil {
		a.Region = *upd.Region
	}
	if upd.Industry != nil {
		a.Industry = *upd.Industry
	}
	if upd.StartDate != nil {
		a.StartDate = upd.StartDate
	}
	if upd.EndDate != nil {
		a.EndDate = upd.EndDate
	}
	if upd.SalesOwner != nil {
		a.SalesOwner = *upd.SalesOwner
	}
	if upd.PartnershipsVendors != nil {
		a.PartnershipsVendors = *upd.PartnershipsVendors
	}
	if upd.ExpectedSignatureDate != nil {
		a.ExpectedSignatureDate = upd.ExpectedSignatureDate
	}
	if upd.SignedDate != nil {
		a.SignedDate = upd.SignedDate
	}
	if upd.RenewalTerms != nil {
		a.RenewalTerms = *upd.RenewalTerms
	}
	if upd.Notes != nil {
		a.Notes = *upd.Notes
	}
	return nil
}

func validateProbability(p *decimal.Decimal) error {
	if p == nil {
		return nil
	}
	if p.IsNegative() || p.GreaterThan(decimal.NewFromInt(100)) {
		return apperrors.NewValidationError("probability_to_sign", "must be between 0 and 100")
	}
	return nil
}

func validateNewPO(po *models.PurchaseOrder) error {
	if po.AgreementID == "" {
		return apperrors.NewValidationError("agreement_id", "required")
	}
	if !po.Value.IsPositive() {
		return apperrors.NewValidationError("po_value", "must be greater than zero")
	}
	if po.Currency != "" && !po.Currency.Valid() {
		return apperrors.NewValidationError("currency", "unknown value")
	}
	return nil
}
