package handlers

import (
	"context"

	"github.com/gtmhq/agreements-engine/pkg/models"
	"github.com/gtmhq/agreements-engine/pkg/services"
)

// stubLedger implements services.LedgerService with overridable functions.
// Unset functions panic so tests fail loudly on unexpected calls.
type stubLedger struct {
	createAgreementFn  func(ctx context.Context, a *models.Agreement) (string, error)
	updateAgreementFn  func(ctx context.Context, id string, upd *models.AgreementUpdate) (*models.AgreementView, error)
	deleteAgreementFn  func(ctx context.Context, id string) (bool, error)
	getAgreementFn     func(ctx context.Context, id string) (*models.AgreementView, error)
	listAgreementsFn   func(ctx context.Context, filter models.AgreementFilter) ([]*models.AgreementView, error)
	getStatusHistoryFn func(ctx context.Context, id string) ([]models.StatusTransition, error)
	createPOFn         func(ctx context.Context, po *models.PurchaseOrder, override bool) (string, error)
	deletePOFn         func(ctx context.Context, id string) (bool, error)
	getPOFn            func(ctx context.Context, id string) (*models.PurchaseOrder, error)
	listPOsFn          func(ctx context.Context, agreementID string) ([]models.PurchaseOrder, error)
	listAllPOsFn       func(ctx context.Context) ([]models.PurchaseOrder, error)
}

var _ services.LedgerService = (*stubLedger)(nil)

func (s *stubLedger) CreateAgreement(ctx context.Context, a *models.Agreement) (string, error) {
	return s.createAgreementFn(ctx, a)
}

func (s *stubLedger) UpdateAgreement(ctx context.Context, id string, upd *models.AgreementUpdate) (*models.AgreementView, error) {
	return s.updateAgreementFn(ctx, id, upd)
}

func (s *stubLedger) DeleteAgreement(ctx context.Context, id string) (bool, error) {
	return s.deleteAgreementFn(ctx, id)
}

func (s *stubLedger) GetAgreement(ctx context.Context, id string) (*models.AgreementView, error) {
	return s.getAgreementFn(ctx, id)
}

func (s *stubLedger) ListAgreements(ctx context.Context, filter models.AgreementFilter) ([]*models.AgreementView, error) {
	return s.listAgreementsFn(ctx, filter)
}

func (s *stubLedger) GetStatusHistory(ctx context.Context, id string) ([]models.StatusTransition, error) {
	return s.getStatusHistoryFn(ctx, id)
}

func (s *stubLedger) CreatePO(ctx context.Context, po *models.PurchaseOrder, override bool) (string, error) {
	return s.createPOFn(ctx, po, override)
}

func (s *stubLedger) DeletePO(ctx context.Context, id string) (bool, error) {
	return s.deletePOFn(ctx, id)
}

func (s *stubLedger) GetPO(ctx context.Context, id string) (*models.PurchaseOrder, error) {
	return s.getPOFn(ctx, id)
}

func (s *stubLedger) ListPOs(ctx context.Context, agreementID string) ([]models.PurchaseOrder, error) {
	return s.listPOsFn(ctx, agreementID)
}

func (s *stubLedger) ListAllPOs(ctx context.Context) ([]models.PurchaseOrder, error) {
	return s.listAllPOsFn(ctx)
}
