package repositories

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/gtmhq/agreements-engine/pkg/apperrors"
	"github.com/gtmhq/agreements-engine/pkg/database"
	"github.com/gtmhq/agreements-engine/pkg/models"
)

// PORepository provides data access for purchase orders.
type PORepository interface {
	// NextID assigns the next per-agreement sequential id, in the form
	// PO-<agreement suffix>-<3-digit sequence>. Callers must hold the
	// agreement row lock so concurrent creations cannot collide.
	NextID(ctx context.Context, q database.Querier, agreementID string) (string, error)
	Create(ctx context.Context, q database.Querier, po *models.PurchaseOrder) error
	Get(ctx context.Context, q database.Querier, id string) (*models.PurchaseOrder, error)
	ListByAgreement(ctx context.Context, q database.Querier, agreementID string) ([]models.PurchaseOrder, error)
	ListAll(ctx context.Context, q database.Querier) ([]models.PurchaseOrder, error)
	Delete(ctx context.Context, q database.Querier, id string) (bool, error)
	DeleteByAgreement(ctx context.Context, q database.Querier, agreementID string) error
}

type poRepository struct{}

// NewPORepository creates a new PORepository.
func NewPORepository() PORepository {
	return &poRepository{}
}

var _ PORepository = (*poRepository)(nil)

const poColumns = `
	po_id, agreement_id, po_number, po_date, po_value, currency,
	customer_name, account_manager, notes, created_at, last_updated`

func (r *poRepository) NextID(ctx context.Context, q database.Querier, agreementID string) (string, error) {
	var count int
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM pos WHERE agreement_id = $1`, agreementID).Scan(&count)
	if err != nil {
		return "", fmt.Errorf("failed to count purchase orders: %w", err)
	}

	suffix := strings.TrimPrefix(agreementID, "AGR-")
	return fmt.Sprintf("PO-%s-%03d", suffix, count+1), nil
}

func (r *poRepository) Create(ctx context.Context, q database.Querier, po *models.PurchaseOrder) error {
	_, err := q.Exec(ctx, `
		INSERT INTO pos (
			po_id, agreement_id, po_number, po_date, po_value, currency,
			customer_name, account_manager, notes, created_at, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		po.ID,
		po.AgreementID,
		nullString(po.PONumber),
		po.Date,
		po.Value,
		string(po.Currency),
		po.CustomerName,
		nullString(po.AccountManager),
		nullString(po.Notes),
		po.CreatedAt,
		po.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create purchase order: %w", err)
	}
	return nil
}

func (r *poRepository) Get(ctx context.Context, q database.Querier, id string) (*models.PurchaseOrder, error) {
	row := q.QueryRow(ctx, `SELECT `+poColumns+` FROM pos WHERE po_id = $1`, id)
	po, err := scanPO(row)
	if err != nil {
		return nil, err
	}
	return po, nil
}

func (r *poRepository) ListByAgreement(ctx context.Context, q database.Querier, agreementID string) ([]models.PurchaseOrder, error) {
	rows, err := q.Query(ctx,
		`SELECT `+poColumns+` FROM pos WHERE agreement_id = $1 ORDER BY po_date DESC`, agreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	defer rows.Close()

	return collectPOs(rows)
}

func (r *poRepository) ListAll(ctx context.Context, q database.Querier) ([]models.PurchaseOrder, error) {
	rows, err := q.Query(ctx, `SELECT `+poColumns+` FROM pos ORDER BY po_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query purchase orders: %w", err)
	}
	defer rows.Close()

	return collectPOs(rows)
}

func (r *poRepository) Delete(ctx context.Context, q database.Querier, id string) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM pos WHERE po_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete purchase order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *poRepository) DeleteByAgreement(ctx context.Context, q database.Querier, agreementID string) error {
	_, err := q.Exec(ctx, `DELETE FROM pos WHERE agreement_id = $1`, agreementID)
	if err != nil {
		return fmt.Errorf("failed to delete purchase orders: %w", err)
	}
	return nil
}

func collectPOs(rows pgx.Rows) ([]models.PurchaseOrder, error) {
	var pos []models.PurchaseOrder
	for rows.Next() {
		po, err := scanPO(rows)
		if err != nil {
			return nil, err
		}
		pos = append(pos, *po)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating purchase orders: %w", err)
	}

	return pos, nil
}

func scanPO(row pgx.Row) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	var currency string
	var poNumber, accountMgr, notes *string

	err := row.Scan(
		&po.ID,
		&po.AgreementID,
		&poNumber,
		&po.Date,
		&po.Value,
		&currency,
		&po.CustomerName,
		&accountMgr,
		&notes,
		&po.CreatedAt,
		&po.LastUpdated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan purchase order: %w", err)
	}

	po.Currency = models.Currency(currency)
	po.PONumber = fromNull(poNumber)
	po.AccountManager = fromNull(accountMgr)
	po.Notes = fromNull(notes)

	return &po, nil
}
