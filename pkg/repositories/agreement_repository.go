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

// AgreementRepository provides data access for agreements.
type AgreementRepository interface {
	// NextID reserves the next sequential agreement id for the given year,
	// in the form AGR-<year>-<4-digit sequence>.
	NextID(ctx context.Context, q database.Querier, year int) (string, error)
	Create(ctx context.Context, q database.Querier, a *models.Agreement) error
	Get(ctx context.Context, q database.Querier, id string) (*models.Agreement, error)
	// GetForUpdate locks the agreement row for the duration of the enclosing
	// transaction, serializing ceiling check-then-insert per agreement.
	GetForUpdate(ctx context.Context, q database.Querier, id string) (*models.Agreement, error)
	Update(ctx context.Context, q database.Querier, a *models.Agreement) error
	List(ctx context.Context, q database.Querier, filter models.AgreementFilter) ([]*models.Agreement, error)
	Delete(ctx context.Context, q database.Querier, id string) (bool, error)
}

type agreementRepository struct{}

// NewAgreementRepository creates a new AgreementRepository.
func NewAgreementRepository() AgreementRepository {
	return &agreementRepository{}
}

var _ AgreementRepository = (*agreementRepository)(nil)

const agreementColumns = `
	agreement_id, agreement_name, customer_name, customer_segment,
	region, industry, agreement_type, start_date, end_date,
	agreement_value_ceiling, currency, status, status_date,
	account_manager, sales_owner, partnerships_vendors,
	probability_to_sign, expected_signature_date, signed_date,
	renewal_terms, notes, created_at, last_updated`

func (r *agreementRepository) NextID(ctx context.Context, q database.Querier, year int) (string, error) {
	seqName := fmt.Sprintf("agreement-%d", year)

	var seq int
	err := q.QueryRow(ctx, `
		INSERT INTO sequences (seq_name, seq_value) VALUES ($1, 1)
		ON CONFLICT (seq_name) DO UPDATE SET seq_value = sequences.seq_value + 1
		RETURNING seq_value`, seqName).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("failed to advance agreement sequence: %w", err)
	}

	return fmt.Sprintf("AGR-%d-%04d", year, seq), nil
}

func (r *agreementRepository) Create(ctx context.Context, q database.Querier, a *models.Agreement) error {
	_, err := q.Exec(ctx, `
		INSERT INTO agreements (
			agreement_id, agreement_name, customer_name, customer_segment,
			region, industry, agreement_type, start_date, end_date,
			agreement_value_ceiling, currency, status, status_date,
			account_manager, sales_owner, partnerships_vendors,
			probability_to_sign, expected_signature_date, signed_date,
			renewal_terms, notes, created_at, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		)`,
		a.ID,
		a.Name,
		a.CustomerName,
		string(a.CustomerSegment),
		nullString(a.Region),
		nullString(a.Industry),
		string(a.AgreementType),
		a.StartDate,
		a.EndDate,
		a.ValueCeiling,
		string(a.Currency),
		string(a.Status),
		a.StatusDate,
		a.AccountManager,
		nullString(a.SalesOwner),
		nullString(a.PartnershipsVendors),
		a.ProbabilityToSign,
		a.ExpectedSignatureDate,
		a.SignedDate,
		nullString(a.RenewalTerms),
		nullString(a.Notes),
		a.CreatedAt,
		a.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to create agreement: %w", err)
	}
	return nil
}

func (r *agreementRepository) Get(ctx context.Context, q database.Querier, id string) (*models.Agreement, error) {
	row := q.QueryRow(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE agreement_id = $1`, id)
	return scanAgreement(row)
}

func (r *agreementRepository) GetForUpdate(ctx context.Context, q database.Querier, id string) (*models.Agreement, error) {
	row := q.QueryRow(ctx,
		`SELECT `+agreementColumns+` FROM agreements WHERE agreement_id = $1 FOR UPDATE`, id)
	return scanAgreement(row)
}

func (r *agreementRepository) Update(ctx context.Context, q database.Querier, a *models.Agreement) error {
	tag, err := q.Exec(ctx, `
		UPDATE agreements SET
			agreement_name = $2, customer_name = $3, customer_segment = $4,
			region = $5, industry = $6, agreement_type = $7,
			start_date = $8, end_date = $9, agreement_value_ceiling = $10,
			currency = $11, status = $12, status_date = $13,
			account_manager = $14, sales_owner = $15, partnerships_vendors = $16,
			probability_to_sign = $17, expected_signature_date = $18,
			signed_date = $19, renewal_terms = $20, notes = $21,
			last_updated = $22
		WHERE agreement_id = $1`,
		a.ID,
		a.Name,
		a.CustomerName,
		string(a.CustomerSegment),
		nullString(a.Region),
		nullString(a.Industry),
		string(a.AgreementType),
		a.StartDate,
		a.EndDate,
		a.ValueCeiling,
		string(a.Currency),
		string(a.Status),
		a.StatusDate,
		a.AccountManager,
		nullString(a.SalesOwner),
		nullString(a.PartnershipsVendors),
		a.ProbabilityToSign,
		a.ExpectedSignatureDate,
		a.SignedDate,
		nullString(a.RenewalTerms),
		nullString(a.Notes),
		a.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to update agreement: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *agreementRepository) List(ctx context.Context, q database.Querier, filter models.AgreementFilter) ([]*models.Agreement, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if filter.AccountManager != "" {
		conds = append(conds, "account_manager = "+arg(filter.AccountManager))
	}
	if filter.CustomerName != "" {
		conds = append(conds, "customer_name ILIKE "+arg("%"+filter.CustomerName+"%"))
	}
	if filter.Region != "" {
		conds = append(conds, "region = "+arg(filter.Region))
	}
	if filter.Industry != "" {
		conds = append(conds, "industry = "+arg(filter.Industry))
	}
	if filter.CustomerSegment != "" {
		conds = append(conds, "customer_segment = "+arg(string(filter.CustomerSegment)))
	}

	query := `SELECT ` + agreementColumns + ` FROM agreements`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY last_updated DESC"

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query agreements: %w", err)
	}
	defer rows.Close()

	var agreements []*models.Agreement
	for rows.Next() {
		a, err := scanAgreement(rows)
		if err != nil {
			return nil, err
		}
		agreements = append(agreements, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating agreements: %w", err)
	}

	return agreements, nil
}

func (r *agreementRepository) Delete(ctx context.Context, q database.Querier, id string) (bool, error) {
	tag, err := q.Exec(ctx, `DELETE FROM agreements WHERE agreement_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete agreement: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanAgreement(row pgx.Row) (*models.Agreement, error) {
	var a models.Agreement
	var segment, agreementType, currency, status string
	var region, industry, salesOwner, partnerships, terms, notes *string

	err := row.Scan(
		&a.ID,
		&a.Name,
		&a.CustomerName,
		&segment,
		&region,
		&industry,
		&agreementType,
		&a.StartDate,
		&a.EndDate,
		&a.ValueCeiling,
		&currency,
		&status,
		&a.StatusDate,
		&a.AccountManager,
		&salesOwner,
		&partnerships,
		&a.ProbabilityToSign,
		&a.ExpectedSignatureDate,
		&a.SignedDate,
		&terms,
		&notes,
		&a.CreatedAt,
		&a.LastUpdated,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan agreement: %w", err)
	}

	a.CustomerSegment = models.CustomerSegment(segment)
	a.AgreementType = models.AgreementType(agreementType)
	a.Currency = models.Currency(currency)
	a.Status = models.AgreementStatus(status)
	a.Region = fromNull(region)
	a.Industry = fromNull(industry)
	a.SalesOwner = fromNull(salesOwner)
	a.PartnershipsVendors = fromNull(partnerships)
	a.RenewalTerms = fromNull(terms)
	a.Notes = fromNull(notes)

	return &a, nil
}
