package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gtmhq/agreements-engine/pkg/database"
	"github.com/gtmhq/agreements-engine/pkg/models"
)

// StatusHistoryRepository provides access to the append-only transition log.
// Entries are never mutated; they only disappear when the owning agreement
// is deleted.
type StatusHistoryRepository interface {
	Append(ctx context.Context, q database.Querier, rec *models.StatusTransition) error
	ListByAgreement(ctx context.Context, q database.Querier, agreementID string) ([]models.StatusTransition, error)
	DeleteByAgreement(ctx context.Context, q database.Querier, agreementID string) error
}

type statusHistoryRepository struct{}

// NewStatusHistoryRepository creates a new StatusHistoryRepository.
func NewStatusHistoryRepository() StatusHistoryRepository {
	return &statusHistoryRepository{}
}

var _ StatusHistoryRepository = (*statusHistoryRepository)(nil)

func (r *statusHistoryRepository) Append(ctx context.Context, q database.Querier, rec *models.StatusTransition) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}

	var oldStatus *string
	if rec.OldStatus != nil {
		s := string(*rec.OldStatus)
		oldStatus = &s
	}

	_, err := q.Exec(ctx, `
		INSERT INTO status_history (id, agreement_id, old_status, new_status, changed_at)
		VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.AgreementID, oldStatus, string(rec.NewStatus), rec.ChangedAt)
	if err != nil {
		return fmt.Errorf("failed to append status transition: %w", err)
	}
	return nil
}

func (r *statusHistoryRepository) ListByAgreement(ctx context.Context, q database.Querier, agreementID string) ([]models.StatusTransition, error) {
	rows, err := q.Query(ctx, `
		SELECT id, agreement_id, old_status, new_status, changed_at
		FROM status_history
		WHERE agreement_id = $1
		ORDER BY changed_at`, agreementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query status history: %w", err)
	}
	defer rows.Close()

	var recs []models.StatusTransition
	for rows.Next() {
		var (
			rec       models.StatusTransition
			oldStatus *string
			newStatus string
		)
		if err := rows.Scan(&rec.ID, &rec.AgreementID, &oldStatus, &newStatus, &rec.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan status transition: %w", err)
		}
		if oldStatus != nil {
			s := models.AgreementStatus(*oldStatus)
			rec.OldStatus = &s
		}
		rec.NewStatus = models.AgreementStatus(newStatus)
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status history: %w", err)
	}

	return recs, nil
}

func (r *statusHistoryRepository) DeleteByAgreement(ctx context.Context, q database.Querier, agreementID string) error {
	_, err := q.Exec(ctx, `DELETE FROM status_history WHERE agreement_id = $1`, agreementID)
	if err != nil {
		return fmt.Errorf("failed to delete status history: %w", err)
	}
	return nil
}
