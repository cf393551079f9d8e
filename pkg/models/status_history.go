package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusTransition is one immutable entry in the append-only transition log.
// OldStatus is nil for the entry written on agreement creation.
type StatusTransition struct {
	ID          uuid.UUID        `json:"id"`
	AgreementID string           `json:"agreement_id"`
	OldStatus   *AgreementStatus `json:"old_status"`
	NewStatus   AgreementStatus  `json:"new_status"`
	ChangedAt   time.Time        `json:"changed_at"`
}
