// Package endorsement реализует одобрения благодарностей: студент может
// один раз поддержать чужую благодарность. На кредиты одобрения не влияют.
package endorsement

import (
	"time"

	"github.com/google/uuid"
)

// Endorsement — одно одобрение.
type Endorsement struct {
	ID            uuid.UUID `json:"endorsement_id"`
	RecognitionID uuid.UUID `json:"recognition_id"`
	EndorserID    uuid.UUID `json:"endorser_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateInput — запрос на одобрение.
type CreateInput struct {
	RecognitionID uuid.UUID `json:"recognition_id" binding:"required"`
	EndorserID    uuid.UUID `json:"endorser_id" binding:"required"`
}

// Result — одобрение и новое значение счётчика у благодарности.
type Result struct {
	Endorsement
	EndorsementCount int `json:"endorsement_count"`
}
