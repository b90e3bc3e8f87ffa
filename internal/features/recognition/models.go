// Package recognition реализует благодарности: перевод кредитов от одного
// студента другому в пределах месячного лимита.
// models.go описывает благодарность, входные данные и фильтры списка.
package recognition

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinCredits       = 1   // Минимум кредитов в одной благодарности
	MaxCredits       = 100 // Максимум кредитов в одной благодарности
	MaxMessageLength = 280 // Максимальная длина сообщения (в символах)
	MaxListLimit     = 100 // Максимальный размер страницы списка
)

// Recognition — одна благодарность.
type Recognition struct {
	ID                 uuid.UUID `json:"recognition_id"`
	SenderID           uuid.UUID `json:"sender_id"`
	ReceiverID         uuid.UUID `json:"receiver_id"`
	CreditsTransferred int       `json:"credits_transferred"`
	Message            *string   `json:"message"`
	MonthBucket        time.Time `json:"month_bucket"`
	EndorsementCount   int       `json:"endorsement_count"` // Денормализованный счётчик одобрений
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateInput — запрос на создание благодарности.
type CreateInput struct {
	SenderID   uuid.UUID `json:"sender_id" binding:"required"`
	ReceiverID uuid.UUID `json:"receiver_id" binding:"required"`
	Credits    int       `json:"credits_transferred"`
	Message    *string   `json:"message"`
}

// ListFilter — фильтры и пагинация списка благодарностей.
type ListFilter struct {
	SenderID   *uuid.UUID
	ReceiverID *uuid.UUID
	Limit      int
	Offset     int
}
