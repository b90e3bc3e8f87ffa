// Package students управляет студентами — участниками системы благодарностей.
// models.go описывает структуру студента и сводку его баланса.
package students

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/quota"
)

// Статусы студента.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// MaxDisplayNameLength — ограничение колонки display_name.
const MaxDisplayNameLength = 120

// Student представляет студента.
type Student struct {
	ID          uuid.UUID `json:"student_id"`
	CampusUID   string    `json:"campus_uid"` // Номер студенческого
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary — краткая проекция студента для ответов API.
type Summary struct {
	ID          uuid.UUID `json:"student_id"`
	CampusUID   string    `json:"campus_uid"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
}

// Summary возвращает краткую проекцию.
func (s *Student) Summary() Summary {
	return Summary{ID: s.ID, CampusUID: s.CampusUID, DisplayName: s.DisplayName, Email: s.Email}
}

// EnrollInput — данные для регистрации студента.
type EnrollInput struct {
	CampusUID   string
	Email       string
	DisplayName string
}

// BalanceView — сводка по балансу студента на текущий месяц.
type BalanceView struct {
	Student  Summary         `json:"student"`
	Balances ledger.Balances `json:"balances"`
	// Квота текущего месяца; nil, если в этом месяце студент ещё ничего не делал
	Quota *quota.Quota `json:"quota,omitempty"`
	// Сколько ещё можно отправить (100, если квоты ещё нет)
	RemainingAllowance int `json:"remaining_allowance"`
}
