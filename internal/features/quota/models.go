// Package quota отслеживает месячный лимит отправки кредитов.
// models.go описывает строку квоты и правила переноса остатка.
package quota

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	// SendLimit — сколько кредитов студент может отправить за месяц
	SendLimit = 100
	// CarryForwardCap — максимум неиспользованного остатка, переносимого на следующий месяц
	CarryForwardCap = 50
)

// LockPolicy — как вести себя, если строка квоты уже заблокирована.
type LockPolicy int

const (
	// LockWait — ждать освобождения (путь записи, до lock_timeout)
	LockWait LockPolicy = iota
	// LockSkip — не ждать, пропустить студента (ежемесячный сброс)
	LockSkip
)

// ErrLockContended — строку квоты держит другая транзакция (только для LockSkip).
var ErrLockContended = errors.New("строка квоты занята другой транзакцией")

// Quota — учёт отправки за один месяц. Одна строка на (студент, месяц).
type Quota struct {
	ID                  int64      `json:"-"`
	StudentID           uuid.UUID  `json:"student_id"`
	MonthBucket         time.Time  `json:"month_bucket"`
	CreditsSent         int        `json:"credits_sent"`          // Отправлено в этом месяце
	SendLimit           int        `json:"send_limit"`            // Лимит (100)
	CarryForwardApplied bool       `json:"carry_forward_applied"` // Перенос уже учтён
	CarryForwardCredits int        `json:"carry_forward_credits"` // Сколько перенесено (0..50)
	ResetAt             *time.Time `json:"reset_at,omitempty"`    // Когда месяц обработал сброс
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Remaining — сколько ещё можно отправить в этом месяце.
func (q *Quota) Remaining() int {
	if r := q.SendLimit - q.CreditsSent; r > 0 {
		return r
	}
	return 0
}

// ResetDone — сброс за корзину bucket уже выполнен.
func (q *Quota) ResetDone(bucket time.Time) bool {
	return q.ResetAt != nil && !q.ResetAt.Before(bucket)
}

// CarryForward делит неиспользованный остаток на переносимую и сгорающую части.
// Отрицательный остаток считается нулём.
//
// Пример: unused=70 → carry=50, expired=20.
func CarryForward(unused int) (carry, expired int) {
	if unused < 0 {
		unused = 0
	}
	carry = unused
	if carry > CarryForwardCap {
		carry = CarryForwardCap
	}
	return carry, unused - carry
}
