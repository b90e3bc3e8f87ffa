// Package redemption реализует обмен кредитов на ваучеры.
package redemption

import (
	"time"

	"github.com/google/uuid"

	"serotonyl.ru/boostly/internal/common"
)

// Статусы обмена. Сейчас обмен сразу выдаётся (ISSUED), остальные статусы
// зарезервированы в схеме.
const (
	StatusPending   = "PENDING"
	StatusIssued    = "ISSUED"
	StatusFailed    = "FAILED"
	StatusCancelled = "CANCELLED"
)

// VoucherMultiplier — стоимость ваучера за один кредит.
const VoucherMultiplier = 5

// Redemption — обмен кредитов на ваучер.
type Redemption struct {
	ID              uuid.UUID  `json:"redemption_id"`
	StudentID       uuid.UUID  `json:"student_id"`
	CreditsRedeemed int        `json:"credits_redeemed"`
	VoucherValue    int        `json:"voucher_value"`
	Status          string     `json:"status"`
	ReferenceCode   *string    `json:"reference_code,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	FulfilledAt     *time.Time `json:"fulfilled_at,omitempty"`
}

// Receipt — результат обмена и остаток, доступный для следующих обменов.
type Receipt struct {
	Redemption
	AvailableBalance int `json:"available_balance"`
}

// RedeemInput — запрос на обмен.
type RedeemInput struct {
	StudentID       uuid.UUID `json:"student_id" binding:"required"`
	CreditsRedeemed int       `json:"credits_redeemed"`
}

// VoucherValue возвращает стоимость ваучера для заданного числа кредитов.
func VoucherValue(credits int) int {
	return credits * VoucherMultiplier
}

// CheckCredits проверяет, что обменивается положительное число кредитов.
func CheckCredits(credits int) error {
	if credits <= 0 {
		return common.RuleViolation(common.CodeInvalidCredits, "Количество кредитов для обмена должно быть больше нуля.")
	}
	return nil
}

// CheckRedeemable проверяет, хватает ли доступного для обмена баланса.
func CheckRedeemable(redeemable, credits int) error {
	if redeemable <= 0 {
		return common.RuleViolation(common.CodeNoRedeemableCredits, "Нет кредитов, доступных для обмена.")
	}
	if credits > redeemable {
		return common.RuleViolation(common.CodeExceedsRedeemable,
			"Запрошено больше, чем доступно для обмена. Доступно: %s.", common.FormatCredits(redeemable))
	}
	return nil
}
