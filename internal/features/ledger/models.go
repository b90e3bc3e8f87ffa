// Package ledger ведёт журнал кредитов — единственный источник правды о балансах.
// models.go описывает записи журнала и типы событий.
//
// Журнал только дополняется: записи не меняются и не удаляются.
// Баланс студента = сумма всех его дельт.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType — тип события в журнале. Знак дельты определяется типом.
type EventType string

const (
	EventRecognitionSent     EventType = "RECOGNITION_SENT"      // Отправка благодарности (−)
	EventRecognitionReceived EventType = "RECOGNITION_RECEIVED"  // Получение благодарности (+)
	EventRedemption          EventType = "REDEMPTION"            // Обмен на ваучер (−)
	EventMonthlyReset        EventType = "MONTHLY_RESET"         // Месячное пополнение (+)
	EventCarryForward        EventType = "CARRY_FORWARD"         // Перенос остатка (+)
	EventCarryForwardExpired EventType = "CARRY_FORWARD_EXPIRED" // Сгорание остатка (−)
)

// MonthlyResetCredits — размер ежемесячного пополнения.
const MonthlyResetCredits = 100

// RedeemableEvents — события, из которых складывается баланс, доступный для обмена.
// Месячное пополнение сюда не входит: обменять можно только полученное и перенесённое.
var RedeemableEvents = []EventType{
	EventRecognitionReceived,
	EventCarryForward,
	EventRedemption,
	EventCarryForwardExpired,
}

// UnusedAllowanceEvents — события, по которым месячный сброс считает неиспользованный остаток.
var UnusedAllowanceEvents = []EventType{
	EventMonthlyReset,
	EventCarryForward,
	EventRecognitionSent,
}

// ErrSignMismatch — знак дельты не соответствует типу события.
var ErrSignMismatch = errors.New("знак дельты не соответствует типу события")

// Sign возвращает обязательный знак дельты: -1 или +1. Для неизвестного типа — 0.
func (e EventType) Sign() int {
	switch e {
	case EventRecognitionSent, EventRedemption, EventCarryForwardExpired:
		return -1
	case EventRecognitionReceived, EventMonthlyReset, EventCarryForward:
		return 1
	}
	return 0
}

// Valid — тип события известен.
func (e EventType) Valid() bool {
	return e.Sign() != 0
}

// Entry — одна запись журнала.
type Entry struct {
	ID                 int64      `json:"ledger_entry_id"`
	StudentID          uuid.UUID  `json:"student_id"`
	RelatedRecognition *uuid.UUID `json:"related_recognition,omitempty"` // Для событий благодарностей
	RelatedRedemption  *uuid.UUID `json:"related_redemption,omitempty"`  // Для события обмена
	EventType          EventType  `json:"event_type"`
	CreditsDelta       int        `json:"credits_delta"` // Со знаком
	MonthBucket        time.Time  `json:"month_bucket"`  // Первый день месяца (UTC)
	CreatedAt          time.Time  `json:"created_at"`
}

// Validate проверяет инвариант знака до записи в базу.
func (e *Entry) Validate() error {
	sign := e.EventType.Sign()
	if sign == 0 {
		return fmt.Errorf("неизвестный тип события %q", e.EventType)
	}
	if e.CreditsDelta == 0 || (e.CreditsDelta > 0) != (sign > 0) {
		return fmt.Errorf("%w: %s %d", ErrSignMismatch, e.EventType, e.CreditsDelta)
	}
	return nil
}

// Balances — текущий и доступный к обмену балансы студента.
type Balances struct {
	Total      int `json:"total_balance"`
	Redeemable int `json:"redeemable_balance"`
}
