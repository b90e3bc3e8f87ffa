// Package common — errors.go определяет ошибки, общие для всех модулей.
//
// Бизнес-ошибки описываются типом *Violation: у каждой есть вид (правило или
// «не найдено»), машинный код и текст для пользователя. HTTP-слой и бот
// различают их через errors.As и показывают Detail как есть.
// Всё, что не является *Violation, считается сбоем хранилища (500).
package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
)

// ViolationKind — вид бизнес-ошибки.
type ViolationKind int

const (
	// KindRule — нарушено бизнес-правило (400)
	KindRule ViolationKind = iota + 1
	// KindNotFound — сущность не найдена (404)
	KindNotFound
)

// Коды нарушений. Стабильны, их можно показывать клиентам.
const (
	CodeSelfRecognition      = "self_recognition"
	CodeMonthlyLimitExceeded = "monthly_limit_exceeded"
	CodeInsufficientBalance  = "insufficient_balance"
	CodeInvalidCredits       = "invalid_credits"
	CodeMessageTooLong       = "message_too_long"
	CodeDuplicateEndorsement = "duplicate_endorsement"
	CodeNoRedeemableCredits  = "no_redeemable_credits"
	CodeExceedsRedeemable    = "exceeds_redeemable"
	CodeInvalidPagination    = "invalid_pagination"
	CodeInvalidInput         = "invalid_input"
	CodeDuplicateStudent     = "duplicate_student"
	CodeStudentNotFound      = "student_not_found"
	CodeRecognitionNotFound  = "recognition_not_found"
)

// Violation — типизированная бизнес-ошибка.
type Violation struct {
	Kind   ViolationKind // Вид: правило или «не найдено»
	Code   string        // Машинный код (CodeXxx)
	Detail string        // Текст для пользователя
}

// Error реализует интерфейс error.
func (v *Violation) Error() string {
	return v.Detail
}

// Status возвращает HTTP-статус, соответствующий виду нарушения.
func (v *Violation) Status() int {
	if v.Kind == KindNotFound {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

// RuleViolation создаёт нарушение бизнес-правила.
func RuleViolation(code, format string, args ...any) *Violation {
	return &Violation{Kind: KindRule, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// NotFound создаёт ошибку «не найдено».
func NotFound(code, format string, args ...any) *Violation {
	return &Violation{Kind: KindNotFound, Code: code, Detail: fmt.Sprintf(format, args...)}
}

// StudentNotFound — студент с таким ID отсутствует.
func StudentNotFound(id uuid.UUID) *Violation {
	return NotFound(CodeStudentNotFound, "Студент %s не найден", id)
}

// RecognitionNotFound — благодарность с таким ID отсутствует.
func RecognitionNotFound(id uuid.UUID) *Violation {
	return NotFound(CodeRecognitionNotFound, "Благодарность %s не найдена", id)
}

// AsViolation достаёт *Violation из цепочки ошибок.
func AsViolation(err error) (*Violation, bool) {
	var v *Violation
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// HasCode проверяет, что err — нарушение с указанным кодом.
func HasCode(err error, code string) bool {
	v, ok := AsViolation(err)
	return ok && v.Code == code
}

// IsNotFound проверяет, что err — ошибка вида KindNotFound.
func IsNotFound(err error) bool {
	v, ok := AsViolation(err)
	return ok && v.Kind == KindNotFound
}

// Ошибки админки
var (
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("у вас нет прав администратора")
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессия истекла или не создавалась
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново")
)
