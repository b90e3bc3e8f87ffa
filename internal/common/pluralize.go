// Package common — pluralize.go склоняет русские числительные
// для сообщений бота и CLI.
package common

import "fmt"

// PluralizeCredits возвращает правильную форму слова «кредит» для числа n.
//
// Правила русского языка:
//   - n%10==1 И n%100!=11 → "кредит" (1, 21, 101)
//   - n%10 в [2,3,4] И n%100 НЕ в [12,13,14] → "кредита" (2, 3, 24)
//   - Остальные случаи → "кредитов" (0, 5-20, 100)
func PluralizeCredits(n int) string {
	return pluralize(n, "кредит", "кредита", "кредитов")
}

// PluralizeStudents возвращает форму слова «студент».
func PluralizeStudents(n int) string {
	return pluralize(n, "студент", "студента", "студентов")
}

// FormatCredits создаёт строку вида "150 кредитов".
func FormatCredits(n int) string {
	return fmt.Sprintf("%d %s", n, PluralizeCredits(n))
}

// FormatCreditsDelta создаёт строку со знаком: "+50 кредитов", "-20 кредитов".
func FormatCreditsDelta(n int) string {
	if n >= 0 {
		return fmt.Sprintf("+%d %s", n, PluralizeCredits(n))
	}
	return fmt.Sprintf("%d %s", n, PluralizeCredits(n))
}

func pluralize(n int, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	lastDigit := n % 10
	lastTwoDigits := n % 100

	if lastDigit == 1 && lastTwoDigits != 11 {
		return one
	}
	if lastDigit >= 2 && lastDigit <= 4 && (lastTwoDigits < 12 || lastTwoDigits > 14) {
		return few
	}
	return many
}
