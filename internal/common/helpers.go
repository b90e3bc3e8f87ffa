// Package common содержит общие утилиты, используемые во всём проекте:
// работа с месячными корзинами, форматирование дат и чисел.
package common

import (
	"time"
)

// MonthBucket возвращает первый день месяца (UTC) для момента t.
// Все записи журнала и квоты группируются по этой дате.
//
// Пример:
//
//	MonthBucket(2024-03-17 15:04 UTC) → 2024-03-01 00:00 UTC
func MonthBucket(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// PreviousMonthBucket возвращает корзину предыдущего месяца.
// Январь корректно переходит в декабрь прошлого года.
func PreviousMonthBucket(bucket time.Time) time.Time {
	return MonthBucket(bucket).AddDate(0, -1, 0)
}

// FormatMonth форматирует корзину как "2006-01".
func FormatMonth(bucket time.Time) string {
	return bucket.UTC().Format("2006-01")
}

// FormatDateTime форматирует время в "02.01.2006 15:04" в указанной зоне.
// Если зона не задана — используется UTC.
func FormatDateTime(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("02.01.2006 15:04")
}

// ClampInt ограничивает v диапазоном [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
