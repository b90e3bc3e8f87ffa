// Package common — ratelimit.go ограничивает частоту запросов по ключу
// (IP для HTTP, Telegram user ID для бота). Каждый ключ получает свой
// token bucket; неиспользуемые ключи вычищаются.
package common

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 5 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	expires time.Time
}

// KeyedLimiter — набор token bucket'ов, по одному на ключ.
type KeyedLimiter[K comparable] struct {
	mu        sync.Mutex
	entries   map[K]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
}

// NewKeyedLimiter разрешает requests запросов за window на каждый ключ.
// Пачка из requests запросов проходит сразу, дальше — по одному токену
// каждые window/requests.
func NewKeyedLimiter[K comparable](requests int, window time.Duration) *KeyedLimiter[K] {
	if requests < 1 {
		requests = 1
	}
	return &KeyedLimiter[K]{
		entries:   make(map[K]*limiterEntry),
		limit:     rate.Every(window / time.Duration(requests)),
		burst:     requests,
		lastSweep: time.Now(),
	}
}

// Allow сообщает, можно ли пропустить запрос для key.
func (l *KeyedLimiter[K]) Allow(key K) bool {
	now := time.Now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, e := range l.entries {
			if now.After(e.expires) {
				delete(l.entries, k)
			}
		}
		l.lastSweep = now
	}

	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.expires = now.Add(limiterIdleTTL)
	l.mu.Unlock()

	// rate.Limiter потокобезопасен сам по себе
	return e.limiter.AllowN(now, 1)
}

// Len возвращает число отслеживаемых ключей.
func (l *KeyedLimiter[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
