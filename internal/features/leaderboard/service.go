// Package leaderboard — service.go: чтение рейтинга с кэшем.
package leaderboard

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
)

// Store — источник рейтинга (база).
type Store interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// Cache — кэш страниц рейтинга с поколениями.
// Invalidate начинает новое поколение; страницы старых поколений не читаются.
type Cache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, version int64, limit int) ([]Entry, bool)
	Set(ctx context.Context, version int64, limit int, entries []Entry)
	Invalidate(ctx context.Context)
}

// Service отдаёт рейтинг.
type Service struct {
	store Store
	cache Cache // может быть nil
}

// NewService создаёт сервис рейтинга. cache может быть nil.
func NewService(store Store, cache Cache) *Service {
	return &Service{store: store, cache: cache}
}

// Top возвращает лучших получателей. limit приводится к [1, 100].
// Поколение кэша читается до запроса к базе: если между ними прошёл коммит
// с Invalidate, результат сохранится под старым поколением и никому не достанется.
func (s *Service) Top(ctx context.Context, limit int) ([]Entry, error) {
	limit = common.ClampInt(limit, 1, MaxLimit)

	if s.cache == nil {
		return s.store.Top(ctx, limit)
	}

	version, err := s.cache.Version(ctx)
	if err != nil {
		log.WithError(err).Warn("Кэш рейтинга недоступен, читаем из базы")
		return s.store.Top(ctx, limit)
	}
	if entries, ok := s.cache.Get(ctx, version, limit); ok {
		return entries, nil
	}

	entries, err := s.store.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, version, limit, entries)
	return entries, nil
}

// Invalidate сбрасывает кэш. Вызывается движками после коммита.
func (s *Service) Invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
}
