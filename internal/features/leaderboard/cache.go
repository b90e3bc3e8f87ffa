// Package leaderboard — cache.go: кэш рейтинга в Redis.
//
// Рейтинг меняется только при новой благодарности или одобрении, а читается
// часто (бот, HTTP). Движки сбрасывают кэш после коммита через Invalidate.
//
// Страницы хранятся под номером поколения. Invalidate увеличивает поколение (INCR),
// поэтому страница, посчитанная до чужого коммита, записывается под старым номером
// и больше не читается, а затем истекает по TTL.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	keyPrefix    = "boostly:leaderboard:"
	versionKey   = keyPrefix + "version"
	redisTimeout = 2 * time.Second
)

// RedisCache хранит готовые страницы рейтинга по ключу (поколение, limit).
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache создаёт кэш поверх клиента go-redis.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient создаёт клиента Redis и проверяет соединение.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  redisTimeout,
		WriteTimeout: redisTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ошибка подключения к Redis %s: %w", addr, err)
	}
	return rdb, nil
}

// Version возвращает текущее поколение кэша. Ключа ещё нет — поколение 0.
func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	v, err := c.rdb.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ошибка чтения поколения кэша: %w", err)
	}
	return v, nil
}

// Get возвращает страницу из кэша. ok=false — промах.
func (c *RedisCache) Get(ctx context.Context, version int64, limit int) ([]Entry, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, key(version, limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.WithError(err).Warn("Кэш рейтинга недоступен")
		return nil, false
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.WithError(err).Warn("Повреждённая запись кэша рейтинга")
		return nil, false
	}
	return entries, true
}

// Set сохраняет страницу в кэш под поколением version. Ошибки только логируются.
func (c *RedisCache) Set(ctx context.Context, version int64, limit int, entries []Entry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := c.rdb.Set(ctx, key(version, limit), raw, c.ttl).Err(); err != nil {
		log.WithError(err).Warn("Не удалось записать рейтинг в кэш")
	}
}

// Invalidate начинает новое поколение: все сохранённые страницы перестают читаться.
func (c *RedisCache) Invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, redisTimeout)
	defer cancel()
	if err := c.rdb.Incr(ctx, versionKey).Err(); err != nil {
		log.WithError(err).Warn("Не удалось сбросить кэш рейтинга")
	}
}

func key(version int64, limit int) string {
	return keyPrefix + "v" + strconv.FormatInt(version, 10) + ":" + strconv.Itoa(limit)
}
