package leaderboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	calls  int
	limits []int
	err    error
}

func (f *fakeStore) Top(_ context.Context, limit int) ([]Entry, error) {
	f.calls++
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return []Entry{{StudentID: uuid.New(), DisplayName: "Bianca", TotalCreditsReceived: 80}}, nil
}

type pageKey struct {
	version int64
	limit   int
}

type mapCache struct {
	version     int64
	pages       map[pageKey][]Entry
	invalidated int
	versionErr  error
}

func newMapCache() *mapCache { return &mapCache{pages: map[pageKey][]Entry{}} }

func (m *mapCache) Version(context.Context) (int64, error) { return m.version, m.versionErr }

func (m *mapCache) Get(_ context.Context, version int64, limit int) ([]Entry, bool) {
	e, ok := m.pages[pageKey{version, limit}]
	return e, ok
}

func (m *mapCache) Set(_ context.Context, version int64, limit int, entries []Entry) {
	m.pages[pageKey{version, limit}] = entries
}

func (m *mapCache) Invalidate(context.Context) {
	m.version++
	m.invalidated++
}

// racingStore имитирует коммит, который успел вызвать Invalidate,
// пока рейтинг читался из базы.
type racingStore struct {
	fakeStore
	onTop func()
}

func (r *racingStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	if r.onTop != nil {
		r.onTop()
		r.onTop = nil
	}
	return r.fakeStore.Top(ctx, limit)
}

func TestTopClampsLimit(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, nil)

	_, err := svc.Top(context.Background(), 0)
	require.NoError(t, err)
	_, err = svc.Top(context.Background(), 500)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 100}, store.limits)
}

func TestTopUsesCache(t *testing.T) {
	store := &fakeStore{}
	cache := newMapCache()
	svc := NewService(store, cache)
	ctx := context.Background()

	first, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	second, err := svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.calls)

	svc.Invalidate(ctx)
	_, err = svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
	assert.Equal(t, 1, cache.invalidated)
}

func TestTopDoesNotCacheErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	cache := newMapCache()
	svc := NewService(store, cache)

	_, err := svc.Top(context.Background(), 10)
	assert.Error(t, err)
	assert.Empty(t, cache.pages)
}

func TestLeaderboardHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := &fakeStore{}
	r := gin.New()
	NewHandler(NewService(store, nil)).Register(r.Group("/api/v1"))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"total_credits_received":80`)
	assert.Equal(t, []int{DefaultLimit}, store.limits)

	for _, bad := range []string{"0", "101", "abc"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard?limit="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
}

func TestStalePageIsNotServedAfterConcurrentInvalidate(t *testing.T) {
	cache := newMapCache()
	store := &racingStore{}
	svc := NewService(store, cache)
	ctx := context.Background()
	store.onTop = func() { svc.Invalidate(ctx) }

	_, err := svc.Top(ctx, 10)
	require.NoError(t, err)

	// страница первого чтения сохранена под старым поколением
	_, err = svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)

	_, err = svc.Top(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestTopBypassesBrokenCache(t *testing.T) {
	cache := newMapCache()
	cache.versionErr = errors.New("redis down")
	store := &fakeStore{}
	svc := NewService(store, cache)

	entries, err := svc.Top(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Empty(t, cache.pages)
}
