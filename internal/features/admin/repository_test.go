package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/testutil"
)

func TestRepositorySessions(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()
	now := time.Now()

	s, err := repo.ActiveSession(ctx, adminID, now)
	require.NoError(t, err)
	assert.Nil(t, s)

	first := &Session{UserID: adminID, Token: "t1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, first))
	second := &Session{UserID: adminID, Token: "t2", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, second))

	s, err = repo.ActiveSession(ctx, adminID, now)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "t2", s.Token)
	assert.Equal(t, 1, testutil.CountRows(t, pool, "FROM admin_sessions WHERE is_active"))

	require.NoError(t, repo.TouchSession(ctx, adminID))
	require.NoError(t, repo.DeactivateSessions(ctx, adminID))
	s, err = repo.ActiveSession(ctx, adminID, now)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRepositoryAttempts(t *testing.T) {
	pool := testutil.NewPool(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.LogAttempt(ctx, adminID, false))
	require.NoError(t, repo.LogAttempt(ctx, adminID, false))
	require.NoError(t, repo.LogAttempt(ctx, adminID, true))
	require.NoError(t, repo.LogAttempt(ctx, 7, false))

	n, err := repo.FailedAttemptsSince(ctx, adminID, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = repo.FailedAttemptsSince(ctx, adminID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}
