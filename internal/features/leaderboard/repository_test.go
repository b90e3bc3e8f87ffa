package leaderboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/testutil"
)

func TestTopOrdering(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	b := testutil.CreateStudent(t, pool, "Bianca")
	c := testutil.CreateStudent(t, pool, "Chen")

	testutil.CreateRecognition(t, pool, a, b, 30)
	testutil.CreateRecognition(t, pool, c, b, 50)
	rec := testutil.CreateRecognition(t, pool, b, c, 20)
	_, err := pool.Exec(ctx, `UPDATE recognitions SET endorsement_count = 2 WHERE recognition_id = $1`, rec)
	require.NoError(t, err)

	entries, err := NewRepository(pool).Top(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, b, entries[0].StudentID)
	assert.Equal(t, 80, entries[0].TotalCreditsReceived)
	assert.Equal(t, 2, entries[0].RecognitionsReceived)

	assert.Equal(t, c, entries[1].StudentID)
	assert.Equal(t, 2, entries[1].EndorsementsReceived)

	// без благодарностей — нули, но в рейтинге
	assert.Equal(t, a, entries[2].StudentID)
	assert.Zero(t, entries[2].TotalCreditsReceived)
	assert.Zero(t, entries[2].RecognitionsReceived)

	top1, err := NewRepository(pool).Top(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top1, 1)
}
