package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/testutil"
)

func TestRepositoryBalances(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()
	repo := NewRepository(pool)

	student := testutil.CreateStudent(t, pool, "Ada")
	march := time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2030, 4, 1, 0, 0, 0, 0, time.UTC)

	entries := []*Entry{
		{StudentID: student, EventType: EventMonthlyReset, CreditsDelta: 100, MonthBucket: march},
		{StudentID: student, EventType: EventRecognitionReceived, CreditsDelta: 40, MonthBucket: march},
		{StudentID: student, EventType: EventRedemption, CreditsDelta: -15, MonthBucket: march},
		{StudentID: student, EventType: EventMonthlyReset, CreditsDelta: 100, MonthBucket: april},
	}
	for _, e := range entries {
		require.NoError(t, repo.Append(ctx, pool, e))
		assert.NotZero(t, e.ID)
	}

	total, err := repo.BalanceOf(ctx, pool, student)
	require.NoError(t, err)
	assert.Equal(t, 225, total)

	redeemable, err := repo.BalanceOf(ctx, pool, student, RedeemableEvents...)
	require.NoError(t, err)
	assert.Equal(t, 25, redeemable)

	marchSum, err := repo.SumForMonth(ctx, pool, student, march, UnusedAllowanceEvents...)
	require.NoError(t, err)
	assert.Equal(t, 100, marchSum)

	has, err := repo.HasEntry(ctx, pool, student, april, EventMonthlyReset)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = repo.HasEntry(ctx, pool, student, april, EventCarryForward)
	require.NoError(t, err)
	assert.False(t, has)

	b, err := repo.Balances(ctx, student)
	require.NoError(t, err)
	assert.Equal(t, &Balances{Total: 225, Redeemable: 25}, b)

	history, err := repo.History(ctx, student, 10)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestRepositoryRejectsWrongSign(t *testing.T) {
	pool := testutil.NewPool(t)
	ctx := context.Background()
	repo := NewRepository(pool)
	student := testutil.CreateStudent(t, pool, "Grace")

	err := repo.Append(ctx, pool, &Entry{
		StudentID:    student,
		EventType:    EventRecognitionSent,
		CreditsDelta: 10,
		MonthBucket:  time.Date(2030, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, ErrSignMismatch)
	assert.Equal(t, 0, testutil.CountRows(t, pool, "FROM credit_ledger"))

	// пустой журнал — нулевой баланс
	total, err := repo.BalanceOf(ctx, pool, student)
	require.NoError(t, err)
	assert.Zero(t, total)
}
