package redemption

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/features/ledger"
	"serotonyl.ru/boostly/internal/features/students"
	"serotonyl.ru/boostly/internal/testutil"
)

var april = time.Date(2030, 4, 10, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()
	pool := testutil.NewPool(t)
	svc := NewService(pool, NewRepository(pool), students.NewRepository(pool), ledger.NewRepository(pool))
	svc.SetClock(func() time.Time { return april })
	return svc, pool
}

func credit(t *testing.T, pool *pgxpool.Pool, id uuid.UUID, kind ledger.EventType, delta int) {
	t.Helper()
	err := ledger.NewRepository(pool).Append(context.Background(), pool, &ledger.Entry{
		StudentID:    id,
		EventType:    kind,
		CreditsDelta: delta,
		MonthBucket:  common.MonthBucket(april),
	})
	require.NoError(t, err)
}

func TestRedeemAll(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	credit(t, pool, a, ledger.EventRecognitionReceived, 40)
	// пополнение к обмену не относится
	credit(t, pool, a, ledger.EventMonthlyReset, 100)

	receipt, err := svc.Redeem(ctx, RedeemInput{StudentID: a, CreditsRedeemed: 40})
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, receipt.Status)
	assert.Equal(t, 200, receipt.VoucherValue)
	assert.Equal(t, 0, receipt.AvailableBalance)
	require.NotNil(t, receipt.FulfilledAt)
	require.NotNil(t, receipt.ReferenceCode)
	assert.Contains(t, *receipt.ReferenceCode, "BST-203004-")

	assert.Equal(t, -40, testutil.LedgerSum(t, pool, a, common.MonthBucket(april), string(ledger.EventRedemption)))

	_, err = svc.Redeem(ctx, RedeemInput{StudentID: a, CreditsRedeemed: 1})
	assert.True(t, common.HasCode(err, common.CodeNoRedeemableCredits))

	history, err := svc.History(ctx, a, 10, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, receipt.ID, history[0].ID)
}

func TestRedeemRejections(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	credit(t, pool, a, ledger.EventCarryForward, 30)

	_, err := svc.Redeem(ctx, RedeemInput{StudentID: a, CreditsRedeemed: 31})
	v, ok := common.AsViolation(err)
	require.True(t, ok, "got %v", err)
	assert.Equal(t, common.CodeExceedsRedeemable, v.Code)
	assert.Contains(t, v.Detail, "30")

	_, err = svc.Redeem(ctx, RedeemInput{StudentID: uuid.New(), CreditsRedeemed: 1})
	assert.True(t, common.IsNotFound(err))

	_, err = svc.Redeem(ctx, RedeemInput{StudentID: a, CreditsRedeemed: 0})
	assert.True(t, common.HasCode(err, common.CodeInvalidCredits))

	assert.Equal(t, 0, testutil.CountRows(t, pool, "FROM redemptions"))
}

func TestConcurrentRedemptionsNeverOverdraw(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	credit(t, pool, a, ledger.EventRecognitionReceived, 50)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Redeem(ctx, RedeemInput{StudentID: a, CreditsRedeemed: 20})
		}()
	}
	wg.Wait()

	bal, err := ledger.NewRepository(pool).Balances(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, 10, bal.Redeemable)
	assert.Equal(t, 2, testutil.CountRows(t, pool, "FROM redemptions WHERE student_id = $1", a))
}
