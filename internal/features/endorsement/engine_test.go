package endorsement

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
	"serotonyl.ru/boostly/internal/features/recognition"
	"serotonyl.ru/boostly/internal/features/students"
	"serotonyl.ru/boostly/internal/testutil"
)

func newEngine(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()
	pool := testutil.NewPool(t)
	svc := NewService(pool, NewRepository(pool), recognition.NewRepository(pool), students.NewRepository(pool), nil)
	return svc, pool
}

func TestEndorseOnce(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	b := testutil.CreateStudent(t, pool, "Bianca")
	c := testutil.CreateStudent(t, pool, "Chen")
	recID := testutil.CreateRecognition(t, pool, a, b, 10)

	res, err := svc.Create(ctx, CreateInput{RecognitionID: recID, EndorserID: c})
	require.NoError(t, err)
	assert.Equal(t, 1, res.EndorsementCount)

	_, err = svc.Create(ctx, CreateInput{RecognitionID: recID, EndorserID: c})
	assert.True(t, common.HasCode(err, common.CodeDuplicateEndorsement))

	// автор тоже может одобрить
	res, err = svc.Create(ctx, CreateInput{RecognitionID: recID, EndorserID: a})
	require.NoError(t, err)
	assert.Equal(t, 2, res.EndorsementCount)

	list, err := svc.List(ctx, recID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// одобрения не трогают журнал
	assert.Equal(t, 0, testutil.CountRows(t, pool, "FROM credit_ledger"))
}

func TestEndorseNotFound(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	b := testutil.CreateStudent(t, pool, "Bianca")
	recID := testutil.CreateRecognition(t, pool, a, b, 10)

	_, err := svc.Create(ctx, CreateInput{RecognitionID: uuid.New(), EndorserID: a})
	assert.True(t, common.HasCode(err, common.CodeRecognitionNotFound))

	_, err = svc.Create(ctx, CreateInput{RecognitionID: recID, EndorserID: uuid.New()})
	assert.True(t, common.HasCode(err, common.CodeStudentNotFound))

	_, err = svc.List(ctx, uuid.New(), 10, 0)
	assert.True(t, common.IsNotFound(err))
}

func TestConcurrentEndorsementsKeepCountConsistent(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	b := testutil.CreateStudent(t, pool, "Bianca")
	c := testutil.CreateStudent(t, pool, "Chen")
	recID := testutil.CreateRecognition(t, pool, a, b, 10)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Create(ctx, CreateInput{RecognitionID: recID, EndorserID: c})
		}()
	}
	wg.Wait()

	rec, err := recognition.NewRepository(pool).Require(ctx, pool, recID)
	require.NoError(t, err)
	assert.Equal(t, 1, rec.EndorsementCount)
	assert.Equal(t, 1, testutil.CountRows(t, pool, "FROM recognition_endorsements WHERE recognition_id = $1", recID))
}

func TestListEndorsementsNewestFirst(t *testing.T) {
	svc, pool := newEngine(t)
	ctx := context.Background()
	a := testutil.CreateStudent(t, pool, "Ada")
	b := testutil.CreateStudent(t, pool, "Bianca")
	recID := testutil.CreateRecognition(t, pool, a, b, 10)
	other := testutil.CreateRecognition(t, pool, b, a, 5)

	var ids []uuid.UUID
	for _, name := range []string{"Chen", "Dana", "Emil"} {
		res, err := svc.Create(ctx, CreateInput{RecognitionID: recID, EndorserID: testutil.CreateStudent(t, pool, name)})
		require.NoError(t, err)
		ids = append(ids, res.ID)
		// created_at должен различаться между транзакциями
		time.Sleep(10 * time.Millisecond)
	}
	_, err := svc.Create(ctx, CreateInput{RecognitionID: other, EndorserID: a})
	require.NoError(t, err)

	list, err := svc.List(ctx, recID, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})

	page, err := svc.List(ctx, recID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	page, err = svc.List(ctx, recID, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, page)
}
