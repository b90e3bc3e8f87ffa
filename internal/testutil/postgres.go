// Package testutil поднимает изолированную схему PostgreSQL для тестов движков.
//
// Тесты запускаются только если задана BOOSTLY_TEST_DATABASE_URL, иначе
// пропускаются. Каждый тест получает свою схему (search_path), поэтому пакеты
// можно гонять параллельно против одной базы.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/boostly/internal/db/migrations"
	"serotonyl.ru/boostly/internal/db/postgres"
)

// EnvDatabaseURL — переменная с DSN тестовой базы.
const EnvDatabaseURL = "BOOSTLY_TEST_DATABASE_URL"

// NewPool создаёт свежую схему с применёнными миграциями и пул, смотрящий в неё.
// Схема удаляется по завершении теста.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := lookupDSN(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	admin, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %s", schema))
	require.NoError(t, err)
	require.NoError(t, admin.Close(ctx))

	pool, err := postgres.Connect(ctx, dsn, postgres.Settings{
		MaxConns:    8,
		LockTimeout: 5 * time.Second,
		SearchPath:  schema,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		pool.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			t.Logf("drop schema %s: %v", schema, err)
			return
		}
		defer conn.Close(ctx)
		if _, err := conn.Exec(ctx, fmt.Sprintf("DROP SCHEMA %s CASCADE", schema)); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
	})

	require.NoError(t, postgres.RunMigrations(ctx, pool, migrations.All))
	return pool
}

// CreateStudent вставляет студента напрямую и возвращает его ID.
func CreateStudent(t *testing.T, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	uid := "S" + strings.ToUpper(id.String()[:8])
	_, err := pool.Exec(context.Background(), `
		INSERT INTO students (student_id, campus_uid, email, display_name)
		VALUES ($1, $2, $3, $4)
	`, id, uid, strings.ToLower(uid)+"@example.edu", name)
	require.NoError(t, err)
	return id
}

// CreateRecognition вставляет благодарность напрямую, минуя журнал и квоты.
func CreateRecognition(t *testing.T, pool *pgxpool.Pool, sender, receiver uuid.UUID, credits int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO recognitions (recognition_id, sender_id, receiver_id, credits_transferred, month_bucket)
		VALUES ($1, $2, $3, $4, date_trunc('month', NOW())::date)
	`, id, sender, receiver, credits)
	require.NoError(t, err)
	return id
}

// LedgerSum возвращает сумму дельт студента по типу события в корзине (для проверок).
func LedgerSum(t *testing.T, pool *pgxpool.Pool, studentID uuid.UUID, bucket time.Time, eventType string) int {
	t.Helper()

	var sum int
	err := pool.QueryRow(context.Background(), `
		SELECT COALESCE(SUM(credits_delta), 0)
		FROM credit_ledger
		WHERE student_id = $1 AND month_bucket = $2 AND event_type = $3
	`, studentID, bucket, eventType).Scan(&sum)
	require.NoError(t, err)
	return sum
}

// CountRows возвращает COUNT(*) для запроса вида "FROM table WHERE ...".
func CountRows(t *testing.T, pool *pgxpool.Pool, from string, args ...any) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(), "SELECT COUNT(*) "+from, args...).Scan(&n)
	require.NoError(t, err)
	return n
}

func lookupDSN(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv(EnvDatabaseURL))
	if dsn == "" {
		t.Skipf("%s не задан, пропускаем тест с PostgreSQL", EnvDatabaseURL)
	}
	return dsn
}
