// Package recognition — repository.go выполняет SQL-запросы к таблице recognitions.
package recognition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/db/postgres"
)

const recognitionColumns = `recognition_id, sender_id, receiver_id, credits_transferred, message,
	month_bucket, endorsement_count, created_at, updated_at`

// Repository предоставляет методы для работы с благодарностями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий благодарностей.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert сохраняет благодарность в рамках транзакции движка.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, rec *Recognition) error {
	query := `
		INSERT INTO recognitions
			(recognition_id, sender_id, receiver_id, credits_transferred, message, month_bucket)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING endorsement_count, created_at, updated_at
	`
	err := tx.QueryRow(ctx, query,
		rec.ID, rec.SenderID, rec.ReceiverID, rec.CreditsTransferred, rec.Message, rec.MonthBucket,
	).Scan(&rec.EndorsementCount, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения благодарности: %w", err)
	}
	return nil
}

// Require возвращает благодарность или ошибку «не найдено».
func (r *Repository) Require(ctx context.Context, q postgres.Querier, id uuid.UUID) (*Recognition, error) {
	row := q.QueryRow(ctx, `SELECT `+recognitionColumns+` FROM recognitions WHERE recognition_id = $1`, id)
	rec, err := scanRecognition(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.RecognitionNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения благодарности: %w", err)
	}
	return rec, nil
}

// IncrementEndorsements увеличивает счётчик одобрений на 1 и возвращает новое значение.
// Атомарный UPDATE: параллельные одобрения не теряют инкременты.
func (r *Repository) IncrementEndorsements(ctx context.Context, tx pgx.Tx, id uuid.UUID) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		UPDATE recognitions
		SET endorsement_count = endorsement_count + 1, updated_at = NOW()
		WHERE recognition_id = $1
		RETURNING endorsement_count
	`, id).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка обновления счётчика одобрений: %w", err)
	}
	return count, nil
}

// List возвращает благодарности по фильтру, новые первыми.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]*Recognition, error) {
	var (
		where []string
		args  []any
	)
	if f.SenderID != nil {
		args = append(args, *f.SenderID)
		where = append(where, fmt.Sprintf("sender_id = $%d", len(args)))
	}
	if f.ReceiverID != nil {
		args = append(args, *f.ReceiverID)
		where = append(where, fmt.Sprintf("receiver_id = $%d", len(args)))
	}

	query := `SELECT ` + recognitionColumns + ` FROM recognitions`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC, recognition_id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения благодарностей: %w", err)
	}
	defer rows.Close()

	list := make([]*Recognition, 0)
	for rows.Next() {
		rec, err := scanRecognition(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования благодарности: %w", err)
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func scanRecognition(row pgx.Row) (*Recognition, error) {
	var rec Recognition
	err := row.Scan(
		&rec.ID, &rec.SenderID, &rec.ReceiverID, &rec.CreditsTransferred, &rec.Message,
		&rec.MonthBucket, &rec.EndorsementCount, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
