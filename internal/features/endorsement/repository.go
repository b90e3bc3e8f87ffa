// Package endorsement — repository.go работает с таблицей recognition_endorsements.
package endorsement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/boostly/internal/db/postgres"
)

// Repository предоставляет методы для работы с одобрениями.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий одобрений.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Exists проверяет, одобрял ли студент эту благодарность.
func (r *Repository) Exists(ctx context.Context, q postgres.Querier, recognitionID, endorserID uuid.UUID) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM recognition_endorsements
			WHERE recognition_id = $1 AND endorser_id = $2
		)
	`, recognitionID, endorserID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("ошибка проверки одобрения: %w", err)
	}
	return exists, nil
}

// Insert сохраняет одобрение. Нарушение уникальности возвращается как есть,
// его распознаёт сервис через postgres.IsUniqueViolation.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, e *Endorsement) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO recognition_endorsements (endorsement_id, recognition_id, endorser_id)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, e.ID, e.RecognitionID, e.EndorserID).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения одобрения: %w", err)
	}
	return nil
}

// ListByRecognition возвращает одобрения благодарности, новые первыми.
func (r *Repository) ListByRecognition(ctx context.Context, recognitionID uuid.UUID, limit, offset int) ([]*Endorsement, error) {
	rows, err := r.db.Query(ctx, `
		SELECT endorsement_id, recognition_id, endorser_id, created_at
		FROM recognition_endorsements
		WHERE recognition_id = $1
		ORDER BY created_at DESC, endorsement_id
		LIMIT $2 OFFSET $3
	`, recognitionID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения одобрений: %w", err)
	}
	defer rows.Close()

	list := make([]*Endorsement, 0)
	for rows.Next() {
		var e Endorsement
		if err := rows.Scan(&e.ID, &e.RecognitionID, &e.EndorserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования одобрения: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
