// Package redemption — repository.go работает с таблицей redemptions.
package redemption

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const redemptionColumns = `redemption_id, student_id, credits_redeemed, voucher_value, status,
	reference_code, created_at, fulfilled_at`

// Repository предоставляет методы для работы с обменами.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий обменов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert сохраняет обмен. voucher_value вычисляет база (GENERATED), значение
// возвращается в структуру вместе с created_at.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, red *Redemption) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO redemptions (redemption_id, student_id, credits_redeemed, status, reference_code, fulfilled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING voucher_value, created_at
	`, red.ID, red.StudentID, red.CreditsRedeemed, red.Status, red.ReferenceCode, red.FulfilledAt).
		Scan(&red.VoucherValue, &red.CreatedAt)
	if err != nil {
		return fmt.Errorf("ошибка сохранения обмена: %w", err)
	}
	return nil
}

// ListByStudent возвращает обмены студента, новые первыми.
func (r *Repository) ListByStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*Redemption, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+redemptionColumns+`
		FROM redemptions
		WHERE student_id = $1
		ORDER BY created_at DESC, redemption_id
		LIMIT $2 OFFSET $3
	`, studentID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения обменов: %w", err)
	}
	defer rows.Close()

	list := make([]*Redemption, 0)
	for rows.Next() {
		var red Redemption
		err := rows.Scan(&red.ID, &red.StudentID, &red.CreditsRedeemed, &red.VoucherValue, &red.Status,
			&red.ReferenceCode, &red.CreatedAt, &red.FulfilledAt)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования обмена: %w", err)
		}
		list = append(list, &red)
	}
	return list, rows.Err()
}
