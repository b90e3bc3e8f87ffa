// Package leaderboard — repository.go содержит агрегирующий запрос рейтинга.
package leaderboard

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository читает рейтинг из базы.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт репозиторий рейтинга.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Top возвращает limit студентов по сумме полученных кредитов.
// Студенты без благодарностей тоже попадают в рейтинг с нулями.
func (r *Repository) Top(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT s.student_id, s.campus_uid, s.display_name, s.email,
		       COALESCE(SUM(r.credits_transferred), 0) AS total_credits,
		       COUNT(r.recognition_id) AS recognitions,
		       COALESCE(SUM(r.endorsement_count), 0) AS endorsements
		FROM students s
		LEFT JOIN recognitions r ON r.receiver_id = s.student_id
		GROUP BY s.student_id
		ORDER BY total_credits DESC, s.student_id ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения рейтинга: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.StudentID, &e.CampusUID, &e.DisplayName, &e.Email,
			&e.TotalCreditsReceived, &e.RecognitionsReceived, &e.EndorsementsReceived)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования рейтинга: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
