// Package students — repository.go выполняет SQL-запросы к таблице students.
package students

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/db/postgres"
)

const studentColumns = `student_id, campus_uid, email, display_name, status, created_at, updated_at`

// Repository предоставляет методы для работы со студентами в БД.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository создаёт новый репозиторий студентов.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет студента. Повтор campus_uid или email — нарушение правила.
func (r *Repository) Create(ctx context.Context, s *Student) error {
	query := `
		INSERT INTO students (student_id, campus_uid, email, display_name, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, s.ID, s.CampusUID, s.Email, s.DisplayName, s.Status).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if postgres.IsUniqueViolation(err) {
		return common.RuleViolation(common.CodeDuplicateStudent,
			"Студент с таким campus_uid или email уже зарегистрирован.")
	}
	if err != nil {
		return fmt.Errorf("ошибка создания студента: %w", err)
	}
	return nil
}

// Require возвращает студента или ошибку «не найдено».
func (r *Repository) Require(ctx context.Context, q postgres.Querier, id uuid.UUID) (*Student, error) {
	row := q.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = $1`, id)
	return requireRow(row, id)
}

// LockForUpdate возвращает студента, заблокировав его строку до конца транзакции.
// Используется, чтобы обмены одного студента шли строго по очереди.
// NO KEY UPDATE не конфликтует с KEY SHARE от внешних ключей журнала,
// поэтому параллельные благодарности этого студента не ждут обмена.
func (r *Repository) LockForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*Student, error) {
	row := tx.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = $1 FOR NO KEY UPDATE`, id)
	return requireRow(row, id)
}

// GetByCampusUID ищет студента по номеру студенческого. Нет — (nil, nil).
func (r *Repository) GetByCampusUID(ctx context.Context, campusUID string) (*Student, error) {
	row := r.db.QueryRow(ctx, `SELECT `+studentColumns+` FROM students WHERE campus_uid = $1`, campusUID)
	s, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения студента: %w", err)
	}
	return s, nil
}

// ListIDs возвращает ID всех студентов по возрастанию.
func (r *Repository) ListIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `SELECT student_id FROM students ORDER BY student_id`)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка студентов: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования студента: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func requireRow(row pgx.Row, id uuid.UUID) (*Student, error) {
	s, err := scanStudent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.StudentNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка получения студента: %w", err)
	}
	return s, nil
}

func scanStudent(row pgx.Row) (*Student, error) {
	var s Student
	err := row.Scan(&s.ID, &s.CampusUID, &s.Email, &s.DisplayName, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
