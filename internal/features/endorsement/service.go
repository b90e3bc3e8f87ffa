// Package endorsement — service.go содержит движок одобрений.
package endorsement

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/db/postgres"
	"serotonyl.ru/boostly/internal/features/recognition"
	"serotonyl.ru/boostly/internal/features/students"
)

// MaxListLimit — максимальный размер страницы списка.
const MaxListLimit = 100

// Service — движок одобрений.
type Service struct {
	db           *pgxpool.Pool
	repo         *Repository
	recognitions *recognition.Repository
	students     *students.Repository
	cache        recognition.CacheInvalidator // может быть nil
}

// NewService создаёт движок одобрений. cache может быть nil.
func NewService(db *pgxpool.Pool, repo *Repository, recognitionRepo *recognition.Repository,
	studentRepo *students.Repository, cache recognition.CacheInvalidator) *Service {
	return &Service{db: db, repo: repo, recognitions: recognitionRepo, students: studentRepo, cache: cache}
}

// Create одобряет благодарность. Вставка и увеличение счётчика — в одной транзакции,
// поэтому endorsement_count всегда равен числу строк одобрений.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Result, error) {
	res := &Result{}
	err := postgres.WithTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := s.recognitions.Require(ctx, tx, in.RecognitionID); err != nil {
			return err
		}
		if _, err := s.students.Require(ctx, tx, in.EndorserID); err != nil {
			return err
		}

		exists, err := s.repo.Exists(ctx, tx, in.RecognitionID, in.EndorserID)
		if err != nil {
			return err
		}
		if exists {
			return duplicate()
		}

		res.Endorsement = Endorsement{
			ID:            uuid.New(),
			RecognitionID: in.RecognitionID,
			EndorserID:    in.EndorserID,
		}
		if err := s.repo.Insert(ctx, tx, &res.Endorsement); err != nil {
			// Параллельное одобрение успело раньше проверки
			if postgres.IsUniqueViolation(err) {
				return duplicate()
			}
			return err
		}

		res.EndorsementCount, err = s.recognitions.IncrementEndorsements(ctx, tx, in.RecognitionID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	log.WithFields(log.Fields{
		"recognition_id": in.RecognitionID,
		"endorser_id":    in.EndorserID,
		"count":          res.EndorsementCount,
	}).Info("Благодарность одобрена")
	return res, nil
}

// List возвращает одобрения благодарности. Нет благодарности — 404.
func (s *Service) List(ctx context.Context, recognitionID uuid.UUID, limit, offset int) ([]*Endorsement, error) {
	if limit < 1 || limit > MaxListLimit || offset < 0 {
		return nil, common.RuleViolation(common.CodeInvalidPagination,
			"limit должен быть от 1 до %d, offset не может быть отрицательным.", MaxListLimit)
	}
	if _, err := s.recognitions.Require(ctx, s.db, recognitionID); err != nil {
		return nil, err
	}
	return s.repo.ListByRecognition(ctx, recognitionID, limit, offset)
}

func duplicate() error {
	return common.RuleViolation(common.CodeDuplicateEndorsement, "Студент уже одобрил эту благодарность.")
}
