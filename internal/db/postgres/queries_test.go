package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	unique := fmt.Errorf("insert endorsement: %w", &pgconn.PgError{Code: "23505"})
	lock := fmt.Errorf("lock quota: %w", &pgconn.PgError{Code: "55P03"})

	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsLockTimeout(unique))

	assert.True(t, IsLockTimeout(lock))
	assert.False(t, IsUniqueViolation(lock))

	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsLockTimeout(nil))
}
