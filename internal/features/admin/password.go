// Package admin — password.go: хеширование и проверка паролей Argon2id.
// Формат: $argon2id$v=19$m=65536,t=3,p=2$<salt_base64>$<hash_base64>
package admin

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для новых хешей.
const (
	argonMemory      uint32 = 64 * 1024 // 64 MB
	argonIterations  uint32 = 3
	argonParallelism uint8  = 2
	argonKeyLength   uint32 = 32
	argonSaltLength         = 16
)

// ErrBadHash — строка не является хешем Argon2id.
var ErrBadHash = errors.New("некорректный формат хеша Argon2id")

// HashPassword возвращает Argon2id-хеш пароля со случайной солью.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("пустой пароль")
	}

	salt := make([]byte, argonSaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("ошибка генерации соли: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonIterations, argonMemory, argonParallelism, argonKeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonIterations, argonParallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword сравнивает пароль с хешем. Параметры берутся из самого хеша.
func VerifyPassword(password, encodedHash string) (bool, error) {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false, ErrBadHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("%w: версия %q", ErrBadHash, parts[2])
	}

	var (
		memory      uint32
		iterations  uint32
		parallelism uint8
	)
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism); err != nil {
		return false, fmt.Errorf("%w: %v", ErrBadHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: соль: %v", ErrBadHash, err)
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false, fmt.Errorf("%w: хеш", ErrBadHash)
	}

	computed := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expected)))
	// Сравнение в постоянном времени
	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}

// newSessionToken генерирует токен сессии.
func newSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("ошибка генерации токена: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
