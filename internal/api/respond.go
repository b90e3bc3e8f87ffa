// Package api — respond.go содержит общие помощники обработчиков:
// разбор параметров и единый формат ошибок {"detail": "..."}.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/db/postgres"
)

// Границы пагинации списков.
const (
	MaxPageLimit     = 100
	DefaultPageLimit = 50
)

// Fail пишет ошибку в ответ. *common.Violation отдаётся со своим статусом
// и текстом, всё остальное — 500 без подробностей.
func Fail(c *gin.Context, err error) {
	if v, ok := common.AsViolation(err); ok {
		c.AbortWithStatusJSON(v.Status(), gin.H{"detail": v.Detail, "code": v.Code})
		return
	}

	entry := log.WithError(err).WithFields(log.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	})
	if postgres.IsLockTimeout(err) {
		entry.Warn("Истёк lock_timeout, транзакция откатилась")
	} else {
		entry.Error("Ошибка обработки запроса")
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Внутренняя ошибка, повторите запрос позже."})
}

// BindJSON разбирает тело запроса. При ошибке сам отвечает 400 и возвращает false.
func BindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		detail := "Некорректное тело запроса."
		if errors.Is(err, io.EOF) {
			detail = "Пустое тело запроса."
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": detail, "code": common.CodeInvalidInput})
		return false
	}
	return true
}

// ParseUUID разбирает UUID из строки параметра name.
func ParseUUID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, common.RuleViolation(common.CodeInvalidInput, "Параметр %s должен быть UUID.", name)
	}
	return id, nil
}

// OptionalUUIDQuery разбирает необязательный UUID из query-строки.
func OptionalUUIDQuery(c *gin.Context, name string) (*uuid.UUID, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := ParseUUID(name, raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// Page читает limit/offset. limit ∈ [1,100], offset ≥ 0, иначе 400.
func Page(c *gin.Context) (limit, offset int, err error) {
	limit, err = intQuery(c, "limit", DefaultPageLimit)
	if err != nil {
		return 0, 0, err
	}
	offset, err = intQuery(c, "offset", 0)
	if err != nil {
		return 0, 0, err
	}
	if limit < 1 || limit > MaxPageLimit {
		return 0, 0, common.RuleViolation(common.CodeInvalidPagination,
			"limit должен быть от 1 до %d.", MaxPageLimit)
	}
	if offset < 0 {
		return 0, 0, common.RuleViolation(common.CodeInvalidPagination, "offset не может быть отрицательным.")
	}
	return limit, offset, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, common.RuleViolation(common.CodeInvalidPagination, "Параметр %s должен быть целым числом.", name)
	}
	return v, nil
}
