// Package leaderboard — handlers.go: GET /leaderboard.
package leaderboard

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/boostly/internal/api"
	"serotonyl.ru/boostly/internal/common"
)

// Reader — то, что нужно обработчику от сервиса рейтинга.
type Reader interface {
	Top(ctx context.Context, limit int) ([]Entry, error)
}

// Handler обрабатывает /leaderboard.
type Handler struct {
	svc Reader
}

// NewHandler создаёт обработчик рейтинга.
func NewHandler(svc Reader) *Handler {
	return &Handler{svc: svc}
}

// Register регистрирует маршруты.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/leaderboard", h.top)
}

func (h *Handler) top(c *gin.Context) {
	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > MaxLimit {
			api.Fail(c, common.RuleViolation(common.CodeInvalidPagination,
				"limit должен быть целым числом от 1 до %d.", MaxLimit))
			return
		}
		limit = v
	}

	entries, err := h.svc.Top(c.Request.Context(), limit)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
