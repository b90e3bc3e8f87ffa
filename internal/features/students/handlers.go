// Package students — handlers.go отдаёт данные студентов по HTTP.
package students

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/boostly/internal/api"
)

// Reader — то, что нужно обработчикам от сервиса студентов.
type Reader interface {
	Get(ctx context.Context, id uuid.UUID) (*Student, error)
	Balance(ctx context.Context, id uuid.UUID) (*BalanceView, error)
}

// Handler обрабатывает /students.
type Handler struct {
	svc Reader
}

// NewHandler создаёт обработчик студентов.
func NewHandler(svc Reader) *Handler {
	return &Handler{svc: svc}
}

// Register регистрирует маршруты.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.GET("/students/:id", h.get)
	rg.GET("/students/:id/balance", h.balance)
}

func (h *Handler) get(c *gin.Context) {
	id, err := api.ParseUUID("student_id", c.Param("id"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	st, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st.Summary())
}

func (h *Handler) balance(c *gin.Context) {
	id, err := api.ParseUUID("student_id", c.Param("id"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	view, err := h.svc.Balance(c.Request.Context(), id)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
