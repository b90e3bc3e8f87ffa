// Package redemption — handlers.go: HTTP-маршруты /redemptions.
package redemption

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/boostly/internal/api"
)

// Engine — то, что нужно обработчикам от движка обменов.
type Engine interface {
	Redeem(ctx context.Context, in RedeemInput) (*Receipt, error)
	History(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]*Redemption, error)
}

// Handler обрабатывает /redemptions.
type Handler struct {
	engine Engine
}

// NewHandler создаёт обработчик обменов.
func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// Register регистрирует маршруты.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/redemptions", h.redeem)
	rg.GET("/students/:id/redemptions", h.history)
}

func (h *Handler) redeem(c *gin.Context) {
	var in RedeemInput
	if !api.BindJSON(c, &in) {
		return
	}
	receipt, err := h.engine.Redeem(c.Request.Context(), in)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, receipt)
}

func (h *Handler) history(c *gin.Context) {
	id, err := api.ParseUUID("id", c.Param("id"))
	if err != nil {
		api.Fail(c, err)
		return
	}
	limit, offset, err := api.Page(c)
	if err != nil {
		api.Fail(c, err)
		return
	}
	list, err := h.engine.History(c.Request.Context(), id, limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
