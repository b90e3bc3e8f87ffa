// Package endorsement — handlers.go: HTTP-маршруты /endorsements.
package endorsement

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"serotonyl.ru/boostly/internal/api"
	"serotonyl.ru/boostly/internal/common"
)

// Engine — то, что нужно обработчикам от движка одобрений.
type Engine interface {
	Create(ctx context.Context, in CreateInput) (*Result, error)
	List(ctx context.Context, recognitionID uuid.UUID, limit, offset int) ([]*Endorsement, error)
}

// Handler обрабатывает /endorsements.
type Handler struct {
	engine Engine
}

// NewHandler создаёт обработчик одобрений.
func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// Register регистрирует маршруты.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/endorsements", h.create)
	rg.GET("/endorsements", h.list)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if !api.BindJSON(c, &in) {
		return
	}
	res, err := h.engine.Create(c.Request.Context(), in)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) list(c *gin.Context) {
	recognitionID, err := api.OptionalUUIDQuery(c, "recognition_id")
	if err != nil {
		api.Fail(c, err)
		return
	}
	if recognitionID == nil {
		api.Fail(c, common.RuleViolation(common.CodeInvalidInput, "Укажите recognition_id."))
		return
	}
	limit, offset, err := api.Page(c)
	if err != nil {
		api.Fail(c, err)
		return
	}

	list, err := h.engine.List(c.Request.Context(), *recognitionID, limit, offset)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
