// Package recognition — handlers.go: HTTP-маршруты /recognitions.
package recognition

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/boostly/internal/api"
)

// Engine — то, что нужно обработчикам от движка благодарностей.
type Engine interface {
	Create(ctx context.Context, in CreateInput) (*Recognition, error)
	List(ctx context.Context, f ListFilter) ([]*Recognition, error)
}

// Handler обрабатывает /recognitions.
type Handler struct {
	engine Engine
}

// NewHandler создаёт обработчик благодарностей.
func NewHandler(engine Engine) *Handler {
	return &Handler{engine: engine}
}

// Register регистрирует маршруты.
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/recognitions", h.create)
	rg.GET("/recognitions", h.list)
}

func (h *Handler) create(c *gin.Context) {
	var in CreateInput
	if !api.BindJSON(c, &in) {
		return
	}
	rec, err := h.engine.Create(c.Request.Context(), in)
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset, err := api.Page(c)
	if err != nil {
		api.Fail(c, err)
		return
	}
	sender, err := api.OptionalUUIDQuery(c, "sender_id")
	if err != nil {
		api.Fail(c, err)
		return
	}
	receiver, err := api.OptionalUUIDQuery(c, "receiver_id")
	if err != nil {
		api.Fail(c, err)
		return
	}

	list, err := h.engine.List(c.Request.Context(), ListFilter{
		SenderID:   sender,
		ReceiverID: receiver,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		api.Fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
