// Package api поднимает HTTP-интерфейс сервиса на gin.
// router.go собирает маршруты из обработчиков фич, server.go управляет http.Server.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"serotonyl.ru/boostly/internal/common"
	"serotonyl.ru/boostly/internal/config"
)

// Registrar — обработчик фичи, который умеет регистрировать свои маршруты.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

// Pinger проверяет доступность зависимости (БД) для /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter создаёт gin.Engine с middleware и маршрутами /api/v1.
func NewRouter(cfg *config.Config, db Pinger, registrars ...Registrar) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		Recovery(),
		RequestLogger(),
		RateLimit(common.NewKeyedLimiter[string](cfg.HTTPRateLimitPerMin, time.Minute)),
	)

	v1 := r.Group("/api/v1")
	v1.GET("/health", healthHandler(db))
	for _, reg := range registrars {
		reg.Register(v1)
	}
	return r
}

func healthHandler(db Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if db != nil {
			if err := db.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
