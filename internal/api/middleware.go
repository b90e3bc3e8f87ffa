// Package api — middleware.go: логирование запросов, восстановление после паники
// и ограничение частоты по IP.
package api

import (
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/common"
)

// RequestLogger пишет одну строку на запрос.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := log.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
			"ip":       c.ClientIP(),
		}
		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.WithFields(fields).Error("HTTP запрос")
		case c.Writer.Status() >= http.StatusBadRequest:
			log.WithFields(fields).Info("HTTP запрос")
		default:
			log.WithFields(fields).Debug("HTTP запрос")
		}
	}
}

// Recovery превращает панику обработчика в 500 и пишет стек в лог.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"component": "panic_recovery",
			"panic":     fmt.Sprintf("%v", recovered),
			"stack":     string(debug.Stack()),
		}).Error("ПАНИКА в обработчике — восстановлено")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "Внутренняя ошибка, повторите запрос позже."})
	})
}

// RateLimit ограничивает частоту запросов с одного IP.
func RateLimit(limiter *common.KeyedLimiter[string]) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"detail": "Слишком много запросов, попробуйте позже."})
			return
		}
		c.Next()
	}
}
