package api

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/boostly/internal/config"
)

// Server — HTTP-сервер API.
type Server struct {
	srv *http.Server
}

// NewServer создаёт сервер с таймаутами из конфигурации.
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}}
}

// Start запускает сервер в отдельной горутине. Канал получает ошибку,
// если сервер упал не из-за Shutdown (например, порт занят), и закрывается после остановки.
func (s *Server) Start() <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		log.WithField("addr", s.srv.Addr).Info("HTTP API запущен")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("HTTP API остановился с ошибкой")
			errc <- err
		}
	}()
	return errc
}

// Shutdown дожидается завершения активных запросов в пределах ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	log.Info("HTTP API остановлен")
	return err
}
