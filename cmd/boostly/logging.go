package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"serotonyl.ru/boostly/internal/config"
)

// setupLogging настраивает формат логов.
func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// applyLogConfig выставляет уровень из APP_LOG_LEVEL и, если задан LOG_FILE,
// дублирует логи в файл с ротацией.
func applyLogConfig(cfg *config.Config) {
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.WithField("level", cfg.AppLogLevel).Warn("Неизвестный APP_LOG_LEVEL, оставляем info")
	}

	if cfg.LogFile == "" {
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    cfg.LogMaxSizeMB, // мегабайты
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAgeDays, // дни
		Compress:   true,
	}))
}
