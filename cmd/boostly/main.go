// Package main — точка входа Boostly.
// Загружает конфигурацию, настраивает логирование и запускает нужную команду:
// сервис целиком, миграции, ручной сброс или служебные утилиты.
package main

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Настраиваем логирование до разбора конфигурации
	setupLogging()

	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Error("Команда завершилась с ошибкой")
		os.Exit(1)
	}
}
