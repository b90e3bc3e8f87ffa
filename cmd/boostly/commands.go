package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"serotonyl.ru/boostly/internal/app"
	"serotonyl.ru/boostly/internal/config"
	"serotonyl.ru/boostly/internal/features/admin"
	"serotonyl.ru/boostly/internal/features/students"
)

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "boostly",
		Short:         "Boostly: благодарности студентов и кредиты",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newResetCommand(),
		newStudentCommand(),
		newHashPasswordCommand(),
	)
	return root
}

// loadConfig загружает конфигурацию и применяет настройки логов.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	applyLogConfig(cfg)
	return cfg, nil
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP API, бота операторов и планировщик",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			log.Info("=== Boostly запускается ===")

			// Отменяем контекст по Ctrl+C и docker stop
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg)
			if err != nil {
				return fmt.Errorf("не удалось инициализировать приложение: %w", err)
			}
			defer application.Close()

			err = application.Run(ctx)
			log.Info("=== Boostly остановлен ===")
			return err
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Применить миграции БД и выйти",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			pool, err := app.Migrate(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			pool.Close()
			log.Info("Миграции применены")
			return nil
		},
	}
}

func newResetCommand() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Выполнить ежемесячный сброс вручную",
		Long: `Выполняет ежемесячный сброс для месяца, в который попадает --at
(по умолчанию текущее время). Повторный запуск в том же месяце ничего не меняет.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			now := time.Now()
			if at != "" {
				t, err := time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("--at: ожидается RFC3339: %w", err)
				}
				now = t
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.FeatureHTTPEnabled = false
			cfg.FeatureBotEnabled = false
			cfg.FeatureSchedulerEnabled = false

			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			summary, err := application.Reset.Run(cmd.Context(), now)
			if summary != nil {
				fmt.Fprintln(cmd.OutOrStdout(), summary.String())
			}
			return err
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "момент сброса в RFC3339, например 2030-03-01T00:05:00Z")
	return cmd
}

func newStudentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "student",
		Short: "Управление студентами",
	}

	var in students.EnrollInput
	add := &cobra.Command{
		Use:   "add",
		Short: "Зарегистрировать студента",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			cfg.FeatureHTTPEnabled = false
			cfg.FeatureBotEnabled = false
			cfg.FeatureSchedulerEnabled = false

			application, err := app.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			st, err := application.Students.Enroll(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", st.ID, st.CampusUID, st.DisplayName)
			return nil
		},
	}
	add.Flags().StringVar(&in.CampusUID, "campus-uid", "", "номер студенческого")
	add.Flags().StringVar(&in.Email, "email", "", "email студента")
	add.Flags().StringVar(&in.DisplayName, "name", "", "отображаемое имя")
	for _, name := range []string{"campus-uid", "email", "name"} {
		_ = add.MarkFlagRequired(name)
	}

	cmd.AddCommand(add)
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [пароль]",
		Short: "Сгенерировать Argon2id-хеш для ADMIN_PASSWORD_HASH",
		Long: `Печатает Argon2id-хеш пароля. Без аргумента пароль читается из stdin,
чтобы он не попал в историю командной строки.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(args)
			if err != nil {
				return err
			}
			hash, err := admin.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "Хеш пароля (вставьте в .env как ADMIN_PASSWORD_HASH):")
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func readPassword(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("пароль не передан")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
