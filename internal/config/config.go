// Package config загружает конфигурацию сервиса из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
// Вне продакшена перед этим подхватывается файл .env (godotenv).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"boostly"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"boostly"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`
	// Сколько транзакция ждёт блокировку строки квоты, прежде чем упасть
	DBLockTimeout time.Duration `envconfig:"DB_LOCK_TIMEOUT" default:"5s"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	// Зона для вывода времени; на расписание сброса не влияет
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Logging ---
	// Пустой LOG_FILE = только stdout
	LogFile       string `envconfig:"LOG_FILE"`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
	LogMaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`

	// --- HTTP API ---
	HTTPAddr            string        `envconfig:"HTTP_ADDR" default:":8000"`
	HTTPReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"10s"`
	HTTPWriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"15s"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	HTTPRateLimitPerMin int           `envconfig:"HTTP_RATE_LIMIT_PER_MINUTE" default:"120"`

	// --- Monthly reset ---
	// 1-е число, 00:05 UTC: месячные корзины считаются в UTC
	ResetCron string `envconfig:"RESET_CRON" default:"5 0 1 * *"`
	// Если сервис был выключен в момент запуска — догоняем в пределах этого окна
	ResetMisfireGrace time.Duration `envconfig:"RESET_MISFIRE_GRACE" default:"1h"`

	// --- Redis (кэш лидерборда) ---
	// Пустой REDIS_ADDR отключает кэш
	RedisAddr           string        `envconfig:"REDIS_ADDR"`
	RedisPassword       string        `envconfig:"REDIS_PASSWORD"`
	RedisDB             int           `envconfig:"REDIS_DB" default:"0"`
	LeaderboardCacheTTL time.Duration `envconfig:"LEADERBOARD_CACHE_TTL" default:"1m"`

	// --- Telegram (бот для операторов) ---
	// Пустой токен отключает бота
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную
	// Argon2id-хеш пароля для /login (см. boostly hash-password)
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`
	// Сколько апдейтов обрабатываем параллельно
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"16"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Rate Limiting (бот) ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`

	// --- Feature Flags ---
	FeatureHTTPEnabled      bool `envconfig:"FEATURE_HTTP_ENABLED" default:"true"`
	FeatureBotEnabled       bool `envconfig:"FEATURE_BOT_ENABLED" default:"true"`
	FeatureSchedulerEnabled bool `envconfig:"FEATURE_SCHEDULER_ENABLED" default:"true"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// Location возвращает часовой пояс планировщика.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return nil, fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	return loc, nil
}

// BotEnabled — бот включён флагом и для него задан токен.
func (c *Config) BotEnabled() bool {
	return c.FeatureBotEnabled && c.TelegramBotToken != ""
}

// IsAdmin проверяет, входит ли Telegram user ID в ADMIN_IDS.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// Validate проверяет согласованность настроек.
func (c *Config) Validate() error {
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.DBLockTimeout < 0 {
		return fmt.Errorf("DB_LOCK_TIMEOUT не может быть отрицательным")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if strings.HasPrefix(c.ResetCron, "TZ=") || strings.HasPrefix(c.ResetCron, "CRON_TZ=") {
		return fmt.Errorf("RESET_CRON %q: зона не задаётся, расписание считается в UTC", c.ResetCron)
	}
	if _, err := cron.ParseStandard(c.ResetCron); err != nil {
		return fmt.Errorf("RESET_CRON %q: %w", c.ResetCron, err)
	}
	if c.ResetMisfireGrace < 0 {
		return fmt.Errorf("RESET_MISFIRE_GRACE не может быть отрицательным")
	}
	if c.HTTPRateLimitPerMin <= 0 {
		return fmt.Errorf("HTTP_RATE_LIMIT_PER_MINUTE должен быть > 0")
	}
	if c.RateLimitRequests <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS и RATE_LIMIT_WINDOW должны быть > 0")
	}
	if c.BotEnabled() {
		if c.BotMaxInflight <= 0 {
			return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
		}
		if c.BotUpdateTimeoutSeconds <= 0 {
			return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
		}
		if c.AdminPasswordHash == "" {
			return fmt.Errorf("ADMIN_PASSWORD_HASH обязателен, когда задан TELEGRAM_BOT_TOKEN")
		}
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
// Вне APP_ENV=production сначала подхватывается .env из рабочей папки, если он есть;
// уже выставленные переменные окружения он не перезаписывает.
func Load() (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
