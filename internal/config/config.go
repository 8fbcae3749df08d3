package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramToken  string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN          string `mapstructure:"DB_DSN"`
	Environment    string `mapstructure:"ENV"`
	MigrationsPath string `mapstructure:"MIGRATIONS_PATH"`

	// Удалённый API расписания
	APIBaseURL   string        `mapstructure:"API_BASE_URL"`
	APITimeout   time.Duration `mapstructure:"API_TIMEOUT"`
	APIRateLimit float64       `mapstructure:"API_RATE_LIMIT"`

	ConnectivityProbeInterval time.Duration `mapstructure:"CONNECTIVITY_PROBE_INTERVAL"`
	VolatileWeekOffsets       []int         `mapstructure:"VOLATILE_WEEK_OFFSETS"`

	// Фоновое обновление
	SchedulerTick        time.Duration `mapstructure:"SCHEDULER_TICK"`
	RefreshRetryAttempts int           `mapstructure:"REFRESH_RETRY_ATTEMPTS"`
	RefreshRetryBackoff  time.Duration `mapstructure:"REFRESH_RETRY_BACKOFF"`

	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	Timezone string `mapstructure:"TIMEZONE"`
}

const (
	DefaultAPIBaseURL     = "https://eralas.ru/"
	DefaultMigrationsPath = "migrations"
	DefaultTimezone       = "Europe/Moscow"
)

func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	cfg, err := FromEnv(os.LookupEnv)
	if err != nil {
		return nil, err
	}

	// Проверяем обязательные поля
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("DB_DSN is required but not set")
	}

	log.Printf("Config loaded\n")

	return cfg, nil
}

// FromEnv читает конфигурацию через lookupEnv и подставляет значения по умолчанию.
// Обязательные поля не проверяет: CLI может работать без токена бота.
func FromEnv(lookupEnv func(string) (string, bool)) (*Config, error) {
	getenv := func(key string) string {
		v, _ := lookupEnv(key)
		return v
	}

	cfg := &Config{
		DBDSN:          getenv("DB_DSN"),
		TelegramToken:  getenv("TELEGRAM_TOKEN"),
		Environment:    stringOr(getenv("ENV"), "development"),
		MigrationsPath: stringOr(getenv("MIGRATIONS_PATH"), DefaultMigrationsPath),
		APIBaseURL:     stringOr(getenv("API_BASE_URL"), DefaultAPIBaseURL),
		Timezone:       stringOr(getenv("TIMEZONE"), DefaultTimezone),
	}

	// пустой HTTP_ADDR отключает HTTP-сервер, поэтому различаем "не задан" и "пусто"
	cfg.HTTPAddr = ":8080"
	if v, ok := lookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = v
	}

	var err error
	if cfg.APITimeout, err = durationOr(getenv("API_TIMEOUT"), 5*time.Second); err != nil {
		return nil, fmt.Errorf("parse API_TIMEOUT: %w", err)
	}
	if cfg.APIRateLimit, err = floatOr(getenv("API_RATE_LIMIT"), 5); err != nil {
		return nil, fmt.Errorf("parse API_RATE_LIMIT: %w", err)
	}
	if cfg.ConnectivityProbeInterval, err = durationOr(getenv("CONNECTIVITY_PROBE_INTERVAL"), 15*time.Second); err != nil {
		return nil, fmt.Errorf("parse CONNECTIVITY_PROBE_INTERVAL: %w", err)
	}
	if cfg.VolatileWeekOffsets, err = intsOr(getenv("VOLATILE_WEEK_OFFSETS"), []int{0, 1}); err != nil {
		return nil, fmt.Errorf("parse VOLATILE_WEEK_OFFSETS: %w", err)
	}
	if cfg.SchedulerTick, err = durationOr(getenv("SCHEDULER_TICK"), time.Minute); err != nil {
		return nil, fmt.Errorf("parse SCHEDULER_TICK: %w", err)
	}
	if cfg.RefreshRetryAttempts, err = intOr(getenv("REFRESH_RETRY_ATTEMPTS"), 3); err != nil {
		return nil, fmt.Errorf("parse REFRESH_RETRY_ATTEMPTS: %w", err)
	}
	if cfg.RefreshRetryBackoff, err = durationOr(getenv("REFRESH_RETRY_BACKOFF"), 10*time.Second); err != nil {
		return nil, fmt.Errorf("parse REFRESH_RETRY_BACKOFF: %w", err)
	}

	if cfg.RefreshRetryAttempts < 1 {
		cfg.RefreshRetryAttempts = 1
	}

	return cfg, nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// IsProduction true для ENV=production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Location часовой пояс расписания
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", c.Timezone, err)
	}
	return loc, nil
}

func stringOr(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func floatOr(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func intsOr(v string, def []int) ([]int, error) {
	if strings.TrimSpace(v) == "" {
		return def, nil
	}
	// "," означает пустой список, а не значение по умолчанию
	result := make([]int, 0)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}
