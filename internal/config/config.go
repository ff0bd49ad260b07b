// Пакет config — загрузка и валидация конфигурации docstore
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации docstore.
type Config struct {
	// Порт HTTP-сервера
	Port int

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Пользователь PostgreSQL
	DBUser string
	// Пароль PostgreSQL
	DBPassword string
	// Режим SSL (disable, require, verify-ca, verify-full)
	DBSSLMode string

	// Путь к директории blob-хранилища
	DataDir string

	// TTL снимка списка документов в кэше
	CacheTTL time.Duration
	// Максимальное количество владельцев в кэше
	CacheMaxOwners int

	// Окно хранения корзины: сколько живёт soft-deleted документ до purge
	RetentionWindow time.Duration
	// Удалять ли blob при purge (расширение; базовый дизайн — только метаданные)
	PurgeBlobs bool

	// URL JWKS endpoint провайдера идентичности
	JWKSUrl string
	// Путь к CA-сертификату для проверки TLS JWKS endpoint (опционально)
	JWKSCACert string
	// Интервал обновления JWKS-ключей
	JWKSRefreshInterval time.Duration
	// Допустимое отклонение времени при проверке JWT
	JWTLeeway time.Duration

	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// Таймауты HTTP-сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics (DS_DEPHEALTH_GROUP)
	DephealthGroup string
	// Имя зависимости (целевого сервиса) в метриках topologymetrics
	DephealthDepName string
	// Имя владельца пода для метки name в topologymetrics (DEPHEALTH_NAME)
	DephealthName string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// DS_PORT — порт HTTP-сервера (по умолчанию 8080)
	port, err := getEnvInt("DS_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("DS_PORT: %w", err)
	}
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("DS_PORT: значение %d вне допустимого диапазона 1-65535", port)
	}
	cfg.Port = port

	// DS_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("DS_DB_HOST")
	if err != nil {
		return nil, err
	}

	// DS_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("DS_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("DS_DB_PORT: %w", err)
	}

	// DS_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("DS_DB_NAME")
	if err != nil {
		return nil, err
	}

	// DS_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("DS_DB_USER")
	if err != nil {
		return nil, err
	}

	// DS_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("DS_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// DS_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("DS_DB_SSL_MODE", "disable")
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[cfg.DBSSLMode] {
		return nil, fmt.Errorf("DS_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// DS_DATA_DIR — обязательный
	cfg.DataDir, err = getEnvRequired("DS_DATA_DIR")
	if err != nil {
		return nil, err
	}

	// DS_CACHE_TTL — TTL снимка списка документов (по умолчанию 5m)
	cfg.CacheTTL, err = getEnvDuration("DS_CACHE_TTL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("DS_CACHE_TTL: %w", err)
	}

	// DS_CACHE_MAX_OWNERS — ёмкость кэша (по умолчанию 1024)
	cfg.CacheMaxOwners, err = getEnvInt("DS_CACHE_MAX_OWNERS", 1024)
	if err != nil {
		return nil, fmt.Errorf("DS_CACHE_MAX_OWNERS: %w", err)
	}
	if cfg.CacheMaxOwners <= 0 {
		return nil, fmt.Errorf("DS_CACHE_MAX_OWNERS: значение должно быть положительным")
	}

	// DS_RETENTION_WINDOW — окно хранения корзины (по умолчанию 720h = 30 дней)
	cfg.RetentionWindow, err = getEnvDuration("DS_RETENTION_WINDOW", 720*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DS_RETENTION_WINDOW: %w", err)
	}
	if cfg.RetentionWindow <= 0 {
		return nil, fmt.Errorf("DS_RETENTION_WINDOW: значение должно быть положительным")
	}

	// DS_PURGE_BLOBS — удалять blob при purge (по умолчанию false:
	// purge затрагивает только метаданные)
	cfg.PurgeBlobs, err = getEnvBool("DS_PURGE_BLOBS", false)
	if err != nil {
		return nil, fmt.Errorf("DS_PURGE_BLOBS: %w", err)
	}

	// DS_JWKS_URL — обязательный
	cfg.JWKSUrl, err = getEnvRequired("DS_JWKS_URL")
	if err != nil {
		return nil, err
	}

	// DS_JWKS_CA_CERT — путь к CA-сертификату для JWKS endpoint (опционально)
	cfg.JWKSCACert = getEnvDefault("DS_JWKS_CA_CERT", "")

	// DS_JWKS_REFRESH_INTERVAL — интервал обновления JWKS-ключей (по умолчанию 1h)
	cfg.JWKSRefreshInterval, err = getEnvDuration("DS_JWKS_REFRESH_INTERVAL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("DS_JWKS_REFRESH_INTERVAL: %w", err)
	}

	// DS_JWT_LEEWAY — допустимое отклонение времени JWT (по умолчанию 30s)
	cfg.JWTLeeway, err = getEnvDuration("DS_JWT_LEEWAY", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DS_JWT_LEEWAY: %w", err)
	}

	// DS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("DS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("DS_LOG_LEVEL: %w", err)
	}

	// DS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("DS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("DS_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// DS_HTTP_READ_TIMEOUT — таймаут чтения запроса (по умолчанию 30s)
	cfg.HTTPReadTimeout, err = getEnvDuration("DS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DS_HTTP_READ_TIMEOUT: %w", err)
	}

	// DS_HTTP_WRITE_TIMEOUT — таймаут записи ответа (по умолчанию 60s)
	cfg.HTTPWriteTimeout, err = getEnvDuration("DS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DS_HTTP_WRITE_TIMEOUT: %w", err)
	}

	// DS_HTTP_IDLE_TIMEOUT — таймаут idle-соединения (по умолчанию 120s)
	cfg.HTTPIdleTimeout, err = getEnvDuration("DS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// DS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("DS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DS_SHUTDOWN_TIMEOUT: %w", err)
	}

	// DS_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("DS_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("DS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// DS_DEPHEALTH_GROUP — имя группы в метриках topologymetrics (по умолчанию "docstore")
	cfg.DephealthGroup = getEnvDefault("DS_DEPHEALTH_GROUP", "docstore")

	// DS_DEPHEALTH_DEP_NAME — имя зависимости в метриках topologymetrics (по умолчанию "idp-jwks")
	cfg.DephealthDepName = getEnvDefault("DS_DEPHEALTH_DEP_NAME", "idp-jwks")

	// DEPHEALTH_NAME — имя владельца пода для метки name в topologymetrics
	cfg.DephealthName = getEnvDefault("DEPHEALTH_NAME", "")

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q", val)
	}
	return b, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 5m, 720h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
