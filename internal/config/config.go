// Пакет config — загрузка и валидация конфигурации каталога автомобилей
// из переменных окружения (префикс CM_). Файл .env в рабочем каталоге
// подхватывается автоматически, если существует.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// DefaultEnvFile — путь к .env-файлу по умолчанию.
const DefaultEnvFile = ".env"

// Config содержит все параметры конфигурации catalog-api и filter-cache.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// Таймаут graceful shutdown (по умолчанию 5s)
	ShutdownTimeout time.Duration

	// --- PostgreSQL ---

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string
	// Максимальный размер пула соединений
	DBMaxConns int
	// Таймаут одного запроса каталога (count + data)
	QueryTimeout time.Duration

	// --- Кэш фильтров ---

	// Путь к JSON-файлу таксономии
	FilterCachePath string
	// Интервал пересборки (по умолчанию 24h)
	FilterCacheInterval time.Duration
	// Таймаут одной сборки (по умолчанию 10m)
	FilterCacheBuildTimeout time.Duration

	// --- Статика ---

	// Каталог сборки фронтенда; пустая строка отключает раздачу
	StaticDir string

	// --- Заявки ---

	// Базовый URL Bot API чата
	ChatAPIURL string
	// Токен бота; пустая строка отключает канал
	ChatBotToken string
	// Идентификаторы чатов для рассылки
	ChatIDs []string
	// Таймаут HTTP-запросов к Bot API
	ChatTimeout time.Duration
	// ARN топика SNS; пустая строка отключает канал
	LeadSNSTopicARN string
	// Регион AWS для SNS
	AWSRegion string
	// Окно подавления дублей заявок
	LeadDedupeWindow time.Duration
	// Максимум отпечатков заявок в окне
	LeadDedupeSize int

	// --- Мониторинг зависимостей ---

	DephealthGroup         string
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Возвращает ошибку, если обязательные переменные не заданы
// или значения некорректны.
func Load() (*Config, error) {
	if err := loadEnvFile(getEnvDefault("CM_ENV_FILE", DefaultEnvFile)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	cfg.Port, err = getEnvInt("CM_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("CM_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CM_PORT: порт %d вне диапазона 1-65535", cfg.Port)
	}

	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CM_LOG_LEVEL: %w", err)
	}

	cfg.LogFormat = getEnvDefault("CM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CM_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("CM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("CM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("CM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_HTTP_IDLE_TIMEOUT: %w", err)
	}
	cfg.ShutdownTimeout, err = getEnvDuration("CM_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- PostgreSQL ---

	cfg.DBHost = getEnvDefault("CM_DB_HOST", "localhost")
	cfg.DBPort, err = getEnvInt("CM_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CM_DB_PORT: %w", err)
	}
	cfg.DBName, err = getEnvRequired("CM_DB_NAME")
	if err != nil {
		return nil, err
	}
	cfg.DBUser, err = getEnvRequired("CM_DB_USER")
	if err != nil {
		return nil, err
	}
	cfg.DBPassword = os.Getenv("CM_DB_PASSWORD")
	cfg.DBSSLMode = getEnvDefault("CM_DB_SSL_MODE", "disable")
	switch cfg.DBSSLMode {
	case "disable", "allow", "prefer", "require", "verify-ca", "verify-full":
	default:
		return nil, fmt.Errorf("CM_DB_SSL_MODE: недопустимое значение %q", cfg.DBSSLMode)
	}
	cfg.DBMaxConns, err = getEnvInt("CM_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("CM_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("CM_DB_MAX_CONNS: значение должно быть >= 1")
	}
	cfg.QueryTimeout, err = getEnvDurationFallback("CM_QUERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_QUERY_TIMEOUT: %w", err)
	}

	// --- Кэш фильтров ---

	cfg.FilterCachePath = getEnvDefault("CM_FILTER_CACHE_PATH", "cache/filters.json")
	cfg.FilterCacheInterval, err = getEnvDurationFallback("CM_FILTER_CACHE_INTERVAL", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("CM_FILTER_CACHE_INTERVAL: %w", err)
	}
	cfg.FilterCacheBuildTimeout, err = getEnvDurationFallback("CM_FILTER_CACHE_BUILD_TIMEOUT", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CM_FILTER_CACHE_BUILD_TIMEOUT: %w", err)
	}

	cfg.StaticDir = os.Getenv("CM_STATIC_DIR")

	// --- Заявки ---

	cfg.ChatAPIURL = strings.TrimRight(getEnvDefault("CM_CHAT_API_URL", "https://api.telegram.org"), "/")
	if _, err := url.ParseRequestURI(cfg.ChatAPIURL); err != nil {
		return nil, fmt.Errorf("CM_CHAT_API_URL: некорректный URL %q", cfg.ChatAPIURL)
	}
	cfg.ChatBotToken = os.Getenv("CM_CHAT_BOT_TOKEN")
	cfg.ChatIDs = splitList(os.Getenv("CM_CHAT_IDS"))
	if cfg.ChatBotToken != "" && len(cfg.ChatIDs) == 0 {
		return nil, fmt.Errorf("CM_CHAT_IDS: обязателен при заданном CM_CHAT_BOT_TOKEN")
	}
	cfg.ChatTimeout, err = getEnvDurationFallback("CM_CHAT_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_CHAT_TIMEOUT: %w", err)
	}
	cfg.LeadSNSTopicARN = os.Getenv("CM_LEAD_SNS_TOPIC_ARN")
	cfg.AWSRegion = getEnvDefault("CM_AWS_REGION", "eu-central-1")
	cfg.LeadDedupeWindow, err = getEnvDurationFallback("CM_LEAD_DEDUPE_WINDOW", time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CM_LEAD_DEDUPE_WINDOW: %w", err)
	}
	cfg.LeadDedupeSize, err = getEnvInt("CM_LEAD_DEDUPE_SIZE", 1024)
	if err != nil {
		return nil, fmt.Errorf("CM_LEAD_DEDUPE_SIZE: %w", err)
	}
	if cfg.LeadDedupeSize < 1 {
		return nil, fmt.Errorf("CM_LEAD_DEDUPE_SIZE: значение должно быть >= 1")
	}

	// --- Мониторинг зависимостей ---

	cfg.DephealthGroup = getEnvDefault("CM_DEPHEALTH_GROUP", "car-market")
	cfg.DephealthCheckInterval, err = getEnvDurationFallback("CM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s pool_max_conns=%d",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode, c.DBMaxConns,
	)
}

// DatabaseURL возвращает URL PostgreSQL без учётных данных (для лейблов метрик).
func (c *Config) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:   "/" + c.DBName,
	}
	return u.String()
}

// LeadChannelsEnabled сообщает, настроен ли хотя бы один канал доставки заявок.
func (c *Config) LeadChannelsEnabled() bool {
	return c.ChatBotToken != "" || c.LeadSNSTopicARN != ""
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

// loadEnvFile подгружает переменные из .env, не перезаписывая уже заданные.
// Отсутствие файла ошибкой не считается.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("загрузка %s: %w", path, err)
	}
	return nil
}

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

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// getEnvDurationFallback как getEnvDuration, но дополнительно требует d > 0.
func getEnvDurationFallback(key string, fallbackVal time.Duration) (time.Duration, error) {
	d, err := getEnvDuration(key, fallbackVal)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// splitList разбивает список через запятую, отбрасывая пустые элементы.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
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
