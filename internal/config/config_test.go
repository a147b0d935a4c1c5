package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// setEnvs устанавливает переменные окружения на время теста.
func setEnvs(t *testing.T, envs map[string]string) {
	t.Helper()
	for k, v := range envs {
		t.Setenv(k, v)
	}
}

// minimalEnvs возвращает минимальный набор обязательных переменных.
// CM_ENV_FILE указывает на несуществующий файл, чтобы локальный .env не влиял на тесты.
func minimalEnvs(t *testing.T) map[string]string {
	return map[string]string{
		"CM_ENV_FILE": filepath.Join(t.TempDir(), "missing.env"),
		"CM_DB_NAME":  "cars",
		"CM_DB_USER":  "cars",
	}
}

func TestLoad_MinimalConfig(t *testing.T) {
	setEnvs(t, minimalEnvs(t))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, ожидается 8080", cfg.Port)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, ожидается Info", cfg.LogLevel)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, ожидается json", cfg.LogFormat)
	}
	if cfg.DBHost != "localhost" {
		t.Errorf("DBHost = %q, ожидается localhost", cfg.DBHost)
	}
	if cfg.DBPort != 5432 {
		t.Errorf("DBPort = %d, ожидается 5432", cfg.DBPort)
	}
	if cfg.FilterCacheInterval != 24*time.Hour {
		t.Errorf("FilterCacheInterval = %v, ожидается 24h", cfg.FilterCacheInterval)
	}
	if cfg.FilterCacheBuildTimeout != 10*time.Minute {
		t.Errorf("FilterCacheBuildTimeout = %v, ожидается 10m", cfg.FilterCacheBuildTimeout)
	}
	if cfg.FilterCachePath != "cache/filters.json" {
		t.Errorf("FilterCachePath = %q, ожидается cache/filters.json", cfg.FilterCachePath)
	}
	if cfg.LeadDedupeWindow != time.Minute {
		t.Errorf("LeadDedupeWindow = %v, ожидается 1m", cfg.LeadDedupeWindow)
	}
	if cfg.LeadChannelsEnabled() {
		t.Error("LeadChannelsEnabled() = true, ожидается false без токена и топика")
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("ShutdownTimeout = %v, ожидается 5s", cfg.ShutdownTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	envs := minimalEnvs(t)
	delete(envs, "CM_DB_NAME")
	setEnvs(t, envs)
	t.Setenv("CM_DB_NAME", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() должен вернуть ошибку без CM_DB_NAME")
	}
	if !strings.Contains(err.Error(), "CM_DB_NAME") {
		t.Errorf("ошибка %q должна упоминать CM_DB_NAME", err)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"CM_PORT":                  "abc",
		"CM_LOG_LEVEL":             "verbose",
		"CM_LOG_FORMAT":            "xml",
		"CM_DB_SSL_MODE":           "maybe",
		"CM_FILTER_CACHE_INTERVAL": "0s",
		"CM_QUERY_TIMEOUT":         "soon",
		"CM_LEAD_DEDUPE_SIZE":      "0",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			setEnvs(t, minimalEnvs(t))
			t.Setenv(key, val)

			if _, err := Load(); err == nil {
				t.Errorf("Load() с %s=%q должен вернуть ошибку", key, val)
			}
		})
	}
}

func TestLoad_ChatRequiresIDs(t *testing.T) {
	setEnvs(t, minimalEnvs(t))
	t.Setenv("CM_CHAT_BOT_TOKEN", "123:abc")

	if _, err := Load(); err == nil {
		t.Fatal("Load() должен требовать CM_CHAT_IDS при заданном токене")
	}

	t.Setenv("CM_CHAT_IDS", " -100500, ,42 ")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if len(cfg.ChatIDs) != 2 || cfg.ChatIDs[0] != "-100500" || cfg.ChatIDs[1] != "42" {
		t.Errorf("ChatIDs = %v, ожидается [-100500 42]", cfg.ChatIDs)
	}
	if !cfg.LeadChannelsEnabled() {
		t.Error("LeadChannelsEnabled() = false, ожидается true")
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	content := "CM_DB_NAME=fromfile\nCM_DB_USER=fromfile\nCM_PORT=9090\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("запись .env: %v", err)
	}
	t.Setenv("CM_ENV_FILE", envFile)
	// Уже заданные переменные имеют приоритет над .env
	t.Setenv("CM_PORT", "8081")
	// t.Setenv гарантирует восстановление значений, выставленных godotenv
	t.Setenv("CM_DB_NAME", "")
	t.Setenv("CM_DB_USER", "")
	os.Unsetenv("CM_DB_NAME")
	os.Unsetenv("CM_DB_USER")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() вернул ошибку: %v", err)
	}
	if cfg.DBName != "fromfile" {
		t.Errorf("DBName = %q, ожидается fromfile", cfg.DBName)
	}
	if cfg.Port != 8081 {
		t.Errorf("Port = %d, ожидается 8081 (переменная окружения важнее .env)", cfg.Port)
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: 5433, DBName: "cars", DBUser: "u", DBPassword: "secret"}

	got := cfg.DatabaseURL()
	if got != "postgres://db:5433/cars" {
		t.Errorf("DatabaseURL() = %q, ожидается postgres://db:5433/cars", got)
	}
	if strings.Contains(got, "secret") {
		t.Error("DatabaseURL() не должен содержать пароль")
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, ,b,,c ")
	if len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("splitList = %v, ожидается [a b c]", got)
	}
	if splitList("") != nil {
		t.Error("splitList(\"\") должен вернуть nil")
	}
}
