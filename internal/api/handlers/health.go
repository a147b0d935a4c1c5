// health.go — обработчики health endpoints каталога.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (PostgreSQL доступен, кэш фильтров на месте)
// /metrics — Prometheus метрики
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xside333/tamx-website-sub001/internal/config"
)

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status, message string)
}

// DependencyReporter — состояние зависимостей из topologymetrics.
// Ключ — "dependency:host:port", значение — true если ok.
type DependencyReporter interface {
	Health() map[string]bool
}

// serviceName — имя сервиса в ответах health endpoints.
const serviceName = "catalog-api"

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	pgChecker    ReadinessChecker
	cacheChecker ReadinessChecker
	deps         DependencyReporter
	promHandler  http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// pgChecker — проверка PostgreSQL (может быть nil — readiness вернёт "fail").
// cacheChecker — проверка файла кэша фильтров (nil — проверка пропускается).
func NewHealthHandler(pgChecker, cacheChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		pgChecker:    pgChecker,
		cacheChecker: cacheChecker,
		promHandler:  promhttp.Handler(),
	}
}

// SetDependencies подключает отчёт topologymetrics к readiness.
// Вызывается до запуска HTTP-сервера.
func (h *HealthHandler) SetDependencies(deps DependencyReporter) {
	h.deps = deps
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		PostgreSQL  healthCheckResult  `json:"postgresql"`
		FilterCache *healthCheckResult `json:"filter_cache,omitempty"`
	} `json:"checks"`
	// Dependencies — последние результаты topologymetrics, на итоговый статус не влияют
	Dependencies map[string]bool `json:"dependencies,omitempty"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady — readiness probe. Проверяет PostgreSQL и кэш фильтров.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	// Проверяем PostgreSQL
	if h.pgChecker != nil {
		pgStatus, pgMsg := h.pgChecker.CheckReady()
		resp.Checks.PostgreSQL = healthCheckResult{Status: pgStatus, Message: pgMsg}
	} else {
		resp.Checks.PostgreSQL = healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}

	statuses := []string{resp.Checks.PostgreSQL.Status}
	if h.cacheChecker != nil {
		cacheStatus, cacheMsg := h.cacheChecker.CheckReady()
		resp.Checks.FilterCache = &healthCheckResult{Status: cacheStatus, Message: cacheMsg}
		statuses = append(statuses, cacheStatus)
	}

	if h.deps != nil {
		resp.Dependencies = h.deps.Health()
	}

	// Определяем итоговый статус
	resp.Status = overallStatus(statuses...)

	w.Header().Set("Content-Type", "application/json")
	if resp.Status == statusFail {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}
