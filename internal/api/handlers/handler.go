// handler.go — основной обработчик API каталога.
// Объединяет health и бизнес-обработчики: каталог, кэш фильтров, заявки.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
	"github.com/xside333/tamx-website-sub001/internal/repository"
	"github.com/xside333/tamx-website-sub001/internal/service"
)

// CatalogSearcher — сервис каталога (service.CatalogService).
type CatalogSearcher interface {
	Search(ctx context.Context, q repository.ListingQuery) (*service.SearchResult, error)
	GetListing(ctx context.Context, id int64) (*model.Listing, error)
}

// LeadSubmitter — сервис заявок (service.LeadService).
type LeadSubmitter interface {
	Submit(ctx context.Context, body []byte) (*service.LeadResult, error)
}

// APIHandler — основной обработчик API каталога.
type APIHandler struct {
	health          *HealthHandler
	catalog         CatalogSearcher
	leads           LeadSubmitter
	filterCachePath string
	logger          *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
// leads может быть nil — POST /api/leads тогда отвечает 503.
func NewAPIHandler(
	health *HealthHandler,
	catalog CatalogSearcher,
	leads LeadSubmitter,
	filterCachePath string,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:          health,
		catalog:         catalog,
		leads:           leads,
		filterCachePath: filterCachePath,
		logger:          logger.With(slog.String("component", "api_handler")),
	}
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
