// cars.go — обработчики каталога объявлений.
// GET /api/cars — страница каталога по фильтрам из query string.
// GET /api/cars/{id} — карточка одного объявления.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/xside333/tamx-website-sub001/internal/api/errors"
	"github.com/xside333/tamx-website-sub001/internal/repository"
	"github.com/xside333/tamx-website-sub001/internal/service"
)

// carsResponse — ответ GET /api/cars. Карточки отдаются без изменений.
type carsResponse struct {
	TotalCars int               `json:"totalcars"`
	Cars      []json.RawMessage `json:"cars"`
}

// ListCars — реализация GET /api/cars.
// Некорректные параметры не являются ошибкой: фильтр просто не применяется.
func (h *APIHandler) ListCars(w http.ResponseWriter, r *http.Request) {
	q := repository.ParseListingQuery(r.URL.Query())

	result, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		h.logger.Error("Ошибка поиска объявлений",
			slog.String("query", r.URL.RawQuery),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при поиске объявлений")
		return
	}

	resp := carsResponse{
		TotalCars: result.Total,
		Cars:      make([]json.RawMessage, 0, len(result.Items)),
	}
	for _, item := range result.Items {
		resp.Cars = append(resp.Cars, detailsOrNull(item.Details))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GetCar — реализация GET /api/cars/{id}.
func (h *APIHandler) GetCar(w http.ResponseWriter, r *http.Request) {
	rawID := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || id < 1 {
		apierrors.BadRequest(w, "Некорректный идентификатор объявления")
		return
	}

	listing, err := h.catalog.GetListing(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Объявление не найдено")
			return
		}
		h.logger.Error("Ошибка получения объявления",
			slog.Int64("id", id),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка при получении объявления")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(detailsOrNull(listing.Details))
}

// detailsOrNull — карточка объявления; отсутствующая карточка отдаётся как null.
func detailsOrNull(details json.RawMessage) json.RawMessage {
	if len(details) == 0 {
		return json.RawMessage("null")
	}
	return details
}
