// filters.go — отдача кэша фильтров.
// GET /api/filters отдаёт файл, собранный filter-cache, без изменений:
// Last-Modified и условные запросы обрабатывает http.ServeContent.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	apierrors "github.com/xside333/tamx-website-sub001/internal/api/errors"
)

// GetFilters — реализация GET /api/filters.
func (h *APIHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(h.filterCachePath)
	if err != nil {
		h.logger.Error("Кэш фильтров недоступен",
			slog.String("path", h.filterCachePath),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Фильтры временно недоступны")
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil || stat.IsDir() {
		h.logger.Error("Кэш фильтров недоступен",
			slog.String("path", h.filterCachePath),
			slog.Bool("is_dir", err == nil && stat.IsDir()),
		)
		apierrors.InternalError(w, "Фильтры временно недоступны")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	http.ServeContent(w, r, "filters.json", stat.ModTime(), f)
}

// FilterCacheChecker — проверка готовности кэша фильтров.
// Отсутствующий или устаревший файл даёт degraded: каталог при этом работает.
type FilterCacheChecker struct {
	path   string
	maxAge time.Duration
	now    func() time.Time
}

// NewFilterCacheChecker создаёт проверку файла кэша.
// maxAge — возраст, после которого кэш считается устаревшим (0 — не проверяется).
func NewFilterCacheChecker(path string, maxAge time.Duration) *FilterCacheChecker {
	return &FilterCacheChecker{path: path, maxAge: maxAge, now: time.Now}
}

// CheckReady проверяет наличие и свежесть файла кэша.
func (c *FilterCacheChecker) CheckReady() (status, message string) {
	stat, err := os.Stat(c.path)
	if err != nil {
		return statusDegraded, "файл кэша фильтров недоступен"
	}
	if stat.IsDir() {
		return statusDegraded, "путь кэша фильтров указывает на каталог"
	}
	if age := c.now().Sub(stat.ModTime()); c.maxAge > 0 && age > c.maxAge {
		return statusDegraded, fmt.Sprintf("кэш фильтров устарел (%s)", age.Truncate(time.Second))
	}
	return statusOK, ""
}
