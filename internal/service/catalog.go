// catalog.go — сервис каталога: поиск объявлений и карточка объявления.
// Координирует repository и Prometheus-метрики.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
	"github.com/xside333/tamx-website-sub001/internal/repository"
)

// Ошибки сервисного слоя.
var (
	// ErrNotFound — объявление не найдено.
	ErrNotFound = errors.New("объявление не найдено")
)

// Prometheus-метрики поиска.
var (
	searchTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_search_total",
		Help: "Общее количество запросов каталога.",
	})
	searchErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_search_errors_total",
		Help: "Количество запросов каталога, завершившихся ошибкой хранилища.",
	})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cm_search_duration_seconds",
		Help:    "Длительность запросов каталога (count + data).",
		Buckets: prometheus.DefBuckets,
	})
)

// ListingStore — хранилище объявлений.
type ListingStore interface {
	Search(ctx context.Context, q repository.ListingQuery) ([]model.Listing, int, error)
	GetByID(ctx context.Context, id int64) (*model.Listing, error)
}

// SearchResult — страница каталога.
type SearchResult struct {
	// Items — объявления страницы (не более PageSize)
	Items []model.Listing
	// Total — количество всех совпадений
	Total int
	// Page — номер страницы
	Page int
	// HasMore — есть ли следующие страницы
	HasMore bool
}

// CatalogService — сервис каталога.
type CatalogService struct {
	store        ListingStore
	queryTimeout time.Duration
	logger       *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
// queryTimeout ограничивает пару запросов одной страницы; 0 — без ограничения.
func NewCatalogService(store ListingStore, queryTimeout time.Duration, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:        store,
		queryTimeout: queryTimeout,
		logger:       logger.With(slog.String("component", "catalog_service")),
	}
}

func (s *CatalogService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Search выполняет поиск по каталогу.
// Ошибка хранилища возвращается как ошибка; пустой результат ошибкой не является.
func (s *CatalogService) Search(ctx context.Context, q repository.ListingQuery) (*SearchResult, error) {
	start := time.Now()
	searchTotal.Inc()

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, total, err := s.store.Search(ctx, q)
	if err != nil {
		searchErrorsTotal.Inc()
		return nil, fmt.Errorf("поиск объявлений: %w", err)
	}

	duration := time.Since(start)
	searchDuration.Observe(duration.Seconds())

	s.logger.Debug("Поиск выполнен",
		slog.Int("total", total),
		slog.Int("returned", len(items)),
		slog.Int("page", q.Page),
		slog.String("sort", string(q.Sort)),
		slog.Duration("duration", duration),
	)

	return &SearchResult{
		Items:   items,
		Total:   total,
		Page:    q.Page,
		HasMore: q.Offset()+len(items) < total,
	}, nil
}

// GetListing возвращает объявление по идентификатору.
func (s *CatalogService) GetListing(ctx context.Context, id int64) (*model.Listing, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	listing, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение объявления: %w", err)
	}
	return listing, nil
}
