// filtercache.go — периодическая пересборка кэша фильтров.
//
// FilterCacheBuilder читает четыре фильтруемых столбца всего каталога,
// строит дерево brand → modelGroup → model → [grade] и атомарно
// заменяет JSON-файл, который отдаёт GET /api/filters.
//
// Цикл: сборка, затем ожидание max(0, interval - длительность сборки).
// Ошибка сборки завершает цикл: Run возвращает её, процесс выходит
// с ненулевым кодом и перезапускается супервизором. Прежний файл при этом
// остаётся нетронутым.
//
// Prometheus-метрики:
//   - cm_filter_cache_builds_total — количество сборок (по результату)
//   - cm_filter_cache_build_duration_seconds — длительность сборки
//   - cm_filter_cache_last_success_timestamp_seconds — время последней успешной сборки
//   - cm_filter_cache_entries — размеры дерева (brands, models, grades)
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/xside333/tamx-website-sub001/internal/domain/model"
	"github.com/xside333/tamx-website-sub001/internal/taxonomy"
)

// Prometheus-метрики кэша фильтров.
var (
	filterCacheBuildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_filter_cache_builds_total",
		Help: "Количество сборок кэша фильтров.",
	}, []string{"result"}) // result: success, error

	filterCacheBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cm_filter_cache_build_duration_seconds",
		Help:    "Длительность сборки кэша фильтров.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 0.1s … ~204s
	})

	filterCacheLastSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cm_filter_cache_last_success_timestamp_seconds",
		Help: "Unix-время последней успешной сборки кэша фильтров.",
	})

	filterCacheEntries = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cm_filter_cache_entries",
		Help: "Размер дерева фильтров по уровням.",
	}, []string{"level"}) // level: brands, models, grades
)

// TaxonomySource — источник строк таксономии.
type TaxonomySource interface {
	TaxonomyRows(ctx context.Context) ([]model.TaxonomyRow, error)
}

// FilterCacheBuilder — сборщик кэша фильтров.
type FilterCacheBuilder struct {
	source       TaxonomySource
	path         string
	interval     time.Duration
	buildTimeout time.Duration
	clock        clockwork.Clock
	logger       *slog.Logger
}

// FilterCacheOption — опция FilterCacheBuilder.
type FilterCacheOption func(*FilterCacheBuilder)

// WithClock подменяет часы (в тестах — clockwork.FakeClock).
func WithClock(clock clockwork.Clock) FilterCacheOption {
	return func(b *FilterCacheBuilder) {
		b.clock = clock
	}
}

// NewFilterCacheBuilder создаёт сборщик кэша фильтров.
// path — путь к JSON-файлу; interval — период пересборки;
// buildTimeout — ограничение одной сборки (0 — без ограничения).
func NewFilterCacheBuilder(
	source TaxonomySource,
	path string,
	interval time.Duration,
	buildTimeout time.Duration,
	logger *slog.Logger,
	opts ...FilterCacheOption,
) *FilterCacheBuilder {
	b := &FilterCacheBuilder{
		source:       source,
		path:         path,
		interval:     interval,
		buildTimeout: buildTimeout,
		clock:        clockwork.NewRealClock(),
		logger:       logger.With(slog.String("component", "filter_cache")),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// BuildOnce выполняет один цикл: чтение, построение дерева, атомарная запись.
func (b *FilterCacheBuilder) BuildOnce(ctx context.Context) (taxonomy.Stats, error) {
	start := b.clock.Now()

	if b.buildTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.buildTimeout)
		defer cancel()
	}

	stats, err := b.build(ctx)
	duration := b.clock.Since(start)
	filterCacheBuildDuration.Observe(duration.Seconds())

	if err != nil {
		filterCacheBuildsTotal.WithLabelValues("error").Inc()
		return taxonomy.Stats{}, err
	}

	filterCacheBuildsTotal.WithLabelValues("success").Inc()
	filterCacheLastSuccess.Set(float64(b.clock.Now().Unix()))
	filterCacheEntries.WithLabelValues("brands").Set(float64(stats.Brands))
	filterCacheEntries.WithLabelValues("models").Set(float64(stats.Models))
	filterCacheEntries.WithLabelValues("grades").Set(float64(stats.Grades))

	b.logger.Info("Кэш фильтров собран",
		slog.String("path", b.path),
		slog.Int("brands", stats.Brands),
		slog.Int("models", stats.Models),
		slog.Int("grades", stats.Grades),
		slog.Duration("duration", duration),
	)
	return stats, nil
}

func (b *FilterCacheBuilder) build(ctx context.Context) (taxonomy.Stats, error) {
	rows, err := b.source.TaxonomyRows(ctx)
	if err != nil {
		return taxonomy.Stats{}, fmt.Errorf("чтение таксономии: %w", err)
	}

	tree := taxonomy.Build(rows)
	data, err := taxonomy.Encode(tree)
	if err != nil {
		return taxonomy.Stats{}, fmt.Errorf("сериализация таксономии: %w", err)
	}

	// Отменённая сборка не должна перезаписывать файл
	if err := ctx.Err(); err != nil {
		return taxonomy.Stats{}, fmt.Errorf("сборка прервана: %w", err)
	}
	if err := taxonomy.WriteFile(b.path, data); err != nil {
		return taxonomy.Stats{}, fmt.Errorf("запись кэша фильтров: %w", err)
	}
	return tree.Stats(), nil
}

// nextDelay — пауза до следующей сборки: max(0, interval - elapsed).
func nextDelay(interval, elapsed time.Duration) time.Duration {
	if d := interval - elapsed; d > 0 {
		return d
	}
	return 0
}

// Run выполняет сборки до отмены ctx или первой ошибки.
// Первая сборка — сразу при запуске. Отмена ctx не считается ошибкой.
func (b *FilterCacheBuilder) Run(ctx context.Context) error {
	b.logger.Info("Периодическая сборка кэша фильтров запущена",
		slog.String("interval", b.interval.String()),
		slog.String("build_timeout", b.buildTimeout.String()),
		slog.String("path", b.path),
	)

	for {
		start := b.clock.Now()
		if _, err := b.BuildOnce(ctx); err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				b.logger.Info("Периодическая сборка кэша фильтров остановлена")
				return nil
			}
			b.logger.Error("Ошибка сборки кэша фильтров", slog.String("error", err.Error()))
			return err
		}

		delay := nextDelay(b.interval, b.clock.Since(start))
		b.logger.Debug("Ожидание следующей сборки", slog.Duration("delay", delay))

		select {
		case <-ctx.Done():
			b.logger.Info("Периодическая сборка кэша фильтров остановлена")
			return nil
		case <-b.clock.After(delay):
		}
	}
}
