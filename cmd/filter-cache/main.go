// Точка входа filter-cache — сборщик кэша фильтров каталога.
// Периодически читает таксономию из PostgreSQL и атомарно перезаписывает
// JSON-файл, который отдаёт Catalog API. Ошибка сборки завершает процесс
// с кодом 1: перезапуск — задача супервизора.
//
// Флаги:
//
//	-once — одна сборка и выход (cron, deploy hooks)
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xside333/tamx-website-sub001/internal/config"
	"github.com/xside333/tamx-website-sub001/internal/database"
	"github.com/xside333/tamx-website-sub001/internal/repository"
	"github.com/xside333/tamx-website-sub001/internal/service"
)

func main() {
	once := flag.Bool("once", false, "выполнить одну сборку и завершиться")
	flag.Parse()

	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("filter-cache запускается",
		slog.String("version", config.Version),
		slog.String("path", cfg.FilterCachePath),
		slog.Bool("once", *once),
	)

	// SIGINT/SIGTERM отменяют текущую сборку и ожидание
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, *once); err != nil {
		logger.Error("filter-cache завершился с ошибкой", slog.String("error", err.Error()))
		stop()
		os.Exit(1)
	}

	logger.Info("filter-cache остановлен")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, once bool) error {
	// 3. Подключение к PostgreSQL (pgxpool)
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	// 4. Сборщик кэша
	builder := service.NewFilterCacheBuilder(
		repository.NewListingRepository(pool),
		cfg.FilterCachePath,
		cfg.FilterCacheInterval,
		cfg.FilterCacheBuildTimeout,
		logger,
	)

	if once {
		_, err := builder.BuildOnce(ctx)
		return err
	}
	return builder.Run(ctx)
}
