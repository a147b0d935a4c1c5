// Точка входа Catalog API — HTTP-сервис каталога автомобилей.
// Загружает конфигурацию, подключается к PostgreSQL, создаёт сервисы каталога
// и заявок, запускает topologymetrics и HTTP-сервер с graceful shutdown.
// Кэш фильтров собирает отдельный процесс filter-cache; здесь он только читается.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/xside333/tamx-website-sub001/internal/api/handlers"
	"github.com/xside333/tamx-website-sub001/internal/api/middleware"
	"github.com/xside333/tamx-website-sub001/internal/chatclient"
	"github.com/xside333/tamx-website-sub001/internal/config"
	"github.com/xside333/tamx-website-sub001/internal/database"
	"github.com/xside333/tamx-website-sub001/internal/repository"
	"github.com/xside333/tamx-website-sub001/internal/server"
	"github.com/xside333/tamx-website-sub001/internal/service"
	"github.com/xside333/tamx-website-sub001/internal/snsclient"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Catalog API запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	// 3. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 3.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode)
	pgDB := database.SQLDB(pool)
	defer pgDB.Close()

	// 4. Каталог
	listingRepo := repository.NewListingRepository(pool)
	catalogSvc := service.NewCatalogService(listingRepo, cfg.QueryTimeout, logger)

	// 5. Каналы доставки заявок
	var notifiers []service.Notifier
	if cfg.ChatBotToken != "" {
		notifiers = append(notifiers, chatclient.New(
			cfg.ChatAPIURL, cfg.ChatBotToken, cfg.ChatIDs, cfg.ChatTimeout, logger,
		))
		logger.Info("Канал заявок: чат",
			slog.String("api_url", cfg.ChatAPIURL),
			slog.Int("chats", len(cfg.ChatIDs)),
		)
	}
	if cfg.LeadSNSTopicARN != "" {
		snsClient, snsErr := snsclient.New(ctx, cfg.AWSRegion, cfg.LeadSNSTopicARN, logger)
		if snsErr != nil {
			logger.Error("Ошибка инициализации SNS", slog.String("error", snsErr.Error()))
			os.Exit(1)
		}
		notifiers = append(notifiers, snsClient)
		logger.Info("Канал заявок: SNS",
			slog.String("topic_arn", cfg.LeadSNSTopicARN),
			slog.String("region", cfg.AWSRegion),
		)
	}
	if !cfg.LeadChannelsEnabled() {
		logger.Warn("Каналы заявок не настроены, POST /api/leads будет отвечать 503")
	}

	// 6. Сервис заявок
	deduper := service.NewLeadDeduper(cfg.LeadDedupeSize, cfg.LeadDedupeWindow)
	leadSvc, err := service.NewLeadService(deduper, notifiers, cfg.ChatTimeout, logger)
	if err != nil {
		logger.Error("Ошибка создания сервиса заявок", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 7. Readiness checkers (PostgreSQL + файл кэша фильтров)
	pgChecker := database.NewReadinessChecker(pool)
	cacheChecker := handlers.NewFilterCacheChecker(cfg.FilterCachePath, 2*cfg.FilterCacheInterval)
	healthHandler := handlers.NewHealthHandler(pgChecker, cacheChecker)

	// 8. API handler
	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		catalogSvc,
		leadSvc,
		cfg.FilterCachePath,
		logger,
	)

	// 9. topologymetrics — мониторинг зависимостей (PostgreSQL)
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"catalog-api",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
			defer dephealthSvc.Stop()
			healthHandler.SetDependencies(dephealthSvc)
		}
	}

	// 10. Фронтенд (опционально)
	var static http.Handler
	if cfg.StaticDir != "" {
		static = handlers.NewStaticHandler(cfg.StaticDir)
		logger.Info("Раздача фронтенда включена", slog.String("dir", cfg.StaticDir))
	}

	// 11. HTTP-сервер: request id → metrics → logging
	srv := server.New(cfg, logger, apiHandler, static,
		middleware.RequestID(),
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)

	// 12. Запуск сервера (блокирующий вызов с graceful shutdown)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Catalog API остановлен")
}
