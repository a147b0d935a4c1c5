// Пакет server — HTTP-сервер каталога с graceful shutdown.
// Без TLS — TLS termination на балансировщике.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/xside333/tamx-website-sub001/internal/api/errors"
	"github.com/xside333/tamx-website-sub001/internal/api/handlers"
	"github.com/xside333/tamx-website-sub001/internal/config"
)

// Server — HTTP-сервер каталога.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными routes и middleware.
// static — файловый сервер фронтенда (nil — фронтенд не раздаётся).
// middlewares — добавляются в порядке переданного среза.
func New(
	cfg *config.Config,
	logger *slog.Logger,
	handler *handlers.APIHandler,
	static http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) *Server {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      NewRouter(handler, static, middlewares...),
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// NewRouter собирает маршруты API, health endpoints и раздачу фронтенда.
func NewRouter(
	handler *handlers.APIHandler,
	static http.Handler,
	middlewares ...func(http.Handler) http.Handler,
) http.Handler {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	router.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		apierrors.MethodNotAllowed(w, "Метод не поддерживается")
	})

	// Не-API GET-запросы обслуживает фронтенд
	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		isAPI := r.URL.Path == "/api" || strings.HasPrefix(r.URL.Path, "/api/")
		if static == nil || isAPI || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			apierrors.NotFound(w, "Ресурс не найден")
			return
		}
		static.ServeHTTP(w, r)
	})

	router.Route("/api", func(r chi.Router) {
		r.Get("/cars", handler.ListCars)
		r.Get("/cars/{id}", handler.GetCar)
		r.Get("/filters", handler.GetFilters)
		r.Post("/leads", handler.SubmitLead)
	})

	return router
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	// Канал для ошибок сервера
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
