// Пакет server — HTTP-сервер docstore с graceful shutdown.
// Маршруты собираются вручную на chi: JWT-аутентификация закрывает
// всё под /api/v1, health и metrics публичны.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arturkryukov/docstore/internal/api/handlers"
	"github.com/arturkryukov/docstore/internal/api/middleware"
	"github.com/arturkryukov/docstore/internal/config"
)

// Handlers — набор обработчиков для сборки маршрутов.
type Handlers struct {
	Documents   *handlers.DocumentsHandler
	Access      *handlers.AccessHandler
	Maintenance *handlers.MaintenanceHandler
	Health      *handlers.HealthHandler
}

// Server — HTTP-сервер docstore.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт новый HTTP-сервер с настроенными маршрутами и middleware.
// auth может быть nil (маршруты /api/v1 остаются без аутентификации — тесты).
func New(cfg *config.Config, logger *slog.Logger, auth *middleware.JWTAuth, h Handlers) *Server {
	router := chi.NewRouter()

	// Общие middleware
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.MetricsMiddleware())

	// Публичные endpoints
	router.Get("/health/live", h.Health.HealthLive)
	router.Get("/health/ready", h.Health.HealthReady)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Защищённые endpoints
	router.Route("/api/v1", func(r chi.Router) {
		if auth != nil {
			r.Use(auth.Middleware())
		}

		r.Route("/documents", func(r chi.Router) {
			r.Post("/", h.Documents.Create)
			r.Get("/", h.Documents.List)
			r.Get("/cache", h.Documents.ListCached)
			r.Get("/shared", h.Access.ListShared)
			r.Get("/trash", h.Documents.ListTrash)
			r.Post("/share", h.Access.Share)

			r.Route("/{documentId}", func(r chi.Router) {
				r.Get("/", h.Documents.Get)
				r.Patch("/", h.Documents.Update)
				r.Delete("/", h.Documents.SoftDelete)
				r.Post("/restore", h.Documents.Restore)
				r.Delete("/permanent", h.Documents.Purge)
				r.Get("/download", h.Documents.Download)
				r.Get("/data-url", h.Documents.DownloadDataURL)
			})
		})

		r.Post("/maintenance/sweep", h.Maintenance.Sweep)
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
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

// Handler возвращает корневой http.Handler сервера. Используется в тестах.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown с таймаутом
// из конфигурации (DS_SHUTDOWN_TIMEOUT).
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
