// Точка входа docstore — сервиса жизненного цикла документов.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/arturkryukov/docstore/internal/api/handlers"
	"github.com/arturkryukov/docstore/internal/api/middleware"
	"github.com/arturkryukov/docstore/internal/cache"
	"github.com/arturkryukov/docstore/internal/config"
	"github.com/arturkryukov/docstore/internal/database"
	"github.com/arturkryukov/docstore/internal/repository"
	"github.com/arturkryukov/docstore/internal/server"
	"github.com/arturkryukov/docstore/internal/service"
	"github.com/arturkryukov/docstore/internal/storage/blobstore"
)

func main() {
	// Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка конфигурации: %v\n", err)
		os.Exit(1)
	}

	// Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("docstore запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("retention_window", cfg.RetentionWindow.String()),
	)

	// --- Инициализация компонентов ---

	// 1. PostgreSQL: миграции + пул соединений
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка применения миграций", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 2. Blob-хранилище
	blobs, err := blobstore.NewDiskStore(cfg.DataDir)
	if err != nil {
		logger.Error("Ошибка инициализации blob-хранилища", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("Blob-хранилище готово", slog.String("data_dir", blobs.DataDir()))

	// 3. Кэш списков владельцев
	listings := cache.New(cfg.CacheMaxOwners, cfg.CacheTTL)

	// 4. Репозиторий и сервисы
	docRepo := repository.NewDocumentRepository(pool)

	lifecycleSvc := service.NewLifecycleService(docRepo, blobs, listings, cfg.PurgeBlobs, logger)
	downloadSvc := service.NewDownloadService(docRepo, blobs, logger)
	accessSvc := service.NewAccessService(docRepo, logger)

	// 5. Фоновые процессы

	// 5.1 Sweeper — ежедневная очистка корзины
	sweeperSvc := service.NewSweeperService(docRepo, lifecycleSvc, cfg.RetentionWindow, logger)
	sweeperSvc.Start(ctx)

	// 5.2 topologymetrics — мониторинг JWKS провайдера идентичности
	dephealthSvc, dephealthErr := service.NewDephealthService(service.DephealthConfig{
		InstanceName:  cfg.DephealthName,
		Group:         cfg.DephealthGroup,
		DepName:       cfg.DephealthDepName,
		JWKSURL:       cfg.JWKSUrl,
		CheckInterval: cfg.DephealthCheckInterval,
		StrictTLS:     cfg.JWKSCACert != "",
	}, logger)
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
				slog.String("jwks_url", cfg.JWKSUrl),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
		}
	}

	// 6. JWT middleware
	var jwtAuth *middleware.JWTAuth
	jwtMiddleware, err := middleware.NewJWTAuth(middleware.JWTAuthConfig{
		JWKSURL:         cfg.JWKSUrl,
		CACertPath:      cfg.JWKSCACert,
		ClientTimeout:   10 * time.Second,
		RefreshInterval: cfg.JWKSRefreshInterval,
		JWTLeeway:       cfg.JWTLeeway,
	}, logger)
	if err != nil {
		// JWT недоступен — запускаем без аутентификации (для разработки)
		logger.Warn("JWT JWKS недоступен, запуск без аутентификации",
			slog.String("jwks_url", cfg.JWKSUrl),
			slog.String("error", err.Error()),
		)
	} else {
		jwtAuth = jwtMiddleware
		logger.Info("JWT аутентификация настроена",
			slog.String("jwks_url", cfg.JWKSUrl),
		)
	}

	// 7. Handlers и HTTP-сервер
	readiness := database.NewReadinessChecker(pool)

	srv := server.New(cfg, logger, jwtAuth, server.Handlers{
		Documents:   handlers.NewDocumentsHandler(lifecycleSvc, downloadSvc, logger),
		Access:      handlers.NewAccessHandler(accessSvc, logger),
		Maintenance: handlers.NewMaintenanceHandler(sweeperSvc, logger),
		Health:      handlers.NewHealthHandler(blobs, readiness),
	})

	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// --- Graceful shutdown фоновых процессов ---
	logger.Info("Остановка фоновых процессов...")

	sweeperSvc.Stop()
	if dephealthErr == nil {
		dephealthSvc.Stop()
	}

	logger.Info("docstore остановлен")
}
