// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// docstore мониторит JWKS endpoint провайдера идентичности (HTTP GET,
// critical): без ключей подписи сервис не может проверять токены.
// TLS-поведение проверки повторяет auth middleware: при заданном
// DS_JWKS_CA_CERT сертификат проверяется строго, без него допускаются
// self-signed сертификаты dev-среды.
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
//
// Используется встроенный HTTP checker из dephealth SDK.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks" // Регистрация фабрик checker-ов (HTTP и др.)
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthConfig — параметры мониторинга JWKS-зависимости.
type DephealthConfig struct {
	// InstanceName — имя вершины графа текущего приложения (DEPHEALTH_NAME)
	InstanceName string
	// Group — имя группы в метриках (DS_DEPHEALTH_GROUP)
	Group string
	// DepName — имя зависимости / целевого сервиса (DS_DEPHEALTH_DEP_NAME)
	DepName string
	// JWKSURL — URL JWKS endpoint для проверки (DS_JWKS_URL)
	JWKSURL string
	// CheckInterval — интервал проверки (DS_DEPHEALTH_CHECK_INTERVAL)
	CheckInterval time.Duration
	// StrictTLS — строгая проверка TLS-сертификата endpoint.
	// Включается, когда задан DS_JWKS_CA_CERT; иначе допускаются
	// self-signed сертификаты dev-среды.
	StrictTLS bool
}

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
func NewDephealthService(cfg DephealthConfig, logger *slog.Logger) (*DephealthService, error) {
	return newDephealthService(cfg, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	cfg DephealthConfig,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(cfg, logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	cfg DephealthConfig,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	// Встроенный HTTP checker с per-dependency интервалом
	opts := []dephealth.Option{
		dephealth.WithLogger(logger),
		dephealth.HTTP(cfg.DepName,
			dephealth.FromURL(cfg.JWKSURL),
			dephealth.CheckInterval(cfg.CheckInterval),
			dephealth.Critical(true),
			dephealth.WithHTTPTLSSkipVerify(!cfg.StrictTLS),
		),
	}
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(
		cfg.InstanceName,
		cfg.Group,
		opts...,
	)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// Healthy сообщает, здоровы ли все зарегистрированные зависимости.
// До первой проверки карта состояний пуста — считается здоровым.
func (ds *DephealthService) Healthy() bool {
	for _, ok := range ds.dh.Health() {
		if !ok {
			return false
		}
	}
	return true
}
