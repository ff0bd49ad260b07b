// sweeper.go — фоновая очистка корзины (Retention Sweeper).
//
// Sweeper окончательно удаляет soft-deleted документы, чей срок
// хранения в корзине истёк (deleted_at < now - retention).
// Запускается как горутина, срабатывающая ежедневно в 00:00 UTC,
// плюс ручной запуск через maintenance endpoint.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/docstore/internal/repository"
)

// Prometheus метрики sweeper
var (
	// sweeperRunsTotal — количество запусков sweeper.
	sweeperRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ds_sweeper_runs_total",
		Help: "Общее количество запусков очистки корзины",
	})

	// sweeperPurgedTotal — количество окончательно удалённых документов.
	sweeperPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ds_sweeper_purged_total",
		Help: "Общее количество документов, удалённых очисткой корзины",
	})

	// sweeperDurationSeconds — длительность выполнения очистки.
	sweeperDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ds_sweeper_duration_seconds",
		Help:    "Длительность выполнения очистки корзины в секундах",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// SweepResult — результат одного запуска очистки.
type SweepResult struct {
	// PurgedCount — количество окончательно удалённых документов
	PurgedCount int
	// Errors — количество ошибок при обработке документов
	Errors int
	// Duration — длительность выполнения
	Duration time.Duration
}

// SweeperService — сервис очистки корзины.
type SweeperService struct {
	repo      repository.DocumentRepository
	lifecycle *LifecycleService
	retention time.Duration
	logger    *slog.Logger

	mu     sync.Mutex // защита от параллельного запуска RunOnce
	cancel context.CancelFunc
}

// NewSweeperService создаёт сервис очистки корзины.
// retention — окно хранения: сколько документ живёт в корзине до purge.
func NewSweeperService(
	repo repository.DocumentRepository,
	lifecycle *LifecycleService,
	retention time.Duration,
	logger *slog.Logger,
) *SweeperService {
	return &SweeperService{
		repo:      repo,
		lifecycle: lifecycle,
		retention: retention,
		logger:    logger.With(slog.String("component", "sweeper")),
	}
}

// Start запускает фоновую горутину, срабатывающую ежедневно в 00:00 UTC.
// Вызывается один раз при старте приложения.
func (sw *SweeperService) Start(ctx context.Context) {
	swCtx, cancel := context.WithCancel(ctx)
	sw.cancel = cancel

	go sw.run(swCtx)

	sw.logger.Info("Очистка корзины запущена",
		slog.String("retention", sw.retention.String()),
		slog.String("schedule", "ежедневно в 00:00 UTC"),
	)
}

// Stop останавливает фоновую горутину.
func (sw *SweeperService) Stop() {
	if sw.cancel != nil {
		sw.cancel()
	}
	sw.logger.Info("Очистка корзины остановлена")
}

// run — основной цикл фоновой горутины: таймер до следующей полуночи UTC.
func (sw *SweeperService) run(ctx context.Context) {
	for {
		wait := untilNextMidnightUTC(time.Now().UTC())
		timer := time.NewTimer(wait)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			sw.RunOnce(ctx)
		}
	}
}

// untilNextMidnightUTC возвращает длительность до ближайшей полуночи UTC.
func untilNextMidnightUTC(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}

// RunOnce выполняет один цикл очистки.
// Потокобезопасен: использует mutex для защиты от параллельного запуска.
// Идемпотентен: повторный запуск без новых кандидатов — no-op.
// Ошибка по одному документу логируется и подсчитывается, проход продолжается.
func (sw *SweeperService) RunOnce(ctx context.Context) *SweepResult {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	start := time.Now()
	result := &SweepResult{}

	cutoff := time.Now().UTC().Add(-sw.retention)
	sw.logger.Debug("Очистка корзины начата",
		slog.Time("cutoff", cutoff),
	)

	candidates, err := sw.repo.ListPurgeCandidates(ctx, cutoff)
	if err != nil {
		sw.logger.Error("Ошибка выборки кандидатов на удаление",
			slog.String("error", err.Error()),
		)
		result.Errors++
		result.Duration = time.Since(start)
		return result
	}

	for _, doc := range candidates {
		if err := sw.lifecycle.Purge(ctx, doc.ID); err != nil {
			sw.logger.Error("Ошибка окончательного удаления документа",
				slog.String("document_id", doc.ID),
				slog.String("error", err.Error()),
			)
			result.Errors++
			continue
		}
		result.PurgedCount++
	}

	result.Duration = time.Since(start)

	sweeperRunsTotal.Inc()
	sweeperPurgedTotal.Add(float64(result.PurgedCount))
	sweeperDurationSeconds.Observe(result.Duration.Seconds())

	sw.logger.Info("Очистка корзины завершена",
		slog.Int("purged", result.PurgedCount),
		slog.Int("errors", result.Errors),
		slog.Duration("duration", result.Duration),
	)

	return result
}
