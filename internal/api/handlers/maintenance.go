// maintenance.go — обработчик POST /api/v1/maintenance/sweep.
// Ручной запуск очистки корзины, дублирующий ежедневное расписание.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/arturkryukov/docstore/internal/service"
)

// SweepRunner — интерфейс запуска очистки корзины.
// Позволяет тестировать handler без полного SweeperService.
type SweepRunner interface {
	RunOnce(ctx context.Context) *service.SweepResult
}

// MaintenanceHandler — обработчик endpoints обслуживания.
type MaintenanceHandler struct {
	sweeper SweepRunner
	logger  *slog.Logger
}

// NewMaintenanceHandler создаёт обработчик maintenance endpoints.
func NewMaintenanceHandler(sweeper SweepRunner, logger *slog.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		sweeper: sweeper,
		logger:  logger.With(slog.String("component", "maintenance_handler")),
	}
}

// sweepResponse — результат очистки для клиента.
type sweepResponse struct {
	PurgedCount int    `json:"purgedCount"`
	Errors      int    `json:"errors"`
	Duration    string `json:"duration"`
}

// Sweep обрабатывает POST /api/v1/maintenance/sweep.
// Выполняет синхронный проход очистки и возвращает результат.
func (h *MaintenanceHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	result := h.sweeper.RunOnce(r.Context())

	writeSuccess(w, http.StatusOK, "Очистка корзины выполнена", sweepResponse{
		PurgedCount: result.PurgedCount,
		Errors:      result.Errors,
		Duration:    result.Duration.String(),
	}, nil)
}
