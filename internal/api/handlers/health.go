// health.go — обработчики health endpoints для Kubernetes probes.
package handlers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/arturkryukov/docstore/internal/config"
)

// statusFail — строковая константа для статуса "fail" в health checks.
const statusFail = "fail"

// healthProbeKey — ключ служебного объекта для проверки blob-хранилища.
const healthProbeKey = ".health_check"

// DBReadinessChecker — интерфейс проверки готовности базы данных.
type DBReadinessChecker interface {
	CheckReady() (status string, message string)
}

// BlobReadinessChecker — интерфейс проверки blob-хранилища.
// Реализуется blobstore.DiskStore.
type BlobReadinessChecker interface {
	Put(ctx context.Context, key string, data []byte) (string, error)
	Checksum(locator string) (string, error)
	Delete(ctx context.Context, locator string) error
}

// HealthHandler реализует health endpoints: /health/live, /health/ready.
type HealthHandler struct {
	version string
	// blobs — проверка записи и целостности blob-хранилища
	blobs BlobReadinessChecker
	// db — проверка доступности PostgreSQL
	db DBReadinessChecker
}

// NewHealthHandler создаёт обработчик health endpoints.
// blobs и db могут быть nil (соответствующая проверка пропускается).
func NewHealthHandler(blobs BlobReadinessChecker, db DBReadinessChecker) *HealthHandler {
	return &HealthHandler{
		version: config.Version,
		blobs:   blobs,
		db:      db,
	}
}

// HealthLive обрабатывает GET /health/live.
// Возвращает 200, если процесс жив. Не проверяет зависимости.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	resp := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "docstore",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

// HealthReady обрабатывает GET /health/ready.
// Проверяет: PostgreSQL и blob-хранилище.
func (h *HealthHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	overallStatus := "ok"
	httpStatus := http.StatusOK

	// Проверка базы данных
	dbCheck := map[string]any{"status": "ok", "message": "Проверка не настроена"}
	if h.db != nil {
		status, message := h.db.CheckReady()
		dbCheck = map[string]any{"status": status}
		if message != "" {
			dbCheck["message"] = message
		}
		if status != "ok" {
			overallStatus = statusFail
			httpStatus = http.StatusServiceUnavailable
		}
	}

	// Проверка blob-хранилища
	blobCheck := h.checkBlobStore(r.Context())
	if blobCheck["status"] != "ok" {
		overallStatus = statusFail
		httpStatus = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   h.version,
		"service":   "docstore",
		"checks": map[string]any{
			"database":  dbCheck,
			"blobstore": blobCheck,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// checkBlobStore проверяет blob-хранилище на запись и целостность:
// записывает служебный объект, сверяет его SHA-256 и удаляет.
func (h *HealthHandler) checkBlobStore(ctx context.Context) map[string]any {
	if h.blobs == nil {
		return map[string]any{
			"status":  "ok",
			"message": "Проверка не настроена",
		}
	}

	probe := []byte("ok")

	locator, err := h.blobs.Put(ctx, healthProbeKey, probe)
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Хранилище недоступно для записи: " + err.Error(),
		}
	}
	defer func() { _ = h.blobs.Delete(ctx, locator) }()

	sum, err := h.blobs.Checksum(locator)
	if err != nil {
		return map[string]any{
			"status":  statusFail,
			"message": "Ошибка чтения служебного объекта: " + err.Error(),
		}
	}

	want := sha256.Sum256(probe)
	if sum != hex.EncodeToString(want[:]) {
		return map[string]any{
			"status":  statusFail,
			"message": "Содержимое служебного объекта повреждено",
		}
	}

	return map[string]any{
		"status": "ok",
	}
}
