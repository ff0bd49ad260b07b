// Пакет handlers — HTTP-обработчики docstore. Тонкая обвязка:
// разбор запроса, вызов сервисного слоя, запись ответа в едином конверте.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/arturkryukov/docstore/internal/api/errors"
	"github.com/arturkryukov/docstore/internal/domain/model"
	"github.com/arturkryukov/docstore/internal/service"
)

// Meta — дополнительные сведения о документе в конверте ответа.
type Meta struct {
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Type    string `json:"type"`
	Version int    `json:"version"`
}

// envelope — единый конверт успешного ответа.
type envelope struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Meta       *Meta  `json:"meta,omitempty"`
}

// writeSuccess записывает успешный ответ в стандартном конверте.
func writeSuccess(w http.ResponseWriter, statusCode int, message string, data any, meta *Meta) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(envelope{
		StatusCode: statusCode,
		Success:    true,
		Message:    message,
		Data:       data,
		Meta:       meta,
	})
}

// metaFor строит Meta из записи документа.
func metaFor(doc *model.DocumentRecord) *Meta {
	return &Meta{
		Name:    doc.Title,
		Size:    doc.Size,
		Type:    doc.ContentType,
		Version: doc.Version,
	}
}

// writeServiceError сопоставляет sentinel-ошибки сервисного слоя
// с HTTP статус-кодами. Внутренние ошибки логируются, клиенту
// отдаётся общее сообщение.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, "Документ не найден")
	default:
		logger.Error("Внутренняя ошибка",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// decodeBody разбирает JSON-тело запроса в dst.
// При ошибке пишет 400 и возвращает false.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		apierrors.ValidationError(w, "Некорректное JSON-тело запроса",
			apierrors.FieldError{Path: "body", Message: err.Error()})
		return false
	}
	return true
}
