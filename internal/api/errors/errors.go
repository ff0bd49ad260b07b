// Пакет errors — запись HTTP-ответов docstore в едином конверте.
// Формат ошибки: {"statusCode": ..., "success": false, "message": "...",
// "errorMessages": [{"path": "...", "message": "..."}]}.
// Все HTTP-ответы с ошибками должны использовать WriteError.
package errors //nolint:revive // TODO: переименовать пакет errors, конфликт со stdlib

import (
	"encoding/json"
	"net/http"
)

// FieldError — ошибка конкретного поля запроса.
type FieldError struct {
	// Path — путь до поля в теле запроса
	Path string `json:"path"`
	// Message — описание ошибки
	Message string `json:"message"`
}

// errorBody — конверт ответа с ошибкой.
type errorBody struct {
	StatusCode    int          `json:"statusCode"`
	Success       bool         `json:"success"`
	Message       string       `json:"message"`
	ErrorMessages []FieldError `json:"errorMessages,omitempty"`
}

// WriteError записывает ответ с ошибкой в стандартном конверте.
func WriteError(w http.ResponseWriter, statusCode int, message string, fields ...FieldError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorBody{
		StatusCode:    statusCode,
		Success:       false,
		Message:       message,
		ErrorMessages: fields,
	})
}

// --- Конструкторы для типичных ошибок ---

// ValidationError — 400 некорректные входные данные.
func ValidationError(w http.ResponseWriter, message string, fields ...FieldError) {
	WriteError(w, http.StatusBadRequest, message, fields...)
}

// NotFound — 404 ресурс не найден.
func NotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, message)
}

// Unauthorized — 401 требуется аутентификация.
func Unauthorized(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusUnauthorized, message)
}

// Forbidden — 403 недостаточно прав.
func Forbidden(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusForbidden, message)
}

// InternalError — 500 внутренняя ошибка.
func InternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, message)
}
