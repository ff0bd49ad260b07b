// documents.go — обработчики жизненного цикла документов.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/arturkryukov/docstore/internal/api/middleware"
	"github.com/arturkryukov/docstore/internal/service"
)

// DocumentsHandler — обработчики /api/v1/documents.
type DocumentsHandler struct {
	lifecycle *service.LifecycleService
	download  *service.DownloadService
	logger    *slog.Logger
}

// NewDocumentsHandler создаёт обработчик документов.
func NewDocumentsHandler(
	lifecycle *service.LifecycleService,
	download *service.DownloadService,
	logger *slog.Logger,
) *DocumentsHandler {
	return &DocumentsHandler{
		lifecycle: lifecycle,
		download:  download,
		logger:    logger.With(slog.String("component", "documents_handler")),
	}
}

// createRequest — тело POST /api/v1/documents.
type createRequest struct {
	// Title — название документа
	Title string `json:"title"`
	// Type — MIME-тип содержимого
	Type string `json:"type"`
	// Data — содержимое в base64 (допускается data-URL префикс)
	Data string `json:"data"`
}

// updateRequest — тело PATCH /api/v1/documents/{documentId}.
// Отсутствующее поле не затрагивается.
type updateRequest struct {
	Title *string `json:"title"`
	Type  *string `json:"type"`
	Data  *string `json:"data"`
}

// Create обрабатывает POST /api/v1/documents.
func (h *DocumentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.Title == "" || req.Type == "" || req.Data == "" {
		writeServiceError(w, h.logger, "create",
			fmt.Errorf("%w: поля title, type и data обязательны", service.ErrValidation))
		return
	}

	identity := middleware.IdentityFromContext(r.Context())

	doc, err := h.lifecycle.Create(r.Context(), identity, service.CreateParams{
		Title:       req.Title,
		ContentType: req.Type,
		Data:        req.Data,
	})
	if err != nil {
		writeServiceError(w, h.logger, "create", err)
		return
	}

	writeSuccess(w, http.StatusCreated, "Документ создан", doc, metaFor(doc))
}

// List обрабатывает GET /api/v1/documents: активные документы владельца
// напрямую из репозитория. После soft delete документ исчезает из
// списка немедленно.
func (h *DocumentsHandler) List(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	records, err := h.lifecycle.ListActive(r.Context(), identity.Subject)
	if err != nil {
		writeServiceError(w, h.logger, "list", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Список документов", records, nil)
}

// ListCached обрабатывает GET /api/v1/documents/cache.
// Кэшированный список: снимок из кэша при попадании, чтение из базы
// при промахе. Допускает устаревание снимка в пределах TTL.
func (h *DocumentsHandler) ListCached(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	records, err := h.lifecycle.ListActiveCached(r.Context(), identity.Subject)
	if err != nil {
		writeServiceError(w, h.logger, "list_cached", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Список документов (кэш)", records, nil)
}

// Get обрабатывает GET /api/v1/documents/{documentId}.
func (h *DocumentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")

	doc, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "get", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Документ", doc, metaFor(doc))
}

// Update обрабатывает PATCH /api/v1/documents/{documentId}.
func (h *DocumentsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")

	var req updateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	doc, err := h.lifecycle.Update(r.Context(), id, service.UpdateParams{
		Title:       req.Title,
		ContentType: req.Type,
		Data:        req.Data,
	})
	if err != nil {
		writeServiceError(w, h.logger, "update", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Документ обновлён", doc, metaFor(doc))
}

// SoftDelete обрабатывает DELETE /api/v1/documents/{documentId}:
// перемещение документа в корзину.
func (h *DocumentsHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")
	identity := middleware.IdentityFromContext(r.Context())

	if err := h.lifecycle.SoftDelete(r.Context(), id, identity.Subject); err != nil {
		writeServiceError(w, h.logger, "soft_delete", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Документ перемещён в корзину", nil, nil)
}

// Restore обрабатывает POST /api/v1/documents/{documentId}/restore.
func (h *DocumentsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")

	if err := h.lifecycle.Restore(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "restore", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Документ восстановлен", nil, nil)
}

// Purge обрабатывает DELETE /api/v1/documents/{documentId}/permanent:
// окончательное удаление записи.
func (h *DocumentsHandler) Purge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")

	if err := h.lifecycle.Purge(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, "purge", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Документ окончательно удалён", nil, nil)
}

// ListTrash обрабатывает GET /api/v1/documents/trash:
// документы, перемещённые в корзину текущим пользователем.
func (h *DocumentsHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	records, err := h.lifecycle.ListDeleted(r.Context(), identity.Subject)
	if err != nil {
		writeServiceError(w, h.logger, "list_trash", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Содержимое корзины", records, nil)
}

// Download обрабатывает GET /api/v1/documents/{documentId}/download:
// отдаёт сырое содержимое с Content-Type и attachment disposition.
func (h *DocumentsHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")

	result, err := h.download.Fetch(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "download", err)
		return
	}

	w.Header().Set("Content-Type", result.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", result.Record.Title))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(result.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// DownloadDataURL обрабатывает GET /api/v1/documents/{documentId}/data-url:
// отдаёт содержимое в форме data-URL внутри конверта.
func (h *DocumentsHandler) DownloadDataURL(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentId")

	record, dataURL, err := h.download.FetchDataURL(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, "download_data_url", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Содержимое документа",
		map[string]string{"dataUrl": dataURL}, metaFor(record))
}
