// share.go — обработчики грантов доступа.
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturkryukov/docstore/internal/api/middleware"
	"github.com/arturkryukov/docstore/internal/service"
)

// AccessHandler — обработчики /api/v1/documents/share и /shared.
type AccessHandler struct {
	access *service.AccessService
	logger *slog.Logger
}

// NewAccessHandler создаёт обработчик грантов доступа.
func NewAccessHandler(access *service.AccessService, logger *slog.Logger) *AccessHandler {
	return &AccessHandler{
		access: access,
		logger: logger.With(slog.String("component", "access_handler")),
	}
}

// shareRequest — тело POST /api/v1/documents/share.
type shareRequest struct {
	// DocumentID — идентификатор документа
	DocumentID string `json:"documentId"`
	// Email — кому выдаются гранты
	Email string `json:"email"`
	// Types — классы прав (view/edit/delete)
	Types []string `json:"types"`
}

// Share обрабатывает POST /api/v1/documents/share.
// Идемпотентно добавляет email в множества грантов указанных классов.
func (h *AccessHandler) Share(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.DocumentID == "" || req.Email == "" || len(req.Types) == 0 {
		writeServiceError(w, h.logger, "share",
			fmt.Errorf("%w: поля documentId, email и types обязательны", service.ErrValidation))
		return
	}

	doc, err := h.access.Share(r.Context(), req.DocumentID, req.Email, req.Types)
	if err != nil {
		writeServiceError(w, h.logger, "share", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Гранты обновлены", doc, metaFor(doc))
}

// ListShared обрабатывает GET /api/v1/documents/shared:
// документы, к которым у текущего пользователя есть хотя бы один грант.
func (h *AccessHandler) ListShared(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())

	if identity.Email == "" {
		writeServiceError(w, h.logger, "list_shared",
			fmt.Errorf("%w: в токене отсутствует email", service.ErrValidation))
		return
	}

	records, err := h.access.ListSharedWith(r.Context(), identity.Email)
	if err != nil {
		writeServiceError(w, h.logger, "list_shared", err)
		return
	}

	writeSuccess(w, http.StatusOK, "Доступные документы", records, nil)
}
