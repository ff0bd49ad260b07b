// access.go — управление грантами доступа к документам.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/docstore/internal/domain/model"
	"github.com/arturkryukov/docstore/internal/repository"
)

// AccessService — сервис грантов доступа.
type AccessService struct {
	repo   repository.DocumentRepository
	logger *slog.Logger
}

// NewAccessService создаёт сервис грантов доступа.
func NewAccessService(repo repository.DocumentRepository, logger *slog.Logger) *AccessService {
	return &AccessService{
		repo:   repo,
		logger: logger.With(slog.String("component", "access_service")),
	}
}

// Share добавляет email в множества грантов указанных классов прав.
// Операция идемпотентна: уже присутствующий грант не дублируется.
// Запись сохраняется только при фактическом изменении множеств.
// Классы прав независимы: edit не подразумевает view.
func (s *AccessService) Share(ctx context.Context, id, email string, capabilities []string) (*model.DocumentRecord, error) {
	caps := make([]model.Capability, 0, len(capabilities))
	for _, c := range capabilities {
		cap, ok := model.ParseCapability(c)
		if !ok {
			return nil, fmt.Errorf("%w: неизвестный класс прав %q", ErrValidation, c)
		}
		caps = append(caps, cap)
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	dirty := false
	for _, cap := range caps {
		if doc.Permissions.Grant(cap, email) {
			dirty = true
		}
	}

	if dirty {
		if err := s.repo.SetPermissions(ctx, id, doc.Permissions); err != nil {
			return nil, mapRepoError(err)
		}
		s.logger.Info("Гранты обновлены",
			slog.String("document_id", id),
			slog.String("email", email),
			slog.Any("capabilities", capabilities),
		)
	}

	return doc, nil
}

// ListSharedWith возвращает документы, к которым у email есть хотя бы
// один грант любого класса.
func (s *AccessService) ListSharedWith(ctx context.Context, email string) ([]*model.DocumentRecord, error) {
	records, err := s.repo.ListByGrantee(ctx, email)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}
