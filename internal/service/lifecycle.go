// lifecycle.go — управление жизненным циклом документа:
// создание, обновление, soft delete, восстановление, purge, списки.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arturkryukov/docstore/internal/cache"
	"github.com/arturkryukov/docstore/internal/content"
	"github.com/arturkryukov/docstore/internal/domain/model"
	"github.com/arturkryukov/docstore/internal/repository"
	"github.com/arturkryukov/docstore/internal/storage/blobstore"
)

// CreateParams — параметры создания документа.
type CreateParams struct {
	// Title — название документа
	Title string
	// ContentType — MIME-тип содержимого
	ContentType string
	// Data — содержимое в base64 (допускается data-URL префикс)
	Data string
}

// UpdateParams — параметры частичного обновления документа.
// nil-поле не затрагивается.
type UpdateParams struct {
	// Title — новое название
	Title *string
	// ContentType — новый MIME-тип
	ContentType *string
	// Data — новое содержимое в base64; при наличии выполняется
	// повторная загрузка blob под новым ключом
	Data *string
}

// LifecycleService — сервис жизненного цикла документов.
type LifecycleService struct {
	repo       repository.DocumentRepository
	blobs      blobstore.BlobStore
	listings   *cache.ListingCache
	purgeBlobs bool
	logger     *slog.Logger
}

// NewLifecycleService создаёт сервис жизненного цикла.
// purgeBlobs включает удаление содержимого при purge (DS_PURGE_BLOBS);
// по умолчанию purge затрагивает только метаданные.
func NewLifecycleService(
	repo repository.DocumentRepository,
	blobs blobstore.BlobStore,
	listings *cache.ListingCache,
	purgeBlobs bool,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		repo:       repo,
		blobs:      blobs,
		listings:   listings,
		purgeBlobs: purgeBlobs,
		logger:     logger.With(slog.String("component", "lifecycle_service")),
	}
}

// Create создаёт документ.
//
// Порядок:
//  1. Декодирование base64 (ошибка — ErrValidation, ничего не записано)
//  2. Запись blob (ошибка — ErrStorage, метаданные не создаются)
//  3. Вставка записи метаданных: version 0, пустые гранты
//  4. Обновление снимка списка владельца в кэше
func (s *LifecycleService) Create(ctx context.Context, owner model.Identity, params CreateParams) (*model.DocumentRecord, error) {
	raw, err := content.Decode(params.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: содержимое не является корректным base64: %s", ErrValidation, err)
	}

	now := time.Now().UTC()
	key := blobstore.DeriveKey(params.Title, params.ContentType, now)

	locator, err := s.blobs.Put(ctx, key, raw)
	if err != nil {
		s.logger.Error("Ошибка записи содержимого",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %s", ErrStorage, err)
	}

	doc := &model.DocumentRecord{
		ID:          uuid.New().String(),
		Title:       params.Title,
		ContentType: params.ContentType,
		Size:        int64(len(raw)),
		Locator:     locator,
		AuthorID:    owner.Subject,
		AuthorName:  owner.Name,
		Version:     0,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		// Метаданные не записаны — blob остаётся сиротой, это допустимо
		s.logger.Error("Ошибка вставки метаданных",
			slog.String("document_id", doc.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	created, err := s.repo.GetByID(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	// Обновляем снимок списка владельца
	s.refreshListing(ctx, owner.Subject)

	s.logger.Info("Документ создан",
		slog.String("document_id", created.ID),
		slog.String("title", created.Title),
		slog.Int64("size", created.Size),
		slog.String("author_id", created.AuthorID),
	)

	return created, nil
}

// Update выполняет частичное обновление документа.
// При наличии нового содержимого blob загружается под свежим ключом,
// старый blob не удаляется. Версия инкрементируется всегда,
// даже если изменились только метаданные.
func (s *LifecycleService) Update(ctx context.Context, id string, params UpdateParams) (*model.DocumentRecord, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	fields := repository.UpdateFields{
		Title:       params.Title,
		ContentType: params.ContentType,
	}

	if params.Data != nil {
		raw, err := content.Decode(*params.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: содержимое не является корректным base64: %s", ErrValidation, err)
		}

		title := existing.Title
		if params.Title != nil {
			title = *params.Title
		}
		contentType := existing.ContentType
		if params.ContentType != nil {
			contentType = *params.ContentType
		}

		key := blobstore.DeriveKey(title, contentType, time.Now().UTC())
		locator, err := s.blobs.Put(ctx, key, raw)
		if err != nil {
			s.logger.Error("Ошибка записи нового содержимого",
				slog.String("document_id", id),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%w: %s", ErrStorage, err)
		}

		size := int64(len(raw))
		fields.Locator = &locator
		fields.Size = &size
	}

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, mapRepoError(err)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.logger.Info("Документ обновлён",
		slog.String("document_id", id),
		slog.Int("version", updated.Version),
		slog.Bool("content_replaced", params.Data != nil),
	)

	return updated, nil
}

// Get возвращает документ по идентификатору.
func (s *LifecycleService) Get(ctx context.Context, id string) (*model.DocumentRecord, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return doc, nil
}

// SoftDelete помечает документ на удаление.
// Состояние не проверяется: повторный вызов молча перезаписывает
// deleted_at/deleted_by. Версию не меняет.
func (s *LifecycleService) SoftDelete(ctx context.Context, id, actorID string) error {
	now := time.Now().UTC()
	if err := s.repo.SetDeleted(ctx, id, true, &now, &actorID); err != nil {
		return mapRepoError(err)
	}

	s.logger.Info("Документ помещён в корзину",
		slog.String("document_id", id),
		slog.String("deleted_by", actorID),
	)
	return nil
}

// Restore возвращает документ из корзины.
// Состояние не проверяется: restore активного документа — no-op.
func (s *LifecycleService) Restore(ctx context.Context, id string) error {
	if err := s.repo.SetDeleted(ctx, id, false, nil, nil); err != nil {
		return mapRepoError(err)
	}

	s.logger.Info("Документ восстановлен из корзины",
		slog.String("document_id", id),
	)
	return nil
}

// Purge окончательно удаляет запись метаданных.
// Содержимое удаляется только при включённом purgeBlobs, best effort:
// ошибка удаления blob логируется, но не прерывает purge.
func (s *LifecycleService) Purge(ctx context.Context, id string) error {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return mapRepoError(err)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}

	if s.purgeBlobs {
		if err := s.blobs.Delete(ctx, doc.Locator); err != nil {
			s.logger.Warn("Ошибка удаления содержимого при purge",
				slog.String("document_id", id),
				slog.String("locator", doc.Locator),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.Info("Документ окончательно удалён",
		slog.String("document_id", id),
		slog.Bool("blob_removed", s.purgeBlobs),
	)
	return nil
}

// ListActive возвращает активные документы владельца из репозитория.
// Кэш не используется: список после soft delete и restore всегда
// отражает актуальное состояние базы.
func (s *LifecycleService) ListActive(ctx context.Context, ownerID string) ([]*model.DocumentRecord, error) {
	records, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

// ListActiveCached возвращает активные документы владельца через кэш.
// Попадание в кэш отдаёт снимок без обращения к базе; промах —
// чтение из репозитория с заполнением кэша. Снимок может отставать
// от базы в пределах TTL (DS_CACHE_TTL): мутации кроме создания
// кэш не инвалидируют.
func (s *LifecycleService) ListActiveCached(ctx context.Context, ownerID string) ([]*model.DocumentRecord, error) {
	if records, ok := s.listings.Fetch(ownerID); ok {
		return records, nil
	}

	records, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	s.listings.Populate(ownerID, records)
	return records, nil
}

// ListDeleted возвращает содержимое корзины актора:
// документы, помеченные на удаление именно им.
func (s *LifecycleService) ListDeleted(ctx context.Context, actorID string) ([]*model.DocumentRecord, error) {
	records, err := s.repo.ListDeletedBy(ctx, actorID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

// refreshListing перечитывает активные документы владельца и
// перезаписывает снимок в кэше. Ошибка не прерывает основную операцию.
func (s *LifecycleService) refreshListing(ctx context.Context, ownerID string) {
	records, err := s.repo.ListActiveByOwner(ctx, ownerID)
	if err != nil {
		s.logger.Warn("Ошибка обновления кэша списка",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()),
		)
		return
	}
	s.listings.Populate(ownerID, records)
}

// mapRepoError переводит ошибки репозитория в sentinel-ошибки сервисного слоя.
func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsNotFound(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %s", ErrPersistence, err)
}
