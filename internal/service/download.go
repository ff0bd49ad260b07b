// download.go — выдача содержимого документа.
package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/docstore/internal/content"
	"github.com/arturkryukov/docstore/internal/domain/model"
	"github.com/arturkryukov/docstore/internal/repository"
	"github.com/arturkryukov/docstore/internal/storage/blobstore"
)

// DownloadResult — содержимое документа для отдачи клиенту.
type DownloadResult struct {
	// Record — метаданные документа
	Record *model.DocumentRecord
	// Data — сырые байты содержимого
	Data []byte
	// ContentType — MIME-тип; из метаданных, при их отсутствии —
	// определённый хранилищем по расширению
	ContentType string
}

// DownloadService — сервис выдачи содержимого документов.
type DownloadService struct {
	repo   repository.DocumentRepository
	blobs  blobstore.BlobStore
	logger *slog.Logger
}

// NewDownloadService создаёт сервис выдачи содержимого.
func NewDownloadService(repo repository.DocumentRepository, blobs blobstore.BlobStore, logger *slog.Logger) *DownloadService {
	return &DownloadService{
		repo:   repo,
		blobs:  blobs,
		logger: logger.With(slog.String("component", "download_service")),
	}
}

// Fetch разрешает локатор документа и читает содержимое из blob-хранилища.
// Отсутствие записи или содержимого — ErrNotFound.
func (s *DownloadService) Fetch(ctx context.Context, id string) (*DownloadResult, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	data, detectedType, err := s.blobs.Get(ctx, doc.Locator)
	if err != nil {
		s.logger.Error("Содержимое документа недоступно",
			slog.String("document_id", id),
			slog.String("locator", doc.Locator),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("%w: содержимое документа недоступно", ErrNotFound)
	}

	contentType := doc.ContentType
	if contentType == "" {
		contentType = detectedType
	}

	return &DownloadResult{
		Record:      doc,
		Data:        data,
		ContentType: contentType,
	}, nil
}

// FetchDataURL возвращает содержимое документа в форме data-URL
// (data:<mime>;base64,<payload>).
func (s *DownloadService) FetchDataURL(ctx context.Context, id string) (*model.DocumentRecord, string, error) {
	result, err := s.Fetch(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return result.Record, content.EncodeDataURL(result.Data, result.ContentType), nil
}
