package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/arturkryukov/docstore/internal/domain/model"
)

// DocumentRepository — интерфейс доступа к таблице documents.
type DocumentRepository interface {
	// Create вставляет новую запись документа (version 0, пустые гранты).
	Create(ctx context.Context, d *model.DocumentRecord) error
	// GetByID возвращает документ по идентификатору.
	GetByID(ctx context.Context, id string) (*model.DocumentRecord, error)
	// ListActiveByOwner возвращает активные документы владельца,
	// отсортированные по времени создания (новые первыми).
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.DocumentRecord, error)
	// ListDeletedBy возвращает soft-deleted документы, удалённые указанным актором.
	ListDeletedBy(ctx context.Context, actorID string) ([]*model.DocumentRecord, error)
	// ListByGrantee возвращает документы, где email присутствует
	// хотя бы в одном из трёх множеств грантов.
	ListByGrantee(ctx context.Context, email string) ([]*model.DocumentRecord, error)
	// Update выполняет частичное обновление полей одним условным UPDATE.
	// Версия инкрементируется всегда, независимо от набора полей.
	Update(ctx context.Context, id string, fields UpdateFields) error
	// SetDeleted устанавливает состояние soft delete.
	// Для удаления: deleted=true + deletedAt/deletedBy.
	// Для восстановления: deleted=false + nil/nil. Версию не меняет.
	SetDeleted(ctx context.Context, id string, deleted bool, deletedAt *time.Time, deletedBy *string) error
	// SetPermissions сохраняет множества грантов. Версию не меняет.
	SetPermissions(ctx context.Context, id string, perms model.PermissionSet) error
	// Delete выполняет окончательное удаление записи (hard delete).
	Delete(ctx context.Context, id string) error
	// ListPurgeCandidates возвращает soft-deleted документы
	// с deleted_at раньше cutoff.
	ListPurgeCandidates(ctx context.Context, cutoff time.Time) ([]*model.DocumentRecord, error)
}

// UpdateFields — поля частичного обновления документа.
// nil-поле не затрагивается (семантика $set).
type UpdateFields struct {
	Title       *string
	ContentType *string
	Size        *int64
	Locator     *string
}

// docColumns — список колонок для SELECT в порядке сканирования.
const docColumns = `id, title, content_type, size, locator, author_id, author_name,
	version, deleted, deleted_at, deleted_by,
	perm_view, perm_edit, perm_delete, created_at, updated_at`

// documentRepo — реализация DocumentRepository.
type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.DocumentRecord) error {
	query := `
		INSERT INTO documents (id, title, content_type, size, locator, author_id, author_name,
			version, deleted, perm_view, perm_edit, perm_delete)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		d.ID, d.Title, d.ContentType, d.Size, d.Locator, d.AuthorID, d.AuthorName,
		d.Version, d.Deleted,
		emptyIfNil(d.Permissions.View), emptyIfNil(d.Permissions.Edit), emptyIfNil(d.Permissions.Delete),
	).Scan(&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: документ с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания документа: %w", err)
	}
	return nil
}

func (r *documentRepo) GetByID(ctx context.Context, id string) (*model.DocumentRecord, error) {
	query := `SELECT ` + docColumns + ` FROM documents WHERE id = $1`

	d, err := scanDocument(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения документа: %w", err)
	}
	return d, nil
}

func (r *documentRepo) ListActiveByOwner(ctx context.Context, ownerID string) ([]*model.DocumentRecord, error) {
	query := `
		SELECT ` + docColumns + `
		FROM documents
		WHERE author_id = $1 AND deleted = false
		ORDER BY created_at DESC`

	return r.list(ctx, query, ownerID)
}

func (r *documentRepo) ListDeletedBy(ctx context.Context, actorID string) ([]*model.DocumentRecord, error) {
	query := `
		SELECT ` + docColumns + `
		FROM documents
		WHERE deleted_by = $1 AND deleted = true
		ORDER BY deleted_at DESC`

	return r.list(ctx, query, actorID)
}

func (r *documentRepo) ListByGrantee(ctx context.Context, email string) ([]*model.DocumentRecord, error) {
	query := `
		SELECT ` + docColumns + `
		FROM documents
		WHERE $1 = ANY(perm_view) OR $1 = ANY(perm_edit) OR $1 = ANY(perm_delete)
		ORDER BY created_at DESC`

	return r.list(ctx, query, email)
}

// Update — единственный путь инкремента версии. Каждый вызов увеличивает
// version ровно на 1, даже если все поля nil (правило, не случайность).
func (r *documentRepo) Update(ctx context.Context, id string, fields UpdateFields) error {
	query := `
		UPDATE documents
		SET title = COALESCE($2, title),
			content_type = COALESCE($3, content_type),
			size = COALESCE($4, size),
			locator = COALESCE($5, locator),
			version = version + 1,
			updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, fields.Title, fields.ContentType, fields.Size, fields.Locator,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetDeleted не проверяет текущее состояние записи: повторный soft delete
// и restore уже активного документа молча переустанавливают те же поля.
// Версия при этом не меняется.
func (r *documentRepo) SetDeleted(ctx context.Context, id string, deleted bool, deletedAt *time.Time, deletedBy *string) error {
	query := `
		UPDATE documents
		SET deleted = $2, deleted_at = $3, deleted_by = $4, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, deleted, deletedAt, deletedBy)
	if err != nil {
		return fmt.Errorf("ошибка изменения состояния удаления: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) SetPermissions(ctx context.Context, id string, perms model.PermissionSet) error {
	query := `
		UPDATE documents
		SET perm_view = $2, perm_edit = $3, perm_delete = $4, updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id,
		emptyIfNil(perms.View), emptyIfNil(perms.Edit), emptyIfNil(perms.Delete),
	)
	if err != nil {
		return fmt.Errorf("ошибка сохранения грантов: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка окончательного удаления документа: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *documentRepo) ListPurgeCandidates(ctx context.Context, cutoff time.Time) ([]*model.DocumentRecord, error) {
	query := `
		SELECT ` + docColumns + `
		FROM documents
		WHERE deleted = true AND deleted_at < $1
		ORDER BY deleted_at`

	return r.list(ctx, query, cutoff)
}

// list выполняет запрос и сканирует все строки.
func (r *documentRepo) list(ctx context.Context, query string, args ...any) ([]*model.DocumentRecord, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка документов: %w", err)
	}
	defer rows.Close()

	var result []*model.DocumentRecord
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}

// scanDocument сканирует одну строку в DocumentRecord.
func scanDocument(row pgx.Row) (*model.DocumentRecord, error) {
	d := &model.DocumentRecord{}
	err := row.Scan(
		&d.ID, &d.Title, &d.ContentType, &d.Size, &d.Locator, &d.AuthorID, &d.AuthorName,
		&d.Version, &d.Deleted, &d.DeletedAt, &d.DeletedBy,
		&d.Permissions.View, &d.Permissions.Edit, &d.Permissions.Delete,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// emptyIfNil приводит nil-срез к пустому: колонки грантов NOT NULL.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
