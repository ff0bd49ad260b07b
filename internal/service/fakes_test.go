package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/arturkryukov/docstore/internal/domain/model"
	"github.com/arturkryukov/docstore/internal/repository"
)

// testLogger — тихий логгер для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeRepo — in-memory реализация DocumentRepository для тестов сервисов.
type fakeRepo struct {
	mu   sync.Mutex
	docs map[string]*model.DocumentRecord

	// failNext заставляет следующий вызов вернуть ошибку
	failNext error
	// failGetOnce заставляет следующий GetByID вернуть ошибку
	failGetOnce error

	// setPermsCalls — счётчик вызовов SetPermissions (проверка dirty-флага)
	setPermsCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: make(map[string]*model.DocumentRecord)}
}

func (f *fakeRepo) takeErr() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeRepo) Create(_ context.Context, d *model.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	now := time.Now().UTC()
	cp := *d
	cp.CreatedAt = now
	cp.UpdatedAt = now
	f.docs[d.ID] = &cp
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*model.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	if f.failGetOnce != nil {
		err := f.failGetOnce
		f.failGetOnce = nil
		return nil, err
	}
	d, ok := f.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (f *fakeRepo) ListActiveByOwner(_ context.Context, ownerID string) ([]*model.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	var out []*model.DocumentRecord
	for _, d := range f.docs {
		if d.AuthorID == ownerID && !d.Deleted {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeRepo) ListDeletedBy(_ context.Context, actorID string) ([]*model.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.DocumentRecord
	for _, d := range f.docs {
		if d.Deleted && d.DeletedBy != nil && *d.DeletedBy == actorID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListByGrantee(_ context.Context, email string) ([]*model.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.DocumentRecord
	for _, d := range f.docs {
		if d.Permissions.HasAny(email) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRepo) Update(_ context.Context, id string, fields repository.UpdateFields) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	d, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if fields.Title != nil {
		d.Title = *fields.Title
	}
	if fields.ContentType != nil {
		d.ContentType = *fields.ContentType
	}
	if fields.Size != nil {
		d.Size = *fields.Size
	}
	if fields.Locator != nil {
		d.Locator = *fields.Locator
	}
	d.Version++
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) SetDeleted(_ context.Context, id string, deleted bool, deletedAt *time.Time, deletedBy *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	d, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Deleted = deleted
	d.DeletedAt = deletedAt
	d.DeletedBy = deletedBy
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) SetPermissions(_ context.Context, id string, perms model.PermissionSet) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setPermsCalls++
	if err := f.takeErr(); err != nil {
		return err
	}
	d, ok := f.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	d.Permissions = perms
	d.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return err
	}
	if _, ok := f.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeRepo) ListPurgeCandidates(_ context.Context, cutoff time.Time) ([]*model.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeErr(); err != nil {
		return nil, err
	}
	var out []*model.DocumentRecord
	for _, d := range f.docs {
		if d.Deleted && d.DeletedAt != nil && d.DeletedAt.Before(cutoff) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

// fakeBlobStore — in-memory реализация BlobStore для тестов сервисов.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	putErr error
	getErr error

	deleted []string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return "", f.putErr
	}
	f.blobs[key] = data
	return key, nil
}

func (f *fakeBlobStore) Get(_ context.Context, locator string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, "", f.getErr
	}
	data, ok := f.blobs[locator]
	if !ok {
		return nil, "", fmt.Errorf("blob %s не найден", locator)
	}
	return data, mime.TypeByExtension(".bin"), nil
}

func (f *fakeBlobStore) Delete(_ context.Context, locator string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, locator)
	f.deleted = append(f.deleted, locator)
	return nil
}

var errBoom = errors.New("boom")
