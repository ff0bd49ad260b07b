package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/arturkryukov/docstore/internal/storage/blobstore"
)

// failingBlobStore — blob-хранилище, проваливающее запись.
type failingBlobStore struct{}

func (failingBlobStore) Put(context.Context, string, []byte) (string, error) {
	return "", errors.New("диск переполнен")
}

func (failingBlobStore) Checksum(string) (string, error) {
	return "", errors.New("диск переполнен")
}

func (failingBlobStore) Delete(context.Context, string) error { return nil }

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("некорректный JSON в ответе: %v", err)
	}
	return resp
}

func TestHealthLive(t *testing.T) {
	h := NewHealthHandler(nil, nil)

	rec := httptest.NewRecorder()
	h.HealthLive(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("хотели 200, получили %d", rec.Code)
	}
	resp := decodeHealth(t, rec)
	if resp["status"] != "ok" || resp["service"] != "docstore" {
		t.Errorf("некорректный ответ liveness: %v", resp)
	}
}

func TestHealthReady_BlobStoreOK(t *testing.T) {
	store, err := blobstore.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	h := NewHealthHandler(store, nil)

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("хотели 200, получили %d, тело: %s", rec.Code, rec.Body.String())
	}

	resp := decodeHealth(t, rec)
	checks := resp["checks"].(map[string]any)
	blobCheck := checks["blobstore"].(map[string]any)
	if blobCheck["status"] != "ok" {
		t.Errorf("проверка blob-хранилища должна проходить: %v", blobCheck)
	}

	// Служебный объект удалён после проверки
	if _, _, err := store.Get(context.Background(), ".health_check"); err == nil {
		t.Error("служебный объект должен удаляться после проверки")
	}
}

func TestHealthReady_BlobStoreFailure(t *testing.T) {
	h := NewHealthHandler(failingBlobStore{}, nil)

	rec := httptest.NewRecorder()
	h.HealthReady(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("хотели 503, получили %d", rec.Code)
	}

	resp := decodeHealth(t, rec)
	if resp["status"] != "fail" {
		t.Errorf("общий статус должен быть fail: %v", resp["status"])
	}
}
