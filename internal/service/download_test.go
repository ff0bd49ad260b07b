package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestDownload_Fetch(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	svc := NewDownloadService(repo, blobs, testLogger())

	doc := seedDoc(repo, "d1", "owner-1")
	if _, err := blobs.Put(context.Background(), doc.Locator, []byte("содержимое")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	result, err := svc.Fetch(context.Background(), "d1")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if string(result.Data) != "содержимое" {
		t.Errorf("Fetch: хотели %q, получили %q", "содержимое", string(result.Data))
	}
	if result.ContentType != "text/plain" {
		t.Errorf("Fetch: хотели text/plain из метаданных, получили %s", result.ContentType)
	}
	if result.Record.ID != "d1" {
		t.Errorf("Fetch: хотели запись d1, получили %s", result.Record.ID)
	}
}

func TestDownload_Fetch_RecordNotFound(t *testing.T) {
	svc := NewDownloadService(newFakeRepo(), newFakeBlobStore(), testLogger())

	_, err := svc.Fetch(context.Background(), "нет-такого")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch: хотели ErrNotFound, получили %v", err)
	}
}

func TestDownload_Fetch_BlobMissing(t *testing.T) {
	repo := newFakeRepo()
	svc := NewDownloadService(repo, newFakeBlobStore(), testLogger())
	seedDoc(repo, "d1", "owner-1")

	// Запись есть, содержимого нет
	_, err := svc.Fetch(context.Background(), "d1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Fetch: хотели ErrNotFound при отсутствии blob, получили %v", err)
	}
}

func TestDownload_FetchDataURL(t *testing.T) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	svc := NewDownloadService(repo, blobs, testLogger())

	doc := seedDoc(repo, "d1", "owner-1")
	if _, err := blobs.Put(context.Background(), doc.Locator, []byte("hello")); err != nil {
		t.Fatalf("Put: %v", err)
	}

	record, dataURL, err := svc.FetchDataURL(context.Background(), "d1")
	if err != nil {
		t.Fatalf("FetchDataURL: %v", err)
	}
	if record.ID != "d1" {
		t.Errorf("FetchDataURL: хотели запись d1, получили %s", record.ID)
	}
	if !strings.HasPrefix(dataURL, "data:text/plain;base64,") {
		t.Errorf("FetchDataURL: некорректный префикс data-URL: %s", dataURL)
	}
	if !strings.HasSuffix(dataURL, "aGVsbG8=") {
		t.Errorf("FetchDataURL: некорректный base64-хвост: %s", dataURL)
	}
}
