package service

import (
	"context"
	"errors"
	"testing"

	"github.com/arturkryukov/docstore/internal/domain/model"
)

func seedDoc(repo *fakeRepo, id, ownerID string) *model.DocumentRecord {
	doc := &model.DocumentRecord{
		ID:          id,
		Title:       "doc-" + id,
		ContentType: "text/plain",
		Size:        3,
		Locator:     "doc-" + id + ".txt",
		AuthorID:    ownerID,
	}
	_ = repo.Create(context.Background(), doc)
	return doc
}

func TestAccess_Share_GrantsCapabilities(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccessService(repo, testLogger())
	seedDoc(repo, "d1", "owner-1")

	doc, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"view", "edit"})
	if err != nil {
		t.Fatalf("Share: %v", err)
	}

	if !doc.Permissions.Has(model.CapabilityView, "anna@example.com") {
		t.Error("Share: view не выдан")
	}
	if !doc.Permissions.Has(model.CapabilityEdit, "anna@example.com") {
		t.Error("Share: edit не выдан")
	}
	// Классы независимы: delete не выдавался
	if doc.Permissions.Has(model.CapabilityDelete, "anna@example.com") {
		t.Error("Share: delete не запрашивался, но выдан")
	}

	// Сохранено в репозитории
	stored, _ := repo.GetByID(context.Background(), "d1")
	if !stored.Permissions.Has(model.CapabilityView, "anna@example.com") {
		t.Error("Share: гранты не сохранены")
	}
}

func TestAccess_Share_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccessService(repo, testLogger())
	seedDoc(repo, "d1", "owner-1")

	if _, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"view"}); err != nil {
		t.Fatalf("Share: %v", err)
	}

	// Повторный грант не дублирует email и не падает
	doc, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"view"})
	if err != nil {
		t.Fatalf("Повторный Share: %v", err)
	}
	if len(doc.Permissions.View) != 1 {
		t.Errorf("Share: хотели 1 запись в view, получили %d", len(doc.Permissions.View))
	}
}

func TestAccess_Share_NoWriteWhenClean(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccessService(repo, testLogger())
	seedDoc(repo, "d1", "owner-1")

	if _, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"view"}); err != nil {
		t.Fatalf("Share: %v", err)
	}

	before := repo.setPermsCalls

	// Грант без изменений: запись не сохраняется повторно
	if _, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"view"}); err != nil {
		t.Fatalf("Повторный Share: %v", err)
	}
	if repo.setPermsCalls != before {
		t.Errorf("Share без изменений: SetPermissions не должен вызываться, вызовов %d", repo.setPermsCalls-before)
	}
}

func TestAccess_Share_UnknownCapability(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccessService(repo, testLogger())
	seedDoc(repo, "d1", "owner-1")

	_, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"admin"})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Share: хотели ErrValidation, получили %v", err)
	}
}

func TestAccess_Share_NotFound(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccessService(repo, testLogger())

	_, err := svc.Share(context.Background(), "нет-такого", "anna@example.com", []string{"view"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Share: хотели ErrNotFound, получили %v", err)
	}
}

func TestAccess_ListSharedWith(t *testing.T) {
	repo := newFakeRepo()
	svc := NewAccessService(repo, testLogger())
	seedDoc(repo, "d1", "owner-1")
	seedDoc(repo, "d2", "owner-1")
	seedDoc(repo, "d3", "owner-2")

	if _, err := svc.Share(context.Background(), "d1", "anna@example.com", []string{"view"}); err != nil {
		t.Fatalf("Share d1: %v", err)
	}
	if _, err := svc.Share(context.Background(), "d3", "anna@example.com", []string{"delete"}); err != nil {
		t.Fatalf("Share d3: %v", err)
	}

	records, err := svc.ListSharedWith(context.Background(), "anna@example.com")
	if err != nil {
		t.Fatalf("ListSharedWith: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ListSharedWith: хотели 2 документа, получили %d", len(records))
	}

	ids := map[string]bool{}
	for _, r := range records {
		ids[r.ID] = true
	}
	if !ids["d1"] || !ids["d3"] {
		t.Errorf("ListSharedWith: хотели d1 и d3, получили %v", ids)
	}
}
