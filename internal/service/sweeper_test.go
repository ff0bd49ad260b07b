package service

import (
	"context"
	"testing"
	"time"

	"github.com/arturkryukov/docstore/internal/cache"
)

func newSweeperFixture(retention time.Duration) (*SweeperService, *fakeRepo, *fakeBlobStore) {
	repo := newFakeRepo()
	blobs := newFakeBlobStore()
	listings := cache.New(16, time.Minute)
	lifecycle := NewLifecycleService(repo, blobs, listings, false, testLogger())
	sw := NewSweeperService(repo, lifecycle, retention, testLogger())
	return sw, repo, blobs
}

// markDeleted помечает документ удалённым с заданной давностью.
func markDeleted(repo *fakeRepo, id, actor string, age time.Duration) {
	at := time.Now().UTC().Add(-age)
	_ = repo.SetDeleted(context.Background(), id, true, &at, &actor)
}

func TestSweeper_RunOnce_PurgesExpired(t *testing.T) {
	retention := 720 * time.Hour // 30 дней
	sw, repo, _ := newSweeperFixture(retention)

	seedDoc(repo, "old", "owner-1")
	seedDoc(repo, "fresh", "owner-1")
	seedDoc(repo, "active", "owner-1")

	markDeleted(repo, "old", "owner-1", 31*24*time.Hour)
	markDeleted(repo, "fresh", "owner-1", 29*24*time.Hour)

	result := sw.RunOnce(context.Background())

	if result.PurgedCount != 1 {
		t.Errorf("RunOnce: хотели 1 удалённый документ, получили %d", result.PurgedCount)
	}
	if result.Errors != 0 {
		t.Errorf("RunOnce: хотели 0 ошибок, получили %d", result.Errors)
	}

	if _, ok := repo.docs["old"]; ok {
		t.Error("RunOnce: документ old должен быть окончательно удалён")
	}
	if _, ok := repo.docs["fresh"]; !ok {
		t.Error("RunOnce: документ fresh моложе окна хранения, удалять нельзя")
	}
	if _, ok := repo.docs["active"]; !ok {
		t.Error("RunOnce: активный документ удалять нельзя")
	}
}

func TestSweeper_RunOnce_Idempotent(t *testing.T) {
	sw, repo, _ := newSweeperFixture(time.Hour)

	seedDoc(repo, "old", "owner-1")
	markDeleted(repo, "old", "owner-1", 2*time.Hour)

	first := sw.RunOnce(context.Background())
	if first.PurgedCount != 1 {
		t.Fatalf("Первый RunOnce: хотели 1, получили %d", first.PurgedCount)
	}

	// Повторный запуск без новых кандидатов — no-op
	second := sw.RunOnce(context.Background())
	if second.PurgedCount != 0 || second.Errors != 0 {
		t.Errorf("Повторный RunOnce: хотели 0/0, получили %d/%d", second.PurgedCount, second.Errors)
	}
}

func TestSweeper_RunOnce_ContinuesOnError(t *testing.T) {
	sw, repo, _ := newSweeperFixture(time.Hour)

	seedDoc(repo, "a", "owner-1")
	seedDoc(repo, "b", "owner-1")
	markDeleted(repo, "a", "owner-1", 2*time.Hour)
	markDeleted(repo, "b", "owner-1", 2*time.Hour)

	// Первый purge внутри прохода упадёт на GetByID, проход продолжится
	repo.failGetOnce = errBoom

	result := sw.RunOnce(context.Background())

	if result.Errors != 1 {
		t.Errorf("RunOnce: хотели 1 ошибку, получили %d", result.Errors)
	}
	if result.PurgedCount != 1 {
		t.Errorf("RunOnce: хотели 1 удалённый документ несмотря на ошибку, получили %d", result.PurgedCount)
	}
}

func TestSweeper_StartStop(t *testing.T) {
	sw, _, _ := newSweeperFixture(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start/Stop не блокируют и не паникуют
	sw.Start(ctx)
	sw.Stop()
}

func TestUntilNextMidnightUTC(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Duration
	}{
		{
			name: "полдень",
			now:  time.Date(2026, 1, 15, 12, 0, 0, 0, time.UTC),
			want: 12 * time.Hour,
		},
		{
			name: "за секунду до полуночи",
			now:  time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC),
			want: time.Second,
		},
		{
			name: "ровно полночь — до следующей",
			now:  time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
			want: 24 * time.Hour,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := untilNextMidnightUTC(tt.now); got != tt.want {
				t.Errorf("untilNextMidnightUTC: хотели %s, получили %s", tt.want, got)
			}
		})
	}
}
