package users

import (
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := fmt.Sprintf("file:users_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Identity{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	service, err := NewService(ServiceConfig{
		Database: db,
		Clock:    func() time.Time { return time.Unix(1700000600, 0).UTC() },
	})
	if err != nil {
		t.Fatalf("failed to construct service: %v", err)
	}
	return service
}

func TestResolveCanonicalUploaderIDIsStable(t *testing.T) {
	service := newTestService(t)

	first, err := service.ResolveCanonicalUploaderID("vita", "psn-player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first == "" {
		t.Fatalf("expected minted uploader id")
	}

	second, err := service.ResolveCanonicalUploaderID("vita", "psn-player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != first {
		t.Fatalf("repeat resolution minted a new id: %s vs %s", second, first)
	}
}

func TestResolveCanonicalUploaderIDSeparatesPlatforms(t *testing.T) {
	service := newTestService(t)

	vita, err := service.ResolveCanonicalUploaderID("vita", "player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	psp, err := service.ResolveCanonicalUploaderID("psp", "player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if vita == psp {
		t.Fatalf("same subject on different platforms shared an uploader id")
	}
}

func TestResolveCanonicalUploaderIDNormalizesPlatform(t *testing.T) {
	service := newTestService(t)

	lower, err := service.ResolveCanonicalUploaderID("vita", "player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	upper, err := service.ResolveCanonicalUploaderID(" VITA ", "player-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lower != upper {
		t.Fatalf("platform normalization failed: %s vs %s", lower, upper)
	}
}

func TestResolveCanonicalUploaderIDRejectsEmptySubject(t *testing.T) {
	service := newTestService(t)
	if _, err := service.ResolveCanonicalUploaderID("vita", "  "); !errors.Is(err, ErrInvalidIdentity) {
		t.Fatalf("expected ErrInvalidIdentity, got %v", err)
	}
}
