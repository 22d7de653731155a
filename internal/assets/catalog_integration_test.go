package assets

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestCatalog(t *testing.T) (*Catalog, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:beacon_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&AssetRecord{}, &DependencyEdge{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	clock := func() time.Time { return time.Unix(1700000600, 0).UTC() }
	catalog, err := NewCatalog(CatalogConfig{Database: db, Clock: clock})
	if err != nil {
		t.Fatalf("failed to construct catalog: %v", err)
	}
	return catalog, db
}

const (
	testHashRoot  = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testHashChild = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	testHashOther = "cccccccccccccccccccccccccccccccccccccccc"
)

func TestCatalogCreateAndGetAsset(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	uploader := "uploader-1"

	record, err := catalog.CreateAsset(context.Background(), CreateRequest{
		Hash:             testHashRoot,
		Type:             TypeLevel,
		Format:           FormatBinary,
		UploaderID:       &uploader,
		SizeBytes:        128,
		DependencyHashes: []string{testHashChild, testHashOther},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.UploadedAtSecond != 1700000600 {
		t.Fatalf("unexpected upload timestamp %d", record.UploadedAtSecond)
	}

	loaded, err := catalog.GetAssetByHash(context.Background(), testHashRoot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded == nil {
		t.Fatalf("expected stored record")
	}
	if loaded.Type != TypeLevel || loaded.Format != FormatBinary || loaded.SizeBytes != 128 {
		t.Fatalf("stored record mismatch: %+v", loaded)
	}

	dependencies, err := catalog.GetDependencyHashes(context.Background(), testHashRoot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dependencies) != 2 {
		t.Fatalf("expected 2 dependencies, got %v", dependencies)
	}
}

func TestCatalogCreateAssetRejectsDuplicateHash(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	request := CreateRequest{Hash: testHashRoot, Type: TypePlan, Format: FormatBinary}
	if _, err := catalog.CreateAsset(context.Background(), request); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := catalog.CreateAsset(context.Background(), request); !errors.Is(err, ErrAssetExists) {
		t.Fatalf("expected ErrAssetExists, got %v", err)
	}
}

func TestCatalogCreateAssetNormalizesHash(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	upper := "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	record, err := catalog.CreateAsset(context.Background(), CreateRequest{Hash: upper, Type: TypePlan, Format: FormatBinary})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Hash != testHashRoot {
		t.Fatalf("hash not normalized: %s", record.Hash)
	}
}

func TestCatalogCreateAssetRejectsInvalidHash(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	if _, err := catalog.CreateAsset(context.Background(), CreateRequest{Hash: "nope", Type: TypePlan, Format: FormatBinary}); err == nil {
		t.Fatalf("expected error for invalid hash")
	}
}

func TestCatalogGetAssetByHashReturnsNilForUnknown(t *testing.T) {
	catalog, _ := newTestCatalog(t)
	record, err := catalog.GetAssetByHash(context.Background(), testHashOther)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}

func TestCatalogSetCachedConversionHashPersistsPerFamily(t *testing.T) {
	catalog, db := newTestCatalog(t)

	record, err := catalog.CreateAsset(context.Background(), CreateRequest{Hash: testHashRoot, Type: TypeTexture, Format: FormatCompressedTexture})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := catalog.SetCachedConversionHash(context.Background(), record, FamilyMainline, testHashChild); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := catalog.SetCachedConversionHash(context.Background(), record, FamilyHandheld, testHashOther); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.CachedConversionHash(FamilyMainline) != testHashChild {
		t.Fatalf("in-memory mainline cache not updated")
	}

	var stored AssetRecord
	if err := db.Where("hash = ?", testHashRoot).Take(&stored).Error; err != nil {
		t.Fatalf("failed to load stored record: %v", err)
	}
	if stored.MainlineIconHash != testHashChild || stored.HandheldIconHash != testHashOther {
		t.Fatalf("cached hashes not persisted: %+v", stored)
	}

	// Re-writing the same value is an idempotent no-op.
	if err := catalog.SetCachedConversionHash(context.Background(), record, FamilyMainline, testHashChild); err != nil {
		t.Fatalf("unexpected error on idempotent rewrite: %v", err)
	}
}

func TestCatalogSkipsSelfEdges(t *testing.T) {
	catalog, _ := newTestCatalog(t)

	_, err := catalog.CreateAsset(context.Background(), CreateRequest{
		Hash:             testHashRoot,
		Type:             TypePlan,
		Format:           FormatBinary,
		DependencyHashes: []string{testHashRoot, testHashChild},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dependencies, err := catalog.GetDependencyHashes(context.Background(), testHashRoot)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dependencies) != 1 || dependencies[0] != testHashChild {
		t.Fatalf("expected only child edge, got %v", dependencies)
	}
}
