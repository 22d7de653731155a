package store

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testStoreHash = "0123456789abcdef0123456789abcdef01234567"

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	fileStore, err := NewFileStore(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}
	return fileStore
}

func TestFileStorePutGetRoundTrip(t *testing.T) {
	fileStore := newTestStore(t)
	payload := []byte("asset payload")

	if fileStore.Exists(testStoreHash) {
		t.Fatalf("key reported present before write")
	}
	if err := fileStore.Put(testStoreHash, payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fileStore.Exists(testStoreHash) {
		t.Fatalf("key reported absent after write")
	}

	loaded, err := fileStore.Get(testStoreHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(loaded, payload) {
		t.Fatalf("payload changed across round trip")
	}

	reader, err := fileStore.GetStream(testStoreHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer reader.Close()
	streamed, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(streamed, payload) {
		t.Fatalf("streamed payload differs")
	}
}

func TestFileStorePutIsIdempotent(t *testing.T) {
	fileStore := newTestStore(t)

	if err := fileStore.Put(testStoreHash, []byte("first")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The key is a content address: a second write never replaces the blob.
	if err := fileStore.Put(testStoreHash, []byte("second")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := fileStore.Get(testStoreHash)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(loaded) != "first" {
		t.Fatalf("existing blob was overwritten")
	}
}

func TestFileStorePlatformPrefixNamespacesBlobs(t *testing.T) {
	root := t.TempDir()
	fileStore, err := NewFileStore(root, nil)
	if err != nil {
		t.Fatalf("failed to construct store: %v", err)
	}

	if err := fileStore.Put("psp/"+testStoreHash, []byte("handheld")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fileStore.Exists(testStoreHash) {
		t.Fatalf("prefixed write visible under unprefixed key")
	}

	expected := filepath.Join(root, "psp", testStoreHash[:2], testStoreHash)
	if _, err := os.Stat(expected); err != nil {
		t.Fatalf("blob not at expected path: %v", err)
	}
}

func TestFileStoreRejectsInvalidKeys(t *testing.T) {
	fileStore := newTestStore(t)
	invalid := []string{
		"",
		"short",
		strings.Repeat("g", 40),
		strings.ToUpper(testStoreHash),
		"vita/" + testStoreHash,
		"../" + testStoreHash,
	}
	for _, key := range invalid {
		if err := fileStore.Put(key, []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestFileStoreGetMissingReturnsNotFound(t *testing.T) {
	fileStore := newTestStore(t)
	if _, err := fileStore.Get(testStoreHash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := fileStore.GetStream(testStoreHash); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
