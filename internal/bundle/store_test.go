package bundle

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "Post", "p1", "en", "title", "Hello"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	value, ok, err := store.Read(ctx, "Post", "p1", "en", "title")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !ok || value != "Hello" {
		t.Fatalf("Read() = (%q, %v), want (\"Hello\", true)", value, ok)
	}

	if _, ok, err := store.Read(ctx, "Post", "p1", "tr", "title"); err != nil || ok {
		t.Fatalf("Read() missing locale = (ok=%v, err=%v), want absent", ok, err)
	}
	if _, ok, err := store.Read(ctx, "Post", "p1", "en", "summary"); err != nil || ok {
		t.Fatalf("Read() missing key = (ok=%v, err=%v), want absent", ok, err)
	}
}

func TestStoreVersioning(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, value := range []string{"V1", "V2", "V3"} {
		if err := store.Write(ctx, "Post", "p1", "en", "title", value); err != nil {
			t.Fatalf("Write(%q) error = %v", value, err)
		}
	}

	doc, ok, err := store.Document(ctx, "Post", "p1", "en")
	if err != nil || !ok {
		t.Fatalf("Document() = (ok=%v, err=%v)", ok, err)
	}
	want := map[string]string{"title": "V3", "title_old1": "V1", "title_old2": "V2"}
	for key, value := range want {
		if doc[key] != value {
			t.Fatalf("Document()[%q] = %q, want %q (full doc %v)", key, doc[key], value, doc)
		}
	}
	if len(doc) != len(want) {
		t.Fatalf("Document() has %d entries, want %d: %v", len(doc), len(want), doc)
	}
}

func TestStoreWriteSameValueKeepsNoVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "Post", "p1", "en", "title", "Hello"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, "Post", "p1", "en", "title", "Hello"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	doc, _, err := store.Document(ctx, "Post", "p1", "en")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if len(doc) != 1 {
		t.Fatalf("rewriting an identical value created version slots: %v", doc)
	}
}

func TestStoreReadNeverServesVersionSlots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "Post", "p1", "en", "title", "V1"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, "Post", "p1", "en", "title", "V2"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, ok, err := store.Read(ctx, "Post", "p1", "en", "title_old1"); err != nil || ok {
		t.Fatalf("Read(title_old1) = (ok=%v, err=%v), want absent", ok, err)
	}
}

func TestStoreRejectsVersionShapedKeys(t *testing.T) {
	store := newTestStore(t)

	err := store.Write(context.Background(), "Post", "p1", "en", "title_old1", "boom")
	if !errors.Is(err, ErrVersionKeyReserved) {
		t.Fatalf("Write(title_old1) error = %v, want ErrVersionKeyReserved", err)
	}
}

func TestStoreRename(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "Post", "old", "en", "title", "Hello"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if err := store.Rename(ctx, "Post", "old", "new", "en"); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if _, ok, _ := store.Read(ctx, "Post", "old", "en", "title"); ok {
		t.Fatal("old bundle still readable after rename")
	}
	value, ok, err := store.Read(ctx, "Post", "new", "en", "title")
	if err != nil || !ok || value != "Hello" {
		t.Fatalf("Read() after rename = (%q, %v, %v)", value, ok, err)
	}

	// Retried rename: source gone, must be a no-op.
	if err := store.Rename(ctx, "Post", "old", "new", "en"); err != nil {
		t.Fatalf("Rename() retry error = %v", err)
	}
}

func TestStoreRenameRejectsExistingDestination(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Write(ctx, "Post", "a", "en", "title", "A"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, "Post", "b", "en", "title", "B"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	err := store.Rename(ctx, "Post", "a", "b", "en")
	if !errors.Is(err, ErrDestinationExists) {
		t.Fatalf("Rename() error = %v, want ErrDestinationExists", err)
	}
	var destErr *DestinationExistsError
	if !errors.As(err, &destErr) {
		t.Fatalf("Rename() error type = %T", err)
	}
	if destErr.OldID != "a" || destErr.NewID != "b" || destErr.Locale != "en" {
		t.Fatalf("DestinationExistsError = %+v", destErr)
	}

	// Both bundles keep their values.
	if value, _, _ := store.Read(ctx, "Post", "b", "en", "title"); value != "B" {
		t.Fatalf("destination bundle changed: %q", value)
	}
}

func TestStoreLocales(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, locale := range []string{"en", "tr", "de"} {
		if err := store.Write(ctx, "Post", "p1", locale, "title", "x"); err != nil {
			t.Fatalf("Write(%s) error = %v", locale, err)
		}
	}
	if err := store.Write(ctx, "Page", "p2", "fr", "title", "x"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	locales, err := store.Locales(ctx, "Post")
	if err != nil {
		t.Fatalf("Locales() error = %v", err)
	}
	want := []string{"de", "en", "tr"}
	if len(locales) != len(want) {
		t.Fatalf("Locales() = %v, want %v", locales, want)
	}
	for i, locale := range want {
		if locales[i] != locale {
			t.Fatalf("Locales() = %v, want %v", locales, want)
		}
	}
}

func TestStoreRejectsTraversalSegments(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, segment := range []string{"..", "a/b", `a\b`, " ", ""} {
		if err := store.Write(ctx, segment, "p1", "en", "title", "x"); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("Write(type=%q) error = %v, want ErrInvalidSegment", segment, err)
		}
		if err := store.Write(ctx, "Post", segment, "en", "title", "x"); !errors.Is(err, ErrInvalidSegment) {
			t.Fatalf("Write(id=%q) error = %v, want ErrInvalidSegment", segment, err)
		}
	}
}

func TestStoreMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	ctx := context.Background()

	path := filepath.Join(dir, "en", "Post")
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "p1.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	_, _, err = store.Read(ctx, "Post", "p1", "en", "title")
	if !errors.Is(err, ErrDocumentMalformed) {
		t.Fatalf("Read() error = %v, want ErrDocumentMalformed", err)
	}
}

func TestStoreYAMLCodec(t *testing.T) {
	store := newTestStore(t, WithCodec(YAMLCodec{}))
	ctx := context.Background()

	if err := store.Write(ctx, "Post", "p1", "en", "title", "Hello"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := store.Write(ctx, "Post", "p1", "en", "title", "Hi"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	value, ok, err := store.Read(ctx, "Post", "p1", "en", "title")
	if err != nil || !ok || value != "Hi" {
		t.Fatalf("Read() = (%q, %v, %v)", value, ok, err)
	}
	doc, _, err := store.Document(ctx, "Post", "p1", "en")
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if doc["title_old1"] != "Hello" {
		t.Fatalf("yaml version slot = %q, want \"Hello\"", doc["title_old1"])
	}
}

func TestStoreConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("field%d", n)
			if err := store.Write(ctx, "Post", "p1", "en", key, fmt.Sprintf("value%d", n)); err != nil {
				t.Errorf("Write(%s) error = %v", key, err)
			}
		}(i)
	}
	wg.Wait()

	doc, ok, err := store.Document(ctx, "Post", "p1", "en")
	if err != nil || !ok {
		t.Fatalf("Document() = (ok=%v, err=%v)", ok, err)
	}
	if len(doc) != writers {
		t.Fatalf("Document() has %d entries after %d concurrent writes: %v", len(doc), writers, doc)
	}
}
