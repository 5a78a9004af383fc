package index

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/uptrace/bun"

	"github.com/profscode/go-translatable/pkg/testsupport"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := testsupport.NewBunSQLiteDB("index_test_" + t.Name())
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := EnsureSchema(ctx, db); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	return db
}

func seed(t *testing.T, repo Repository, records ...Record) {
	t.Helper()
	for _, record := range records {
		if err := repo.Upsert(context.Background(), record); err != nil {
			t.Fatalf("Upsert(%+v) error = %v", record, err)
		}
	}
}

func TestBunRepositoryUpsert(t *testing.T) {
	repo := NewBunRepository(newTestDB(t))
	ctx := context.Background()

	record := Record{EntityType: "Post", EntityID: "p1", Locale: "en", Key: "title", Value: "Hello"}
	seed(t, repo, record)

	record.Value = "Hi"
	seed(t, repo, record)

	got, ok, err := repo.Get(ctx, "Post", "p1", "en", "title")
	if err != nil || !ok {
		t.Fatalf("Get() = (ok=%v, err=%v)", ok, err)
	}
	if got.Value != "Hi" {
		t.Fatalf("Get().Value = %q, want \"Hi\"", got.Value)
	}

	var count int
	if err := repo.db.NewSelect().Model((*Translation)(nil)).ColumnExpr("count(*)").Scan(ctx, &count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("upsert duplicated the row: count = %d", count)
	}
}

func TestBunRepositoryUpsertValidation(t *testing.T) {
	repo := NewBunRepository(newTestDB(t))

	if err := repo.Upsert(context.Background(), Record{EntityType: "Post"}); err == nil {
		t.Fatal("Upsert() accepted a record without identifier, locale, and key")
	}
	if err := repo.Upsert(context.Background(), Record{
		EntityType: "Post", EntityID: "p1", Locale: "toolonglocale", Key: "title",
	}); err == nil {
		t.Fatal("Upsert() accepted an invalid locale code")
	}
}

func TestBunRepositoryUpdateIdentifier(t *testing.T) {
	repo := NewBunRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo,
		Record{EntityType: "Post", EntityID: "prov", Locale: "en", Key: "title", Value: "Hello"},
		Record{EntityType: "Post", EntityID: "prov", Locale: "tr", Key: "title", Value: "Merhaba"},
		Record{EntityType: "Page", EntityID: "prov", Locale: "en", Key: "title", Value: "Other"},
	)

	moved, err := repo.UpdateIdentifier(ctx, "Post", "prov", "42")
	if err != nil {
		t.Fatalf("UpdateIdentifier() error = %v", err)
	}
	if moved != 2 {
		t.Fatalf("UpdateIdentifier() moved %d rows, want 2", moved)
	}

	if _, ok, _ := repo.Get(ctx, "Post", "prov", "en", "title"); ok {
		t.Fatal("row still carries the provisional identifier")
	}
	got, ok, err := repo.Get(ctx, "Post", "42", "tr", "title")
	if err != nil || !ok || got.Value != "Merhaba" {
		t.Fatalf("Get() after update = (%+v, %v, %v)", got, ok, err)
	}
	// Scoped by entity type.
	if _, ok, _ := repo.Get(ctx, "Page", "prov", "en", "title"); !ok {
		t.Fatal("update leaked into another entity type")
	}

	// Idempotent: re-run matches nothing.
	moved, err = repo.UpdateIdentifier(ctx, "Post", "prov", "42")
	if err != nil {
		t.Fatalf("UpdateIdentifier() retry error = %v", err)
	}
	if moved != 0 {
		t.Fatalf("UpdateIdentifier() retry moved %d rows, want 0", moved)
	}
}

func TestBunRepositoryFindBy(t *testing.T) {
	repo := NewBunRepository(newTestDB(t))
	ctx := context.Background()

	seed(t, repo,
		Record{EntityType: "Post", EntityID: "p1", Locale: "en", Key: "title", Value: "Hello World"},
		Record{EntityType: "Post", EntityID: "p1", Locale: "tr", Key: "title", Value: "Merhaba"},
		Record{EntityType: "Post", EntityID: "p2", Locale: "en", Key: "title", Value: "Hello World"},
		Record{EntityType: "Post", EntityID: "p3", Locale: "en", Key: "title", Value: "Goodbye"},
		Record{EntityType: "Post", EntityID: "p4", Locale: "en", Key: "summary", Value: "Hello World"},
		Record{EntityType: "Page", EntityID: "p5", Locale: "en", Key: "title", Value: "Hello World"},
	)

	assertIDs := func(t *testing.T, got []string, err error, want ...string) {
		t.Helper()
		if err != nil {
			t.Fatalf("FindBy() error = %v", err)
		}
		sort.Strings(got)
		sort.Strings(want)
		if len(got) != len(want) {
			t.Fatalf("FindBy() = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("FindBy() = %v, want %v", got, want)
			}
		}
	}

	t.Run("exact", func(t *testing.T) {
		ids, err := repo.FindBy(ctx, Query{EntityType: "Post", Key: "title", Mode: MatchExact, Value: "Hello World"})
		assertIDs(t, ids, err, "p1", "p2")
	})

	t.Run("set membership", func(t *testing.T) {
		ids, err := repo.FindBy(ctx, Query{
			EntityType: "Post", Key: "title", Mode: MatchAny,
			Values: []string{"Goodbye", "Merhaba"},
		})
		assertIDs(t, ids, err, "p1", "p3")
	})

	t.Run("substring", func(t *testing.T) {
		ids, err := repo.FindBy(ctx, Query{EntityType: "Post", Key: "title", Mode: MatchSubstring, Value: "World"})
		assertIDs(t, ids, err, "p1", "p2")
	})

	t.Run("substring escapes wildcards", func(t *testing.T) {
		seed(t, repo, Record{EntityType: "Post", EntityID: "p6", Locale: "en", Key: "title", Value: "100% done"})
		ids, err := repo.FindBy(ctx, Query{EntityType: "Post", Key: "title", Mode: MatchSubstring, Value: "100%"})
		assertIDs(t, ids, err, "p6")
	})

	t.Run("locale filter", func(t *testing.T) {
		ids, err := repo.FindBy(ctx, Query{
			EntityType: "Post", Key: "title", Mode: MatchExact,
			Value: "Merhaba", Locales: []string{"en"},
		})
		assertIDs(t, ids, err)
	})

	t.Run("deduplicates identifiers", func(t *testing.T) {
		seed(t, repo, Record{EntityType: "Post", EntityID: "p1", Locale: "de", Key: "title", Value: "Hello World"})
		ids, err := repo.FindBy(ctx, Query{EntityType: "Post", Key: "title", Mode: MatchExact, Value: "Hello World"})
		assertIDs(t, ids, err, "p1", "p2")
	})

	t.Run("empty value set rejected", func(t *testing.T) {
		if _, err := repo.FindBy(ctx, Query{EntityType: "Post", Key: "title", Mode: MatchAny}); err == nil {
			t.Fatal("FindBy() accepted an empty value set")
		}
	})
}
