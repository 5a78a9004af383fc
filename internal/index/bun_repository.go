package index

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const indexStorageFailed = "INDEX_STORAGE_FAILED"

// BunRepository persists index rows through a Bun-backed database. The
// uniqueness constraint on (translatable_type, translatable_id, locale, key)
// makes Upsert atomic without application-level locking.
type BunRepository struct {
	db *bun.DB
}

// NewBunRepository constructs a Bun-backed repository.
func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

var _ Repository = (*BunRepository)(nil)

// Upsert inserts the record or, on a unique-key conflict, replaces the
// current value and bumps updated_at.
func (r *BunRepository) Upsert(ctx context.Context, record Record) error {
	if r.db == nil {
		return errors.New("index: bun repository requires a database")
	}
	if err := record.Validate(); err != nil {
		return err
	}

	now := time.Now().UTC()
	model := recordToModel(record)
	model.CreatedAt = now
	model.UpdatedAt = now

	_, err := r.db.NewInsert().
		Model(&model).
		On("CONFLICT (translatable_type, translatable_id, locale, \"key\") DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return wrapStorage(err, "upsert translation row")
}

// UpdateIdentifier bulk-updates all rows of (entityType, oldID) to newID.
func (r *BunRepository) UpdateIdentifier(ctx context.Context, entityType, oldID, newID string) (int64, error) {
	if r.db == nil {
		return 0, errors.New("index: bun repository requires a database")
	}

	res, err := r.db.NewUpdate().
		Model((*Translation)(nil)).
		Set("translatable_id = ?", newID).
		Set("updated_at = ?", time.Now().UTC()).
		Where("translatable_type = ?", entityType).
		Where("translatable_id = ?", oldID).
		Exec(ctx)
	if err != nil {
		return 0, wrapStorage(err, "update translation identifiers")
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage(err, "count updated translation rows")
	}
	return rows, nil
}

// Get fetches one row by its unique key.
func (r *BunRepository) Get(ctx context.Context, entityType, id, locale, key string) (Record, bool, error) {
	if r.db == nil {
		return Record{}, false, errors.New("index: bun repository requires a database")
	}

	var model Translation
	err := r.db.NewSelect().
		Model(&model).
		Where("translatable_type = ?", entityType).
		Where("translatable_id = ?", id).
		Where("locale = ?", locale).
		Where("\"key\" = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, wrapStorage(err, "select translation row")
	}
	return modelToRecord(&model), true, nil
}

// FindBy returns the distinct entity identifiers whose rows match the query.
func (r *BunRepository) FindBy(ctx context.Context, query Query) ([]string, error) {
	if r.db == nil {
		return nil, errors.New("index: bun repository requires a database")
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	q := r.db.NewSelect().
		Model((*Translation)(nil)).
		ColumnExpr("DISTINCT translatable_id").
		Where("translatable_type = ?", query.EntityType).
		Where("\"key\" = ?", query.Key)

	switch query.Mode {
	case MatchExact:
		q = q.Where("value = ?", query.Value)
	case MatchAny:
		q = q.Where("value IN (?)", bun.In(query.Values))
	case MatchSubstring:
		q = q.Where("value LIKE ? ESCAPE '\\'", "%"+escapeLike(query.Value)+"%")
	}

	if len(query.Locales) > 0 {
		q = q.Where("locale IN (?)", bun.In(query.Locales))
	}

	var ids []string
	if err := q.Scan(ctx, &ids); err != nil {
		return nil, wrapStorage(err, "search translation rows")
	}
	return ids, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}

func wrapStorage(err error, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "index: "+msg).
		WithTextCode(indexStorageFailed)
}
