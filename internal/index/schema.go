package index

import (
	"context"
	"errors"

	"github.com/uptrace/bun"
)

// EnsureSchema creates the index table and its indexes when they do not
// exist. Hosts running their own migration pipeline can use the embedded SQL
// migrations instead; the two produce the same schema.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	if db == nil {
		return errors.New("index: ensure schema requires a database")
	}

	if _, err := db.NewCreateTable().
		Model((*Translation)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return wrapStorage(err, "create translation table")
	}

	// Upsert correctness depends on this uniqueness constraint.
	if _, err := db.NewCreateIndex().
		Model((*Translation)(nil)).
		Unique().
		IfNotExists().
		Index("ux_profscode_translates_unique").
		Column("translatable_type", "translatable_id", "locale", "key").
		Exec(ctx); err != nil {
		return wrapStorage(err, "create unique translation index")
	}

	if _, err := db.NewCreateIndex().
		Model((*Translation)(nil)).
		IfNotExists().
		Index("ix_profscode_translates_translatable").
		Column("translatable_id", "translatable_type").
		Exec(ctx); err != nil {
		return wrapStorage(err, "create translation lookup index")
	}
	return nil
}
