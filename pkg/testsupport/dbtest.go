// Package testsupport provides database helpers shared by the test suites.
package testsupport

import (
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"

	"github.com/profscode/go-translatable/pkg/bundb"
)

// NewBunSQLiteDB opens a named shared in-memory SQLite database. Tests that
// pass distinct names get isolated databases within the same process.
func NewBunSQLiteDB(name string) (*bun.DB, error) {
	return bundb.Open(bundb.Config{
		Driver: "sqlite3",
		DSN:    "file:" + name + "?mode=memory&cache=shared&_fk=1",
	})
}
