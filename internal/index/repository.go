// Package index maintains the relational translation index: one row per
// entity type, identifier, locale, and attribute key, holding the current
// value only. The index backs cross-entity search and serves as the read
// fallback when a bundle document is unavailable.
package index

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Record is the denormalized form of one index row.
type Record struct {
	EntityType string
	EntityID   string
	Locale     string
	Key        string
	Value      string
}

// Validate ensures a record carries every column of the unique key.
func (r Record) Validate() error {
	errs := validation.Errors{}
	if r.EntityType == "" {
		errs["entity_type"] = validation.NewError("translatable.index.entity_type_required", "entity type is required")
	}
	if r.EntityID == "" {
		errs["entity_id"] = validation.NewError("translatable.index.entity_id_required", "entity identifier is required")
	}
	if err := ValidateLocale(r.Locale); err != nil {
		errs["locale"] = err
	}
	if r.Key == "" {
		errs["key"] = validation.NewError("translatable.index.key_required", "attribute key is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// MatchMode selects how FindBy compares values.
type MatchMode int

const (
	// MatchExact matches rows whose value equals Query.Value.
	MatchExact MatchMode = iota
	// MatchAny matches rows whose value is one of Query.Values.
	MatchAny
	// MatchSubstring matches rows whose value contains Query.Value. Matching
	// delegates to the database LIKE operator, which is ASCII
	// case-insensitive on the bundled SQLite driver; the memory repository
	// mirrors that with a case-insensitive contains.
	MatchSubstring
)

// Query scopes a FindBy search to an entity type and attribute key, with an
// optional locale restriction.
type Query struct {
	EntityType string
	Key        string
	Mode       MatchMode
	Value      string
	Values     []string
	Locales    []string
}

// Validate checks the query carries its scope and mode operands.
func (q Query) Validate() error {
	errs := validation.Errors{}
	if q.EntityType == "" {
		errs["entity_type"] = validation.NewError("translatable.index.entity_type_required", "entity type is required")
	}
	if q.Key == "" {
		errs["key"] = validation.NewError("translatable.index.key_required", "attribute key is required")
	}
	switch q.Mode {
	case MatchExact, MatchSubstring:
	case MatchAny:
		if len(q.Values) == 0 {
			errs["values"] = validation.NewError("translatable.index.values_required", "set-membership query needs at least one value")
		}
	default:
		errs["mode"] = validation.NewError("translatable.index.mode_invalid", "unknown match mode")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Repository is the persistence contract for the translation index.
type Repository interface {
	// Upsert inserts or replaces the row for the record's unique key.
	// Concurrent upserts on the same key resolve last-writer-wins; none is
	// lost or duplicated.
	Upsert(ctx context.Context, record Record) error
	// UpdateIdentifier migrates every row of (entityType, oldID) to newID and
	// reports how many rows matched. Re-running after completion matches zero
	// rows and is a safe no-op. When a destination row already exists the
	// update fails without changing any row.
	UpdateIdentifier(ctx context.Context, entityType, oldID, newID string) (int64, error)
	// Get fetches the row for an exact (type, id, locale, key) tuple. A
	// missing row is ok=false, not an error.
	Get(ctx context.Context, entityType, id, locale, key string) (Record, bool, error)
	// FindBy returns the deduplicated entity identifiers matching the query.
	// Order is unspecified.
	FindBy(ctx context.Context, query Query) ([]string, error)
}

// ValidateLocale checks a locale code fits the index schema: short codes of
// two to five characters. Writers check it before touching any store so a
// rejected locale never lands in one store but not the other.
func ValidateLocale(locale string) error {
	if locale == "" {
		return validation.NewError("translatable.index.locale_required", "locale is required")
	}
	if len(locale) < 2 || len(locale) > 5 {
		return validation.NewError("translatable.index.locale_invalid", "locale must be a 2-5 character code")
	}
	return nil
}
