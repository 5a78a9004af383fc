package index

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MemoryRepository keeps index rows in process memory. It mirrors the
// semantics of the Bun repository and suits tests and hosts that run without
// a database.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows map[rowKey]string
}

type rowKey struct {
	entityType string
	entityID   string
	locale     string
	key        string
}

// NewMemoryRepository constructs an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{rows: map[rowKey]string{}}
}

var _ Repository = (*MemoryRepository)(nil)

// Upsert inserts or replaces the row for the record's unique key.
func (r *MemoryRepository) Upsert(ctx context.Context, record Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := record.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[rowKey{
		entityType: record.EntityType,
		entityID:   record.EntityID,
		locale:     record.Locale,
		key:        record.Key,
	}] = record.Value
	return nil
}

// UpdateIdentifier rewrites the identifier on every matching row. A row that
// already exists under the new identifier fails the whole update, the same
// way the unique constraint does on the database-backed repository.
func (r *MemoryRepository) UpdateIdentifier(ctx context.Context, entityType, oldID, newID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.rows {
		if key.entityType != entityType || key.entityID != oldID {
			continue
		}
		dest := key
		dest.entityID = newID
		if _, exists := r.rows[dest]; exists {
			return 0, wrapStorage(
				fmt.Errorf("row (%s, %s, %s, %s) already exists", entityType, newID, key.locale, key.key),
				"update identifier")
		}
	}

	var moved int64
	for key, value := range r.rows {
		if key.entityType != entityType || key.entityID != oldID {
			continue
		}
		delete(r.rows, key)
		key.entityID = newID
		r.rows[key] = value
		moved++
	}
	return moved, nil
}

// Get fetches one row by its unique key.
func (r *MemoryRepository) Get(ctx context.Context, entityType, id, locale, key string) (Record, bool, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.rows[rowKey{entityType: entityType, entityID: id, locale: locale, key: key}]
	if !ok {
		return Record{}, false, nil
	}
	return Record{
		EntityType: entityType,
		EntityID:   id,
		Locale:     locale,
		Key:        key,
		Value:      value,
	}, true, nil
}

// FindBy returns the deduplicated identifiers matching the query.
func (r *MemoryRepository) FindBy(ctx context.Context, query Query) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}

	localeFilter := map[string]struct{}{}
	for _, locale := range query.Locales {
		localeFilter[locale] = struct{}{}
	}
	valueSet := map[string]struct{}{}
	for _, value := range query.Values {
		valueSet[value] = struct{}{}
	}
	needle := strings.ToLower(query.Value)

	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{}
	var ids []string
	for key, value := range r.rows {
		if key.entityType != query.EntityType || key.key != query.Key {
			continue
		}
		if len(localeFilter) > 0 {
			if _, ok := localeFilter[key.locale]; !ok {
				continue
			}
		}

		matched := false
		switch query.Mode {
		case MatchExact:
			matched = value == query.Value
		case MatchAny:
			_, matched = valueSet[value]
		case MatchSubstring:
			matched = strings.Contains(strings.ToLower(value), needle)
		}
		if !matched {
			continue
		}
		if _, dup := seen[key.entityID]; dup {
			continue
		}
		seen[key.entityID] = struct{}{}
		ids = append(ids, key.entityID)
	}
	sort.Strings(ids)
	return ids, nil
}
