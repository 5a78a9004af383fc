// Package search exposes the read-only lookups over the translation index.
package search

import (
	"context"

	"github.com/profscode/go-translatable/internal/index"
)

// Service scopes index searches to an entity type and attribute key. All
// operations are side-effect free and return deduplicated entity identifiers.
type Service struct {
	index index.Repository
}

// NewService constructs a search service over the given index repository.
func NewService(repo index.Repository) *Service {
	return &Service{index: repo}
}

// Exact returns the identifiers whose translation equals value.
func (s *Service) Exact(ctx context.Context, entityType, key, value string, locales ...string) ([]string, error) {
	return s.index.FindBy(ctx, index.Query{
		EntityType: entityType,
		Key:        key,
		Mode:       index.MatchExact,
		Value:      value,
		Locales:    locales,
	})
}

// AnyOf returns the identifiers whose translation is one of values.
func (s *Service) AnyOf(ctx context.Context, entityType, key string, values []string, locales ...string) ([]string, error) {
	return s.index.FindBy(ctx, index.Query{
		EntityType: entityType,
		Key:        key,
		Mode:       index.MatchAny,
		Values:     values,
		Locales:    locales,
	})
}

// Contains returns the identifiers whose translation contains the fragment.
// Matching follows the index.MatchSubstring contract.
func (s *Service) Contains(ctx context.Context, entityType, key, fragment string, locales ...string) ([]string, error) {
	return s.index.FindBy(ctx, index.Query{
		EntityType: entityType,
		Key:        key,
		Mode:       index.MatchSubstring,
		Value:      fragment,
		Locales:    locales,
	})
}
