// Package resolve serves translation reads. The bundle store is the primary
// tier; the translation index answers when a bundle is missing or unreadable.
package resolve

import (
	"context"
	"strings"

	"github.com/profscode/go-translatable/internal/index"
	"github.com/profscode/go-translatable/internal/logging"
	"github.com/profscode/go-translatable/pkg/interfaces"
)

// BundleReader is the slice of the bundle store the resolver needs.
type BundleReader interface {
	Read(ctx context.Context, entityType, id, locale, key string) (string, bool, error)
}

// Locales carries the explicit locale context for resolution. Active is used
// when a call omits the locale; Default is the fallback locale tried by
// ResolveWithFallback.
type Locales struct {
	Active  string
	Default string
}

// Option mutates the resolver configuration.
type Option func(*Resolver)

// WithLogger attaches a logger for degraded-read diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver answers "the value of attribute key in a locale for an entity".
type Resolver struct {
	bundles BundleReader
	index   index.Repository
	locales Locales
	logger  interfaces.Logger
}

// NewResolver constructs a resolver over the two read tiers.
func NewResolver(bundles BundleReader, repo index.Repository, locales Locales, opts ...Option) *Resolver {
	resolver := &Resolver{
		bundles: bundles,
		index:   repo,
		locales: locales,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(resolver)
	}
	return resolver
}

// Resolve returns the current translation for (entityType, id, key) in the
// given locale, or the active locale when locale is empty. A missing
// translation is ok=false, never an error. A bundle read failure degrades to
// the index tier instead of failing the read.
func (r *Resolver) Resolve(ctx context.Context, entityType, id, key, locale string) (string, bool, error) {
	// An entity without an identifier has no translations yet; unkeyed reads
	// are absent, not errors.
	if strings.TrimSpace(id) == "" {
		return "", false, nil
	}

	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = r.locales.Active
	}

	value, ok, bundleErr := r.bundles.Read(ctx, entityType, id, locale, key)
	if bundleErr == nil && ok {
		return value, true, nil
	}
	if bundleErr != nil {
		r.logger.Warn("bundle read failed, serving from index",
			"entity_type", entityType, "id", id, "locale", locale, "key", key, "error", bundleErr)
	}

	record, ok, err := r.index.Get(ctx, entityType, id, locale, key)
	if err != nil {
		return "", false, err
	}
	if ok {
		return record.Value, true, nil
	}
	if bundleErr != nil {
		return "", false, bundleErr
	}
	return "", false, nil
}

// ResolveWithFallback resolves in the requested locale and, when nothing is
// found, retries once in the configured default locale.
func (r *Resolver) ResolveWithFallback(ctx context.Context, entityType, id, key, locale string) (string, bool, error) {
	value, ok, err := r.Resolve(ctx, entityType, id, key, locale)
	if err != nil || ok {
		return value, ok, err
	}

	fallback := strings.TrimSpace(r.locales.Default)
	requested := strings.TrimSpace(locale)
	if requested == "" {
		requested = r.locales.Active
	}
	if fallback == "" || fallback == requested {
		return "", false, nil
	}
	return r.Resolve(ctx, entityType, id, key, fallback)
}
