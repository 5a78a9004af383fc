// Package translatable persists per-locale translations of entity attributes
// and resolves them back at read time. Values live in two stores at once: a
// file-based bundle store that keeps version history, and a relational index
// used for search and as the read fallback.
package translatable

import (
	"context"

	"github.com/profscode/go-translatable/internal/bundle"
	"github.com/profscode/go-translatable/internal/identity"
	"github.com/profscode/go-translatable/internal/index"
	"github.com/profscode/go-translatable/internal/logging"
	"github.com/profscode/go-translatable/internal/resolve"
	"github.com/profscode/go-translatable/internal/search"
	"github.com/profscode/go-translatable/internal/translate"
)

// Translatable exports the host entity contract for consumers of the package.
type Translatable = translate.Translatable

// Receipt exports the write receipt returned by BeforePersist.
type Receipt = translate.Receipt

// PartialWriteError exports the per-locale failure aggregate.
type PartialWriteError = translate.PartialWriteError

// LocaleWriteError exports one failed locale write.
type LocaleWriteError = translate.LocaleWriteError

// IndexRecord exports the denormalized index row.
type IndexRecord = index.Record

// IndexRepository exports the index persistence contract.
type IndexRepository = index.Repository

// ReconcileError exports the partial reconciliation failure type.
type ReconcileError = identity.ReconcileError

// Module is the top level runtime facade for the translation engine.
type Module struct {
	config     Config
	bundles    *bundle.Store
	index      index.Repository
	resolver   *resolve.Resolver
	reconciler *identity.Reconciler
	translator *translate.Service
	search     *search.Service
}

// New constructs the engine from the provided configuration.
func New(cfg Config) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	codec, err := bundle.CodecForFormat(cfg.BundleFormat)
	if err != nil {
		return nil, err
	}

	bundles, err := bundle.NewStore(cfg.BundleDir,
		bundle.WithCodec(codec),
		bundle.WithLogger(logging.BundleLogger(cfg.Logger)),
	)
	if err != nil {
		return nil, err
	}

	var repo index.Repository
	if cfg.DB != nil {
		repo = index.NewBunRepository(cfg.DB)
	} else {
		repo = index.NewMemoryRepository()
	}

	resolver := resolve.NewResolver(bundles, repo, resolve.Locales{
		Active:  cfg.ActiveLocale,
		Default: cfg.DefaultLocale,
	}, resolve.WithLogger(logging.ResolveLogger(cfg.Logger)))

	reconciler := identity.NewReconciler(bundles, repo,
		identity.WithLogger(logging.IdentityLogger(cfg.Logger)))

	translator := translate.NewService(bundles, repo, resolver, reconciler,
		translate.WithLogger(logging.TranslateLogger(cfg.Logger)))

	return &Module{
		config:     cfg,
		bundles:    bundles,
		index:      repo,
		resolver:   resolver,
		reconciler: reconciler,
		translator: translator,
		search:     search.NewService(repo),
	}, nil
}

// EnsureSchema provisions the index table on the configured database. It is
// a no-op for the in-memory index.
func (m *Module) EnsureSchema(ctx context.Context) error {
	if m.config.DB == nil {
		return nil
	}
	return index.EnsureSchema(ctx, m.config.DB)
}

// Bundles returns the bundle store.
func (m *Module) Bundles() *bundle.Store {
	return m.bundles
}

// Index returns the translation index repository.
func (m *Module) Index() index.Repository {
	return m.index
}

// Search returns the search service over the translation index.
func (m *Module) Search() *search.Service {
	return m.search
}

// Translator returns the write flow service behind the persistence hooks.
func (m *Module) Translator() *translate.Service {
	return m.translator
}

// Resolver returns the two-tier read resolver.
func (m *Module) Resolver() *resolve.Resolver {
	return m.resolver
}

// BeforePersist runs the write flow for an entity. The host calls it before
// the entity's own fields are durably written.
func (m *Module) BeforePersist(ctx context.Context, entity Translatable) (*Receipt, error) {
	return m.translator.BeforePersist(ctx, entity)
}

// AfterPersist reconciles identifiers once the host has persisted the entity.
func (m *Module) AfterPersist(ctx context.Context, entity Translatable, receipt *Receipt) error {
	return m.translator.AfterPersist(ctx, entity, receipt)
}

// Attribute resolves a translatable attribute for the host's accessor layer,
// falling back to the raw stored value when no translation exists.
func (m *Module) Attribute(ctx context.Context, entity Translatable, key, locale string) (any, error) {
	return m.translator.Attribute(ctx, entity, key, locale)
}

// Resolve returns the translation for (entityType, id, key) in the given
// locale, or the active locale when locale is empty. Missing translations are
// ok=false, never an error.
func (m *Module) Resolve(ctx context.Context, entityType, id, key, locale string) (string, bool, error) {
	return m.resolver.Resolve(ctx, entityType, id, key, locale)
}

// ResolveWithFallback additionally retries the configured default locale.
func (m *Module) ResolveWithFallback(ctx context.Context, entityType, id, key, locale string) (string, bool, error) {
	return m.resolver.ResolveWithFallback(ctx, entityType, id, key, locale)
}

// Reconcile migrates bundles and index rows from oldID to newID. Exposed for
// operational recovery after a partial reconciliation.
func (m *Module) Reconcile(ctx context.Context, entityType, oldID, newID string) error {
	return m.reconciler.Reconcile(ctx, entityType, oldID, newID)
}
