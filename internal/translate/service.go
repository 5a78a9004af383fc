// Package translate orchestrates the dual-write flow between the bundle
// store and the translation index, and the host-facing persistence hooks.
package translate

import (
	"context"
	"sort"
	"strings"

	"github.com/profscode/go-translatable/internal/attrs"
	"github.com/profscode/go-translatable/internal/identity"
	"github.com/profscode/go-translatable/internal/index"
	"github.com/profscode/go-translatable/internal/logging"
	"github.com/profscode/go-translatable/internal/resolve"
	"github.com/profscode/go-translatable/pkg/interfaces"
)

// BundleWriter is the slice of the bundle store the write flow needs.
type BundleWriter interface {
	Write(ctx context.Context, entityType, id, locale, key, value string) error
}

// Option mutates the service configuration.
type Option func(*Service)

// WithLogger attaches a logger for write flow diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs the persistence hooks the host invokes around entity saves.
type Service struct {
	bundles    BundleWriter
	index      index.Repository
	resolver   *resolve.Resolver
	reconciler *identity.Reconciler
	logger     interfaces.Logger
}

// NewService constructs the write flow service.
func NewService(bundles BundleWriter, repo index.Repository, resolver *resolve.Resolver, reconciler *identity.Reconciler, opts ...Option) *Service {
	service := &Service{
		bundles:    bundles,
		index:      repo,
		resolver:   resolver,
		reconciler: reconciler,
		logger:     logging.NoOp(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BeforePersist decodes every translatable attribute, persists each locale's
// value to both stores, and replaces the attribute with the identifier the
// bundles live under. The host must call it before writing the entity's own
// row.
//
// Attribute values that do not decode to a locale map pass through untouched;
// that is not an error. Locale writes fail independently: the returned error,
// when non-nil, is a *PartialWriteError listing exactly the failed locales,
// and the receipt is still valid for AfterPersist.
func (s *Service) BeforePersist(ctx context.Context, entity Translatable) (*Receipt, error) {
	if entity == nil {
		return nil, ErrEntityRequired
	}
	entityType := strings.TrimSpace(entity.TranslatableType())
	if entityType == "" {
		return nil, ErrTypeRequired
	}

	id, provisional := identity.WriteIdentifier(entity.TranslatableKey())
	receipt := &Receipt{Identifier: id, Provisional: provisional}

	for _, attribute := range entity.TranslatableAttributes() {
		localeMap, ok := attrs.Decode(entity.Attribute(attribute))
		if !ok {
			continue
		}

		for _, locale := range sortedLocales(localeMap) {
			text := localeMap[locale]
			// A locale the index schema cannot hold must not reach the
			// bundle either, or the two stores diverge permanently.
			if err := index.ValidateLocale(locale); err != nil {
				receipt.Failures = append(receipt.Failures, LocaleWriteError{
					Attribute: attribute,
					Locale:    locale,
					Err:       err,
				})
				continue
			}
			if err := s.bundles.Write(ctx, entityType, id, locale, attribute, text); err != nil {
				receipt.Failures = append(receipt.Failures, LocaleWriteError{
					Attribute: attribute,
					Locale:    locale,
					Err:       err,
				})
				continue
			}
			if err := s.index.Upsert(ctx, index.Record{
				EntityType: entityType,
				EntityID:   id,
				Locale:     locale,
				Key:        attribute,
				Value:      text,
			}); err != nil {
				receipt.Failures = append(receipt.Failures, LocaleWriteError{
					Attribute: attribute,
					Locale:    locale,
					Err:       err,
				})
			}
		}

		// Locale values are persisted; the attribute now carries only the
		// reference identifier.
		entity.SetAttribute(attribute, id)
	}

	if err := receipt.Err(); err != nil {
		s.logger.Error("translation write completed partially",
			"entity_type", entityType, "id", id, "error", err)
		return receipt, err
	}
	return receipt, nil
}

// AfterPersist reconciles both stores when the host assigned a final
// identifier that differs from the one used during BeforePersist. The host
// must call it once the entity row is durably written.
func (s *Service) AfterPersist(ctx context.Context, entity Translatable, receipt *Receipt) error {
	if entity == nil {
		return ErrEntityRequired
	}
	if receipt == nil {
		return ErrReceiptRequired
	}

	finalKey := strings.TrimSpace(entity.TranslatableKey())
	if finalKey == "" {
		if receipt.Provisional {
			return ErrKeyUnassigned
		}
		return nil
	}
	if finalKey == receipt.Identifier {
		return nil
	}
	return s.reconciler.Reconcile(ctx, entity.TranslatableType(), receipt.Identifier, finalKey)
}

// Attribute resolves a translatable attribute for reads, falling back to the
// entity's raw stored value when no translation exists. This is the accessor
// the host routes translatable reads through.
func (s *Service) Attribute(ctx context.Context, entity Translatable, key, locale string) (any, error) {
	if entity == nil {
		return nil, ErrEntityRequired
	}

	value, ok, err := s.resolver.ResolveWithFallback(ctx, entity.TranslatableType(), entity.TranslatableKey(), key, locale)
	if err != nil {
		return nil, err
	}
	if ok {
		return value, nil
	}
	return entity.Attribute(key), nil
}

func sortedLocales(localeMap map[string]string) []string {
	locales := make([]string, 0, len(localeMap))
	for locale := range localeMap {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}
