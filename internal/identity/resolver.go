// Package identity assigns write identifiers to entities and migrates both
// translation stores when the host settles on a different final identifier.
package identity

import (
	"context"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/profscode/go-translatable/internal/index"
	"github.com/profscode/go-translatable/internal/logging"
	"github.com/profscode/go-translatable/pkg/interfaces"
)

// WriteIdentifier returns the identifier translations should be written
// under. An entity that already has a key keeps it; a not-yet-persisted
// entity gets a fresh provisional UUID, reported by the second return.
func WriteIdentifier(existingKey string) (string, bool) {
	if trimmed := strings.TrimSpace(existingKey); trimmed != "" {
		return trimmed, false
	}
	return uuid.NewString(), true
}

// BundleStore is the slice of the bundle store reconciliation needs.
type BundleStore interface {
	Locales(ctx context.Context, entityType string) ([]string, error)
	Rename(ctx context.Context, entityType, oldID, newID, locale string) error
}

// Option mutates the reconciler configuration.
type Option func(*Reconciler)

// WithLogger attaches a logger for reconciliation diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Reconciler) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Reconciler migrates bundles and index rows from one identifier to another.
// The two stores share no transaction, so a run may complete partially; every
// step skips work that already happened, which makes a retry with the same
// arguments converge instead of duplicating state.
type Reconciler struct {
	bundles BundleStore
	index   index.Repository
	logger  interfaces.Logger
}

// NewReconciler constructs a reconciler over the two stores.
func NewReconciler(bundles BundleStore, repo index.Repository, opts ...Option) *Reconciler {
	reconciler := &Reconciler{
		bundles: bundles,
		index:   repo,
		logger:  logging.NoOp(),
	}
	for _, opt := range opts {
		opt(reconciler)
	}
	return reconciler
}

// Reconcile renames every locale's bundle for (entityType, oldID) to newID
// and rewrites the matching index rows. Identical identifiers are a no-op.
// Partial failures come back as a *ReconcileError naming the stores and
// locales still pending; the same call can be retried safely.
func (r *Reconciler) Reconcile(ctx context.Context, entityType, oldID, newID string) error {
	if err := validateArgs(entityType, oldID, newID); err != nil {
		return err
	}
	if oldID == newID {
		return nil
	}

	failure := &ReconcileError{
		EntityType:     entityType,
		OldID:          oldID,
		NewID:          newID,
		BundleFailures: map[string]error{},
	}

	locales, err := r.bundles.Locales(ctx, entityType)
	if err != nil {
		failure.LocalesErr = err
	}
	for _, locale := range locales {
		if err := r.bundles.Rename(ctx, entityType, oldID, newID, locale); err != nil {
			failure.BundleFailures[locale] = err
		}
	}

	// The index update runs even when a bundle rename failed: both stores
	// must converge on the final identifier eventually, and the retry skips
	// whatever already moved.
	if _, err := r.index.UpdateIdentifier(ctx, entityType, oldID, newID); err != nil {
		failure.IndexErr = err
	}

	if failure.empty() {
		r.logger.Debug("identifiers reconciled",
			"entity_type", entityType, "old_id", oldID, "new_id", newID)
		return nil
	}

	r.logger.Error("identifier reconciliation left stores inconsistent; retry with the same arguments",
		"entity_type", entityType, "old_id", oldID, "new_id", newID, "error", failure.Error())
	return failure
}

func validateArgs(entityType, oldID, newID string) error {
	errs := validation.Errors{}
	if strings.TrimSpace(entityType) == "" {
		errs["entity_type"] = validation.NewError("translatable.identity.entity_type_required", "entity type is required")
	}
	if strings.TrimSpace(oldID) == "" {
		errs["old_id"] = validation.NewError("translatable.identity.old_id_required", "old identifier is required")
	}
	if strings.TrimSpace(newID) == "" {
		errs["new_id"] = validation.NewError("translatable.identity.new_id_required", "new identifier is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ReconcileError reports which parts of a reconciliation did not complete.
type ReconcileError struct {
	EntityType string
	OldID      string
	NewID      string
	// LocalesErr is set when the locale namespaces could not be enumerated.
	LocalesErr error
	// BundleFailures maps locale codes to their rename errors.
	BundleFailures map[string]error
	// IndexErr is set when the index bulk update failed.
	IndexErr error
}

func (e *ReconcileError) empty() bool {
	return e.LocalesErr == nil && len(e.BundleFailures) == 0 && e.IndexErr == nil
}

func (e *ReconcileError) Error() string {
	if e == nil {
		return "identity: reconciliation failed"
	}
	parts := []string{fmt.Sprintf("identity: reconcile %s %s -> %s incomplete", e.EntityType, e.OldID, e.NewID)}
	if e.LocalesErr != nil {
		parts = append(parts, fmt.Sprintf("list locales: %v", e.LocalesErr))
	}
	locales := make([]string, 0, len(e.BundleFailures))
	for locale := range e.BundleFailures {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	for _, locale := range locales {
		parts = append(parts, fmt.Sprintf("bundle %s: %v", locale, e.BundleFailures[locale]))
	}
	if e.IndexErr != nil {
		parts = append(parts, fmt.Sprintf("index: %v", e.IndexErr))
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the underlying store errors for errors.Is/As inspection.
func (e *ReconcileError) Unwrap() []error {
	if e == nil {
		return nil
	}
	var errs []error
	if e.LocalesErr != nil {
		errs = append(errs, e.LocalesErr)
	}
	for _, err := range e.BundleFailures {
		errs = append(errs, err)
	}
	if e.IndexErr != nil {
		errs = append(errs, e.IndexErr)
	}
	return errs
}
