package translate

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEntityRequired  = errors.New("translate: entity is required")
	ErrReceiptRequired = errors.New("translate: write receipt is required")
	ErrTypeRequired    = errors.New("translate: entity type is required")
	// ErrKeyUnassigned means AfterPersist ran for a provisionally written
	// entity whose host never assigned a final key.
	ErrKeyUnassigned = errors.New("translate: entity has no final identifier")
)

// Translatable is the contract a host entity satisfies to participate in the
// write and read flows. The host decides which attributes are translatable;
// the engine never inspects other fields.
type Translatable interface {
	// TranslatableType names the entity type, e.g. "Post".
	TranslatableType() string
	// TranslatableKey returns the entity's identifier, or "" before the host
	// has persisted it.
	TranslatableKey() string
	// TranslatableAttributes lists the attribute names to process.
	TranslatableAttributes() []string
	// Attribute returns the raw value stored for an attribute.
	Attribute(name string) any
	// SetAttribute replaces an attribute's stored value.
	SetAttribute(name string, value any)
}

// Receipt records what a BeforePersist call did: the identifier the
// translations were written under, whether it was freshly generated, and any
// per-locale failures. The host hands it back to AfterPersist.
type Receipt struct {
	// Identifier is the entity identifier used for every bundle and index
	// write, and the value stored into each translatable attribute.
	Identifier string
	// Provisional reports whether Identifier was generated for a
	// not-yet-persisted entity.
	Provisional bool
	// Failures holds the locale writes that did not complete.
	Failures []LocaleWriteError
}

// Err returns the collected per-locale failures as a *PartialWriteError, or
// nil when every write landed.
func (r *Receipt) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	return &PartialWriteError{Identifier: r.Identifier, Failures: r.Failures}
}

// LocaleWriteError is one failed (attribute, locale) write. Other locales of
// the same attribute are unaffected and may have succeeded.
type LocaleWriteError struct {
	Attribute string
	Locale    string
	Err       error
}

func (e LocaleWriteError) Error() string {
	return fmt.Sprintf("translate: write %s[%s]: %v", e.Attribute, e.Locale, e.Err)
}

func (e LocaleWriteError) Unwrap() error {
	return e.Err
}

// PartialWriteError aggregates the locale writes that failed within one
// BeforePersist call, so the caller can retry exactly those.
type PartialWriteError struct {
	Identifier string
	Failures   []LocaleWriteError
}

func (e *PartialWriteError) Error() string {
	if e == nil || len(e.Failures) == 0 {
		return "translate: partial write"
	}
	parts := make([]string, 0, len(e.Failures))
	for _, failure := range e.Failures {
		parts = append(parts, failure.Error())
	}
	return fmt.Sprintf("translate: %d locale write(s) failed for %s: %s",
		len(e.Failures), e.Identifier, strings.Join(parts, "; "))
}

// Unwrap exposes the individual failures for errors.Is/As inspection.
func (e *PartialWriteError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, len(e.Failures))
	for _, failure := range e.Failures {
		errs = append(errs, failure)
	}
	return errs
}
