package translatable

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/uptrace/bun"

	"github.com/profscode/go-translatable/pkg/interfaces"
)

// Config wires the translation engine. Locale context is explicit here
// rather than read from process-wide state: the active locale answers reads
// that omit a locale, the default locale is the last fallback tier.
type Config struct {
	// BundleDir is the root directory for bundle documents.
	BundleDir string
	// BundleFormat selects the bundle codec: "json" (default) or "yaml".
	BundleFormat string
	// ActiveLocale is used when a resolve call omits the locale.
	ActiveLocale string
	// DefaultLocale is the fallback locale for ResolveWithFallback.
	DefaultLocale string
	// DB backs the translation index. When nil the engine keeps the index in
	// memory, which suits tests and single-process hosts.
	DB *bun.DB
	// Logger provides module loggers; nil disables logging.
	Logger interfaces.LoggerProvider
}

// DefaultConfig returns a configuration with the conventional defaults.
func DefaultConfig() Config {
	return Config{
		BundleDir:     "lang",
		BundleFormat:  "json",
		ActiveLocale:  "en",
		DefaultLocale: "en",
	}
}

// Validate checks the configuration before the module is built.
func (c Config) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(c.BundleDir) == "" {
		errs["bundle_dir"] = validation.NewError("translatable.config.bundle_dir_required", "bundle directory is required")
	}
	switch strings.TrimSpace(c.BundleFormat) {
	case "", "json", "yaml", "yml":
	default:
		errs["bundle_format"] = validation.NewError("translatable.config.bundle_format_invalid", "bundle format must be json or yaml")
	}
	if strings.TrimSpace(c.ActiveLocale) == "" {
		errs["active_locale"] = validation.NewError("translatable.config.active_locale_required", "active locale is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
