package logging

import (
	"context"
	"maps"

	"github.com/profscode/go-translatable/pkg/interfaces"
)

const (
	rootModule      = "translatable"
	bundleModule    = "translatable.bundle"
	indexModule     = "translatable.index"
	identityModule  = "translatable.identity"
	resolveModule   = "translatable.resolve"
	translateModule = "translatable.translate"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The returned logger attaches
// the module identifier as structured context so downstream entries can be
// filtered predictably.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// BundleLogger returns the logger namespace reserved for the bundle store.
func BundleLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, bundleModule)
}

// IndexLogger returns the logger namespace reserved for the translation index.
func IndexLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, indexModule)
}

// IdentityLogger returns the logger namespace reserved for reconciliation.
func IdentityLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, identityModule)
}

// ResolveLogger returns the logger namespace reserved for the read path.
func ResolveLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, resolveModule)
}

// TranslateLogger returns the logger namespace reserved for the write flow.
func TranslateLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, translateModule)
}

// WithFields attaches structured fields to a logger when the implementation
// supports the optional FieldsLogger extension. Callers can pass nil or an
// empty map to skip allocation safely.
func WithFields(logger interfaces.Logger, fields map[string]any) interfaces.Logger {
	if logger == nil || len(fields) == 0 {
		return logger
	}

	if fieldsLogger, ok := logger.(interfaces.FieldsLogger); ok {
		copied := make(map[string]any, len(fields))
		maps.Copy(copied, fields)
		return fieldsLogger.WithFields(copied)
	}
	return logger
}

// NoOp returns a logger that drops every log entry. It satisfies the Logger
// contract so services can safely operate when logging is disabled.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
