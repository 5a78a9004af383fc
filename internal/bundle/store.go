// Package bundle persists translation bundles: one document per entity type,
// entity identifier, and locale, mapping attribute keys to text. Superseded
// values stay in the document under versioned keys and are never overwritten.
package bundle

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	goerrors "github.com/goliatone/go-errors"

	"github.com/profscode/go-translatable/internal/logging"
	"github.com/profscode/go-translatable/pkg/interfaces"
)

const bundleStorageFailed = "BUNDLE_STORAGE_FAILED"

// Option mutates the store configuration.
type Option func(*Store)

// WithCodec overrides the document codec. The default is JSON.
func WithCodec(codec Codec) Option {
	return func(s *Store) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithLogger attaches a logger for write and rename diagnostics.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store reads and writes bundle documents under a root directory using the
// layout {root}/{locale}/{entityType}/{identifier}.{ext}. Every mutation is a
// read-modify-write of the whole document guarded by a per-document lock, and
// the document is replaced atomically so readers never observe partial writes.
type Store struct {
	root   string
	codec  Codec
	logger interfaces.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore constructs a bundle store rooted at dir.
func NewStore(dir string, opts ...Option) (*Store, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, ErrRootRequired
	}
	store := &Store{
		root:   filepath.Clean(dir),
		codec:  JSONCodec{},
		logger: logging.NoOp(),
		locks:  map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// Write sets the current value for key in the (entityType, id, locale) bundle.
// When the key already holds a different value, the old value moves to the
// lowest unused {key}_old{N} slot before the new value lands. Version slots
// are append-only and never reused.
func (s *Store) Write(ctx context.Context, entityType, id, locale, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.documentPath(entityType, id, locale)
	if err != nil {
		return err
	}
	if err := validateSegment(key); err != nil {
		return fmt.Errorf("%w: key %q", ErrInvalidSegment, key)
	}
	if base, ok := versionBase(key); ok {
		return fmt.Errorf("%w: %q shadows versions of %q", ErrVersionKeyReserved, key, base)
	}

	unlock := s.lockDocument(path)
	defer unlock()

	doc, _, err := s.load(path)
	if err != nil {
		return err
	}
	if doc == nil {
		doc = map[string]string{}
	}

	if current, ok := doc[key]; ok && current != value {
		doc[nextVersionSlot(doc, key)] = current
	}
	doc[key] = value

	return s.persist(path, doc)
}

// Read returns the current value for key, or ok=false when the bundle or the
// key does not exist. Superseded version slots are never served here; use
// Document to inspect them.
func (s *Store) Read(ctx context.Context, entityType, id, locale, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	path, err := s.documentPath(entityType, id, locale)
	if err != nil {
		return "", false, err
	}
	if _, ok := versionBase(key); ok {
		return "", false, nil
	}

	doc, exists, err := s.load(path)
	if err != nil || !exists {
		return "", false, err
	}
	value, ok := doc[key]
	return value, ok, nil
}

// Document returns the full mapping for a bundle, version slots included.
func (s *Store) Document(ctx context.Context, entityType, id, locale string) (map[string]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	path, err := s.documentPath(entityType, id, locale)
	if err != nil {
		return nil, false, err
	}
	return s.load(path)
}

// Rename relocates a bundle from oldID to newID within one locale namespace.
// A missing source is a no-op so retried reconciliations stay idempotent. An
// existing destination is rejected, never overwritten.
func (s *Store) Rename(ctx context.Context, entityType, oldID, newID, locale string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	src, err := s.documentPath(entityType, oldID, locale)
	if err != nil {
		return err
	}
	dst, err := s.documentPath(entityType, newID, locale)
	if err != nil {
		return err
	}

	unlock := s.lockDocuments(src, dst)
	defer unlock()

	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return wrapStorage(err, "stat bundle source")
	}
	if _, err := os.Stat(dst); err == nil {
		return &DestinationExistsError{
			EntityType: entityType,
			OldID:      oldID,
			NewID:      newID,
			Locale:     locale,
		}
	} else if !os.IsNotExist(err) {
		return wrapStorage(err, "stat bundle destination")
	}

	if err := os.Rename(src, dst); err != nil {
		return wrapStorage(err, "rename bundle")
	}
	s.logger.Debug("bundle renamed", "entity_type", entityType, "locale", locale, "old_id", oldID, "new_id", newID)
	return nil
}

// Locales reports the locale namespaces that hold bundles for entityType.
// Used by reconciliation to visit every bundle an identifier may live under.
func (s *Store) Locales(ctx context.Context, entityType string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateSegment(entityType); err != nil {
		return nil, fmt.Errorf("%w: entity type %q", ErrInvalidSegment, entityType)
	}

	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrapStorage(err, "list bundle root")
	}

	var locales []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(filepath.Join(s.root, entry.Name(), entityType))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, wrapStorage(err, "stat locale namespace")
		}
		if info.IsDir() {
			locales = append(locales, entry.Name())
		}
	}
	sort.Strings(locales)
	return locales, nil
}

func (s *Store) documentPath(entityType, id, locale string) (string, error) {
	for _, segment := range []struct {
		name  string
		value string
	}{
		{"entity type", entityType},
		{"identifier", id},
		{"locale", locale},
	} {
		if err := validateSegment(segment.value); err != nil {
			return "", fmt.Errorf("%w: %s %q", ErrInvalidSegment, segment.name, segment.value)
		}
	}
	return filepath.Join(s.root, locale, entityType, id+"."+s.codec.Ext()), nil
}

func (s *Store) load(path string) (map[string]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, wrapStorage(err, "read bundle")
	}
	doc := map[string]string{}
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		return nil, false, &MalformedDocumentError{Path: path, Err: err}
	}
	return doc, true, nil
}

// persist replaces the document atomically: the full content is written to a
// temp file in the same directory and moved over the destination.
func (s *Store) persist(path string, doc map[string]string) error {
	dir := filepath.Dir(path)
	// MkdirAll tolerates concurrent creation of the same namespace.
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return wrapStorage(err, "create bundle namespace")
	}

	data, err := s.codec.Marshal(doc)
	if err != nil {
		return wrapStorage(err, "encode bundle")
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return wrapStorage(err, "create bundle temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return wrapStorage(err, "write bundle temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return wrapStorage(err, "close bundle temp file")
	}
	// Bundles are hand-editable; keep them world readable.
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return wrapStorage(err, "chmod bundle temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return wrapStorage(err, "replace bundle")
	}
	return nil
}

func (s *Store) lockDocument(path string) func() {
	mu := s.mutexFor(path)
	mu.Lock()
	return mu.Unlock
}

// lockDocuments acquires both document locks in path order so concurrent
// renames cannot deadlock.
func (s *Store) lockDocuments(a, b string) func() {
	if a == b {
		return s.lockDocument(a)
	}
	first, second := a, b
	if second < first {
		first, second = second, first
	}
	muFirst := s.mutexFor(first)
	muSecond := s.mutexFor(second)
	muFirst.Lock()
	muSecond.Lock()
	return func() {
		muSecond.Unlock()
		muFirst.Unlock()
	}
}

func (s *Store) mutexFor(path string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	mu, ok := s.locks[path]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[path] = mu
	}
	return mu
}

func validateSegment(segment string) error {
	if strings.TrimSpace(segment) == "" {
		return ErrInvalidSegment
	}
	if segment == "." || segment == ".." {
		return ErrInvalidSegment
	}
	if strings.ContainsAny(segment, `/\`) {
		return ErrInvalidSegment
	}
	return nil
}

const versionInfix = "_old"

// nextVersionSlot returns the lowest unused {key}_old{N} slot, N >= 1.
func nextVersionSlot(doc map[string]string, key string) string {
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s%s%d", key, versionInfix, n)
		if _, ok := doc[candidate]; !ok {
			return candidate
		}
	}
}

// versionBase reports whether key names a version slot and, if so, the key it
// belongs to.
func versionBase(key string) (string, bool) {
	idx := strings.LastIndex(key, versionInfix)
	if idx <= 0 {
		return "", false
	}
	digits := key[idx+len(versionInfix):]
	if digits == "" {
		return "", false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return key[:idx], true
}

func wrapStorage(err error, msg string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsWrapped(err) {
		return err
	}
	return goerrors.Wrap(err, goerrors.CategoryInternal, "bundle: "+msg).
		WithTextCode(bundleStorageFailed)
}
