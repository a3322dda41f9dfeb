package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"time"

	"github.com/kennyg/persona-kit/internal/fileio"
)

// Index maps index keys to records for one kind. It is the source of truth;
// documents are derived from it.
type Index[R Record] struct {
	Entries map[string]R
	Version string
}

// NewIndex returns an empty index.
func NewIndex[R Record]() *Index[R] {
	return &Index[R]{Entries: make(map[string]R), Version: SchemaVersion}
}

// Put inserts or replaces r under its key. It does not persist anything.
func (ix *Index[R]) Put(r R) {
	ix.Entries[r.Key().String()] = r
}

// Get returns the record stored under k.
func (ix *Index[R]) Get(k Key) (R, bool) {
	r, ok := ix.Entries[k.String()]
	return r, ok
}

// Has reports whether k is indexed.
func (ix *Index[R]) Has(k Key) bool {
	_, ok := ix.Entries[k.String()]
	return ok
}

// Delete removes k and reports whether it was present.
func (ix *Index[R]) Delete(k Key) bool {
	if !ix.Has(k) {
		return false
	}
	delete(ix.Entries, k.String())
	return true
}

// Keys returns the index keys in sorted order.
func (ix *Index[R]) Keys() []string {
	keys := make([]string, 0, len(ix.Entries))
	for k := range ix.Entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of indexed records.
func (ix *Index[R]) Len() int {
	return len(ix.Entries)
}

// Store keeps the index file and the rendered documents of one kind in sync.
// Every call reads from or writes to disk; nothing is cached between calls.
type Store[R Record] struct {
	spec     KindSpec
	dir      string
	lockPath string
	logger   *slog.Logger
	now      func() time.Time
}

type storeOptions struct {
	logger   *slog.Logger
	now      func() time.Time
	lockPath string
}

// Option configures a Store.
type Option func(*storeOptions)

// WithLogger sets the logger used for warnings.
func WithLogger(l *slog.Logger) Option {
	return func(o *storeOptions) { o.logger = l }
}

// WithClock sets the clock used to stamp created records.
func WithClock(now func() time.Time) Option {
	return func(o *storeOptions) { o.now = now }
}

// WithLockFile makes Create and Remove hold an advisory lock on path.
func WithLockFile(path string) Option {
	return func(o *storeOptions) { o.lockPath = path }
}

// NewStore returns a store for one asset kind rooted at dir (persona-kit/<kind dir>).
func NewStore[R Record](spec KindSpec, dir string, opts ...Option) *Store[R] {
	o := storeOptions{logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[R]{
		spec:     spec,
		dir:      dir,
		lockPath: o.lockPath,
		logger:   o.logger.With("kind", string(spec.Kind)),
		now:      o.now,
	}
}

// Dir returns the directory holding the index and documents.
func (s *Store[R]) Dir() string {
	return s.dir
}

// IndexPath returns the path of the index file.
func (s *Store[R]) IndexPath() string {
	return filepath.Join(s.dir, s.spec.IndexFile())
}

// DocumentPath returns the path of the document for k.
func (s *Store[R]) DocumentPath(k Key) string {
	if s.spec.Categorized {
		return filepath.Join(s.dir, k.Category, k.Type+DocumentExt)
	}
	return filepath.Join(s.dir, k.Type+DocumentExt)
}

// Load reads the index. The returned index is never nil. A missing file yields
// an empty index. An unreadable or malformed file also yields an empty index,
// and the second return value carries the reason as a warning.
func (s *Store[R]) Load() (*Index[R], error) {
	path := s.IndexPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewIndex[R](), nil
		}
		warn := &fileio.Error{Op: "read", Path: path, Err: err}
		s.logger.Warn("could not read index, starting empty", "path", path, "error", err)
		return NewIndex[R](), warn
	}

	ix, err := s.decode(data)
	if err != nil {
		warn := fmt.Errorf("%w: %s: %v", ErrMalformedData, path, err)
		s.logger.Warn("malformed index, starting empty", "path", path, "error", err)
		return NewIndex[R](), warn
	}
	return ix, nil
}

func (s *Store[R]) decode(data []byte) (*Index[R], error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	ix := NewIndex[R]()
	if v, ok := raw["version"]; ok {
		if err := json.Unmarshal(v, &ix.Version); err != nil {
			return nil, fmt.Errorf("version: %w", err)
		}
	}
	if entries, ok := raw[s.spec.MapName]; ok {
		var m map[string]R
		if err := json.Unmarshal(entries, &m); err != nil {
			return nil, fmt.Errorf("%s: %w", s.spec.MapName, err)
		}
		for k, r := range m {
			// A JSON null decodes to a nil record; there is nothing to keep.
			if isNil(r) {
				s.logger.Warn("dropping empty index entry", "key", k)
				continue
			}
			ix.Entries[k] = r
		}
	}
	return ix, nil
}

func isNil(r any) bool {
	v := reflect.ValueOf(r)
	return !v.IsValid() || (v.Kind() == reflect.Pointer && v.IsNil())
}

// Save writes the whole index, replacing the file atomically.
func (s *Store[R]) Save(ix *Index[R]) error {
	version := ix.Version
	if version == "" {
		version = SchemaVersion
	}
	doc := map[string]any{
		s.spec.MapName: ix.Entries,
		"version":      version,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return fileio.WriteFile(s.IndexPath(), append(data, '\n'), 0644)
}

// RenderAndPersist renders r and writes its document, replacing any existing one.
func (s *Store[R]) RenderAndPersist(r R) error {
	path := s.DocumentPath(r.Key())
	if err := fileio.WriteFile(path, []byte(r.Render()), 0644); err != nil {
		return err
	}
	s.logger.Debug("document written", "key", r.Key().String(), "path", path)
	return nil
}

// Exists reports whether the document for k is on disk, regardless of the index.
func (s *Store[R]) Exists(k Key) bool {
	return fileio.Exists(s.DocumentPath(k))
}

// ReadDocument returns the document for k.
func (s *Store[R]) ReadDocument(k Key) (string, error) {
	path := s.DocumentPath(k)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &fileio.Error{Op: "read", Path: path, Err: err}
	}
	return string(data), nil
}

// Create validates r, indexes it, saves the index and renders its document.
// If r's key is already indexed and overwrite is false, it returns
// ErrOverwriteDeclined and leaves the index and document untouched.
// A Load warning is logged and the index starts empty, as with Load.
func (s *Store[R]) Create(r R, overwrite bool) error {
	key := r.Key()
	if _, err := ParseKey(key.String(), s.spec.Categorized); err != nil {
		return &ValidationError{Kind: s.spec.Kind, Key: key.String(), Err: ErrInvalidRecord, Reason: err.Error()}
	}
	if err := CheckRecord(s.spec.Kind, r); err != nil {
		return err
	}

	lock, err := s.lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	ix, _ := s.Load()
	if ix.Has(key) && !overwrite {
		return &ValidationError{Kind: s.spec.Kind, Key: key.String(), Err: ErrOverwriteDeclined}
	}

	r.Stamp(s.now())
	ix.Put(r)
	if err := s.Save(ix); err != nil {
		return fmt.Errorf("save %s index: %w", s.spec.Kind, err)
	}
	if err := s.RenderAndPersist(r); err != nil {
		return fmt.Errorf("write %s document: %w", s.spec.Kind, err)
	}
	s.logger.Info("record created", "key", key.String())
	return nil
}

// Remove deletes k from the index and removes its document.
func (s *Store[R]) Remove(k Key) error {
	lock, err := s.lock()
	if err != nil {
		return err
	}
	defer lock.Release()

	ix, warn := s.Load()
	if warn != nil {
		// Saving now would wipe whatever the unreadable file still holds.
		return warn
	}
	if !ix.Delete(k) {
		return &ValidationError{Kind: s.spec.Kind, Key: k.String(), Err: ErrNotFound}
	}
	if err := s.Save(ix); err != nil {
		return fmt.Errorf("save %s index: %w", s.spec.Kind, err)
	}

	path := s.DocumentPath(k)
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &fileio.Error{Op: "remove", Path: path, Err: err}
	}
	if s.spec.Categorized {
		// Drop the category directory once it is empty.
		_ = os.Remove(filepath.Dir(path))
	}
	return nil
}

func (s *Store[R]) lock() (*fileio.Lock, error) {
	if s.lockPath == "" {
		return nil, nil
	}
	return fileio.Acquire(s.lockPath)
}
