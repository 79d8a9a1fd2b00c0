// Package store keeps view documents as JSON files in a directory, one
// file per view, and serialises read-modify-write cycles per view.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/example/boardcalc/internal/table"
)

const fileExt = ".json"

var (
	ErrViewNotFound = errors.New("store: view not found")
	ErrViewExists   = errors.New("store: view already exists")
	ErrInvalidID    = errors.New("store: invalid view id")
)

// Store is a directory of view documents.
type Store struct {
	dir    string
	locks  *lockManager
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLockTimeout bounds how long Update waits for a busy view.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.locks = newLockManager(d) }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the source of updatedAt timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open prepares dir for use, creating it when missing.
func Open(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("store: data directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: create %s: %w", dir, err)
	}
	s := &Store{
		dir:    dir,
		locks:  newLockManager(defaultLockTimeout),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(s.dir, id+fileExt), nil
}

// Create stores a new view. An empty id is replaced by a fresh one.
func (s *Store) Create(ctx context.Context, view *table.View) error {
	if view.ID == "" {
		view.ID = table.NewID()
	}
	if err := s.locks.acquire(ctx, view.ID); err != nil {
		return err
	}
	defer s.locks.release(view.ID)

	path, err := s.path(view.ID)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %s", ErrViewExists, view.ID)
	}
	if err := s.write(view); err != nil {
		return err
	}
	s.logger.Info("view created", "view", view.ID, "name", view.Name)
	return nil
}

// Load reads one view.
func (s *Store) Load(id string) (*table.View, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrViewNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("store: read %s: %w", id, err)
	}
	var view table.View
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", id, err)
	}
	if view.ID == "" {
		view.ID = id
	}
	return &view, nil
}

// Save overwrites a view under its lock.
func (s *Store) Save(ctx context.Context, view *table.View) error {
	if err := s.locks.acquire(ctx, view.ID); err != nil {
		return err
	}
	defer s.locks.release(view.ID)
	return s.write(view)
}

// Update loads a view, passes it to fn and saves what fn returns, holding
// the view's lock throughout. When fn returns a nil view nothing is written
// and the loaded view is returned.
func (s *Store) Update(ctx context.Context, id string, fn func(*table.View) (*table.View, error)) (*table.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.locks.acquire(ctx, id); err != nil {
		return nil, err
	}
	defer s.locks.release(id)

	current, err := s.Load(id)
	if err != nil {
		return nil, err
	}
	next, err := fn(current)
	if err != nil {
		return nil, err
	}
	if next == nil {
		return current, nil
	}
	next.ID = id
	if err := s.write(next); err != nil {
		return nil, err
	}
	return next, nil
}

// List returns the ids of all stored views in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: list %s: %w", s.dir, err)
	}
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Delete removes a view.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.locks.acquire(ctx, id); err != nil {
		return err
	}
	defer s.locks.release(id)
	path, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrViewNotFound, id)
		}
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	s.logger.Info("view deleted", "view", id)
	return nil
}

// write replaces the view file atomically: the document goes to a temp
// file in the same directory which is then renamed over the target.
func (s *Store) write(view *table.View) error {
	path, err := s.path(view.ID)
	if err != nil {
		return err
	}
	stamp := s.now().UTC().Format("2006-01-02T15:04:05.000Z")
	if view.CreatedAt == "" {
		view.CreatedAt = stamp
	}
	view.UpdatedAt = stamp

	data, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", view.ID, err)
	}
	tmp, err := os.CreateTemp(s.dir, view.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: temp file for %s: %w", view.ID, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("store: write %s: %w", view.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("store: sync %s: %w", view.ID, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("store: close %s: %w", view.ID, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("store: replace %s: %w", view.ID, err)
	}
	s.logger.Debug("view saved", "view", view.ID, "bytes", len(data))
	return nil
}
