// Package store persists the head table of each source between discovery
// passes and applies event deltas to it.
//
// Every write names the generation it was computed against. A write based
// on a stale generation fails with ErrGenerationConflict, so concurrent
// deliveries for the same source cannot silently overwrite each other. The
// caller reloads and retries.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/bjulian5/scmsource/internal/model"
)

// ErrGenerationConflict is returned when a write expects a generation
// other than the stored one.
var ErrGenerationConflict = errors.New("generation conflict")

// Table is the stored head table of one source.
type Table struct {
	Source     model.Source
	Generation int64
	UpdatedAt  time.Time
	Revisions  map[model.HeadKey]model.Revision
}

// Sorted returns the revisions ordered by kind then name.
func (t *Table) Sorted() []model.Revision {
	keys := make([]model.HeadKey, 0, len(t.Revisions))
	for k := range t.Revisions {
		keys = append(keys, k)
	}
	model.SortKeys(keys)
	out := make([]model.Revision, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.Revisions[k])
	}
	return out
}

type tableFile struct {
	ServerURL  string    `json:"server_url"`
	Owner      string    `json:"owner"`
	Repository string    `json:"repository"`
	Generation int64     `json:"generation"`
	UpdatedAt  time.Time `json:"updated_at"`
	Heads      []record  `json:"heads"`
}

// Store keeps one JSON file per source under a directory.
type Store struct {
	dir string
	now func() time.Time

	mu sync.Mutex
}

func New(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

// Dir returns the directory the store writes to.
func (s *Store) Dir() string { return s.dir }

func (s *Store) path(src model.Source) string {
	host := model.Host(src.ServerURL)
	if host == "" {
		host = "_"
	}
	host = strings.ReplaceAll(host, ":", "_")
	return filepath.Join(s.dir, host, strings.ToLower(src.Owner), strings.ToLower(src.Repository)+".json")
}

// Load returns the stored table of src. A source never written has an
// empty table at generation 0.
func (s *Store) Load(src model.Source) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(src)
}

func (s *Store) load(src model.Source) (*Table, error) {
	table := &Table{Source: src, Revisions: map[model.HeadKey]model.Revision{}}

	data, err := os.ReadFile(s.path(src))
	if err != nil {
		if os.IsNotExist(err) {
			return table, nil
		}
		return nil, fmt.Errorf("failed to read head table of %s: %w", src, err)
	}

	var f tableFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse head table of %s: %w", src, err)
	}
	table.Generation = f.Generation
	table.UpdatedAt = f.UpdatedAt
	for _, r := range f.Heads {
		rev, err := r.revision(src)
		if err != nil {
			return nil, fmt.Errorf("failed to decode head %q of %s: %w", r.Name, src, err)
		}
		table.Revisions[rev.Head().Key()] = rev
	}
	return table, nil
}

func (s *Store) save(table *Table) error {
	f := tableFile{
		ServerURL:  table.Source.ServerURL,
		Owner:      table.Source.Owner,
		Repository: table.Source.Repository,
		Generation: table.Generation,
		UpdatedAt:  table.UpdatedAt,
		Heads:      []record{},
	}
	for _, rev := range table.Sorted() {
		r, err := toRecord(rev)
		if err != nil {
			return err
		}
		f.Heads = append(f.Heads, r)
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal head table: %w", err)
	}

	path := s.path(table.Source)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".heads-*.json")
	if err != nil {
		return fmt.Errorf("failed to write head table: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write head table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write head table: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write head table: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write head table: %w", err)
	}
	return nil
}

// update loads the table of src, checks its generation, lets mutate change
// it and saves it at the next generation.
func (s *Store) update(src model.Source, expectGen int64, mutate func(*Table)) (*Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, err := s.load(src)
	if err != nil {
		return nil, err
	}
	if table.Generation != expectGen {
		return nil, fmt.Errorf("%w: %s is at generation %d, not %d", ErrGenerationConflict, src, table.Generation, expectGen)
	}
	mutate(table)
	table.Generation++
	table.UpdatedAt = s.now().UTC()
	if err := s.save(table); err != nil {
		return nil, err
	}
	klog.V(2).Infof("Stored %d heads of %s at generation %d", len(table.Revisions), src, table.Generation)
	return table, nil
}

// Replace stores revisions as the complete head table of src, typically
// after a full discovery pass.
func (s *Store) Replace(src model.Source, revisions []model.Revision, expectGen int64) (*Table, error) {
	return s.update(src, expectGen, func(t *Table) {
		t.Revisions = make(map[model.HeadKey]model.Revision, len(revisions))
		for _, rev := range revisions {
			t.Revisions[rev.Head().Key()] = rev
		}
	})
}

// Apply applies delta to the head table of src. Tombstones remove heads;
// every other change replaces the head's revision.
func (s *Store) Apply(src model.Source, delta model.Delta, expectGen int64) (*Table, error) {
	return s.update(src, expectGen, func(t *Table) {
		for _, k := range delta.Keys() {
			change := delta[k]
			if change.IsTombstone() {
				delete(t.Revisions, k)
				continue
			}
			t.Revisions[k] = change.Revision
		}
	})
}
