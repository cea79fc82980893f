// Package store persists profiles and per-app active pointers in a single
// JSON document. Every mutation is read-modify-write with a temp-then-rename
// replacement, so a failed save leaves the previous file intact. The store
// never touches any target application's live config.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/billie-coop/switchboard/internal/fsutil"
	"github.com/billie-coop/switchboard/internal/profile"
)

// SchemaVersion is written to new store files. Older and newer files are
// still read: unknown top-level keys are carried through, never rejected.
const SchemaVersion = 1

var (
	// ErrDuplicateID means create() was called with an id already taken
	// within the same (kind, app) scope.
	ErrDuplicateID = errors.New("profile id already exists")
	// ErrNotFound means no profile has the requested id.
	ErrNotFound = errors.New("profile not found")
	// ErrActiveProfile protects the currently active provider of an app
	// from deletion; activate another profile first.
	ErrActiveProfile = errors.New("profile is active for its app")
)

type schema struct {
	Version  int                    `json:"version"`
	Profiles []*profile.Profile     `json:"profiles"`
	Active   map[profile.App]string `json:"active"`

	// extra holds top-level keys this build does not model, preserved so a
	// newer build's store file survives a round trip through an older one.
	extra map[string]json.RawMessage
}

func (s *schema) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	type known struct {
		Version  int                    `json:"version"`
		Profiles []*profile.Profile     `json:"profiles"`
		Active   map[profile.App]string `json:"active"`
	}
	var k known
	if err := json.Unmarshal(data, &k); err != nil {
		return err
	}
	delete(raw, "version")
	delete(raw, "profiles")
	delete(raw, "active")
	s.Version = k.Version
	s.Profiles = k.Profiles
	s.Active = k.Active
	s.extra = raw
	return nil
}

func (s schema) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.extra)+3)
	for k, v := range s.extra {
		out[k] = v
	}
	put := func(key string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		out[key] = data
		return nil
	}
	if err := put("version", s.Version); err != nil {
		return nil, err
	}
	if err := put("profiles", s.Profiles); err != nil {
		return nil, err
	}
	if err := put("active", s.Active); err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

func (s *schema) clone() schema {
	c := schema{
		Version:  s.Version,
		Profiles: make([]*profile.Profile, len(s.Profiles)),
		Active:   make(map[profile.App]string, len(s.Active)),
		extra:    s.extra,
	}
	for i, p := range s.Profiles {
		c.Profiles[i] = p.Clone()
	}
	for app, id := range s.Active {
		c.Active[app] = id
	}
	return c
}

// matches reports whether p is the profile addressed by (kind, app, id).
// Provider ids are scoped per target app; MCP ids are scoped across the
// whole kind, so app is ignored there.
func matches(p *profile.Profile, kind profile.Kind, app profile.App, id string) bool {
	if p.ID != id || p.Kind != kind {
		return false
	}
	return kind != profile.KindProvider || p.App == app
}

// Store is the persistent profile registry.
type Store struct {
	mu   sync.RWMutex
	path string
	data schema
}

// Open loads the store file at path, or starts empty if it does not exist.
func Open(path string) (*Store, error) {
	s := &Store{
		path: path,
		data: schema{Version: SchemaVersion, Active: map[profile.App]string{}},
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", path, err)
	}
	if s.data.Active == nil {
		s.data.Active = map[profile.App]string{}
	}
	return s, nil
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.path
}

// Create adds a new profile. The id must be unique within the profile's
// (kind, app) scope; for MCP profiles the scope is the kind as a whole.
func (s *Store) Create(p *profile.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("profile id must not be empty")
	}
	for _, existing := range s.data.Profiles {
		if existing.ID != p.ID || existing.Kind != p.Kind {
			continue
		}
		if p.Kind == profile.KindMcp || existing.App == p.App {
			return fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
	}

	next := s.data.clone()
	next.Profiles = append(next.Profiles, p.Clone())
	return s.commit(next)
}

// Update applies fn to the profile addressed by (kind, app, id) and
// persists the result. The id itself is immutable; changes to it are
// discarded.
func (s *Store) Update(kind profile.Kind, app profile.App, id string, fn func(*profile.Profile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	for _, p := range next.Profiles {
		if matches(p, kind, app, id) {
			fn(p)
			p.ID = id
			return s.commit(next)
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Delete removes the profile addressed by (kind, app, id). Deleting the
// provider currently active for its app is refused: reassign the active
// profile first so the app is never left pointing at nothing.
func (s *Store) Delete(kind profile.Kind, app profile.App, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.data.clone()
	for i, p := range next.Profiles {
		if !matches(p, kind, app, id) {
			continue
		}
		if p.Kind == profile.KindProvider && next.Active[p.App] == id {
			return fmt.Errorf("%w: %s", ErrActiveProfile, id)
		}
		next.Profiles = append(next.Profiles[:i], next.Profiles[i+1:]...)
		return s.commit(next)
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Get returns a copy of the profile addressed by (kind, app, id). Ids are
// only unique within that scope: the same id may name both a claude and a
// codex provider. For MCP profiles, whose ids are unique across the kind,
// app is ignored.
func (s *Store) Get(kind profile.Kind, app profile.App, id string) (*profile.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.data.Profiles {
		if matches(p, kind, app, id) {
			return p.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Find returns copies of every profile carrying the given id, across all
// scopes. Callers that know the scope should use Get.
func (s *Store) Find(id string) []*profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*profile.Profile
	for _, p := range s.data.Profiles {
		if p.ID == id {
			out = append(out, p.Clone())
		}
	}
	return out
}

// List returns copies of all profiles of the given kind, sorted by name
// then id. With app != "", providers are filtered to that target app and
// MCP profiles to those enabled for it.
func (s *Store) List(kind profile.Kind, app profile.App) []*profile.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*profile.Profile
	for _, p := range s.data.Profiles {
		if p.Kind != kind {
			continue
		}
		if app != "" && !p.EnabledFor(app) {
			continue
		}
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// SetActive marks the provider profile with the given id as the one the
// applier materializes for app.
func (s *Store) SetActive(app profile.App, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.data.Profiles {
		if p.ID == id && p.Kind == profile.KindProvider && p.App == app {
			next := s.data.clone()
			next.Active[app] = id
			return s.commit(next)
		}
	}
	return fmt.Errorf("%w: no provider %s for %s", ErrNotFound, id, app)
}

// ActiveID returns the active provider id for app, if any.
func (s *Store) ActiveID(app profile.App) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.data.Active[app]
	return id, ok && id != ""
}

// commit persists next and, only on success, makes it the in-memory state.
// Caller holds the write lock.
func (s *Store) commit(next schema) error {
	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}
	if err := fsutil.WriteFileAtomic(s.path, data, 0o600); err != nil {
		return err
	}
	s.data = next
	return nil
}
