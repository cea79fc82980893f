package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/billie-coop/switchboard/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "store.json"))
	require.NoError(t, err)
	return s
}

func provider(id string, app profile.App) *profile.Profile {
	return &profile.Profile{
		ID:       id,
		Name:     id,
		Kind:     profile.KindProvider,
		App:      app,
		Provider: &profile.ProviderFields{APIKey: "sk-" + id},
	}
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))

	p, err := s.Get(profile.KindProvider, profile.AppClaude, "work")
	require.NoError(t, err)
	assert.Equal(t, "sk-work", p.Provider.APIKey)
}

func TestCreateDuplicateIDLeavesStoreUnchanged(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))

	dup := provider("work", profile.AppClaude)
	dup.Provider.APIKey = "sk-other"
	err := s.Create(dup)
	require.ErrorIs(t, err, ErrDuplicateID)

	p, err := s.Get(profile.KindProvider, profile.AppClaude, "work")
	require.NoError(t, err)
	assert.Equal(t, "sk-work", p.Provider.APIKey)
	assert.Len(t, s.List(profile.KindProvider, ""), 1)
}

func TestCreateSameIDDifferentAppScope(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))
	// Same id under a different app is a different scope.
	require.NoError(t, s.Create(provider("work", profile.AppCodex)))
}

func TestGetResolvesWithinAppScope(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))
	codex := provider("work", profile.AppCodex)
	codex.Provider.APIKey = "sk-codex"
	require.NoError(t, s.Create(codex))

	p, err := s.Get(profile.KindProvider, profile.AppCodex, "work")
	require.NoError(t, err)
	assert.Equal(t, profile.AppCodex, p.App)
	assert.Equal(t, "sk-codex", p.Provider.APIKey)

	p, err = s.Get(profile.KindProvider, profile.AppClaude, "work")
	require.NoError(t, err)
	assert.Equal(t, "sk-work", p.Provider.APIKey)

	_, err = s.Get(profile.KindProvider, profile.AppGemini, "work")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRemovesOnlyItsScope(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))
	require.NoError(t, s.Create(provider("work", profile.AppCodex)))

	require.NoError(t, s.Delete(profile.KindProvider, profile.AppClaude, "work"))

	_, err := s.Get(profile.KindProvider, profile.AppClaude, "work")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(profile.KindProvider, profile.AppCodex, "work")
	assert.NoError(t, err, "deleting one scope must not touch another")
}

func TestFindSpansScopes(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))
	require.NoError(t, s.Create(provider("work", profile.AppCodex)))

	assert.Len(t, s.Find("work"), 2)
	assert.Empty(t, s.Find("ghost"))
}

func TestUpdateCannotChangeID(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))

	require.NoError(t, s.Update(profile.KindProvider, profile.AppClaude, "work", func(p *profile.Profile) {
		p.ID = "hijacked"
		p.Name = "Work account"
	}))

	p, err := s.Get(profile.KindProvider, profile.AppClaude, "work")
	require.NoError(t, err)
	assert.Equal(t, "Work account", p.Name)

	_, err = s.Get(profile.KindProvider, profile.AppClaude, "hijacked")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.Update(profile.KindProvider, profile.AppClaude, "ghost", func(p *profile.Profile) {})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteActiveProviderIsProtected(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))
	require.NoError(t, s.SetActive(profile.AppClaude, "work"))

	err := s.Delete(profile.KindProvider, profile.AppClaude, "work")
	require.ErrorIs(t, err, ErrActiveProfile)

	// Still retrievable afterward.
	_, err = s.Get(profile.KindProvider, profile.AppClaude, "work")
	assert.NoError(t, err)

	// Reassigning frees it for deletion.
	require.NoError(t, s.Create(provider("home", profile.AppClaude)))
	require.NoError(t, s.SetActive(profile.AppClaude, "home"))
	assert.NoError(t, s.Delete(profile.KindProvider, profile.AppClaude, "work"))
}

func TestSetActiveRequiresMatchingProvider(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))

	assert.ErrorIs(t, s.SetActive(profile.AppCodex, "work"), ErrNotFound)
	assert.ErrorIs(t, s.SetActive(profile.AppClaude, "ghost"), ErrNotFound)

	require.NoError(t, s.SetActive(profile.AppClaude, "work"))
	id, ok := s.ActiveID(profile.AppClaude)
	require.True(t, ok)
	assert.Equal(t, "work", id)

	_, ok = s.ActiveID(profile.AppCodex)
	assert.False(t, ok)
}

func TestListFiltersMcpByEnabledApp(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Create(&profile.Profile{
		ID:   "files",
		Name: "files",
		Kind: profile.KindMcp,
		Apps: profile.AppSet{profile.AppClaude: true, profile.AppGemini: true},
		Mcp:  &profile.McpFields{Command: "npx"},
	}))
	require.NoError(t, s.Create(&profile.Profile{
		ID:   "search",
		Name: "search",
		Kind: profile.KindMcp,
		Apps: profile.AppSet{profile.AppCodex: true},
		Mcp:  &profile.McpFields{Command: "uvx"},
	}))

	claude := s.List(profile.KindMcp, profile.AppClaude)
	require.Len(t, claude, 1)
	assert.Equal(t, "files", claude[0].ID)

	assert.Len(t, s.List(profile.KindMcp, ""), 2)
}

func TestPersistenceRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(provider("work", profile.AppClaude)))
	require.NoError(t, s.SetActive(profile.AppClaude, "work"))

	reopened, err := Open(path)
	require.NoError(t, err)
	p, err := reopened.Get(profile.KindProvider, profile.AppClaude, "work")
	require.NoError(t, err)
	assert.Equal(t, "sk-work", p.Provider.APIKey)

	id, ok := reopened.ActiveID(profile.AppClaude)
	require.True(t, ok)
	assert.Equal(t, "work", id)
}

func TestUnknownTopLevelKeysSurviveMutations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	seed := `{
		"version": 7,
		"profiles": [],
		"active": {},
		"future_feature": {"enabled": true},
		"pinned": ["a", "b"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Create(provider("work", profile.AppGemini)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &doc))

	assert.JSONEq(t, `{"enabled": true}`, string(doc["future_feature"]))
	assert.JSONEq(t, `["a", "b"]`, string(doc["pinned"]))
}

func TestOpenRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	assert.Error(t, err)
}
