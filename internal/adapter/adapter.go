// Package adapter translates between the app-agnostic profile model and
// each target application's live-config format. The set of adapters is
// closed; every call site switches over it exhaustively via For.
package adapter

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/billie-coop/switchboard/internal/profile"
)

var (
	// ErrUnsupportedFields means the profile carries fields that have no
	// representation in the target app's format.
	ErrUnsupportedFields = errors.New("profile fields unsupported by target app")
	// ErrUnreadable means the live document is not valid syntax for the
	// adapter's base format. Individually missing or malformed fields never
	// cause this; they are simply omitted from extraction.
	ErrUnreadable = errors.New("live config is not readable")
)

// Document is the live-config material of one app: the main document plus,
// for codex, the side auth file that holds the API key outside the TOML.
type Document struct {
	Main []byte
	Aux  []byte
}

// Paths locates an app's live files under a home directory. Aux is empty
// for apps without a side file.
type Paths struct {
	Main string
	Aux  string
}

// Adapter is the per-app capability set. Render merges the profile into the
// current live document, preserving everything outside the subtree the
// adapter owns; Extract pulls recognized fields back out, best effort.
type Adapter interface {
	App() profile.App
	Paths(home string) Paths
	// MergeStrategy describes which parts of the live file this tool owns.
	MergeStrategy() string
	Render(p *profile.Profile, current Document, servers []*profile.Profile) (Document, error)
	Extract(current Document) (profile.Fields, error)
	// Project serializes just the owned subtree of a draft into editable
	// text for the form's raw-edit view. Extract accepts the result.
	Project(p *profile.Profile) ([]byte, error)
}

// For returns the adapter for app.
func For(app profile.App) (Adapter, error) {
	switch app {
	case profile.AppClaude:
		return claudeAdapter{}, nil
	case profile.AppCodex:
		return codexAdapter{}, nil
	case profile.AppGemini:
		return geminiAdapter{}, nil
	}
	return nil, fmt.Errorf("no adapter for app %q", app)
}

// enabledServers filters MCP profiles down to those enabled for app.
func enabledServers(app profile.App, servers []*profile.Profile) []*profile.Profile {
	var out []*profile.Profile
	for _, s := range servers {
		if s.Kind == profile.KindMcp && s.Apps[app] {
			out = append(out, s)
		}
	}
	return out
}

// providerFields returns the profile's provider payload, tolerating nil.
func providerFields(p *profile.Profile) profile.ProviderFields {
	if p.Provider == nil {
		return profile.ProviderFields{}
	}
	return *p.Provider
}

func joinHome(home string, parts ...string) string {
	return filepath.Join(append([]string{home}, parts...)...)
}

// asString narrows a decoded document value to a string, or "".
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// subMap fetches doc[key] as an object, creating it when create is set.
func subMap(doc map[string]any, key string, create bool) map[string]any {
	if m, ok := doc[key].(map[string]any); ok {
		return m
	}
	if !create {
		return nil
	}
	m := map[string]any{}
	doc[key] = m
	return m
}

// mcpEntry renders one MCP server profile in the JSON object shape shared
// by the claude and gemini live formats.
func mcpEntry(s *profile.Profile) map[string]any {
	entry := map[string]any{"command": s.Mcp.Command}
	if len(s.Mcp.Args) > 0 {
		args := make([]any, len(s.Mcp.Args))
		for i, a := range s.Mcp.Args {
			args[i] = a
		}
		entry["args"] = args
	}
	if len(s.Mcp.Env) > 0 {
		env := map[string]any{}
		for k, v := range s.Mcp.Env {
			env[k] = v
		}
		entry["env"] = env
	}
	return entry
}

// mergeMcpServers rewrites the entries of table that belong to switchboard
// profiles and leaves foreign entries untouched. Entries for known profiles
// that are not enabled for this app are removed.
func mergeMcpServers(table map[string]any, app profile.App, servers []*profile.Profile) {
	for _, s := range servers {
		if s.Kind == profile.KindMcp {
			delete(table, s.ID)
		}
	}
	for _, s := range enabledServers(app, servers) {
		if s.Mcp == nil {
			continue
		}
		table[s.ID] = mcpEntry(s)
	}
}
