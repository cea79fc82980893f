// Package profile defines the app-agnostic profile model shared by the
// store, the adapters and the form controller.
package profile

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Kind distinguishes the two profile families.
type Kind string

const (
	KindProvider Kind = "provider"
	KindMcp      Kind = "mcp"
)

// App identifies a target application. The set is closed: adding an app
// means adding an adapter and handling it at every switch site.
type App string

const (
	AppClaude App = "claude"
	AppCodex  App = "codex"
	AppGemini App = "gemini"
)

// Apps lists every supported target application in display order.
var Apps = []App{AppClaude, AppCodex, AppGemini}

// ParseApp validates a user-supplied app name.
func ParseApp(s string) (App, error) {
	switch App(s) {
	case AppClaude, AppCodex, AppGemini:
		return App(s), nil
	}
	return "", fmt.Errorf("unknown app %q (expected claude, codex or gemini)", s)
}

// ProviderFields holds the structured payload of a provider profile. Which
// fields are meaningful depends on the profile's target app; the adapters
// reject combinations that make no sense for their format.
type ProviderFields struct {
	APIKey       string `json:"api_key,omitempty"`
	BaseURL      string `json:"base_url,omitempty"`
	Model        string `json:"model,omitempty"`
	FastModel    string `json:"fast_model,omitempty"`     // claude small/fast override
	WireAPI      string `json:"wire_api,omitempty"`       // codex wire protocol marker
	EnvKey       string `json:"env_key,omitempty"`        // codex named env var
	RequiresAuth bool   `json:"requires_auth,omitempty"`  // codex auth-requirement flag
	AuthMode     string `json:"auth_mode,omitempty"`      // gemini auth selection

	// Extra carries live-config entries this tool does not model, captured
	// during import and written back verbatim on render.
	Extra map[string]any `json:"extra,omitempty"`
}

// Fields is a partial view of ProviderFields produced by adapter extraction.
// Zero values mean "not present in the source document", so applying a patch
// never clears a field the source did not mention.
type Fields struct {
	APIKey       string
	BaseURL      string
	Model        string
	FastModel    string
	WireAPI      string
	EnvKey       string
	RequiresAuth *bool
	AuthMode     string
	Extra        map[string]any
}

// Apply overlays the present fields of f onto p.
func (p *ProviderFields) Apply(f Fields) {
	if f.APIKey != "" {
		p.APIKey = f.APIKey
	}
	if f.BaseURL != "" {
		p.BaseURL = f.BaseURL
	}
	if f.Model != "" {
		p.Model = f.Model
	}
	if f.FastModel != "" {
		p.FastModel = f.FastModel
	}
	if f.WireAPI != "" {
		p.WireAPI = f.WireAPI
	}
	if f.EnvKey != "" {
		p.EnvKey = f.EnvKey
	}
	if f.RequiresAuth != nil {
		p.RequiresAuth = *f.RequiresAuth
	}
	if f.AuthMode != "" {
		p.AuthMode = f.AuthMode
	}
	if len(f.Extra) > 0 {
		if p.Extra == nil {
			p.Extra = make(map[string]any, len(f.Extra))
		}
		for k, v := range f.Extra {
			p.Extra[k] = v
		}
	}
}

// McpFields holds the structured payload of an MCP server profile.
type McpFields struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// AppSet is the set of apps an MCP server profile is enabled for.
// Serialized as a sorted list so the store file stays diff-stable.
type AppSet map[App]bool

// MarshalJSON emits the enabled apps as a sorted array.
func (s AppSet) MarshalJSON() ([]byte, error) {
	apps := make([]App, 0, len(s))
	for a, on := range s {
		if on {
			apps = append(apps, a)
		}
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i] < apps[j] })
	return json.Marshal(apps)
}

// UnmarshalJSON accepts the array form.
func (s *AppSet) UnmarshalJSON(data []byte) error {
	var apps []App
	if err := json.Unmarshal(data, &apps); err != nil {
		return err
	}
	set := make(AppSet, len(apps))
	for _, a := range apps {
		set[a] = true
	}
	*s = set
	return nil
}

// Profile is a named configuration, either a provider (credentials and
// endpoint for one target app) or an MCP server definition (enabled for a
// set of apps). A profile is not live until the applier materializes it.
type Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`

	// App is the single target of a provider profile; empty for MCP.
	App App `json:"app,omitempty"`
	// Apps is the enabled-apps set of an MCP server profile; nil for providers.
	Apps AppSet `json:"apps,omitempty"`

	Provider *ProviderFields `json:"provider,omitempty"`
	Mcp      *McpFields      `json:"mcp,omitempty"`

	WebsiteURL string `json:"website_url,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Clone returns a deep copy, so callers can hand out profiles without
// aliasing store-owned state.
func (p *Profile) Clone() *Profile {
	c := *p
	if p.Apps != nil {
		c.Apps = make(AppSet, len(p.Apps))
		for a, on := range p.Apps {
			c.Apps[a] = on
		}
	}
	if p.Provider != nil {
		pf := *p.Provider
		if p.Provider.Extra != nil {
			pf.Extra = make(map[string]any, len(p.Provider.Extra))
			for k, v := range p.Provider.Extra {
				pf.Extra[k] = v
			}
		}
		c.Provider = &pf
	}
	if p.Mcp != nil {
		mf := *p.Mcp
		mf.Args = append([]string(nil), p.Mcp.Args...)
		if p.Mcp.Env != nil {
			mf.Env = make(map[string]string, len(p.Mcp.Env))
			for k, v := range p.Mcp.Env {
				mf.Env[k] = v
			}
		}
		c.Mcp = &mf
	}
	return &c
}

// EnabledFor reports whether an MCP profile is enabled for app. Provider
// profiles report true only for their own target app.
func (p *Profile) EnabledFor(app App) bool {
	if p.Kind == KindProvider {
		return p.App == app
	}
	return p.Apps[app]
}
