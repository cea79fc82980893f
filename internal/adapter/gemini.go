package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/billie-coop/switchboard/internal/profile"
)

// Environment variable names owned in the gemini settings document. The
// base URL has two historical spellings; the canonical one always wins on
// extraction when both are present, and only the canonical one is written.
const (
	geminiKeyAPIKey        = "GEMINI_API_KEY"
	geminiKeyBaseURL       = "GOOGLE_GEMINI_BASE_URL"
	geminiKeyBaseURLLegacy = "GEMINI_BASE_URL"
	geminiKeyModel         = "GEMINI_MODEL"
)

// geminiAdapter targets the gemini settings file: JSON, with switchboard
// owning the recognized env keys, the auth selection under
// security.auth.selectedType, and switchboard mcpServers entries.
type geminiAdapter struct{}

func (geminiAdapter) App() profile.App { return profile.AppGemini }

func (geminiAdapter) Paths(home string) Paths {
	return Paths{Main: joinHome(home, ".gemini", "settings.json")}
}

func (geminiAdapter) MergeStrategy() string {
	return "owns recognized env keys, security.auth.selectedType and switchboard mcpServers entries; all sibling keys preserved"
}

func (a geminiAdapter) Render(p *profile.Profile, current Document, servers []*profile.Profile) (Document, error) {
	f := providerFields(p)
	if p.App != profile.AppGemini {
		return Document{}, fmt.Errorf("%w: profile %s targets %s", ErrUnsupportedFields, p.ID, p.App)
	}
	if f.WireAPI != "" || f.EnvKey != "" || f.RequiresAuth || f.FastModel != "" {
		return Document{}, fmt.Errorf("%w: claude/codex-only fields on gemini profile %s", ErrUnsupportedFields, p.ID)
	}

	doc, err := parseJSONObject(current.Main)
	if err != nil {
		return Document{}, err
	}

	env := subMap(doc, "env", true)
	for _, key := range []string{geminiKeyAPIKey, geminiKeyBaseURL, geminiKeyBaseURLLegacy, geminiKeyModel} {
		delete(env, key)
	}
	for k, v := range f.Extra {
		env[k] = v
	}
	if f.APIKey != "" {
		env[geminiKeyAPIKey] = f.APIKey
	}
	if f.BaseURL != "" {
		env[geminiKeyBaseURL] = f.BaseURL
	}
	if f.Model != "" {
		env[geminiKeyModel] = f.Model
	}

	if f.AuthMode != "" {
		auth := subMap(subMap(doc, "security", true), "auth", true)
		auth["selectedType"] = f.AuthMode
	}

	mergeMcpServers(subMap(doc, "mcpServers", true), profile.AppGemini, servers)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to marshal gemini settings: %w", err)
	}
	return Document{Main: out}, nil
}

func (geminiAdapter) Extract(current Document) (profile.Fields, error) {
	doc, err := parseJSONObject(current.Main)
	if err != nil {
		return profile.Fields{}, err
	}

	var f profile.Fields
	env := subMap(doc, "env", false)
	for k, v := range env {
		switch k {
		case geminiKeyAPIKey:
			f.APIKey = asString(v)
		case geminiKeyBaseURL, geminiKeyBaseURLLegacy:
			// handled below with explicit precedence
		case geminiKeyModel:
			f.Model = asString(v)
		default:
			if f.Extra == nil {
				f.Extra = map[string]any{}
			}
			f.Extra[k] = v
		}
	}

	// The canonical key wins whenever it is present, regardless of what the
	// legacy key says. Reversing this order is a regression.
	if v := asString(env[geminiKeyBaseURL]); v != "" {
		f.BaseURL = v
	} else if v := asString(env[geminiKeyBaseURLLegacy]); v != "" {
		f.BaseURL = v
	}

	if auth := subMap(subMap(doc, "security", false), "auth", false); auth != nil {
		f.AuthMode = asString(auth["selectedType"])
	}
	return f, nil
}

func (a geminiAdapter) Project(p *profile.Profile) ([]byte, error) {
	f := providerFields(p)
	env := map[string]any{}
	for k, v := range f.Extra {
		env[k] = v
	}
	if f.APIKey != "" {
		env[geminiKeyAPIKey] = f.APIKey
	}
	if f.BaseURL != "" {
		env[geminiKeyBaseURL] = f.BaseURL
	}
	if f.Model != "" {
		env[geminiKeyModel] = f.Model
	}
	doc := map[string]any{"env": env}
	if f.AuthMode != "" {
		doc["security"] = map[string]any{"auth": map[string]any{"selectedType": f.AuthMode}}
	}
	return json.MarshalIndent(doc, "", "  ")
}
