package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/billie-coop/switchboard/internal/profile"
)

// Environment variable names owned in the claude settings document.
const (
	claudeKeyToken     = "ANTHROPIC_AUTH_TOKEN"
	claudeKeyBaseURL   = "ANTHROPIC_BASE_URL"
	claudeKeyModel     = "ANTHROPIC_MODEL"
	claudeKeyFastModel = "ANTHROPIC_SMALL_FAST_MODEL"
)

// claudeAdapter targets the claude settings file: a JSON document in which
// switchboard owns the recognized keys of the "env" subtree and the entries
// of "mcpServers" that correspond to switchboard profiles. Every sibling
// key is passed through verbatim.
type claudeAdapter struct{}

func (claudeAdapter) App() profile.App { return profile.AppClaude }

func (claudeAdapter) Paths(home string) Paths {
	return Paths{Main: joinHome(home, ".claude", "settings.json")}
}

func (claudeAdapter) MergeStrategy() string {
	return "owns recognized env keys and switchboard mcpServers entries; all sibling keys preserved"
}

func (a claudeAdapter) Render(p *profile.Profile, current Document, servers []*profile.Profile) (Document, error) {
	f := providerFields(p)
	if p.App != profile.AppClaude {
		return Document{}, fmt.Errorf("%w: profile %s targets %s", ErrUnsupportedFields, p.ID, p.App)
	}
	if f.WireAPI != "" || f.EnvKey != "" || f.RequiresAuth || f.AuthMode != "" {
		return Document{}, fmt.Errorf("%w: codex/gemini-only fields on claude profile %s", ErrUnsupportedFields, p.ID)
	}

	doc, err := parseJSONObject(current.Main)
	if err != nil {
		return Document{}, err
	}

	env := subMap(doc, "env", true)
	for _, key := range []string{claudeKeyToken, claudeKeyBaseURL, claudeKeyModel, claudeKeyFastModel} {
		delete(env, key)
	}
	for k, v := range f.Extra {
		env[k] = v
	}
	if f.APIKey != "" {
		env[claudeKeyToken] = f.APIKey
	}
	if f.BaseURL != "" {
		env[claudeKeyBaseURL] = f.BaseURL
	}
	if f.Model != "" {
		env[claudeKeyModel] = f.Model
	}
	if f.FastModel != "" {
		env[claudeKeyFastModel] = f.FastModel
	}

	mergeMcpServers(subMap(doc, "mcpServers", true), profile.AppClaude, servers)

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to marshal claude settings: %w", err)
	}
	return Document{Main: out}, nil
}

func (claudeAdapter) Extract(current Document) (profile.Fields, error) {
	doc, err := parseJSONObject(current.Main)
	if err != nil {
		return profile.Fields{}, err
	}

	var f profile.Fields
	env := subMap(doc, "env", false)
	for k, v := range env {
		switch k {
		case claudeKeyToken:
			f.APIKey = asString(v)
		case claudeKeyBaseURL:
			f.BaseURL = asString(v)
		case claudeKeyModel:
			f.Model = asString(v)
		case claudeKeyFastModel:
			f.FastModel = asString(v)
		default:
			if f.Extra == nil {
				f.Extra = map[string]any{}
			}
			f.Extra[k] = v
		}
	}
	return f, nil
}

func (a claudeAdapter) Project(p *profile.Profile) ([]byte, error) {
	f := providerFields(p)
	env := map[string]any{}
	for k, v := range f.Extra {
		env[k] = v
	}
	if f.APIKey != "" {
		env[claudeKeyToken] = f.APIKey
	}
	if f.BaseURL != "" {
		env[claudeKeyBaseURL] = f.BaseURL
	}
	if f.Model != "" {
		env[claudeKeyModel] = f.Model
	}
	if f.FastModel != "" {
		env[claudeKeyFastModel] = f.FastModel
	}
	return json.MarshalIndent(map[string]any{"env": env}, "", "  ")
}

// parseJSONObject decodes data as a JSON object. Empty input yields an
// empty object; anything not parseable as an object is ErrUnreadable.
func parseJSONObject(data []byte) (map[string]any, error) {
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}
