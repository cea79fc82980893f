package adapter

import (
	"encoding/json"
	"fmt"

	"github.com/billie-coop/switchboard/internal/profile"
	toml "github.com/pelletier/go-toml/v2"
)

// codexKeyAPIKey is the auth.json entry holding the API key. The key never
// lives in config.toml itself.
const codexKeyAPIKey = "OPENAI_API_KEY"

// Recognized keys of a model_providers table entry.
var codexProviderKeys = map[string]bool{
	"name":                 true,
	"base_url":             true,
	"wire_api":             true,
	"env_key":              true,
	"requires_openai_auth": true,
}

// codexAdapter targets the codex live state, which is split across two
// files: config.toml (model, provider table, mcp server tables) and a side
// auth.json carrying the API key. switchboard owns the top-level model and
// model_provider keys, its own model_providers entry, switchboard
// mcp_servers entries, and the OPENAI_API_KEY entry of auth.json.
type codexAdapter struct{}

func (codexAdapter) App() profile.App { return profile.AppCodex }

func (codexAdapter) Paths(home string) Paths {
	return Paths{
		Main: joinHome(home, ".codex", "config.toml"),
		Aux:  joinHome(home, ".codex", "auth.json"),
	}
}

func (codexAdapter) MergeStrategy() string {
	return "owns model/model_provider, its model_providers entry, switchboard mcp_servers entries and auth.json OPENAI_API_KEY; everything else preserved"
}

func (a codexAdapter) Render(p *profile.Profile, current Document, servers []*profile.Profile) (Document, error) {
	f := providerFields(p)
	if p.App != profile.AppCodex {
		return Document{}, fmt.Errorf("%w: profile %s targets %s", ErrUnsupportedFields, p.ID, p.App)
	}
	if f.AuthMode != "" || f.FastModel != "" {
		return Document{}, fmt.Errorf("%w: claude/gemini-only fields on codex profile %s", ErrUnsupportedFields, p.ID)
	}

	doc, err := parseTOMLTable(current.Main)
	if err != nil {
		return Document{}, err
	}

	if f.Model != "" {
		doc["model"] = f.Model
	} else {
		delete(doc, "model")
	}
	doc["model_provider"] = p.ID
	providers := subMap(doc, "model_providers", true)
	providers[p.ID] = codexProviderEntry(p, f)

	mergeMcpServers(subMap(doc, "mcp_servers", true), profile.AppCodex, servers)

	main, err := toml.Marshal(doc)
	if err != nil {
		return Document{}, fmt.Errorf("failed to marshal codex config: %w", err)
	}

	aux, err := parseJSONObject(current.Aux)
	if err != nil {
		return Document{}, err
	}
	if f.APIKey != "" {
		aux[codexKeyAPIKey] = f.APIKey
	} else {
		delete(aux, codexKeyAPIKey)
	}
	auxOut, err := json.MarshalIndent(aux, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("failed to marshal codex auth: %w", err)
	}

	return Document{Main: main, Aux: auxOut}, nil
}

func codexProviderEntry(p *profile.Profile, f profile.ProviderFields) map[string]any {
	entry := map[string]any{"name": p.Name}
	for k, v := range f.Extra {
		entry[k] = v
	}
	if f.BaseURL != "" {
		entry["base_url"] = f.BaseURL
	}
	if f.WireAPI != "" {
		entry["wire_api"] = f.WireAPI
	}
	if f.EnvKey != "" {
		entry["env_key"] = f.EnvKey
	}
	if f.RequiresAuth {
		entry["requires_openai_auth"] = true
	}
	return entry
}

func (codexAdapter) Extract(current Document) (profile.Fields, error) {
	doc, err := parseTOMLTable(current.Main)
	if err != nil {
		return profile.Fields{}, err
	}

	var f profile.Fields
	f.Model = asString(doc["model"])

	providerID := asString(doc["model_provider"])
	if entry := subMap(subMap(doc, "model_providers", false), providerID, false); entry != nil {
		f.BaseURL = asString(entry["base_url"])
		f.WireAPI = asString(entry["wire_api"])
		f.EnvKey = asString(entry["env_key"])
		if v, ok := entry["requires_openai_auth"].(bool); ok {
			f.RequiresAuth = &v
		}
		for k, v := range entry {
			if codexProviderKeys[k] {
				continue
			}
			if f.Extra == nil {
				f.Extra = map[string]any{}
			}
			f.Extra[k] = v
		}
	}

	if len(current.Aux) > 0 {
		aux, err := parseJSONObject(current.Aux)
		if err != nil {
			return profile.Fields{}, err
		}
		f.APIKey = asString(aux[codexKeyAPIKey])
	}
	return f, nil
}

func (a codexAdapter) Project(p *profile.Profile) ([]byte, error) {
	f := providerFields(p)
	doc := map[string]any{
		"model_provider":  p.ID,
		"model_providers": map[string]any{p.ID: codexProviderEntry(p, f)},
	}
	if f.Model != "" {
		doc["model"] = f.Model
	}
	return toml.Marshal(doc)
}

// parseTOMLTable decodes data as a TOML document. Unrecognized keys are
// kept as-is in the returned table; only syntactically invalid TOML fails.
func parseTOMLTable(data []byte) (map[string]any, error) {
	doc := map[string]any{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return doc, nil
}
