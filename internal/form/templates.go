package form

import "github.com/billie-coop/switchboard/internal/profile"

// Template pre-fills a new provider draft with a known endpoint shape.
type Template struct {
	Title    string
	Name     string
	Provider profile.ProviderFields
}

// templatesFor returns the pick list for a kind/app combination. MCP
// drafts start blank; provider drafts offer the official endpoint plus a
// custom-relay skeleton.
func templatesFor(kind profile.Kind, app profile.App) []Template {
	if kind != profile.KindProvider {
		return nil
	}
	switch app {
	case profile.AppClaude:
		return []Template{
			{Title: "Official Anthropic", Name: "Anthropic"},
			{Title: "Custom relay", Provider: profile.ProviderFields{BaseURL: "https://"}},
		}
	case profile.AppCodex:
		return []Template{
			{Title: "Official OpenAI", Name: "OpenAI", Provider: profile.ProviderFields{RequiresAuth: true}},
			{Title: "Custom relay", Provider: profile.ProviderFields{BaseURL: "https://", WireAPI: "responses"}},
		}
	case profile.AppGemini:
		return []Template{
			{Title: "Official Google", Name: "Google", Provider: profile.ProviderFields{AuthMode: "gemini-api-key"}},
			{Title: "Custom relay", Provider: profile.ProviderFields{BaseURL: "https://"}},
		}
	}
	return nil
}
