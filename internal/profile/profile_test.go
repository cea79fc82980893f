package profile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "simple", in: "My Provider", want: "my-provider"},
		{name: "punctuation_runs", in: "Anthropic -- (official)", want: "anthropic-official"},
		{name: "leading_trailing", in: "  !!hello!!  ", want: "hello"},
		{name: "unicode_letters", in: "Prüfung 1", want: "prüfung-1"},
		{name: "digits", in: "relay 2024", want: "relay-2024"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveID(tt.in))
		})
	}
}

func TestDeriveIDFallsBackToRandom(t *testing.T) {
	id := DeriveID("!!!")
	assert.NotEmpty(t, id)
	// Two derivations of an unusable name must not collide.
	assert.NotEqual(t, id, DeriveID("!!!"))
}

func TestAppSetJSONRoundTrip(t *testing.T) {
	set := AppSet{AppGemini: true, AppClaude: true}
	data, err := json.Marshal(set)
	require.NoError(t, err)
	// Sorted, disabled entries dropped.
	assert.JSONEq(t, `["claude","gemini"]`, string(data))

	var back AppSet
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back[AppClaude])
	assert.True(t, back[AppGemini])
	assert.False(t, back[AppCodex])
}

func TestFieldsApplyLeavesAbsentFieldsAlone(t *testing.T) {
	p := ProviderFields{APIKey: "sk-old", BaseURL: "https://old.example", Model: "m1"}
	yes := true
	p.Apply(Fields{BaseURL: "https://new.example", RequiresAuth: &yes})

	assert.Equal(t, "sk-old", p.APIKey, "absent field must survive a patch")
	assert.Equal(t, "https://new.example", p.BaseURL)
	assert.Equal(t, "m1", p.Model)
	assert.True(t, p.RequiresAuth)
}

func TestCloneIsDeep(t *testing.T) {
	p := &Profile{
		ID:   "a",
		Kind: KindMcp,
		Apps: AppSet{AppClaude: true},
		Mcp:  &McpFields{Command: "npx", Args: []string{"-y", "server"}},
	}
	c := p.Clone()
	c.Apps[AppCodex] = true
	c.Mcp.Args[0] = "changed"

	assert.False(t, p.Apps[AppCodex])
	assert.Equal(t, "-y", p.Mcp.Args[0])
}

func TestParseApp(t *testing.T) {
	app, err := ParseApp("codex")
	require.NoError(t, err)
	assert.Equal(t, AppCodex, app)

	_, err = ParseApp("cursor")
	assert.Error(t, err)
}
