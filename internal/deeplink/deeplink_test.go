package deeplink

import (
	"testing"

	"github.com/billie-coop/switchboard/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProviderLink(t *testing.T) {
	req, err := Parse("ccswitch://v1/import?resource=provider&app=claude&name=My%20Relay&endpoint=https://relay.example&apiKey=sk-1&notes=team%20key")
	require.NoError(t, err)

	assert.Equal(t, profile.AppClaude, req.App)
	assert.Equal(t, "My Relay", req.Name)
	assert.Equal(t, "sk-1", req.APIKey)
	assert.Equal(t, "team key", req.Notes)

	p := req.Profile()
	assert.Equal(t, "my-relay", p.ID)
	assert.Equal(t, "https://relay.example", p.Provider.BaseURL)
}

func TestParseMultipleEndpointsUsesFirst(t *testing.T) {
	req, err := Parse("ccswitch://v1/import?resource=provider&app=codex&name=r&endpoint=https://a.example,%20https://b.example")
	require.NoError(t, err)
	assert.Equal(t, "https://a.example", req.Profile().Provider.BaseURL)
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "wrong_scheme", url: "https://v1/import?resource=provider&app=claude&name=x"},
		{name: "wrong_version", url: "ccswitch://v2/import?resource=provider&app=claude&name=x"},
		{name: "wrong_path", url: "ccswitch://v1/export?resource=provider&app=claude&name=x"},
		{name: "wrong_resource", url: "ccswitch://v1/import?resource=skill&app=claude&name=x"},
		{name: "bad_app", url: "ccswitch://v1/import?resource=provider&app=cursor&name=x"},
		{name: "missing_name", url: "ccswitch://v1/import?resource=provider&app=claude"},
		{name: "bad_endpoint", url: "ccswitch://v1/import?resource=provider&app=claude&name=x&endpoint=ftp://nope"},
		{name: "bad_homepage", url: "ccswitch://v1/import?resource=provider&app=claude&name=x&homepage=not-a-url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.url)
			assert.Error(t, err)
		})
	}
}
