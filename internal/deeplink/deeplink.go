// Package deeplink parses ccswitch:// import URLs into provider drafts, so
// an endpoint vendor can hand users a one-click (or one-paste) setup link.
package deeplink

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/billie-coop/switchboard/internal/profile"
)

// Scheme is the accepted URL scheme. Desktop tools register it as an
// OS-level handler; here the URL arrives via `switchboard add <url>`.
const Scheme = "ccswitch"

// Request is a validated provider import.
type Request struct {
	App       profile.App
	Name      string
	Homepage  string
	Endpoint  string
	APIKey    string
	Model     string
	FastModel string
	Notes     string
}

// Parse validates and decodes a ccswitch://v1/import URL.
//
// Expected shape:
//
//	ccswitch://v1/import?resource=provider&app=claude&name=...&apiKey=...
func Parse(raw string) (*Request, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid deep link URL: %w", err)
	}
	if u.Scheme != Scheme {
		return nil, fmt.Errorf("invalid scheme: expected %q, got %q", Scheme, u.Scheme)
	}
	if u.Host != "v1" {
		return nil, fmt.Errorf("unsupported protocol version %q", u.Host)
	}
	if u.Path != "/import" {
		return nil, fmt.Errorf("invalid path: expected /import, got %q", u.Path)
	}

	q := u.Query()
	if resource := q.Get("resource"); resource != "provider" {
		return nil, fmt.Errorf("unsupported resource type %q", resource)
	}

	app, err := profile.ParseApp(q.Get("app"))
	if err != nil {
		return nil, err
	}
	name := q.Get("name")
	if name == "" {
		return nil, fmt.Errorf("missing 'name' parameter")
	}

	req := &Request{
		App:       app,
		Name:      name,
		Homepage:  q.Get("homepage"),
		Endpoint:  q.Get("endpoint"),
		APIKey:    q.Get("apiKey"),
		Model:     q.Get("model"),
		FastModel: q.Get("fastModel"),
		Notes:     q.Get("notes"),
	}

	if req.Homepage != "" {
		if err := validateHTTPURL(req.Homepage, "homepage"); err != nil {
			return nil, err
		}
	}
	// Endpoint may list fallbacks comma-separated; each must be a real URL.
	for i, ep := range strings.Split(req.Endpoint, ",") {
		ep = strings.TrimSpace(ep)
		if ep == "" {
			continue
		}
		if err := validateHTTPURL(ep, fmt.Sprintf("endpoint[%d]", i)); err != nil {
			return nil, err
		}
	}
	return req, nil
}

// Profile turns the request into an unpersisted provider profile. The
// first endpoint becomes the base URL.
func (r *Request) Profile() *profile.Profile {
	baseURL := r.Endpoint
	if i := strings.IndexByte(baseURL, ','); i >= 0 {
		baseURL = strings.TrimSpace(baseURL[:i])
	}
	return &profile.Profile{
		ID:   profile.DeriveID(r.Name),
		Name: r.Name,
		Kind: profile.KindProvider,
		App:  r.App,
		Provider: &profile.ProviderFields{
			APIKey:    r.APIKey,
			BaseURL:   baseURL,
			Model:     r.Model,
			FastModel: r.FastModel,
		},
		WebsiteURL: r.Homepage,
		Notes:      r.Notes,
	}
}

func validateHTTPURL(raw, what string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s URL: %w", what, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid %s URL: %s", what, raw)
	}
	return nil
}
