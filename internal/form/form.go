// Package form is the controller behind the add/edit profile view: an
// explicit state machine mediating structured-field editing and raw-text
// editing of an unpersisted draft. It owns draft mutation entirely; the
// TUI only forwards key events and actions. Persisting a profile and
// applying it are separate user actions; this controller never touches
// the applier.
package form

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/billie-coop/switchboard/internal/adapter"
	"github.com/billie-coop/switchboard/internal/profile"
	"github.com/billie-coop/switchboard/internal/store"
)

// State is the controller's current mode.
type State int

const (
	StateClosed State = iota
	StateTemplatePicking
	StateFieldEditing
	StateAdvanced
)

// Action is a non-rune key event forwarded by the host.
type Action int

const (
	ActionNone Action = iota
	ActionLeft
	ActionRight
	ActionHome
	ActionEnd
	ActionBackspace
	ActionDelete
	ActionUp
	ActionDown
	ActionToggle
	ActionNewline
)

// Key is one input event. Rune carries printable input; Action everything
// else the controller understands.
type Key struct {
	Rune   rune
	Action Action
}

type fieldType int

const (
	textField fieldType = iota
	boolField
)

// fieldDef is one row of the structured editor.
type fieldDef struct {
	key      string
	label    string
	typ      fieldType
	readOnly bool
	secret   bool
	input    *Field
	on       bool // bool fields
}

// Controller drives the add/edit form.
type Controller struct {
	store *store.Store

	state State
	kind  profile.Kind
	app   profile.App

	editingID    string // set when editing an existing profile
	idOverridden bool
	extra        map[string]any    // unmodeled provider fields carried through edits
	mcpEnv       map[string]string // MCP env carried through edits, like extra

	fields []*fieldDef
	cursor int

	raw     *Field
	message string

	templates  []Template
	tmplCursor int
}

// NewController creates a closed controller over the given store.
func NewController(s *store.Store) *Controller {
	return &Controller{store: s, raw: NewField("")}
}

// State returns the current machine state.
func (c *Controller) State() State { return c.state }

// Message returns the last validation or status message, if any.
func (c *Controller) Message() string { return c.message }

// Kind returns the kind being edited.
func (c *Controller) Kind() profile.Kind { return c.kind }

// App returns the target app of the draft.
func (c *Controller) App() profile.App { return c.app }

// IsEditing reports whether the form was opened on an existing profile.
func (c *Controller) IsEditing() bool { return c.editingID != "" }

// Fields exposes the editable rows for rendering.
func (c *Controller) Fields() []FieldView {
	views := make([]FieldView, len(c.fields))
	for i, f := range c.fields {
		v := FieldView{
			Label:    f.label,
			Selected: i == c.cursor,
			ReadOnly: f.readOnly,
			Secret:   f.secret,
			Bool:     f.typ == boolField,
			On:       f.on,
		}
		if f.input != nil {
			v.Value = f.input.Value()
			v.Cursor = f.input.Cursor()
		}
		views[i] = v
	}
	return views
}

// FieldView is a render-ready snapshot of one field row.
type FieldView struct {
	Label    string
	Value    string
	Cursor   int
	Selected bool
	ReadOnly bool
	Secret   bool
	Bool     bool
	On       bool
}

// RawText returns the advanced editor's current text.
func (c *Controller) RawText() string { return c.raw.Value() }

// RawCursor returns the advanced editor's cursor position in runes.
func (c *Controller) RawCursor() int { return c.raw.Cursor() }

// Templates returns the pick list shown in StateTemplatePicking.
func (c *Controller) Templates() []Template { return c.templates }

// TemplateCursor returns the selected template index.
func (c *Controller) TemplateCursor() int { return c.tmplCursor }

// OpenAdd starts a new draft for the given kind and app. When templates
// exist for the combination the controller passes through TemplatePicking
// first; otherwise it lands directly in FieldEditing with a blank draft.
func (c *Controller) OpenAdd(kind profile.Kind, app profile.App) {
	c.reset()
	c.kind = kind
	c.app = app
	c.templates = templatesFor(kind, app)
	if len(c.templates) > 0 {
		c.state = StateTemplatePicking
		return
	}
	c.beginDraft(Template{})
}

// OpenEdit loads an existing profile into the form. Ids are only unique
// within their (kind, app) scope, so the caller names the scope too. The
// id is immutable once persisted; its row is read-only here.
func (c *Controller) OpenEdit(kind profile.Kind, app profile.App, id string) error {
	p, err := c.store.Get(kind, app, id)
	if err != nil {
		return err
	}
	c.reset()
	c.kind = p.Kind
	c.app = p.App
	c.editingID = p.ID
	c.idOverridden = true
	if p.Provider != nil {
		c.extra = p.Provider.Extra
	}
	if p.Mcp != nil {
		c.mcpEnv = p.Mcp.Env
	}
	c.buildFields(p)
	c.state = StateFieldEditing
	return nil
}

// PickTemplate confirms the highlighted template and moves to FieldEditing.
func (c *Controller) PickTemplate() {
	if c.state != StateTemplatePicking {
		return
	}
	c.beginDraft(c.templates[c.tmplCursor])
}

// Cancel discards the draft and closes the form. The store is untouched.
func (c *Controller) Cancel() {
	c.reset()
}

// Key routes one input event according to the current state. Every event
// mutates at most one field of the draft.
func (c *Controller) Key(k Key) {
	switch c.state {
	case StateTemplatePicking:
		switch k.Action {
		case ActionUp:
			if c.tmplCursor > 0 {
				c.tmplCursor--
			}
		case ActionDown:
			if c.tmplCursor < len(c.templates)-1 {
				c.tmplCursor++
			}
		}
	case StateFieldEditing:
		c.fieldKey(k)
	case StateAdvanced:
		c.rawKey(k)
	}
}

func (c *Controller) fieldKey(k Key) {
	switch k.Action {
	case ActionUp:
		if c.cursor > 0 {
			c.cursor--
		}
		return
	case ActionDown:
		if c.cursor < len(c.fields)-1 {
			c.cursor++
		}
		return
	}

	f := c.fields[c.cursor]
	if f.readOnly {
		return
	}
	if f.typ == boolField {
		if k.Action == ActionToggle {
			f.on = !f.on
		}
		return
	}

	switch k.Action {
	case ActionLeft:
		f.input.Left()
	case ActionRight:
		f.input.Right()
	case ActionHome:
		f.input.Home()
	case ActionEnd:
		f.input.End()
	case ActionBackspace:
		f.input.Backspace()
		c.noteFieldEdit(f)
	case ActionDelete:
		f.input.Delete()
		c.noteFieldEdit(f)
	default:
		if k.Rune != 0 {
			f.input.Insert(k.Rune)
			c.noteFieldEdit(f)
		}
	}
}

func (c *Controller) rawKey(k Key) {
	switch k.Action {
	case ActionLeft:
		c.raw.Left()
	case ActionRight:
		c.raw.Right()
	case ActionHome:
		c.raw.Home()
	case ActionEnd:
		c.raw.End()
	case ActionBackspace:
		c.raw.Backspace()
	case ActionDelete:
		c.raw.Delete()
	case ActionNewline:
		c.raw.Insert('\n')
	default:
		if k.Rune != 0 {
			c.raw.Insert(k.Rune)
		}
	}
}

// noteFieldEdit records that the user touched the id by hand. Once that
// happens the id is never re-derived from the name.
func (c *Controller) noteFieldEdit(f *fieldDef) {
	if f.key == "id" {
		c.idOverridden = true
	}
}

// EditAsJSON serializes the draft's owned subtree into the raw editor and
// switches to the advanced view.
func (c *Controller) EditAsJSON() error {
	if c.state != StateFieldEditing {
		return fmt.Errorf("form is not in field editing")
	}
	text, err := c.project()
	if err != nil {
		return err
	}
	c.raw.SetValue(string(text))
	c.state = StateAdvanced
	c.message = ""
	return nil
}

// SetRawText replaces the advanced editor's content wholesale (paste).
func (c *Controller) SetRawText(text string) {
	if c.state == StateAdvanced {
		c.raw.SetValue(text)
	}
}

// ApplyRaw parses the advanced editor's text. On success the recognized
// fields overwrite the draft's corresponding fields and the state returns
// to FieldEditing; on failure the state and the draft are both untouched
// and the parse error is surfaced as the message.
func (c *Controller) ApplyRaw() {
	if c.state != StateAdvanced {
		return
	}
	raw := []byte(c.raw.Value())

	switch c.kind {
	case profile.KindProvider:
		ad, err := adapter.For(c.app)
		if err != nil {
			c.message = err.Error()
			return
		}
		patch, err := ad.Extract(adapter.Document{Main: raw})
		if err != nil {
			c.message = fmt.Sprintf("invalid document: %v", err)
			return
		}
		pf := c.collectProvider()
		pf.Apply(patch)
		c.extra = pf.Extra
		c.setProviderFields(pf)
	case profile.KindMcp:
		var mf profile.McpFields
		if err := json.Unmarshal(raw, &mf); err != nil {
			c.message = fmt.Sprintf("invalid JSON: %v", err)
			return
		}
		if mf.Command != "" {
			c.setField("command", mf.Command)
		}
		if len(mf.Args) > 0 {
			c.setField("args", strings.Join(mf.Args, " "))
		}
		if mf.Env != nil {
			c.mcpEnv = mf.Env
		}
	}
	c.state = StateFieldEditing
	c.message = ""
}

// Submit validates the draft and hands it to the store. On success the
// form closes; on validation or store failure it stays open with the
// failure surfaced as the message.
func (c *Controller) Submit() bool {
	if c.state != StateFieldEditing {
		return false
	}

	name := strings.TrimSpace(c.fieldValue("name"))
	if name == "" {
		c.message = "name is required"
		return false
	}

	// Re-derive the id from the name only now, never mid-typing, and only
	// while the user has not taken the id over by hand.
	id := strings.TrimSpace(c.fieldValue("id"))
	if !c.idOverridden {
		id = profile.DeriveID(name)
		c.setField("id", id)
	}
	if id == "" {
		c.message = "id is required"
		return false
	}

	p := c.buildProfile(id, name)

	var err error
	if c.editingID != "" {
		err = c.store.Update(c.kind, c.app, c.editingID, func(dst *profile.Profile) {
			*dst = *p
		})
	} else {
		err = c.store.Create(p)
	}
	if err != nil {
		c.message = err.Error()
		return false
	}
	c.reset()
	return true
}

func (c *Controller) buildProfile(id, name string) *profile.Profile {
	p := &profile.Profile{
		ID:         id,
		Name:       name,
		Kind:       c.kind,
		WebsiteURL: strings.TrimSpace(c.fieldValue("website")),
		Notes:      c.fieldValue("notes"),
	}
	switch c.kind {
	case profile.KindProvider:
		p.App = c.app
		pf := c.collectProvider()
		p.Provider = &pf
	case profile.KindMcp:
		apps := profile.AppSet{}
		for _, app := range profile.Apps {
			if c.fieldOn("app_" + string(app)) {
				apps[app] = true
			}
		}
		p.Apps = apps
		p.Mcp = &profile.McpFields{
			Command: strings.TrimSpace(c.fieldValue("command")),
			Args:    strings.Fields(c.fieldValue("args")),
			Env:     c.mcpEnv,
		}
	}
	return p
}

// collectProvider assembles provider fields from the editors plus the
// carried-through unmodeled extras.
func (c *Controller) collectProvider() profile.ProviderFields {
	return profile.ProviderFields{
		APIKey:       strings.TrimSpace(c.fieldValue("api_key")),
		BaseURL:      strings.TrimSpace(c.fieldValue("base_url")),
		Model:        strings.TrimSpace(c.fieldValue("model")),
		FastModel:    strings.TrimSpace(c.fieldValue("fast_model")),
		WireAPI:      strings.TrimSpace(c.fieldValue("wire_api")),
		EnvKey:       strings.TrimSpace(c.fieldValue("env_key")),
		RequiresAuth: c.fieldOn("requires_auth"),
		AuthMode:     strings.TrimSpace(c.fieldValue("auth_mode")),
		Extra:        c.extra,
	}
}

func (c *Controller) setProviderFields(pf profile.ProviderFields) {
	c.setField("api_key", pf.APIKey)
	c.setField("base_url", pf.BaseURL)
	c.setField("model", pf.Model)
	c.setField("fast_model", pf.FastModel)
	c.setField("wire_api", pf.WireAPI)
	c.setField("env_key", pf.EnvKey)
	c.setField("auth_mode", pf.AuthMode)
	c.setOn("requires_auth", pf.RequiresAuth)
}

// project renders the draft's owned subtree as editable text.
func (c *Controller) project() ([]byte, error) {
	if c.kind == profile.KindMcp {
		mf := profile.McpFields{
			Command: strings.TrimSpace(c.fieldValue("command")),
			Args:    strings.Fields(c.fieldValue("args")),
			Env:     c.mcpEnv,
		}
		return json.MarshalIndent(mf, "", "  ")
	}
	ad, err := adapter.For(c.app)
	if err != nil {
		return nil, err
	}
	pf := c.collectProvider()
	id := strings.TrimSpace(c.fieldValue("id"))
	if id == "" {
		id = profile.DeriveID(c.fieldValue("name"))
	}
	return ad.Project(&profile.Profile{
		ID:       id,
		Name:     strings.TrimSpace(c.fieldValue("name")),
		Kind:     c.kind,
		App:      c.app,
		Provider: &pf,
	})
}

func (c *Controller) beginDraft(tmpl Template) {
	p := &profile.Profile{Kind: c.kind, App: c.app, Name: tmpl.Name}
	if c.kind == profile.KindProvider {
		pf := tmpl.Provider
		p.Provider = &pf
	} else {
		p.Apps = profile.AppSet{}
		p.Mcp = &profile.McpFields{}
	}
	c.buildFields(p)
	c.state = StateFieldEditing
	c.message = ""
}

func (c *Controller) buildFields(p *profile.Profile) {
	text := func(key, label, value string) *fieldDef {
		return &fieldDef{key: key, label: label, input: NewField(value)}
	}
	c.fields = []*fieldDef{
		text("name", "Name", p.Name),
		{key: "id", label: "ID", input: NewField(p.ID), readOnly: c.editingID != ""},
	}

	switch p.Kind {
	case profile.KindProvider:
		pf := profile.ProviderFields{}
		if p.Provider != nil {
			pf = *p.Provider
		}
		c.fields = append(c.fields,
			&fieldDef{key: "api_key", label: "API key", secret: true, input: NewField(pf.APIKey)},
			text("base_url", "Base URL", pf.BaseURL),
			text("model", "Model", pf.Model),
		)
		switch p.App {
		case profile.AppClaude:
			c.fields = append(c.fields,
				text("fast_model", "Small/fast model", pf.FastModel))
		case profile.AppCodex:
			c.fields = append(c.fields,
				text("wire_api", "Wire API", pf.WireAPI),
				text("env_key", "Env key", pf.EnvKey),
				&fieldDef{key: "requires_auth", label: "Requires OpenAI auth", typ: boolField, on: pf.RequiresAuth})
		case profile.AppGemini:
			c.fields = append(c.fields,
				text("auth_mode", "Auth mode", pf.AuthMode))
		}
	case profile.KindMcp:
		mf := profile.McpFields{}
		if p.Mcp != nil {
			mf = *p.Mcp
		}
		c.fields = append(c.fields,
			text("command", "Command", mf.Command),
			text("args", "Arguments", strings.Join(mf.Args, " ")))
		for _, app := range profile.Apps {
			c.fields = append(c.fields, &fieldDef{
				key:   "app_" + string(app),
				label: "Enable for " + string(app),
				typ:   boolField,
				on:    p.Apps[app],
			})
		}
	}

	c.fields = append(c.fields,
		text("website", "Website", p.WebsiteURL),
		text("notes", "Notes", p.Notes))
	c.cursor = 0
}

func (c *Controller) reset() {
	c.state = StateClosed
	c.fields = nil
	c.cursor = 0
	c.editingID = ""
	c.idOverridden = false
	c.extra = nil
	c.mcpEnv = nil
	c.message = ""
	c.raw.SetValue("")
	c.templates = nil
	c.tmplCursor = 0
}

func (c *Controller) field(key string) *fieldDef {
	for _, f := range c.fields {
		if f.key == key {
			return f
		}
	}
	return nil
}

func (c *Controller) fieldValue(key string) string {
	if f := c.field(key); f != nil && f.input != nil {
		return f.Value()
	}
	return ""
}

func (c *Controller) fieldOn(key string) bool {
	if f := c.field(key); f != nil {
		return f.on
	}
	return false
}

func (c *Controller) setField(key, value string) {
	if f := c.field(key); f != nil && f.input != nil {
		f.input.SetValue(value)
	}
}

func (c *Controller) setOn(key string, on bool) {
	if f := c.field(key); f != nil {
		f.on = on
	}
}

func (f *fieldDef) Value() string {
	if f.input == nil {
		return ""
	}
	return f.input.Value()
}
