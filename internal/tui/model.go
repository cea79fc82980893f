// Package tui is the interactive shell over the switchboard core: a
// profile browser per target app, an add/edit form backed by the form
// controller, and one-key activate/apply/rollback. All domain logic lives
// below this package; the model only forwards actions and renders results.
package tui

import (
	"errors"
	"fmt"

	"github.com/billie-coop/switchboard/internal/applier"
	"github.com/billie-coop/switchboard/internal/form"
	"github.com/billie-coop/switchboard/internal/profile"
	"github.com/billie-coop/switchboard/internal/settings"
	"github.com/billie-coop/switchboard/internal/store"
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
)

// viewMode selects the main pane.
type viewMode int

const (
	viewProviders viewMode = iota
	viewMcp
	viewForm
)

// Model is the bubbletea model for the whole program.
type Model struct {
	width  int
	height int

	store   *store.Store
	applier *applier.Applier
	form    *form.Controller
	prefs   *settings.Settings
	keys    KeyMap

	mode         viewMode
	appIndex     int
	cursor       int
	status       string
	statusErr    bool
	applyPending bool
}

// New creates the TUI model.
func New(s *store.Store, a *applier.Applier, prefs *settings.Settings) *Model {
	if prefs == nil {
		prefs = settings.Default()
	}
	return &Model{
		store:   s,
		applier: a,
		form:    form.NewController(s),
		prefs:   prefs,
		keys:    DefaultKeyMap(),
	}
}

// Init returns an initial command.
func (m *Model) Init() tea.Cmd {
	return nil
}

func (m *Model) currentApp() profile.App {
	return profile.Apps[m.appIndex]
}

// rows returns the profiles listed in the current browser view.
func (m *Model) rows() []*profile.Profile {
	if m.mode == viewMcp {
		return m.store.List(profile.KindMcp, "")
	}
	return m.store.List(profile.KindProvider, m.currentApp())
}

func (m *Model) selected() *profile.Profile {
	rows := m.rows()
	if m.cursor >= 0 && m.cursor < len(rows) {
		return rows[m.cursor]
	}
	return nil
}

func (m *Model) clampCursor() {
	if n := len(m.rows()); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.statusErr = false
}

func (m *Model) setError(err error) {
	m.status = err.Error()
	m.statusErr = true
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if m.mode == viewForm {
			return m.updateForm(msg)
		}
		return m.updateBrowser(msg)
	}
	return m, nil
}

func (m *Model) updateBrowser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Any key other than a second apply press cancels the confirmation.
	pending := m.applyPending
	m.applyPending = false

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.rows())-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.NextApp):
		m.appIndex = (m.appIndex + 1) % len(profile.Apps)
		m.mode = viewProviders
		m.cursor = 0
		m.status = ""
	case key.Matches(msg, m.keys.McpView):
		if m.mode == viewMcp {
			m.mode = viewProviders
		} else {
			m.mode = viewMcp
		}
		m.cursor = 0
		m.status = ""

	case key.Matches(msg, m.keys.Add):
		if m.mode == viewMcp {
			m.form.OpenAdd(profile.KindMcp, "")
		} else {
			m.form.OpenAdd(profile.KindProvider, m.currentApp())
		}
		m.mode = viewForm
	case key.Matches(msg, m.keys.Edit):
		if p := m.selected(); p != nil {
			if err := m.form.OpenEdit(p.Kind, p.App, p.ID); err != nil {
				m.setError(err)
			} else {
				m.mode = viewForm
			}
		}
	case key.Matches(msg, m.keys.Delete):
		if p := m.selected(); p != nil {
			if err := m.store.Delete(p.Kind, p.App, p.ID); err != nil {
				if errors.Is(err, store.ErrActiveProfile) {
					m.setStatus("%s is active; activate another profile first", p.ID)
				} else {
					m.setError(err)
				}
			} else {
				m.setStatus("deleted %s", p.ID)
				m.clampCursor()
			}
		}
	case key.Matches(msg, m.keys.Activate):
		if p := m.selected(); p != nil && p.Kind == profile.KindProvider {
			if err := m.store.SetActive(p.App, p.ID); err != nil {
				m.setError(err)
			} else {
				m.setStatus("%s is now active for %s (press y to apply)", p.ID, p.App)
			}
		}
	case key.Matches(msg, m.keys.Apply):
		app := m.currentApp()
		if m.prefs.ConfirmBeforeApply && !pending {
			m.applyPending = true
			m.setStatus("press y again to apply to %s", app)
			return m, nil
		}
		if err := m.applier.Apply(app); err != nil {
			m.setError(err)
		} else {
			m.setStatus("applied active profile to %s", app)
		}
	case key.Matches(msg, m.keys.Rollback):
		app := m.currentApp()
		if err := m.applier.Rollback(app); err != nil {
			m.setError(err)
		} else {
			m.setStatus("rolled %s back to its previous live config", app)
		}
	}
	return m, nil
}

// updateForm translates key events into form controller actions. The
// controller owns all draft mutation; the model never touches the draft.
func (m *Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form.Cancel()
		m.mode = viewProviders
		m.setStatus("discarded draft")
		return m, nil
	case "ctrl+s":
		switch m.form.State() {
		case form.StateAdvanced:
			m.form.ApplyRaw()
		default:
			if m.form.Submit() {
				m.mode = viewProviders
				m.setStatus("profile saved")
			}
		}
		return m, nil
	case "ctrl+e":
		if err := m.form.EditAsJSON(); err != nil {
			m.setError(err)
		}
		return m, nil
	case "enter":
		switch m.form.State() {
		case form.StateTemplatePicking:
			m.form.PickTemplate()
		case form.StateAdvanced:
			m.form.Key(form.Key{Action: form.ActionNewline})
		default:
			m.form.Key(form.Key{Action: m.enterAction()})
		}
		return m, nil
	}

	m.form.Key(translateKey(msg, m.spaceToggles()))
	return m, nil
}

// enterAction maps enter on a field row: toggle for bools, move down
// otherwise.
func (m *Model) enterAction() form.Action {
	for _, f := range m.form.Fields() {
		if f.Selected && f.Bool {
			return form.ActionToggle
		}
	}
	return form.ActionDown
}

// spaceToggles reports whether space should toggle instead of typing.
func (m *Model) spaceToggles() bool {
	if m.form.State() != form.StateFieldEditing {
		return false
	}
	for _, f := range m.form.Fields() {
		if f.Selected {
			return f.Bool
		}
	}
	return false
}

// translateKey maps a bubbletea key event onto the form's key type.
func translateKey(msg tea.KeyMsg, spaceToggles bool) form.Key {
	switch msg.String() {
	case "up":
		return form.Key{Action: form.ActionUp}
	case "down":
		return form.Key{Action: form.ActionDown}
	case "left":
		return form.Key{Action: form.ActionLeft}
	case "right":
		return form.Key{Action: form.ActionRight}
	case "home":
		return form.Key{Action: form.ActionHome}
	case "end":
		return form.Key{Action: form.ActionEnd}
	case "backspace":
		return form.Key{Action: form.ActionBackspace}
	case "delete":
		return form.Key{Action: form.ActionDelete}
	case " ", "space":
		if spaceToggles {
			return form.Key{Action: form.ActionToggle}
		}
		return form.Key{Rune: ' '}
	}
	runes := []rune(msg.String())
	if len(runes) == 1 {
		return form.Key{Rune: runes[0]}
	}
	return form.Key{}
}
