package tui

import (
	"fmt"
	"strings"

	"github.com/billie-coop/switchboard/internal/form"
	"github.com/billie-coop/switchboard/internal/profile"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/glamour/v2"
)

// View renders the UI.
func (m *Model) View() tea.View {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Switchboard"))
	b.WriteString("\n\n")

	if m.mode == viewForm {
		b.WriteString(m.viewForm())
	} else {
		b.WriteString(m.viewBrowser())
	}

	b.WriteString("\n")
	if m.status != "" {
		if m.statusErr {
			b.WriteString(errorStyle.Render(m.status))
		} else {
			b.WriteString(statusStyle.Render(m.status))
		}
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.helpLine()))
	return tea.NewView(b.String())
}

func (m *Model) helpLine() string {
	if m.mode == viewForm {
		switch m.form.State() {
		case form.StateTemplatePicking:
			return "↑/↓ select · enter pick · esc cancel"
		case form.StateAdvanced:
			return "type to edit · ctrl+s apply · esc discard"
		}
		return "↑/↓ field · type to edit · ctrl+e raw edit · ctrl+s save · esc cancel"
	}
	return "tab app · m mcp · a add · e edit · d delete · enter activate · y apply · r rollback · q quit"
}

func (m *Model) viewBrowser() string {
	var b strings.Builder

	for i, app := range profile.Apps {
		style := tabStyle
		if m.mode != viewMcp && i == m.appIndex {
			style = activeTabStyle
		}
		b.WriteString(style.Render(string(app)))
	}
	mcpTab := tabStyle
	if m.mode == viewMcp {
		mcpTab = activeTabStyle
	}
	b.WriteString(mcpTab.Render("mcp"))
	b.WriteString("\n\n")

	rows := m.rows()
	if len(rows) == 0 {
		b.WriteString(dimStyle.Render("no profiles yet, press 'a' to add one"))
		b.WriteString("\n")
		return b.String()
	}

	activeID, _ := m.store.ActiveID(m.currentApp())
	for i, p := range rows {
		line := p.Name
		if p.Name != p.ID {
			line += dimStyle.Render(" (" + p.ID + ")")
		}
		switch {
		case m.mode != viewMcp && p.ID == activeID:
			line = activeMarkStyle.Render("● ") + line
		case m.mode == viewMcp:
			line = dimStyle.Render("◆ ") + line
		default:
			line = "  " + line
		}
		if i == m.cursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if p := m.selected(); p != nil {
		b.WriteString("\n")
		b.WriteString(paneStyle.Width(max(40, m.width-4)).Render(m.viewDetail(p)))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) viewDetail(p *profile.Profile) string {
	var b strings.Builder
	if p.Kind == profile.KindMcp {
		b.WriteString(labelStyle.Render("Command: "))
		b.WriteString(valueStyle.Render(strings.TrimSpace(p.Mcp.Command + " " + strings.Join(p.Mcp.Args, " "))))
		b.WriteString("\n")
		apps := make([]string, 0, 3)
		for _, app := range profile.Apps {
			if p.Apps[app] {
				apps = append(apps, string(app))
			}
		}
		b.WriteString(labelStyle.Render("Enabled for: "))
		if len(apps) == 0 {
			b.WriteString(dimStyle.Render("nothing"))
		} else {
			b.WriteString(valueStyle.Render(strings.Join(apps, ", ")))
		}
	} else if p.Provider != nil {
		if p.Provider.BaseURL != "" {
			b.WriteString(labelStyle.Render("Endpoint: "))
			b.WriteString(valueStyle.Render(p.Provider.BaseURL))
			b.WriteString("\n")
		}
		if p.Provider.Model != "" {
			b.WriteString(labelStyle.Render("Model: "))
			b.WriteString(valueStyle.Render(p.Provider.Model))
			b.WriteString("\n")
		}
		b.WriteString(labelStyle.Render("API key: "))
		b.WriteString(dimStyle.Render(maskKey(p.Provider.APIKey)))
	}
	if p.WebsiteURL != "" {
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Website: "))
		b.WriteString(valueStyle.Render(p.WebsiteURL))
	}
	if p.Notes != "" {
		b.WriteString("\n")
		b.WriteString(m.renderNotes(p.Notes))
	}
	return b.String()
}

// renderNotes renders the profile's notes as markdown, falling back to
// plain text when the renderer is unavailable.
func (m *Model) renderNotes(notes string) string {
	width := m.width - 8
	if width < 20 {
		width = 60
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(m.prefs.Theme),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return notes
	}
	out, err := r.Render(notes)
	if err != nil {
		return notes
	}
	return strings.TrimRight(out, "\n")
}

func maskKey(key string) string {
	if key == "" {
		return "(none)"
	}
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "…" + key[len(key)-4:]
}

func (m *Model) viewForm() string {
	var b strings.Builder

	switch m.form.State() {
	case form.StateTemplatePicking:
		b.WriteString(labelStyle.Render("Pick a template"))
		b.WriteString("\n\n")
		for i, t := range m.form.Templates() {
			if i == m.form.TemplateCursor() {
				b.WriteString(selectedStyle.Render("> " + t.Title))
			} else {
				b.WriteString("  " + t.Title)
			}
			b.WriteString("\n")
		}

	case form.StateAdvanced:
		title := "Edit as JSON"
		if m.form.App() == profile.AppCodex {
			title = "Edit as TOML"
		}
		b.WriteString(labelStyle.Render(title))
		b.WriteString("\n\n")
		b.WriteString(renderWithCursor(m.form.RawText(), m.form.RawCursor()))
		b.WriteString("\n")

	default:
		verb := "Add"
		if m.form.IsEditing() {
			verb = "Edit"
		}
		kind := "provider"
		if m.form.Kind() == profile.KindMcp {
			kind = "MCP server"
		}
		target := string(m.form.App())
		if target != "" {
			target = " for " + target
		}
		b.WriteString(labelStyle.Render(fmt.Sprintf("%s %s%s", verb, kind, target)))
		b.WriteString("\n\n")

		for _, f := range m.form.Fields() {
			label := fmt.Sprintf("%-22s", f.Label)
			if f.Selected {
				b.WriteString(selectedStyle.Render("> " + label))
			} else {
				b.WriteString("  " + dimStyle.Render(label))
			}
			switch {
			case f.Bool:
				if f.On {
					b.WriteString(valueStyle.Render("[x]"))
				} else {
					b.WriteString(dimStyle.Render("[ ]"))
				}
			case f.Secret && !f.Selected:
				b.WriteString(dimStyle.Render(maskKey(f.Value)))
			case f.Selected && !f.ReadOnly:
				b.WriteString(renderWithCursor(f.Value, f.Cursor))
			default:
				b.WriteString(valueStyle.Render(f.Value))
			}
			b.WriteString("\n")
		}
	}

	if msg := m.form.Message(); msg != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(msg))
		b.WriteString("\n")
	}
	return b.String()
}

// renderWithCursor shows value with a block cursor at the given rune
// position.
func renderWithCursor(value string, cursor int) string {
	runes := []rune(value)
	if cursor >= len(runes) {
		return valueStyle.Render(value) + cursorStyle.Render(" ")
	}
	before := string(runes[:cursor])
	at := string(runes[cursor])
	after := string(runes[cursor+1:])
	if at == "\n" {
		at = " \n"
	}
	return valueStyle.Render(before) + cursorStyle.Render(at) + valueStyle.Render(after)
}
