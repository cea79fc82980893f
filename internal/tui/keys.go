package tui

import "github.com/charmbracelet/bubbles/v2/key"

// KeyMap defines the key bindings of the profile browser.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextApp  key.Binding
	McpView  key.Binding
	Add      key.Binding
	Edit     key.Binding
	Delete   key.Binding
	Activate key.Binding
	Apply    key.Binding
	Rollback key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the default browser bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextApp: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next app"),
		),
		McpView: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mcp servers"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "activate"),
		),
		Apply: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "apply"),
		),
		Rollback: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "rollback"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
