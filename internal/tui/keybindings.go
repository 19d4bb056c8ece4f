package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/berth-dev/nback/internal/config"
)

// KeyMap defines all key bindings for the TUI.
type KeyMap struct {
	Match   key.Binding
	NoMatch key.Binding
	Start   key.Binding
	Reset   key.Binding
	Quit    key.Binding
	Help    key.Binding
}

// NewKeyMap builds the bindings from the configured keys.
func NewKeyMap(k config.KeysConfig) KeyMap {
	return KeyMap{
		Match: key.NewBinding(
			key.WithKeys(k.Match...),
			key.WithHelp(helpKey(k.Match), "match"),
		),
		NoMatch: key.NewBinding(
			key.WithKeys(k.NoMatch...),
			key.WithHelp(helpKey(k.NoMatch), "no match"),
		),
		Start: key.NewBinding(
			key.WithKeys(k.Start...),
			key.WithHelp(helpKey(k.Start), "start"),
		),
		Reset: key.NewBinding(
			key.WithKeys(k.Reset...),
			key.WithHelp(helpKey(k.Reset), "reset"),
		),
		Quit: key.NewBinding(
			key.WithKeys(k.Quit...),
			key.WithHelp(helpKey(k.Quit), "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
	}
}

// DefaultKeyMap provides the default key bindings for the TUI.
var DefaultKeyMap = NewKeyMap(config.DefaultConfig().Keys)

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Match, k.NoMatch, k.Start, k.Help}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Match, k.NoMatch},
		{k.Start, k.Reset},
		{k.Quit, k.Help},
	}
}

// SetInputEnabled toggles the response bindings so help greys them out
// while no trial accepts an answer.
func (k *KeyMap) SetInputEnabled(enabled bool) {
	k.Match.SetEnabled(enabled)
	k.NoMatch.SetEnabled(enabled)
}

func helpKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	s := keys[0]
	for _, k := range keys[1:] {
		s += "/" + k
	}
	return s
}
