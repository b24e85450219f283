package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/csheth/candyrag/internal/i18n"
)

type keyMap struct {
	Submit      key.Binding
	Examples    key.Binding
	Up          key.Binding
	Down        key.Binding
	CatalogUp   key.Binding
	CatalogDown key.Binding
	PrevStep    key.Binding
	NextStep    key.Binding
	JumpStep    key.Binding
	AskAnother  key.Binding
	Back        key.Binding
	Theme       key.Binding
	Language    key.Binding
	Reset       key.Binding
	About       key.Binding
	Help        key.Binding
	Quit        key.Binding
}

func newKeyMap(s i18n.Strings) keyMap {
	return keyMap{
		Submit:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", s.AskButton)),
		Examples:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", s.ExampleQueries)),
		Up:          key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:        key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		CatalogUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup", s.ShowcaseTitle+" ↑")),
		CatalogDown: key.NewBinding(key.WithKeys("pgdown"), key.WithHelp("pgdn", s.ShowcaseTitle+" ↓")),
		PrevStep:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "step")),
		NextStep:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→", "step")),
		JumpStep:    key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "step")),
		AskAnother:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", s.AskAnother)),
		Back:        key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", s.AboutPage.Close)),
		Theme:       key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", s.ToggleTheme)),
		Language:    key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", s.ToggleLanguage)),
		Reset:       key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", s.Reset)),
		About:       key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", s.About)),
		Help:        key.NewBinding(key.WithKeys("f1", "?"), key.WithHelp("?/f1", s.Help)),
		Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", s.Quit)),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Language, k.Theme, k.Reset, k.About, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Examples, k.Up, k.Down, k.CatalogUp, k.CatalogDown},
		{k.PrevStep, k.NextStep, k.JumpStep, k.AskAnother, k.Back},
		{k.Language, k.Theme, k.Reset, k.About, k.Help, k.Quit},
	}
}
