package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/candyrag/internal/i18n"
)

// composer is the query input plus the example question list.
type composer struct {
	input        textinput.Model
	examples     []string
	showExamples bool
	cursor       int
}

func newComposer(s i18n.Strings) composer {
	input := textinput.New()
	input.Prompt = "🍬 "
	input.CharLimit = composerCharLimit
	input.Width = composerWidth
	input.Focus()
	c := composer{input: input}
	c.SetStrings(s)
	return c
}

// SetStrings swaps the placeholder and examples for another language.
func (c *composer) SetStrings(s i18n.Strings) {
	c.input.Placeholder = s.QueryPlaceholder
	c.examples = append([]string(nil), s.Examples...)
	if c.cursor >= len(c.examples) {
		c.cursor = 0
	}
	if len(c.examples) == 0 {
		c.showExamples = false
	}
}

func (c *composer) ToggleExamples() {
	if len(c.examples) == 0 {
		c.showExamples = false
		return
	}
	c.showExamples = !c.showExamples
}

func (c *composer) HideExamples() {
	c.showExamples = false
}

func (c *composer) Move(delta int) {
	if len(c.examples) == 0 {
		return
	}
	c.cursor = (c.cursor + delta + len(c.examples)) % len(c.examples)
}

// PickExample copies the highlighted example into the buffer without
// submitting it.
func (c *composer) PickExample() {
	if !c.showExamples || c.cursor >= len(c.examples) {
		return
	}
	c.input.SetValue(c.examples[c.cursor])
	c.input.CursorEnd()
	c.showExamples = false
}

// Query is the trimmed buffer.
func (c composer) Query() string {
	return strings.TrimSpace(c.input.Value())
}

func (c *composer) Reset() {
	c.input.Reset()
	c.showExamples = false
	c.cursor = 0
}

func (c *composer) Focus() tea.Cmd {
	return c.input.Focus()
}

func (c *composer) Blur() {
	c.input.Blur()
}

func (c composer) Focused() bool {
	return c.input.Focused()
}

func (c composer) Update(msg tea.Msg) (composer, tea.Cmd) {
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	return c, cmd
}

func (c composer) View(t theme, s i18n.Strings) string {
	parts := []string{c.input.View()}
	if c.showExamples {
		lines := []string{t.sectionHeader.Render(s.ExampleQueries)}
		for i, example := range c.examples {
			if i == c.cursor {
				lines = append(lines, t.selected.Render("▸ "+example))
				continue
			}
			lines = append(lines, t.helper.Render("  "+example))
		}
		parts = append(parts, strings.Join(lines, "\n"))
	} else if s.ExamplesHint != "" {
		parts = append(parts, t.helper.Render(s.ExamplesHint))
	}
	return strings.Join(parts, "\n")
}
