package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/candyrag/internal/about"
	"github.com/csheth/candyrag/internal/rag"
)

func (m *model) View() string {
	body := m.bodyView()
	switch m.overlay {
	case overlayAbout:
		body = m.aboutView()
	case overlayHelp:
		body = m.helpView()
	}
	if m.layout.sized() {
		m.viewport.SetContent(body)
		body = m.viewport.View()
	}
	parts := []string{m.headerView(), body}
	if m.overlay == overlayNone && (m.stage == stageIdle || m.stage == stageLoading) {
		parts = append(parts, m.composerPanel())
	}
	parts = append(parts, m.statusView())
	return joinNonEmpty(parts)
}

func (m *model) bodyView() string {
	switch m.stage {
	case stageLoading:
		return m.loadingView()
	case stageDisplay:
		return m.pipelineView()
	case stageError:
		return m.errorView()
	default:
		return m.idleView()
	}
}

func (m *model) headerView() string {
	s := m.strings()
	if m.stage == stageIdle && m.overlay == overlayNone && m.layout.windowWidth >= 60 {
		return lipgloss.JoinVertical(lipgloss.Left,
			m.theme.renderLogo(),
			m.theme.subtitle.Render(s.Subtitle),
		)
	}
	return m.theme.title.Render("🍭 "+s.Title) + "  " + m.theme.subtitle.Render(s.Subtitle)
}

func (m *model) idleView() string {
	s := m.strings()
	wrap := m.wrapWidth(4)
	intro := joinLines(
		m.theme.sectionHeader.Render(s.Welcome),
		m.theme.helper.Render(wordwrap.String(s.Description, wrap)),
	)
	return joinNonEmpty([]string{intro, m.catalog.View(m.theme, s, m.prefs.Language)})
}

func (m *model) loadingView() string {
	s := m.strings()
	lines := []string{fmt.Sprintf("%s %s", m.spinner.View(), s.Processing)}
	if m.lastQuery != "" {
		lines = append(lines, m.theme.label.Render(s.YourQuery+": ")+m.theme.value.Render(previewText(m.lastQuery, 80)))
	}
	return strings.Join(lines, "\n")
}

func (m *model) errorView() string {
	s := m.strings()
	body := joinLines(
		m.theme.errorText.Render("⚠️  "+s.Error),
		m.theme.value.Render(wordwrap.String(m.errMsg, m.wrapWidth(8))),
		m.theme.helper.Render("enter/esc · "+s.TryAgain),
	)
	return m.theme.errorBox.Render(body)
}

// pipelineView shows the step under the cursor and, once autoplay has
// finished, the final answer.
func (m *model) pipelineView() string {
	if m.response == nil {
		return ""
	}
	s := m.strings()
	steps := m.response.Steps
	cb := &contentBuilder{}
	cb.Block(m.theme.label.Render(s.YourQuery+": ") + m.theme.value.Render(fmt.Sprintf("%q", m.response.Query)))
	cb.Block(m.stepTracker())

	if cursor := m.player.Cursor(); cursor >= 0 && cursor < len(steps) {
		cb.Block(m.stepPanel(steps[cursor], cursor, len(steps)))
	}
	if m.player.Revealed() {
		cb.Block(m.answerPanel())
	} else if len(steps) > 0 {
		cb.Block(m.theme.helper.Render(fmt.Sprintf("←/→ · 1-%d", len(steps))))
	}
	return strings.TrimRight(cb.String(), "\n")
}

func (m *model) stepTracker() string {
	steps := m.response.Steps
	if len(steps) == 0 {
		return ""
	}
	cursor := m.player.Cursor()
	cells := make([]string, 0, len(steps))
	for i, step := range steps {
		color, icon := stepAccent(payloadKind(step.Payload))
		style := lipgloss.NewStyle().Padding(0, 1)
		switch {
		case i == cursor:
			style = style.Bold(true).Foreground(lipgloss.Color("#1c1222")).Background(color)
		case i < cursor || m.player.Revealed():
			style = style.Foreground(color)
		default:
			style = style.Foreground(lipgloss.Color("241"))
		}
		cells = append(cells, style.Render(fmt.Sprintf("%d %s", i+1, icon)))
	}
	done := float64(cursor+1) / float64(len(steps))
	if m.player.Revealed() {
		done = 1
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cells...),
		m.progress.ViewAs(done),
	)
}

func (m *model) stepPanel(step rag.Step, index, total int) string {
	s := m.strings()
	lang := m.prefs.Language
	color, icon := stepAccent(payloadKind(step.Payload))
	title := lipgloss.NewStyle().Bold(true).Foreground(color).
		Render(fmt.Sprintf("%s %s", icon, stepTitle(step, s, lang)))
	meta := m.theme.helper.Render(fmt.Sprintf("%d/%d · %s: %s", index+1, total, s.ProcessingTime, formatMillis(step.ProcessingTime)))
	wrap := m.wrapWidth(8)
	parts := []string{title + "  " + meta}
	if desc := step.Description.In(lang); desc != "" {
		parts = append(parts, m.theme.helper.Render(wordwrap.String(desc, wrap)))
	}
	if details := renderPayload(step.Payload, m.theme.formatter(wrap, s.StepPending)); details != "" {
		parts = append(parts, details)
	}
	return m.theme.stepBox.BorderForeground(color).Render(joinNonEmpty(parts))
}

func (m *model) answerPanel() string {
	s := m.strings()
	resp := m.response
	stats := []string{
		fmt.Sprintf("%s: %s", s.TotalTime, formatMillis(resp.TotalTime)),
		fmt.Sprintf("%s: %d %s", s.Sources, len(resp.Steps), s.StepsUnit),
	}
	if confidence, ok := answerConfidence(resp.Steps); ok {
		stats = append(stats, s.Confidence+": "+confidence)
	}
	body := joinNonEmpty([]string{
		m.theme.title.Render("🤖 " + s.AIAnswer),
		wordwrap.String(resp.FinalAnswer.In(m.prefs.Language), m.wrapWidth(10)),
		m.theme.helper.Render(strings.Join(stats, "  •  ")),
		m.theme.key.Render("n") + " " + m.theme.keyDesc.Render(s.AskAnother),
	})
	return m.theme.answerBox.Render(body)
}

func (m *model) composerPanel() string {
	s := m.strings()
	return joinLines(
		m.theme.sectionHeader.Render(s.AskButton),
		m.composer.View(m.theme, s),
	)
}

func (m *model) statusView() string {
	mode := "☀️"
	if m.theme.dark {
		mode = "🌙"
	}
	status := m.theme.statusBar.Render(fmt.Sprintf("%s  %s  %s", m.prefs.Language.Label(), mode, m.stage))
	return lipgloss.JoinHorizontal(lipgloss.Top, status, " ", m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *model) aboutView() string {
	page := about.Build(m.strings())
	wrap := m.wrapWidth(10)
	parts := []string{m.theme.title.Render(page.Title)}
	if page.Subtitle != "" {
		parts[0] += "\n" + m.theme.subtitle.Render(wordwrap.String(page.Subtitle, wrap))
	}
	for _, section := range page.Sections {
		lines := []string{m.theme.sectionHeader.Render(section.Title)}
		if section.Body != "" {
			lines = append(lines, wordwrap.String(section.Body, wrap))
		}
		for _, item := range section.Items {
			lines = append(lines, "  • "+item)
		}
		parts = append(parts, strings.Join(lines, "\n"))
	}
	parts = append(parts, m.theme.key.Render("esc")+" "+m.theme.keyDesc.Render(page.Close))
	return m.theme.overlayBox.Render(joinNonEmpty(parts))
}

func (m *model) helpView() string {
	s := m.strings()
	legend := m.help
	legend.ShowAll = true
	body := joinNonEmpty([]string{
		m.theme.sectionHeader.Render(s.Help),
		legend.View(m.keys),
	})
	return m.theme.legendBox.Render(body)
}
