package tui

import (
	"strings"

	"github.com/muesli/reflow/indent"
)

type pageLayout struct {
	windowWidth    int
	windowHeight   int
	viewportWidth  int
	viewportHeight int
	composerHeight int
}

func newPageLayout() pageLayout {
	return pageLayout{
		viewportWidth:  80,
		viewportHeight: 20,
		composerHeight: 2,
	}
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height
	innerWidth := width - viewportHorizontalPadding
	if innerWidth < minViewportWidth {
		innerWidth = minViewportWidth
	}
	l.viewportWidth = innerWidth
	l.composerHeight = 2
	const chrome = 6
	const footerStatusHeight = 1
	contentHeight := height - chrome - l.composerHeight - footerStatusHeight
	if contentHeight < 6 {
		contentHeight = 6
	}
	l.viewportHeight = contentHeight
}

// sized reports whether a window size has been received.
func (l pageLayout) sized() bool {
	return l.windowHeight > 0
}

type contentBuilder struct {
	builder strings.Builder
}

// Block writes s followed by a newline, separated from the previous block by
// a blank line. Blank input is skipped.
func (cb *contentBuilder) Block(s string) {
	if strings.TrimSpace(s) == "" {
		return
	}
	if cb.builder.Len() > 0 {
		cb.builder.WriteByte('\n')
	}
	cb.builder.WriteString(s)
	cb.builder.WriteByte('\n')
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

func indentMultiline(text string, width uint) string {
	return indent.String(text, width)
}

func (m *model) wrapWidth(padding int) int {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func previewText(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
