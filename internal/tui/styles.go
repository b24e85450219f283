package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/rag"
)

// theme is the set of styles for one colour scheme.
type theme struct {
	dark bool

	title         lipgloss.Style
	subtitle      lipgloss.Style
	sectionHeader lipgloss.Style
	helper        lipgloss.Style
	errorText     lipgloss.Style
	errorBox      lipgloss.Style
	statusBar     lipgloss.Style
	key           lipgloss.Style
	keyDesc       lipgloss.Style
	legendBox     lipgloss.Style
	overlayBox    lipgloss.Style
	stepBox       lipgloss.Style
	answerBox     lipgloss.Style
	label         lipgloss.Style
	value         lipgloss.Style
	selected      lipgloss.Style
	logoFace      lipgloss.Style
	logoShadow    lipgloss.Style
	logoContainer lipgloss.Style
}

var (
	candyPink   = lipgloss.Color("#ff5fa2")
	candyMint   = lipgloss.Color("#5fd7af")
	caramel     = lipgloss.Color("#ffb347")
	licorice    = lipgloss.Color("#1c1222")
	cream       = lipgloss.Color("#fff4e6")
	cocoa       = lipgloss.Color("#3b2418")
	dimLight    = lipgloss.Color("244")
	dimDark     = lipgloss.Color("241")
	errorRed    = lipgloss.Color("9")
	bandRed     = lipgloss.Color("#e63946")
	bandOrange  = lipgloss.Color("#f4a261")
	bandYellow  = lipgloss.Color("#e9c46a")
	bandGreen   = lipgloss.Color("#2a9d8f")
	scoreGreen  = lipgloss.Color("#2a9d8f")
	scoreYellow = lipgloss.Color("#e9c46a")
	scoreRed    = lipgloss.Color("#e63946")
)

func newTheme(dark bool) theme {
	text, surface, dim := cocoa, cream, dimLight
	if dark {
		text, surface, dim = cream, licorice, dimDark
	}
	return theme{
		dark:          dark,
		title:         lipgloss.NewStyle().Bold(true).Foreground(candyPink),
		subtitle:      lipgloss.NewStyle().Italic(true).Foreground(caramel),
		sectionHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81")),
		helper:        lipgloss.NewStyle().Foreground(dim),
		errorText:     lipgloss.NewStyle().Bold(true).Foreground(errorRed),
		errorBox:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(errorRed).Padding(0, 2),
		statusBar:     lipgloss.NewStyle().Foreground(licorice).Background(candyMint).Padding(0, 1),
		key:           lipgloss.NewStyle().Bold(true).Foreground(licorice).Background(caramel).Padding(0, 1),
		keyDesc:       lipgloss.NewStyle().Foreground(text),
		legendBox:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2),
		overlayBox:    lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(candyPink).Padding(1, 2),
		stepBox:       lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		answerBox:     lipgloss.NewStyle().Border(lipgloss.ThickBorder()).BorderForeground(candyMint).Foreground(text).Padding(1, 2),
		label:         lipgloss.NewStyle().Foreground(dim),
		value:         lipgloss.NewStyle().Foreground(text),
		selected:      lipgloss.NewStyle().Bold(true).Foreground(licorice).Background(candyPink),
		logoFace:      lipgloss.NewStyle().Bold(true).Foreground(candyPink).Background(surface),
		logoShadow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#5c1a3a")),
		logoContainer: lipgloss.NewStyle().Padding(0, 1),
	}
}

// stepAccent pairs each phase with a colour and an icon.
func stepAccent(kind rag.StepKind) (lipgloss.Color, string) {
	switch kind {
	case rag.KindQueryProcessing:
		return lipgloss.Color("#4cc9f0"), "🔍"
	case rag.KindQueryEmbedding:
		return lipgloss.Color("#b388eb"), "🧠"
	case rag.KindVectorSearch:
		return lipgloss.Color("#f72585"), "🎯"
	case rag.KindContextPreparation:
		return lipgloss.Color("#f4a261"), "📋"
	case rag.KindAIGeneration:
		return lipgloss.Color("#2a9d8f"), "✨"
	default:
		return lipgloss.Color("244"), "⚙️"
	}
}

func bandColor(band catalog.Band) lipgloss.Color {
	switch band {
	case catalog.BandRed:
		return bandRed
	case catalog.BandOrange:
		return bandOrange
	case catalog.BandYellow:
		return bandYellow
	default:
		return bandGreen
	}
}

func similarityColor(score float64) lipgloss.Color {
	switch {
	case score > 0.8:
		return scoreGreen
	case score > 0.6:
		return scoreYellow
	default:
		return scoreRed
	}
}

var logoArtLines = []string{
	" ██████╗   █████╗   ███╗   ██╗  ██████╗   ██╗   ██╗",
	"██╔════╝  ██╔══██╗  ████╗  ██║  ██╔══██╗  ╚██╗ ██╔╝",
	"██║       ███████║  ██╔██╗ ██║  ██║  ██║   ╚████╔╝ ",
	"██║       ██╔══██║  ██║╚██╗██║  ██║  ██║    ╚██╔╝  ",
	"╚██████╗  ██║  ██║  ██║ ╚████║  ██████╔╝     ██║   ",
	" ╚═════╝  ╚═╝  ╚═╝  ╚═╝  ╚═══╝  ╚═════╝      ╚═╝   ",
}

func (t theme) renderLogo() string {
	if len(logoArtLines) == 0 {
		return ""
	}
	width := 0
	lineRunes := make([][]rune, len(logoArtLines))
	for i, line := range logoArtLines {
		runes := []rune(line)
		lineRunes[i] = runes
		if len(runes) > width {
			width = len(runes)
		}
	}
	width++
	height := len(logoArtLines) + 1

	type cell struct {
		r     rune
		style lipgloss.Style
	}
	grid := make([][]cell, height)
	for i := range grid {
		grid[i] = make([]cell, width)
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' && y+1 < height && x+1 < width {
				grid[y+1][x+1] = cell{r: r, style: t.logoShadow}
			}
		}
	}
	for y, runes := range lineRunes {
		for x, r := range runes {
			if r != ' ' {
				grid[y][x] = cell{r: r, style: t.logoFace}
			}
		}
	}

	lines := make([]string, height)
	for y, row := range grid {
		var b strings.Builder
		for _, c := range row {
			if c.r == 0 {
				b.WriteRune(' ')
				continue
			}
			b.WriteString(c.style.Render(string(c.r)))
		}
		lines[y] = b.String()
	}
	return t.logoContainer.Render(strings.Join(lines, "\n"))
}
