package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
)

// catalogView shows the candies fetched at startup.
type catalogView struct {
	candies []catalog.Candy
	loaded  bool
	table   table.Model
	width   int
}

func newCatalogView() catalogView {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(catalogTableHeight),
	)
	return catalogView{table: t, width: 80}
}

// SetCandies adopts the fetched set. A nil slice renders as empty.
func (c *catalogView) SetCandies(candies []catalog.Candy, lang i18n.Language, s i18n.Strings) {
	c.candies = catalog.Dedupe(candies)
	c.loaded = true
	c.Localize(lang, s)
}

// Localize rebuilds the columns and rows for lang.
func (c *catalogView) Localize(lang i18n.Language, s i18n.Strings) {
	nameWidth := 22
	if c.width > 90 {
		nameWidth = 28
	}
	c.table.SetColumns([]table.Column{
		{Title: "", Width: 3},
		{Title: s.ShowcaseTitle, Width: nameWidth},
		{Title: s.Category, Width: 14},
		{Title: s.Sweetness, Width: 11},
		{Title: s.Price, Width: 8},
	})
	rows := make([]table.Row, 0, len(c.candies))
	for _, candy := range c.candies {
		rows = append(rows, table.Row{
			catalog.Emoji(candy.Category),
			candy.LocalName(lang),
			candy.LocalCategory(lang),
			candy.Stars(),
			fmt.Sprintf("$%.2f", candy.Price),
		})
	}
	c.table.SetRows(rows)
	if cursor := c.table.Cursor(); cursor < 0 || cursor >= len(rows) {
		c.table.SetCursor(0)
	}
}

func (c *catalogView) SetWidth(width int) {
	c.width = width
	c.table.SetWidth(width)
}

func (c *catalogView) Move(delta int) {
	if len(c.candies) == 0 {
		return
	}
	switch {
	case delta < 0:
		c.table.MoveUp(-delta)
	case delta > 0:
		c.table.MoveDown(delta)
	}
}

// Selected is the candy under the table cursor.
func (c catalogView) Selected() (catalog.Candy, bool) {
	i := c.table.Cursor()
	if i < 0 || i >= len(c.candies) {
		return catalog.Candy{}, false
	}
	return c.candies[i], true
}

func (c catalogView) View(t theme, s i18n.Strings, lang i18n.Language) string {
	header := joinLines(t.sectionHeader.Render(s.ShowcaseTitle), t.helper.Render(s.ShowcaseSubtitle))
	stats := statsLine(catalog.Summarize(c.candies, lang), s, t)
	if len(c.candies) == 0 {
		if !c.loaded {
			return joinNonEmpty([]string{header, stats})
		}
		return joinNonEmpty([]string{header, t.helper.Render(s.EmptyCatalog), stats})
	}

	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).Bold(true)
	styles.Selected = t.selected
	tbl := c.table
	tbl.SetStyles(styles)

	parts := []string{header, tbl.View()}
	if candy, ok := c.Selected(); ok {
		parts = append(parts, candyDetail(candy, s, t, lang, c.width))
	}
	parts = append(parts, stats)
	return joinNonEmpty(parts)
}

func candyDetail(candy catalog.Candy, s i18n.Strings, t theme, lang i18n.Language, width int) string {
	wrap := width - 4
	if wrap < 30 {
		wrap = 30
	}
	sweet := lipgloss.NewStyle().Foreground(bandColor(candy.Band())).
		Render(fmt.Sprintf("%s %d/10", candy.Stars(), candy.Sweetness))
	lines := []string{
		t.title.Render(catalog.Emoji(candy.Category) + " " + candy.LocalName(lang)),
		t.value.Render(wordwrap.String(candy.LocalDescription(lang), wrap)),
		t.label.Render(s.Sweetness+": ") + sweet,
	}
	if len(candy.Ingredients) > 0 {
		lines = append(lines, t.label.Render(s.Ingredients+": ")+t.value.Render(ingredientPreview(candy.Ingredients)))
	}
	if allergens := candy.KnownAllergens(); len(allergens) > 0 {
		lines = append(lines, t.label.Render(s.Allergens+": ")+t.errorText.Render(strings.Join(allergens, ", ")))
	}
	return strings.Join(lines, "\n")
}

func ingredientPreview(items []string) string {
	if len(items) <= ingredientPreviewLimit {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:ingredientPreviewLimit], ", ") + "..."
}

func statsLine(stats catalog.Stats, s i18n.Strings, t theme) string {
	return t.statusBar.Render(strings.Join(statCells(stats, s), "  •  "))
}

// statCells shows "-" for figures that do not exist for an empty set.
func statCells(stats catalog.Stats, s i18n.Strings) []string {
	maxSweet, minPrice, categories := "-", "-", "-"
	if stats.HasMaxSweetness {
		maxSweet = fmt.Sprintf("%d/10", stats.MaxSweetness)
	}
	if stats.HasMinPrice {
		minPrice = fmt.Sprintf("$%.2f", stats.MinPrice)
	}
	if stats.Count > 0 {
		categories = fmt.Sprintf("%d", stats.Categories)
	}
	return []string{
		fmt.Sprintf("%s %d", s.CandyCount, stats.Count),
		fmt.Sprintf("%s %s", s.MaxSweetness, maxSweet),
		fmt.Sprintf("%s %s", s.MinPrice, minPrice),
		fmt.Sprintf("%s %s", s.CategoryCount, categories),
	}
}

func joinLines(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n")
}
