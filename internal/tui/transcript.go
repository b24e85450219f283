package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/rag"
)

const transcriptWidth = 80

// RenderTranscript lays out every step of resp followed by the final answer
// as plain text.
func RenderTranscript(resp *rag.QueryResponse, s i18n.Strings, lang i18n.Language) string {
	if resp == nil {
		return ""
	}
	f := plainFormatter(transcriptWidth-4, s.StepPending)
	cb := &contentBuilder{}
	cb.Block(fmt.Sprintf("%s: %q", s.YourQuery, resp.Query))
	for i, step := range resp.Steps {
		_, icon := stepAccent(payloadKind(step.Payload))
		lines := []string{
			fmt.Sprintf("[%d/%d] %s %s (%s)", i+1, len(resp.Steps), icon, stepTitle(step, s, lang), formatMillis(step.ProcessingTime)),
		}
		if desc := step.Description.In(lang); desc != "" {
			lines = append(lines, indentMultiline(wordwrap.String(desc, transcriptWidth-4), 4))
		}
		if details := renderPayload(step.Payload, f); details != "" {
			lines = append(lines, "", indentMultiline(details, 4))
		}
		cb.Block(strings.Join(lines, "\n"))
	}

	stats := []string{
		fmt.Sprintf("%s: %s", s.TotalTime, formatMillis(resp.TotalTime)),
		fmt.Sprintf("%s: %d %s", s.Sources, len(resp.Steps), s.StepsUnit),
	}
	if confidence, ok := answerConfidence(resp.Steps); ok {
		stats = append(stats, s.Confidence+": "+confidence)
	}
	cb.Block(strings.Join([]string{
		s.AIAnswer + ":",
		wordwrap.String(resp.FinalAnswer.In(lang), transcriptWidth),
		"",
		strings.Join(stats, " • "),
	}, "\n"))
	return strings.TrimRight(cb.String(), "\n") + "\n"
}

// RenderCatalog lists candies with their details and the derived stats as
// plain text.
func RenderCatalog(candies []catalog.Candy, s i18n.Strings, lang i18n.Language) string {
	candies = catalog.Dedupe(candies)
	cb := &contentBuilder{}
	cb.Block(s.ShowcaseTitle + "\n" + s.ShowcaseSubtitle)
	if len(candies) == 0 {
		cb.Block(s.EmptyCatalog)
	}
	for _, candy := range candies {
		lines := []string{
			fmt.Sprintf("%s %s  %s %d/10  $%.2f", catalog.Emoji(candy.Category), candy.LocalName(lang), candy.Stars(), candy.Sweetness, candy.Price),
			fmt.Sprintf("    %s: %s", s.Category, candy.LocalCategory(lang)),
		}
		if desc := candy.LocalDescription(lang); desc != "" {
			lines = append(lines, indentMultiline(wordwrap.String(desc, transcriptWidth-4), 4))
		}
		if len(candy.Ingredients) > 0 {
			lines = append(lines, fmt.Sprintf("    %s: %s", s.Ingredients, ingredientPreview(candy.Ingredients)))
		}
		if allergens := candy.KnownAllergens(); len(allergens) > 0 {
			lines = append(lines, fmt.Sprintf("    %s: %s", s.Allergens, strings.Join(allergens, ", ")))
		}
		cb.Block(strings.Join(lines, "\n"))
	}
	cb.Block(strings.Join(statCells(catalog.Summarize(candies, lang), s), " • "))
	return strings.TrimRight(cb.String(), "\n") + "\n"
}
