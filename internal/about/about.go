package about

import (
	"strings"

	"github.com/csheth/candyrag/internal/i18n"
)

// Section is one titled block of the About overlay.
type Section struct {
	Title string
	Body  string
	Items []string
}

// Page is the renderer-agnostic content of the About overlay.
type Page struct {
	Title    string
	Subtitle string
	Sections []Section
	Close    string
}

// Stack names the technologies behind each layer. Product names are not
// translated.
var Stack = struct {
	Client  []string
	Backend []string
	AI      []string
}{
	Client:  []string{"Go", "Bubble Tea", "Bubbles", "Lip Gloss", "Cobra"},
	Backend: []string{"Gin", "go-cache", "zap", "validator"},
	AI:      []string{"Sentence-transformer embeddings (simulated)", "Cosine similarity search", "Template-based generation"},
}

// Build assembles the overlay from the localized text.
func Build(s i18n.Strings) Page {
	text := s.AboutPage
	title := strings.TrimSpace(text.Title)
	if title == "" {
		title = strings.TrimSpace(s.Title)
	}
	closeLabel := text.Close
	if strings.TrimSpace(closeLabel) == "" {
		closeLabel = "esc"
	}

	sections := []Section{
		{Title: text.WhatIsRAG, Body: text.RAGDescription},
		{Title: text.DemoTitle, Body: text.DemoDescription, Items: nonEmpty(text.Phases)},
		{
			Title: text.TechnologiesTitle,
			Items: []string{
				techLine(text.ClientTech, Stack.Client),
				techLine(text.BackendTech, Stack.Backend),
				techLine(text.AITech, Stack.AI),
			},
		},
	}
	kept := sections[:0]
	for _, section := range sections {
		if strings.TrimSpace(section.Title) == "" && strings.TrimSpace(section.Body) == "" && len(section.Items) == 0 {
			continue
		}
		kept = append(kept, section)
	}

	return Page{
		Title:    title,
		Subtitle: text.Subtitle,
		Sections: kept,
		Close:    closeLabel,
	}
}

func techLine(label string, names []string) string {
	list := strings.Join(names, ", ")
	if strings.TrimSpace(label) == "" {
		return list
	}
	return label + ": " + list
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}
	return out
}
