package catalog

import (
	"strings"

	"github.com/csheth/candyrag/internal/i18n"
)

// Candy is one catalog entry as served by GET /candies.
type Candy struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NameFi        string   `json:"name_fi"`
	Description   string   `json:"description"`
	DescriptionFi string   `json:"description_fi"`
	Sweetness     int      `json:"sweetness"`
	Category      string   `json:"category"`
	CategoryFi    string   `json:"category_fi"`
	Price         float64  `json:"price"`
	Ingredients   []string `json:"ingredients"`
	Allergens     []string `json:"allergens"`
}

// NoAllergens is the sentinel allergen entry meaning the list is empty.
const NoAllergens = "none"

// LocalName returns the name in lang, falling back to English.
func (c Candy) LocalName(lang i18n.Language) string {
	return pick(lang, c.Name, c.NameFi)
}

// LocalDescription returns the description in lang, falling back to English.
func (c Candy) LocalDescription(lang i18n.Language) string {
	return pick(lang, c.Description, c.DescriptionFi)
}

// LocalCategory returns the category in lang, falling back to English.
func (c Candy) LocalCategory(lang i18n.Language) string {
	return pick(lang, c.Category, c.CategoryFi)
}

func pick(lang i18n.Language, en, fi string) string {
	if lang == i18n.Finnish && strings.TrimSpace(fi) != "" {
		return fi
	}
	return en
}

// KnownAllergens drops the "none" sentinel and blank entries.
func (c Candy) KnownAllergens() []string {
	out := make([]string, 0, len(c.Allergens))
	for _, allergen := range c.Allergens {
		trimmed := strings.TrimSpace(allergen)
		if trimmed == "" || strings.EqualFold(trimmed, NoAllergens) {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

// Band is the colour class derived from sweetness.
type Band string

const (
	BandRed    Band = "red"
	BandOrange Band = "orange"
	BandYellow Band = "yellow"
	BandGreen  Band = "green"
)

// SweetnessBand maps sweetness to >=8 red, >=6 orange, >=4 yellow, else green.
func SweetnessBand(sweetness int) Band {
	switch {
	case sweetness >= 8:
		return BandRed
	case sweetness >= 6:
		return BandOrange
	case sweetness >= 4:
		return BandYellow
	default:
		return BandGreen
	}
}

// Band is the colour class of c.
func (c Candy) Band() Band {
	return SweetnessBand(c.Sweetness)
}

// Stars renders sweetness as five stars, one per two points.
func (c Candy) Stars() string {
	s := clamp(c.Sweetness, 0, 10)
	filled := s / 2
	return strings.Repeat("★", filled) + strings.Repeat("☆", 5-filled)
}

// Emoji picks an icon for the category.
func Emoji(category string) string {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "gummy":
		return "🐻"
	case "chocolate":
		return "🍫"
	case "sour":
		return "🍋"
	case "marshmallow":
		return "☁️"
	case "hard candy":
		return "🍬"
	default:
		return "🍭"
	}
}

// Dedupe keeps the first candy for each ID.
func Dedupe(candies []Candy) []Candy {
	seen := make(map[string]bool, len(candies))
	out := make([]Candy, 0, len(candies))
	for _, c := range candies {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// Stats are the derived figures shown above the catalog. The Has* flags are
// false for an empty set.
type Stats struct {
	Count           int
	MaxSweetness    int
	HasMaxSweetness bool
	MinPrice        float64
	HasMinPrice     bool
	Categories      int
}

// Summarize computes Stats over candies, counting distinct categories in lang.
func Summarize(candies []Candy, lang i18n.Language) Stats {
	stats := Stats{Count: len(candies)}
	categories := map[string]bool{}
	for i, c := range candies {
		if i == 0 || c.Sweetness > stats.MaxSweetness {
			stats.MaxSweetness = c.Sweetness
		}
		if i == 0 || c.Price < stats.MinPrice {
			stats.MinPrice = c.Price
		}
		categories[c.LocalCategory(lang)] = true
	}
	stats.HasMaxSweetness = len(candies) > 0
	stats.HasMinPrice = len(candies) > 0
	stats.Categories = len(categories)
	return stats
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
