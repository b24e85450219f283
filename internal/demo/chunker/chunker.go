package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Source is one retrieved candy offered to the context window.
type Source struct {
	Name        string
	Category    string
	Sweetness   int
	Description string
}

// Chunk is a formatted slice of context that made it into the window.
type Chunk struct {
	ID       string
	Index    int
	Name     string
	Rank     int
	Text     string
	Tokens   int
	Metadata string
}

// Package is the assembled context window.
type Package struct {
	Chunks      []Chunk
	TotalTokens int
	MaxTokens   int
	Context     string
}

// Utilization renders the share of the token budget in use, e.g. "2.1%".
func (p Package) Utilization() string {
	if p.MaxTokens <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(p.TotalTokens)/float64(p.MaxTokens)*100)
}

const (
	DefaultMaxTokens        = 2048
	DefaultDescriptionChars = 100
	DefaultMaxChunks        = 3
)

// Builder formats sources into deduplicated chunks within a token budget.
type Builder struct {
	maxTokens        int
	descriptionChars int
	maxChunks        int
}

var whitespaceSanity = regexp.MustCompile(`\s+`)

// NewBuilder returns a Builder. Non-positive arguments use the defaults.
func NewBuilder(maxTokens, descriptionChars, maxChunks int) *Builder {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	if descriptionChars <= 0 {
		descriptionChars = DefaultDescriptionChars
	}
	if maxChunks <= 0 {
		maxChunks = DefaultMaxChunks
	}
	return &Builder{maxTokens: maxTokens, descriptionChars: descriptionChars, maxChunks: maxChunks}
}

// Template is the chunk layout shown to the generator.
const Template = "[CANDY: name] Category: X, Sweetness: Y/10, Description: Z"

// Build takes sources in rank order. Repeated chunks are skipped and chunks
// stop once the next one would overflow the budget.
func (b *Builder) Build(sources []Source) Package {
	pkg := Package{MaxTokens: b.maxTokens}
	seen := map[string]bool{}
	for rank, src := range sources {
		if len(pkg.Chunks) >= b.maxChunks {
			break
		}
		text := fmt.Sprintf("[CANDY: %s] Category: %s, Sweetness: %d/10, Description: %s",
			src.Name, src.Category, src.Sweetness, clipRunes(canonical(src.Description), b.descriptionChars)+"...")
		hash := hashChunk(canonical(text))
		if seen[hash] {
			continue
		}
		tokens := len(strings.Fields(text))
		if pkg.TotalTokens+tokens > b.maxTokens {
			break
		}
		seen[hash] = true
		pkg.Chunks = append(pkg.Chunks, Chunk{
			ID:       hash,
			Index:    len(pkg.Chunks),
			Name:     src.Name,
			Rank:     rank + 1,
			Text:     text,
			Tokens:   tokens,
			Metadata: fmt.Sprintf("Category: %s, Sweetness: %d", src.Category, src.Sweetness),
		})
		pkg.TotalTokens += tokens
	}
	texts := make([]string, 0, len(pkg.Chunks))
	for _, chunk := range pkg.Chunks {
		texts = append(texts, chunk.Text)
	}
	pkg.Context = strings.Join(texts, "\n")
	return pkg
}

// Preview clips text to limit runes and marks the cut with "...".
func Preview(text string, limit int) string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return text
	}
	return clipRunes(text, limit) + "..."
}

func canonical(text string) string {
	return whitespaceSanity.ReplaceAllString(strings.TrimSpace(text), " ")
}

func clipRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func hashChunk(text string) string {
	sum := sha1.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}
