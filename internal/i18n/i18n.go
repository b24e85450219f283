package i18n

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Language is a supported UI language tag.
type Language string

const (
	English Language = "en"
	Finnish Language = "fi"
)

// Default is the language used when no preference is stored.
const Default = English

// Supported lists every language the UI ships tables for.
var Supported = []Language{English, Finnish}

// Parse accepts a raw tag and reports whether it is supported.
func Parse(raw string) (Language, bool) {
	lang := Language(strings.ToLower(strings.TrimSpace(raw)))
	if lang.Valid() {
		return lang, true
	}
	return Default, false
}

// Valid reports whether l is one of the supported tags.
func (l Language) Valid() bool {
	for _, s := range Supported {
		if l == s {
			return true
		}
	}
	return false
}

// Toggle flips between English and Finnish.
func (l Language) Toggle() Language {
	if l == Finnish {
		return English
	}
	return Finnish
}

// Label is the flag-prefixed name shown in step details.
func (l Language) Label() string {
	switch l {
	case Finnish:
		return "🇫🇮 Finnish"
	case English:
		return "🇬🇧 English"
	default:
		return string(l)
	}
}

// StepTitles names the five pipeline stages.
type StepTitles struct {
	QueryProcessing    string `yaml:"query_processing"`
	QueryEmbedding     string `yaml:"query_embedding"`
	VectorSearch       string `yaml:"vector_search"`
	ContextPreparation string `yaml:"context_preparation"`
	AIGeneration       string `yaml:"ai_generation"`
}

// Lookup returns the title for a wire step tag, or "" when unknown.
func (s StepTitles) Lookup(tag string) string {
	switch tag {
	case "query_processing":
		return s.QueryProcessing
	case "query_embedding":
		return s.QueryEmbedding
	case "vector_search":
		return s.VectorSearch
	case "context_preparation":
		return s.ContextPreparation
	case "ai_generation":
		return s.AIGeneration
	default:
		return ""
	}
}

// AboutPage holds the copy for the About overlay.
type AboutPage struct {
	Title             string   `yaml:"title"`
	Subtitle          string   `yaml:"subtitle"`
	WhatIsRAG         string   `yaml:"whatIsRag"`
	RAGDescription    string   `yaml:"ragDescription"`
	DemoTitle         string   `yaml:"demoTitle"`
	DemoDescription   string   `yaml:"demoDescription"`
	Phases            []string `yaml:"phases"`
	TechnologiesTitle string   `yaml:"technologiesTitle"`
	ClientTech        string   `yaml:"clientTech"`
	BackendTech       string   `yaml:"backendTech"`
	AITech            string   `yaml:"aiTech"`
	Close             string   `yaml:"close"`
}

// Strings is the full set of UI copy for one language.
type Strings struct {
	Title       string `yaml:"title"`
	Subtitle    string `yaml:"subtitle"`
	Welcome     string `yaml:"welcome"`
	Description string `yaml:"description"`

	ToggleLanguage string `yaml:"toggleLanguage"`
	ToggleTheme    string `yaml:"toggleTheme"`
	Reset          string `yaml:"reset"`
	About          string `yaml:"about"`
	Help           string `yaml:"help"`
	Quit           string `yaml:"quit"`

	QueryPlaceholder string   `yaml:"queryPlaceholder"`
	AskButton        string   `yaml:"askButton"`
	ExampleQueries   string   `yaml:"exampleQueries"`
	ExamplesHint     string   `yaml:"examplesHint"`
	Examples         []string `yaml:"examples"`

	Processing string `yaml:"processing"`
	Error      string `yaml:"error"`
	TryAgain   string `yaml:"tryAgain"`

	Steps StepTitles `yaml:"steps"`

	ShowcaseTitle    string `yaml:"showcaseTitle"`
	ShowcaseSubtitle string `yaml:"showcaseSubtitle"`
	Sweetness        string `yaml:"sweetness"`
	Price            string `yaml:"price"`
	Category         string `yaml:"category"`
	Ingredients      string `yaml:"ingredients"`
	Allergens        string `yaml:"allergens"`
	CandyCount       string `yaml:"candyCount"`
	MaxSweetness     string `yaml:"maxSweetness"`
	MinPrice         string `yaml:"minPrice"`
	CategoryCount    string `yaml:"categoryCount"`
	EmptyCatalog     string `yaml:"emptyCatalog"`

	YourQuery      string `yaml:"yourQuery"`
	AIAnswer       string `yaml:"aiAnswer"`
	ProcessingTime string `yaml:"processingTime"`
	StepPending    string `yaml:"stepPending"`
	Confidence     string `yaml:"confidence"`
	TotalTime      string `yaml:"totalTime"`
	Sources        string `yaml:"sources"`
	StepsUnit      string `yaml:"stepsUnit"`
	AskAnother     string `yaml:"askAnother"`

	AboutPage AboutPage `yaml:"aboutPage"`
}

// Table maps every supported language to its strings.
type Table map[Language]Strings

// For returns the strings for lang, falling back to the default language.
func (t Table) For(lang Language) Strings {
	if s, ok := t[lang]; ok {
		return s
	}
	return t[Default]
}

//go:embed locales/*.yaml
var locales embed.FS

// Load decodes the embedded tables and checks that every language defines the
// same keys.
func Load() (Table, error) {
	docs := make(map[Language][]byte, len(Supported))
	for _, lang := range Supported {
		raw, err := locales.ReadFile("locales/" + string(lang) + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("read %s table: %w", lang, err)
		}
		docs[lang] = raw
	}
	return Decode(docs)
}

// MustLoad is Load for program start-up, where a broken table is a build defect.
func MustLoad() Table {
	table, err := Load()
	if err != nil {
		panic(err)
	}
	return table
}

// Decode validates and decodes raw YAML tables keyed by language.
func Decode(docs map[Language][]byte) (Table, error) {
	if err := Validate(docs); err != nil {
		return nil, err
	}
	table := make(Table, len(docs))
	for lang, raw := range docs {
		var s Strings
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("decode %s table: %w", lang, err)
		}
		table[lang] = s
	}
	if _, ok := table[Default]; !ok {
		return nil, fmt.Errorf("missing %s table", Default)
	}
	return table, nil
}

// ErrKeyMismatch is returned when two tables define different key sets.
var ErrKeyMismatch = errors.New("translation key sets differ")

// Validate fails when any table defines a key that another lacks, or leaves a
// key empty.
func Validate(docs map[Language][]byte) error {
	var (
		reference     map[string]bool
		referenceLang Language
	)
	langs := make([]Language, 0, len(docs))
	for lang := range docs {
		langs = append(langs, lang)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })

	for _, lang := range langs {
		var root yaml.Node
		if err := yaml.Unmarshal(docs[lang], &root); err != nil {
			return fmt.Errorf("parse %s table: %w", lang, err)
		}
		keys := map[string]bool{}
		if err := collectKeys(&root, "", keys); err != nil {
			return fmt.Errorf("%s table: %w", lang, err)
		}
		if reference == nil {
			reference, referenceLang = keys, lang
			continue
		}
		if missing := difference(reference, keys); len(missing) > 0 {
			return fmt.Errorf("%w: %s lacks %s", ErrKeyMismatch, lang, strings.Join(missing, ", "))
		}
		if extra := difference(keys, reference); len(extra) > 0 {
			return fmt.Errorf("%w: %s lacks %s", ErrKeyMismatch, referenceLang, strings.Join(extra, ", "))
		}
	}
	return nil
}

func collectKeys(node *yaml.Node, prefix string, keys map[string]bool) error {
	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			if err := collectKeys(child, prefix, keys); err != nil {
				return err
			}
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			path := node.Content[i].Value
			if prefix != "" {
				path = prefix + "." + path
			}
			if err := collectKeys(node.Content[i+1], path, keys); err != nil {
				return err
			}
		}
	case yaml.SequenceNode:
		for i, child := range node.Content {
			if err := collectKeys(child, fmt.Sprintf("%s[%d]", prefix, i), keys); err != nil {
				return err
			}
		}
	case yaml.ScalarNode:
		if strings.TrimSpace(node.Value) == "" {
			return fmt.Errorf("empty value for %s", prefix)
		}
		keys[prefix] = true
	}
	return nil
}

func difference(a, b map[string]bool) []string {
	var out []string
	for key := range a {
		if !b[key] {
			out = append(out, key)
		}
	}
	sort.Strings(out)
	return out
}
