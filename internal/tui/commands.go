package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/prefs"
	"github.com/csheth/candyrag/internal/rag"
)

// Backend is the candy store API the UI talks to.
type Backend interface {
	Query(ctx context.Context, query string, lang i18n.Language) (*rag.QueryResponse, error)
	Reset(ctx context.Context) error
	Candies(ctx context.Context) ([]catalog.Candy, error)
}

// PrefStore persists preference changes.
type PrefStore interface {
	Save(prefs.Preferences) error
}

type queryResultMsg struct {
	seq      int
	response *rag.QueryResponse
	err      error
}

type resetResultMsg struct {
	err error
}

type catalogResultMsg struct {
	candies []catalog.Candy
	err     error
}

func queryJob(backend Backend, seq int, query string, lang i18n.Language) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		resp, err := backend.Query(ctx, query, lang)
		return queryResultMsg{seq: seq, response: resp, err: err}, err
	}
}

func resetJob(backend Backend) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		err := backend.Reset(ctx)
		return resetResultMsg{err: err}, err
	}
}

func catalogJob(backend Backend) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		candies, err := backend.Candies(ctx)
		return catalogResultMsg{candies: candies, err: err}, err
	}
}
