package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/prefs"
	"github.com/csheth/candyrag/internal/rag"
)

type fakeBackend struct {
	mu         sync.Mutex
	queries    []string
	resets     int
	response   *rag.QueryResponse
	queryErr   error
	resetErr   error
	candies    []catalog.Candy
	candiesErr error
}

func (f *fakeBackend) Query(ctx context.Context, query string, lang i18n.Language) (*rag.QueryResponse, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return f.response, f.queryErr
}

func (f *fakeBackend) Reset(context.Context) error {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
	return f.resetErr
}

func (f *fakeBackend) Candies(context.Context) ([]catalog.Candy, error) {
	return f.candies, f.candiesErr
}

func (f *fakeBackend) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type fakeStore struct {
	saved []prefs.Preferences
	err   error
}

func (s *fakeStore) Save(p prefs.Preferences) error {
	s.saved = append(s.saved, p)
	return s.err
}

func newTestModel(t *testing.T, backend Backend) *model {
	t.Helper()
	teaModel, ok := New(Config{Backend: backend, Interval: 5 * time.Millisecond}).(*model)
	if !ok {
		t.Fatalf("expected *model, got %T", teaModel)
	}
	return teaModel
}

func sampleResponse() *rag.QueryResponse {
	title := func(en, fi string) rag.Localized {
		return rag.Localized{i18n.English: en, i18n.Finnish: fi}
	}
	return &rag.QueryResponse{
		Query:    "What's the sweetest candy?",
		Language: i18n.English,
		Steps: []rag.Step{
			rag.NewStep(rag.QueryProcessing{
				OriginalQuery: rag.Text("What's the sweetest candy?"),
				Tokenization: &rag.Tokenization{
					RawTokens:      rag.Texts("what's", "the", "sweetest", "candy"),
					FilteredTokens: rag.Texts("sweetest", "candy"),
					TokenCount:     rag.Int(2),
				},
				Language: rag.Text("en"),
			}, title("Processing Your Query", "Käsitellään kysymystäsi"), nil, 0.1),
			rag.NewStep(rag.QueryEmbedding{
				ModelInfo: &rag.ModelInfo{Model: rag.Text("all-MiniLM-L6-v2"), Dimensions: rag.Int(384)},
			}, title("Converting to Vector Magic", "Muunnetaan vektoreiksi"), nil, 0.2),
			rag.NewStep(rag.VectorSearch{
				TopMatches: []rag.Match{{
					Rank:             rag.Int(1),
					CandyName:        rag.Text("Rainbow Gummy Bears"),
					CosineSimilarity: rag.Number(0.85),
					Category:         rag.Text("gummy"),
				}},
			}, title("Searching Candy Database", "Etsitään karkkitietokannasta"), nil, 0.3),
			rag.NewStep(rag.ContextPreparation{
				ContextPreview: rag.Text("[CANDY: Rainbow Gummy Bears]"),
			}, title("Gathering Sweet Knowledge", "Kerätään makeaa tietoa"), nil, 0.15),
			rag.NewStep(rag.AIGeneration{
				OutputAnalysis: &rag.OutputAnalysis{ConfidenceScore: rag.Number(0.875)},
			}, title("Creating Your Answer", "Luodaan vastaustasi"), nil, 0.5),
		},
		FinalAnswer: rag.Localized{
			i18n.English: "Rainbow Gummy Bears are the sweetest.",
			i18n.Finnish: "Sateenkaarikarhut ovat makeimpia.",
		},
		TotalTime: 1.25,
	}
}

func TestQueryJobCarriesSequence(t *testing.T) {
	backend := &fakeBackend{response: sampleResponse()}
	msg, err := queryJob(backend, 7, "sweet", i18n.Finnish)(context.Background())
	if err != nil {
		t.Fatalf("query job failed: %v", err)
	}
	result, ok := msg.(queryResultMsg)
	if !ok {
		t.Fatalf("expected queryResultMsg, got %T", msg)
	}
	if result.seq != 7 || result.response == nil || result.err != nil {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestResetJobReportsFailure(t *testing.T) {
	boom := errors.New("connection refused")
	backend := &fakeBackend{resetErr: boom}
	msg, err := resetJob(backend)(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("expected reset error, got %v", err)
	}
	if result := msg.(resetResultMsg); !errors.Is(result.err, boom) {
		t.Fatalf("result should carry the error, got %v", result.err)
	}
}

func TestJobRunSnapshots(t *testing.T) {
	bus := newJobBus(nil)
	boom := errors.New("boom")
	j := bus.newJob(jobKindCatalog, 0, func(context.Context) (tea.Msg, error) {
		return catalogResultMsg{err: boom}, boom
	})
	started, ok := j.start().(jobSignalMsg)
	if !ok || started.Snapshot.Status != jobStatusRunning || started.Snapshot.ID != j.id {
		t.Fatalf("unexpected start signal: %+v", started)
	}
	env, ok := j.run().(jobResultEnvelope)
	if !ok {
		t.Fatalf("expected jobResultEnvelope")
	}
	if env.Snapshot.Status != jobStatusFailed || env.Snapshot.Err != "boom" {
		t.Fatalf("unexpected snapshot: %+v", env.Snapshot)
	}
	if _, ok := env.Payload.(catalogResultMsg); !ok {
		t.Fatalf("payload should be forwarded, got %T", env.Payload)
	}
	if !strings.HasPrefix(j.id, "catalog-") {
		t.Fatalf("unexpected job id %q", j.id)
	}
}

func TestJobTimeoutAndCancel(t *testing.T) {
	bus := newJobBus(nil)
	waitForDone := func(ctx context.Context) (tea.Msg, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	timed := bus.newJob(jobKindQuery, 10*time.Millisecond, waitForDone)
	env := timed.run().(jobResultEnvelope)
	if env.Snapshot.Status != jobStatusFailed || !strings.Contains(env.Snapshot.Err, "deadline") {
		t.Fatalf("expected deadline failure, got %+v", env.Snapshot)
	}

	cancelled := bus.newJob(jobKindQuery, 0, waitForDone)
	cancelled.cancel()
	env = cancelled.run().(jobResultEnvelope)
	if !strings.Contains(env.Snapshot.Err, "canceled") {
		t.Fatalf("expected cancellation, got %+v", env.Snapshot)
	}
}
