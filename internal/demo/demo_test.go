package demo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/rag"
)

func bundled(t *testing.T) []catalog.Candy {
	t.Helper()
	candies, err := Catalog()
	require.NoError(t, err)
	return candies
}

func TestCatalogIsBundled(t *testing.T) {
	candies := bundled(t)
	require.Len(t, candies, 5)
	assert.Equal(t, "Rainbow Gummy Bears", candies[0].Name)
	assert.Equal(t, "Suklaa Unet", candies[1].LocalName(i18n.Finnish))
	assert.Empty(t, candies[2].KnownAllergens())
}

func TestGeneratorProducesFivePhasesInOrder(t *testing.T) {
	gen := NewGenerator(bundled(t), false)
	resp, err := gen.Run(context.Background(), "  Which chocolate is the best?  ", i18n.English)
	require.NoError(t, err)
	require.NoError(t, resp.Validate())

	require.Len(t, resp.Steps, len(rag.Kinds))
	for i, kind := range rag.Kinds {
		assert.Equal(t, string(kind), resp.Steps[i].Tag)
		assert.Equal(t, kind, resp.Steps[i].Payload.Kind())
		assert.True(t, resp.Steps[i].Title.Has(i18n.Finnish))
	}

	processing, ok := resp.Steps[0].Payload.(rag.QueryProcessing)
	require.True(t, ok)
	assert.Equal(t, "which chocolate is the best?", processing.ProcessedQuery.String())
	assert.Equal(t, []string{"chocolate", "best"}, processing.Tokenization.FilteredTokens.Strings())
	assert.Equal(t, []string{"which", "is", "the"}, processing.Tokenization.RemovedStopWords.Strings())
	assert.Equal(t, "2", processing.Tokenization.TokenCount.String())

	search, ok := resp.Steps[2].Payload.(rag.VectorSearch)
	require.True(t, ok)
	require.NotEmpty(t, search.TopMatches)
	assert.Equal(t, "Chocolate Dreams", search.TopMatches[0].CandyName.String())
	assert.Contains(t, search.TopMatches[0].SimilarityExplanation.String(), "Keyword boost")

	assert.True(t, strings.HasPrefix(resp.FinalAnswer.In(i18n.English), "🎯 RAG RESULT"))
	assert.Contains(t, resp.FinalAnswer.In(i18n.Finnish), "Suklaa Unet")
}

func TestGeneratorUsesLocalNames(t *testing.T) {
	gen := NewGenerator(bundled(t), false)
	resp, err := gen.Run(context.Background(), "suklaa", i18n.Finnish)
	require.NoError(t, err)
	assert.Equal(t, i18n.Finnish, resp.Language)

	search := resp.Steps[2].Payload.(rag.VectorSearch)
	require.NotEmpty(t, search.TopMatches)
	assert.Equal(t, "Suklaa Unet", search.TopMatches[0].CandyName.String())
	assert.Equal(t, "Suklaa", search.TopMatches[0].Category.String())
}

func TestGeneratorIsDeterministic(t *testing.T) {
	gen := NewGenerator(bundled(t), false)
	first, err := gen.Run(context.Background(), "sour candy", i18n.English)
	require.NoError(t, err)
	second, err := gen.Run(context.Background(), "sour candy", i18n.English)
	require.NoError(t, err)

	assert.Equal(t, first.FinalAnswer, second.FinalAnswer)
	firstEmbedding := first.Steps[1].Payload.(rag.QueryEmbedding)
	secondEmbedding := second.Steps[1].Payload.(rag.QueryEmbedding)
	assert.Equal(t, firstEmbedding.EmbeddingVector.SampleValues.Strings(), secondEmbedding.EmbeddingVector.SampleValues.Strings())
	assert.Equal(t, "384", firstEmbedding.EmbeddingVector.FullDimensions.String())
	assert.Len(t, firstEmbedding.EmbeddingVector.SampleValues, sampleSize)
}

func TestGeneratorRejectsBlankQuery(t *testing.T) {
	gen := NewGenerator(bundled(t), false)
	_, err := gen.Run(context.Background(), " \t ", i18n.English)
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestGeneratorHonorsCancellation(t *testing.T) {
	gen := NewGenerator(bundled(t), true)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := gen.Run(ctx, "chocolate", i18n.English)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGenerateFallsBackWithoutHits(t *testing.T) {
	answer, generation := generate(prepareQuery("xyzzy"), nil, "", i18n.English)
	assert.Contains(t, answer.In(i18n.English), "No semantic matches")
	assert.Contains(t, answer.In(i18n.Finnish), "Ei semanttisia osumia")
	assert.Equal(t, "fallback_general", generation.PromptEngineering.ResponseStrategy.String())
	assert.Equal(t, "general_knowledge_template", generation.OutputAnalysis.GenerationMethod.String())
	retrieved, ok := generation.RAGEffectiveness.RetrievalSuccess.Bool()
	assert.True(t, ok)
	assert.False(t, retrieved)
}

func TestMockEmbeddingIsBounded(t *testing.T) {
	vec := mockEmbedding("gummy bears", []string{"gummy", "bears"})
	require.Len(t, vec, embeddingDims)
	for _, v := range vec {
		assert.LessOrEqual(t, v, 1.0)
		assert.GreaterOrEqual(t, v, -1.0)
	}
	assert.InDelta(t, 1.0, cosine(vec, vec), 1e-9)
	assert.Zero(t, cosine(vec, make([]float64, embeddingDims)))
}

func TestResponseCacheKeyIsNormalized(t *testing.T) {
	cache := newResponseCache(time.Minute)
	resp := &rag.QueryResponse{Query: "Sweet  Candy"}
	cache.Set(i18n.English, "Sweet  Candy", resp)

	got, ok := cache.Get(i18n.English, "  sweet candy ")
	require.True(t, ok)
	assert.Same(t, resp, got)

	_, ok = cache.Get(i18n.Finnish, "sweet candy")
	assert.False(t, ok)

	cache.Flush()
	assert.Zero(t, cache.Len())
}

func newTestServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv, err := NewServer(opts)
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServerInfoRoutes(t *testing.T) {
	ts := newTestServer(t, Options{})

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, serviceName, health["service"])

	root, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer root.Body.Close()
	assert.Equal(t, http.StatusOK, root.StatusCode)
}

func TestServerCandies(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/candies")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Candies []catalog.Candy `json:"candies"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Len(t, body.Candies, 5)
}

func TestServerEmptyCatalog(t *testing.T) {
	ts := newTestServer(t, Options{Candies: []catalog.Candy{}})
	resp, err := http.Get(ts.URL + "/candies")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.JSONEq(t, `[]`, string(body["candies"]))

	query := postJSON(t, ts.URL+"/query", `{"query":"anything sweet","language":"en"}`)
	assert.Equal(t, http.StatusOK, query.StatusCode)
}

func TestServerQueryReturnsValidResponse(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := postJSON(t, ts.URL+"/query", `{"query":"Mikä on makein karkki?","language":"fi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&raw))
	parsed, err := rag.ParseResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, i18n.Finnish, parsed.Language)
	assert.Len(t, parsed.Steps, 5)
	assert.NotEmpty(t, parsed.FinalAnswer.In(i18n.English))
}

func TestServerQueryDefaultsToEnglish(t *testing.T) {
	ts := newTestServer(t, Options{})
	resp := postJSON(t, ts.URL+"/query", `{"query":"gummy"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Language string `json:"language"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "en", body.Language)
}

func TestServerQueryRejectsBadBodies(t *testing.T) {
	ts := newTestServer(t, Options{})
	cases := map[string]string{
		"missing query": `{"language":"en"}`,
		"blank query":   `{"query":"   "}`,
		"bad language":  `{"query":"gummy","language":"sv"}`,
		"not json":      `query=gummy`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp := postJSON(t, ts.URL+"/query", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var detail map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&detail))
			assert.NotEmpty(t, detail["detail"])
		})
	}
}

func TestServerReset(t *testing.T) {
	ts := newTestServer(t, Options{})
	postJSON(t, ts.URL+"/query", `{"query":"gummy"}`)

	resp := postJSON(t, ts.URL+"/reset", ``)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, resetMessage, body["message"])
}

func TestServeStopsOnCancel(t *testing.T) {
	srv, err := NewServer(Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
