package rag

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csheth/candyrag/internal/i18n"
)

const fullResponse = `{
  "query": "What's the sweetest candy?",
  "language": "en",
  "total_time": 2.345,
  "final_answer": {"en": "Marshmallows!", "fi": "Vaahtokarkit!"},
  "steps": [
    {"step": "query_processing", "title": {"en": "Processing Your Query", "fi": "Kyselyn Käsittely"},
     "description": {"en": "tokenize", "fi": "tokenisoi"}, "processing_time": 0.5,
     "data": {"original_query": "What's the sweetest candy?",
              "tokenization": {"raw_tokens": ["what's","the","sweetest","candy?"], "filtered_tokens": ["what's","sweetest","candy?"],
                               "removed_stop_words": ["the"], "token_count": 3},
              "preprocessing_steps": ["1. Case normalization", "2. Whitespace trimming"], "language": "en"}},
    {"step": "query_embedding", "title": {"en": "Embedding"}, "processing_time": 0.3,
     "data": {"model_info": {"model": "all-MiniLM-L6-v2", "architecture": "BERT-based transformer", "dimensions": 384, "max_sequence_length": 256},
              "embedding_vector": {"magnitude": 5.123456, "sparsity": "2.1% near-zero", "sample_values": [0.12345, -0.5, 0.25]},
              "vector_properties": {"min_value": -0.99, "max_value": 0.98, "mean": 0.0012, "std_dev": 0.3},
              "semantic_encoding": "encodes sweetness"}},
    {"step": "vector_search", "title": {"en": "Search"}, "processing_time": 0.4,
     "data": {"search_algorithm": {"method": "Cosine Similarity", "database_size": 5},
              "similarity_distribution": {"highest_score": 0.95, "average_score": 0.5},
              "top_matches": [{"rank": 1, "candy_name": "Fluffy Cloud Marshmallows", "cosine_similarity": 0.95, "matched_tokens": ["sweetest"], "category": "Marshmallow"},
                              {"candy_name": "Chocolate Dreams", "similarity_score": 0.61}],
              "vector_space_analysis": "clusters"}},
    {"step": "context_preparation", "title": {"en": "Context"}, "processing_time": 0.2,
     "data": {"context_window": {"total_tokens": 42, "max_context_length": 2048, "utilization": "2.1%", "chunks_included": 3},
              "rag_strategy": {"retrieval_count": 5, "metadata_included": ["name", "category"]},
              "context_structure": [{"candy_name": "Fluffy Cloud Marshmallows", "similarity_rank": 1, "token_count": 14, "metadata": "Category: Marshmallow"}],
              "context_preview": "[CANDY: Fluffy Cloud Marshmallows]"}},
    {"step": "ai_generation", "title": {"en": "Answer"}, "processing_time": 0.6,
     "data": {"generation_model": {"approach": "Rule-based + Template Generation"},
              "output_analysis": {"character_count": 13, "word_count": 1, "sources_referenced": 5, "confidence_score": 0.975},
              "rag_effectiveness": {"retrieval_success": true}}}
  ]
}`

func TestParseResponseDecodesEveryPhase(t *testing.T) {
	resp, err := ParseResponse([]byte(fullResponse))
	require.NoError(t, err)
	require.Len(t, resp.Steps, 5)
	assert.Equal(t, i18n.English, resp.Language)
	assert.InDelta(t, 2.345, resp.TotalTime, 1e-9)
	assert.Equal(t, "Vaahtokarkit!", resp.FinalAnswer.In(i18n.Finnish))

	qp, ok := resp.Steps[0].Payload.(QueryProcessing)
	require.True(t, ok)
	assert.Equal(t, "What's the sweetest candy?", qp.OriginalQuery.String())
	require.NotNil(t, qp.Tokenization)
	assert.Equal(t, "3", qp.Tokenization.TokenCount.String())
	assert.Equal(t, "the", qp.Tokenization.RemovedStopWords.Join(", ", "none"))
	assert.Len(t, qp.PreprocessingSteps, 2)
	assert.InDelta(t, 0.5, resp.Steps[0].ProcessingTime, 1e-9)

	emb, ok := resp.Steps[1].Payload.(QueryEmbedding)
	require.True(t, ok)
	assert.Equal(t, "0.1235", emb.EmbeddingVector.SampleValues[0].Fixed(4))
	assert.Equal(t, "2.1% near-zero", emb.EmbeddingVector.Sparsity.String())
	assert.Equal(t, "384", emb.ModelInfo.Dimensions.String())

	search, ok := resp.Steps[2].Payload.(VectorSearch)
	require.True(t, ok)
	require.Len(t, search.TopMatches, 2)
	assert.Equal(t, "0.95", search.TopMatches[0].Score().String())
	assert.Equal(t, "0.61", search.TopMatches[1].Score().String())
	assert.False(t, search.SearchAlgorithm.Formula.IsSet())

	ctx, ok := resp.Steps[3].Payload.(ContextPreparation)
	require.True(t, ok)
	assert.Equal(t, "2.1%", ctx.ContextWindow.Utilization.String())
	assert.Equal(t, []string{"name", "category"}, ctx.RAGStrategy.MetadataIncluded.Strings())

	gen, ok := resp.Steps[4].Payload.(AIGeneration)
	require.True(t, ok)
	assert.Nil(t, gen.PromptEngineering)
	success, ok := gen.RAGEffectiveness.RetrievalSuccess.Bool()
	assert.True(t, ok)
	assert.True(t, success)
}

func TestDecodePayloadDropsMalformedSections(t *testing.T) {
	payload := DecodePayload("query_processing", json.RawMessage(`{
		"original_query": "hi",
		"tokenization": "not an object",
		"preprocessing_steps": {"also": "wrong"},
		"language": null
	}`))
	qp, ok := payload.(QueryProcessing)
	require.True(t, ok)
	assert.Equal(t, "hi", qp.OriginalQuery.String())
	assert.Nil(t, qp.Tokenization)
	assert.Empty(t, qp.PreprocessingSteps)
	assert.False(t, qp.Language.IsSet())
}

func TestDecodePayloadHandlesMissingOrNonObjectData(t *testing.T) {
	for _, raw := range []string{``, `null`, `[]`, `"text"`, `{}`} {
		payload := DecodePayload("vector_search", json.RawMessage(raw))
		search, ok := payload.(VectorSearch)
		require.True(t, ok, "data %q", raw)
		assert.Nil(t, search.SearchAlgorithm)
		assert.Empty(t, search.TopMatches)
	}
}

func TestDecodePayloadUnknownTag(t *testing.T) {
	payload := DecodePayload("teleportation", json.RawMessage(`{"x":1}`))
	unknown, ok := payload.(UnknownPayload)
	require.True(t, ok)
	assert.Equal(t, StepKind("teleportation"), unknown.Kind())
}

func TestStepWithoutTagIsUnknown(t *testing.T) {
	var step Step
	require.NoError(t, json.Unmarshal([]byte(`{"title": "flat string"}`), &step))
	_, ok := step.Payload.(UnknownPayload)
	assert.True(t, ok)
	assert.Empty(t, step.Title)
}

func TestParseResponseRejectsSchemaViolations(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{name: "no steps", body: `{"steps": [], "final_answer": {"en": "a", "fi": "b"}}`, want: "steps must not be empty"},
		{name: "missing steps", body: `{"final_answer": {"en": "a", "fi": "b"}}`, want: "steps must not be empty"},
		{name: "missing finnish", body: `{"steps": [{"step": "query_processing"}], "final_answer": {"en": "a"}}`, want: "final_answer"},
		{name: "negative time", body: `{"steps": [{"step": "x"}], "final_answer": {"en": "a", "fi": "b"}, "total_time": -1}`, want: "total_time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseResponse([]byte(tc.body))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidResponse))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestParseResponseRejectsMalformedJSON(t *testing.T) {
	_, err := ParseResponse([]byte(`{"steps": "nope"}`))
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidResponse))
}

func TestStepRoundTripKeepsPayload(t *testing.T) {
	step := NewStep(ContextPreparation{
		ContextWindow:  &ContextWindow{TotalTokens: Int(12), Utilization: Text("0.6%")},
		ContextPreview: Text("[CANDY: X]"),
	}, Localized{i18n.English: "Context"}, nil, 0.2)

	raw, err := json.Marshal(step)
	require.NoError(t, err)

	var decoded Step
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "context_preparation", decoded.Tag)
	ctx, ok := decoded.Payload.(ContextPreparation)
	require.True(t, ok)
	assert.Equal(t, "12", ctx.ContextWindow.TotalTokens.String())
	assert.Equal(t, "[CANDY: X]", ctx.ContextPreview.String())
	assert.Nil(t, ctx.RAGStrategy)
}

func TestValueReadings(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`"0.25"`), &v))
	f, ok := v.Float()
	assert.True(t, ok)
	assert.InDelta(t, 0.25, f, 1e-9)
	assert.Equal(t, "0.250", v.Fixed(3))

	require.NoError(t, json.Unmarshal([]byte(`{"a": 1}`), &v))
	assert.Equal(t, `{"a":1}`, v.String())

	assert.Equal(t, "N/A", Value{}.Fixed(2))
	assert.Equal(t, "fallback", Text("  ").Or("fallback"))

	var list Values
	require.NoError(t, json.Unmarshal([]byte(`42`), &list))
	assert.Empty(t, list)
}

func TestLocalizedFallsBackToEnglish(t *testing.T) {
	l := Localized{i18n.English: "hello"}
	assert.Equal(t, "hello", l.In(i18n.Finnish))
	assert.True(t, l.Has(i18n.English))
	assert.False(t, l.Has(i18n.Finnish))
}
