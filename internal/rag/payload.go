package rag

import "encoding/json"

// StepKind is the wire tag naming a pipeline phase.
type StepKind string

const (
	KindQueryProcessing    StepKind = "query_processing"
	KindQueryEmbedding     StepKind = "query_embedding"
	KindVectorSearch       StepKind = "vector_search"
	KindContextPreparation StepKind = "context_preparation"
	KindAIGeneration       StepKind = "ai_generation"
)

// Kinds lists the recognised phases in pipeline order.
var Kinds = []StepKind{
	KindQueryProcessing,
	KindQueryEmbedding,
	KindVectorSearch,
	KindContextPreparation,
	KindAIGeneration,
}

// Payload is the phase-specific data of a step. The set of implementations is
// closed: the five phase payloads plus UnknownPayload.
type Payload interface {
	Kind() StepKind
	isPayload()
}

// QueryProcessing is the data of the query_processing phase.
type QueryProcessing struct {
	OriginalQuery      Value         `json:"original_query"`
	ProcessedQuery     Value         `json:"processed_query"`
	Tokenization       *Tokenization `json:"tokenization,omitempty"`
	PreprocessingSteps Values        `json:"preprocessing_steps,omitempty"`
	Language           Value         `json:"language"`
}

type Tokenization struct {
	RawTokens        Values `json:"raw_tokens"`
	FilteredTokens   Values `json:"filtered_tokens"`
	RemovedStopWords Values `json:"removed_stop_words"`
	TokenCount       Value  `json:"token_count"`
}

// QueryEmbedding is the data of the query_embedding phase.
type QueryEmbedding struct {
	ModelInfo        *ModelInfo        `json:"model_info,omitempty"`
	EmbeddingVector  *EmbeddingVector  `json:"embedding_vector,omitempty"`
	VectorProperties *VectorProperties `json:"vector_properties,omitempty"`
	SemanticEncoding Value             `json:"semantic_encoding"`
}

type ModelInfo struct {
	Model             Value `json:"model"`
	Architecture      Value `json:"architecture"`
	Dimensions        Value `json:"dimensions"`
	MaxSequenceLength Value `json:"max_sequence_length"`
}

type EmbeddingVector struct {
	FullDimensions Value  `json:"full_dimensions"`
	Magnitude      Value  `json:"magnitude"`
	Sparsity       Value  `json:"sparsity"`
	SampleValues   Values `json:"sample_values"`
}

type VectorProperties struct {
	MinValue Value `json:"min_value"`
	MaxValue Value `json:"max_value"`
	Mean     Value `json:"mean"`
	StdDev   Value `json:"std_dev"`
}

// VectorSearch is the data of the vector_search phase.
type VectorSearch struct {
	SearchAlgorithm        *SearchAlgorithm        `json:"search_algorithm,omitempty"`
	SimilarityDistribution *SimilarityDistribution `json:"similarity_distribution,omitempty"`
	TopMatches             []Match                 `json:"top_matches,omitempty"`
	VectorSpaceAnalysis    Value                   `json:"vector_space_analysis"`
}

type SearchAlgorithm struct {
	Method       Value `json:"method"`
	Formula      Value `json:"formula"`
	DatabaseSize Value `json:"database_size"`
	SearchSpace  Value `json:"search_space"`
}

type SimilarityDistribution struct {
	HighestScore          Value `json:"highest_score"`
	LowestScore           Value `json:"lowest_score"`
	AverageScore          Value `json:"average_score"`
	ResultsAboveThreshold Value `json:"results_above_threshold"`
}

// Match is one ranked search hit.
type Match struct {
	Rank                  Value  `json:"rank"`
	CandyName             Value  `json:"candy_name"`
	CosineSimilarity      Value  `json:"cosine_similarity"`
	SimilarityScore       Value  `json:"similarity_score"`
	SimilarityExplanation Value  `json:"similarity_explanation"`
	MatchedTokens         Values `json:"matched_tokens"`
	Category              Value  `json:"category"`
}

// Score prefers cosine_similarity and falls back to similarity_score.
func (m Match) Score() Value {
	if m.CosineSimilarity.IsSet() {
		return m.CosineSimilarity
	}
	return m.SimilarityScore
}

// ContextPreparation is the data of the context_preparation phase.
type ContextPreparation struct {
	ContextWindow    *ContextWindow `json:"context_window,omitempty"`
	RAGStrategy      *RAGStrategy   `json:"rag_strategy,omitempty"`
	ContextStructure []ContextChunk `json:"context_structure,omitempty"`
	ContextPreview   Value          `json:"context_preview"`
}

type ContextWindow struct {
	TotalTokens      Value `json:"total_tokens"`
	MaxContextLength Value `json:"max_context_length"`
	Utilization      Value `json:"utilization"`
	ChunksIncluded   Value `json:"chunks_included"`
}

type RAGStrategy struct {
	RetrievalCount   Value  `json:"retrieval_count"`
	ContextSelection Value  `json:"context_selection"`
	ChunkSize        Value  `json:"chunk_size"`
	MetadataIncluded Values `json:"metadata_included"`
}

type ContextChunk struct {
	ChunkID        Value `json:"chunk_id"`
	CandyName      Value `json:"candy_name"`
	SimilarityRank Value `json:"similarity_rank"`
	TokenCount     Value `json:"token_count"`
	Metadata       Value `json:"metadata"`
}

// AIGeneration is the data of the ai_generation phase.
type AIGeneration struct {
	GenerationModel   *GenerationModel   `json:"generation_model,omitempty"`
	PromptEngineering *PromptEngineering `json:"prompt_engineering,omitempty"`
	OutputAnalysis    *OutputAnalysis    `json:"output_analysis,omitempty"`
	RAGEffectiveness  *RAGEffectiveness  `json:"rag_effectiveness,omitempty"`
}

type GenerationModel struct {
	Approach         Value `json:"approach"`
	ContextInjection Value `json:"context_injection"`
	FallbackStrategy Value `json:"fallback_strategy"`
	ResponseFormat   Value `json:"response_format"`
}

type PromptEngineering struct {
	SystemPrompt        Value `json:"system_prompt"`
	ContextTemplate     Value `json:"context_template"`
	UserQueryProcessing Value `json:"user_query_processing"`
	ResponseStrategy    Value `json:"response_strategy"`
}

type OutputAnalysis struct {
	CharacterCount    Value `json:"character_count"`
	WordCount         Value `json:"word_count"`
	SourcesReferenced Value `json:"sources_referenced"`
	ConfidenceScore   Value `json:"confidence_score"`
	GenerationMethod  Value `json:"generation_method"`
}

type RAGEffectiveness struct {
	RetrievalSuccess   Value `json:"retrieval_success"`
	ContextUtilization Value `json:"context_utilization"`
	SemanticMatching   Value `json:"semantic_matching"`
	ResponseGrounding  Value `json:"response_grounding"`
}

// UnknownPayload carries the data of a step whose tag is not recognised.
type UnknownPayload struct {
	Tag string
	Raw json.RawMessage
}

func (QueryProcessing) Kind() StepKind    { return KindQueryProcessing }
func (QueryEmbedding) Kind() StepKind     { return KindQueryEmbedding }
func (VectorSearch) Kind() StepKind       { return KindVectorSearch }
func (ContextPreparation) Kind() StepKind { return KindContextPreparation }
func (AIGeneration) Kind() StepKind       { return KindAIGeneration }
func (p UnknownPayload) Kind() StepKind   { return StepKind(p.Tag) }

func (QueryProcessing) isPayload()    {}
func (QueryEmbedding) isPayload()     {}
func (VectorSearch) isPayload()       {}
func (ContextPreparation) isPayload() {}
func (AIGeneration) isPayload()       {}
func (UnknownPayload) isPayload()     {}

func (p *QueryProcessing) UnmarshalJSON(data []byte) error {
	type plain QueryProcessing
	decodeLenient(data, (*plain)(p))
	return nil
}

func (p *QueryEmbedding) UnmarshalJSON(data []byte) error {
	type plain QueryEmbedding
	decodeLenient(data, (*plain)(p))
	return nil
}

func (p *VectorSearch) UnmarshalJSON(data []byte) error {
	type plain VectorSearch
	decodeLenient(data, (*plain)(p))
	return nil
}

func (p *ContextPreparation) UnmarshalJSON(data []byte) error {
	type plain ContextPreparation
	decodeLenient(data, (*plain)(p))
	return nil
}

func (p *AIGeneration) UnmarshalJSON(data []byte) error {
	type plain AIGeneration
	decodeLenient(data, (*plain)(p))
	return nil
}

// DecodePayload turns raw step data into the payload for tag. It never fails:
// unknown tags yield UnknownPayload and malformed sections are left out.
func DecodePayload(tag string, data json.RawMessage) Payload {
	switch StepKind(tag) {
	case KindQueryProcessing:
		var p QueryProcessing
		_ = p.UnmarshalJSON(data)
		return p
	case KindQueryEmbedding:
		var p QueryEmbedding
		_ = p.UnmarshalJSON(data)
		return p
	case KindVectorSearch:
		var p VectorSearch
		_ = p.UnmarshalJSON(data)
		return p
	case KindContextPreparation:
		var p ContextPreparation
		_ = p.UnmarshalJSON(data)
		return p
	case KindAIGeneration:
		var p AIGeneration
		_ = p.UnmarshalJSON(data)
		return p
	default:
		return UnknownPayload{Tag: tag, Raw: data}
	}
}
