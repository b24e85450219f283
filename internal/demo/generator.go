package demo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/csheth/candyrag/internal/catalog"
	"github.com/csheth/candyrag/internal/demo/chunker"
	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/rag"
)

// ErrEmptyQuery is returned for queries with no visible characters.
var ErrEmptyQuery = errors.New("query is empty")

const (
	maxMatches         = 5
	inclusionThreshold = 0.1
	strongThreshold    = 0.3
	scoreCap           = 0.95
	contextPreviewLen  = 200
)

var stopWords = map[string]bool{
	"the": true, "is": true, "at": true, "which": true, "on": true, "a": true,
	"an": true, "and": true, "or": true, "but": true, "in": true, "with": true,
	"to": true, "for": true, "of": true, "as": true, "by": true,
}

var preprocessingSteps = []string{
	"1. Case normalization (toLowerCase())",
	"2. Whitespace trimming",
	"3. Tokenization by whitespace",
	"4. Stop-word filtering",
	"5. Prepared for embedding",
}

var phaseDelays = map[rag.StepKind]time.Duration{
	rag.KindQueryProcessing:    500 * time.Millisecond,
	rag.KindQueryEmbedding:     300 * time.Millisecond,
	rag.KindVectorSearch:       400 * time.Millisecond,
	rag.KindContextPreparation: 200 * time.Millisecond,
	rag.KindAIGeneration:       600 * time.Millisecond,
}

var stepTitles = map[rag.StepKind]rag.Localized{
	rag.KindQueryProcessing:    {i18n.English: "Processing Your Query", i18n.Finnish: "Kyselyn Käsittely"},
	rag.KindQueryEmbedding:     {i18n.English: "Converting Query to Vector", i18n.Finnish: "Kyselyn Vektorointi"},
	rag.KindVectorSearch:       {i18n.English: "Searching Candy Database", i18n.Finnish: "Karkkitietokannan Haku"},
	rag.KindContextPreparation: {i18n.English: "Preparing Context", i18n.Finnish: "Kontekstin Valmistelu"},
	rag.KindAIGeneration:       {i18n.English: "Generating AI Response", i18n.Finnish: "AI-vastauksen Generointi"},
}

// Generator fabricates the five diagnostic steps for a query against a fixed
// catalog. Output is deterministic for a given query and language.
type Generator struct {
	candies []catalog.Candy
	builder *chunker.Builder
	latency bool
}

// NewGenerator builds a generator. With simulateLatency each phase pauses for
// a fixed delay before it completes.
func NewGenerator(candies []catalog.Candy, simulateLatency bool) *Generator {
	return &Generator{
		candies: candies,
		builder: chunker.NewBuilder(chunker.DefaultMaxTokens, chunker.DefaultDescriptionChars, chunker.DefaultMaxChunks),
		latency: simulateLatency,
	}
}

type searchHit struct {
	candy   catalog.Candy
	cosine  float64
	boost   float64
	score   float64
	matched []string
}

type preparedQuery struct {
	original   string
	normalized string
	raw        []string
	filtered   []string
	removed    []string
}

// Run executes the pipeline and returns a response that passes
// rag.QueryResponse.Validate.
func (g *Generator) Run(ctx context.Context, query string, lang i18n.Language) (*rag.QueryResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if !lang.Valid() {
		lang = i18n.Default
	}
	started := time.Now()
	steps := make([]rag.Step, 0, len(rag.Kinds))
	record := func(kind rag.StepKind, phaseStart time.Time, payload rag.Payload, desc rag.Localized) error {
		if err := g.pause(ctx, kind); err != nil {
			return err
		}
		steps = append(steps, rag.NewStep(payload, stepTitles[kind], desc, time.Since(phaseStart).Seconds()))
		return nil
	}

	phaseStart := time.Now()
	prepared := prepareQuery(query)
	if err := record(rag.KindQueryProcessing, phaseStart, queryProcessingPayload(prepared, lang), queryProcessingDescription()); err != nil {
		return nil, err
	}

	phaseStart = time.Now()
	queryVec := mockEmbedding(prepared.normalized, prepared.filtered)
	embedding, norm := queryEmbeddingPayload(queryVec, prepared.filtered)
	if err := record(rag.KindQueryEmbedding, phaseStart, embedding, queryEmbeddingDescription(norm)); err != nil {
		return nil, err
	}

	phaseStart = time.Now()
	hits := g.search(queryVec, lang, prepared.filtered)
	search, avg := g.vectorSearchPayload(hits, lang, prepared.filtered)
	if err := record(rag.KindVectorSearch, phaseStart, search, vectorSearchDescription(len(g.candies), avg)); err != nil {
		return nil, err
	}

	phaseStart = time.Now()
	pkg := g.builder.Build(chunkSources(hits))
	if err := record(rag.KindContextPreparation, phaseStart, contextPayload(pkg, len(hits)), contextDescription(pkg)); err != nil {
		return nil, err
	}

	phaseStart = time.Now()
	answer, generation := generate(prepared, hits, pkg.Context, lang)
	if err := record(rag.KindAIGeneration, phaseStart, generation, generationDescription(len(hits), answer.In(lang))); err != nil {
		return nil, err
	}

	resp := &rag.QueryResponse{
		Query:       query,
		Language:    lang,
		Steps:       steps,
		FinalAnswer: answer,
		TotalTime:   round(time.Since(started).Seconds(), 3),
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("generated response: %w", err)
	}
	return resp, nil
}

func (g *Generator) pause(ctx context.Context, kind rag.StepKind) error {
	if !g.latency {
		return ctx.Err()
	}
	timer := time.NewTimer(phaseDelays[kind])
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func prepareQuery(query string) preparedQuery {
	normalized := strings.ToLower(strings.TrimSpace(query))
	out := preparedQuery{original: query, normalized: normalized}
	for _, field := range strings.Fields(normalized) {
		token := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if token == "" {
			continue
		}
		out.raw = append(out.raw, token)
		if stopWords[token] {
			out.removed = append(out.removed, token)
			continue
		}
		out.filtered = append(out.filtered, token)
	}
	return out
}

func queryProcessingPayload(q preparedQuery, lang i18n.Language) rag.QueryProcessing {
	return rag.QueryProcessing{
		OriginalQuery:  rag.Text(q.original),
		ProcessedQuery: rag.Text(q.normalized),
		Tokenization: &rag.Tokenization{
			RawTokens:        rag.Texts(q.raw...),
			FilteredTokens:   rag.Texts(q.filtered...),
			RemovedStopWords: rag.Texts(q.removed...),
			TokenCount:       rag.Int(len(q.filtered)),
		},
		PreprocessingSteps: rag.Texts(preprocessingSteps...),
		Language:           rag.Text(string(lang)),
	}
}

func queryEmbeddingPayload(vec []float64, tokens []string) (rag.QueryEmbedding, float64) {
	norm := magnitude(vec)
	stats := describeVector(vec)
	samples := make(rag.Values, 0, sampleSize)
	for _, v := range vec[:min(sampleSize, len(vec))] {
		samples = append(samples, rag.Number(v))
	}
	return rag.QueryEmbedding{
		ModelInfo: &rag.ModelInfo{
			Model:             rag.Text(embeddingModel),
			Architecture:      rag.Text(embeddingArch),
			Dimensions:        rag.Int(embeddingDims),
			MaxSequenceLength: rag.Int(maxSequenceLength),
		},
		EmbeddingVector: &rag.EmbeddingVector{
			FullDimensions: rag.Int(len(vec)),
			Magnitude:      rag.Number(round(norm, 6)),
			Sparsity:       rag.Text(fmt.Sprintf("%.1f%% near-zero", stats.nearZeroPct)),
			SampleValues:   samples,
		},
		VectorProperties: &rag.VectorProperties{
			MinValue: rag.Number(stats.min),
			MaxValue: rag.Number(stats.max),
			Mean:     rag.Number(stats.mean),
			StdDev:   rag.Number(stats.stdDev),
		},
		SemanticEncoding: rag.Text(fmt.Sprintf(
			"Vector encodes semantic meaning of '%s' in high-dimensional space for cosine similarity comparison",
			strings.Join(tokens, " "))),
	}, norm
}

func (g *Generator) search(queryVec []float64, lang i18n.Language, tokens []string) []searchHit {
	sweet := anyPrefix(tokens, "sweet", "makea", "makei")
	sour := anyPrefix(tokens, "sour", "hapan", "happa")
	chocolate := anyPrefix(tokens, "chocolate", "suklaa")

	var hits []searchHit
	for _, candy := range g.candies {
		text := strings.ToLower(candy.LocalName(lang) + " " + candy.LocalDescription(lang))
		hit := searchHit{candy: candy}
		hit.cosine = cosine(queryVec, mockEmbedding(text, strings.Fields(text)))
		for _, token := range tokens {
			if strings.Contains(text, token) {
				hit.boost += 0.1
				hit.matched = append(hit.matched, token)
			}
		}
		if sweet {
			hit.boost += float64(candy.Sweetness) / 100
		}
		if sour {
			hit.boost += float64(10-candy.Sweetness) / 100
		}
		if chocolate && isChocolate(candy) {
			hit.boost += 0.2
		}
		hit.score = math.Min(scoreCap, hit.cosine+hit.boost)
		if hit.score > inclusionThreshold {
			hits = append(hits, hit)
		}
	}
	slices.SortStableFunc(hits, func(a, b searchHit) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})
	if len(hits) > maxMatches {
		hits = hits[:maxMatches]
	}
	return hits
}

func isChocolate(c catalog.Candy) bool {
	return strings.Contains(strings.ToLower(c.Category), "chocolate") ||
		strings.Contains(strings.ToLower(c.CategoryFi), "suklaa")
}

func anyPrefix(tokens []string, prefixes ...string) bool {
	for _, token := range tokens {
		for _, prefix := range prefixes {
			if strings.HasPrefix(token, prefix) {
				return true
			}
		}
	}
	return false
}

func (g *Generator) vectorSearchPayload(hits []searchHit, lang i18n.Language, tokens []string) (rag.VectorSearch, float64) {
	var highest, lowest, sum float64
	strong := 0
	matches := make([]rag.Match, 0, len(hits))
	for i, hit := range hits {
		if i == 0 || hit.score > highest {
			highest = hit.score
		}
		if i == 0 || hit.score < lowest {
			lowest = hit.score
		}
		sum += hit.score
		if hit.score > strongThreshold {
			strong++
		}
		matches = append(matches, rag.Match{
			Rank:             rag.Int(i + 1),
			CandyName:        rag.Text(hit.candy.LocalName(lang)),
			CosineSimilarity: rag.Number(round(hit.score, 6)),
			SimilarityExplanation: rag.Text(fmt.Sprintf("Cosine: %.3f + Keyword boost: %.3f = %.3f",
				hit.cosine, hit.boost, hit.score)),
			MatchedTokens: rag.Texts(hit.matched...),
			Category:      rag.Text(hit.candy.LocalCategory(lang)),
		})
	}
	var avg float64
	if len(hits) > 0 {
		avg = sum / float64(len(hits))
	}
	return rag.VectorSearch{
		SearchAlgorithm: &rag.SearchAlgorithm{
			Method:       rag.Text("Cosine Similarity"),
			Formula:      rag.Text("cos(θ) = (A·B) / (||A|| × ||B||)"),
			DatabaseSize: rag.Int(len(g.candies)),
			SearchSpace:  rag.Text(fmt.Sprintf("%d-dimensional semantic vector space", embeddingDims)),
		},
		SimilarityDistribution: &rag.SimilarityDistribution{
			HighestScore:          rag.Number(highest),
			LowestScore:           rag.Number(lowest),
			AverageScore:          rag.Number(round(avg, 4)),
			ResultsAboveThreshold: rag.Int(strong),
		},
		TopMatches: matches,
		VectorSpaceAnalysis: rag.Text(fmt.Sprintf(
			"Query tokens '%s' mapped to semantic clusters in embedding space", strings.Join(tokens, " "))),
	}, avg
}

func chunkSources(hits []searchHit) []chunker.Source {
	sources := make([]chunker.Source, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, chunker.Source{
			Name:        hit.candy.Name,
			Category:    hit.candy.Category,
			Sweetness:   hit.candy.Sweetness,
			Description: hit.candy.Description,
		})
	}
	return sources
}

func contextPayload(pkg chunker.Package, retrieved int) rag.ContextPreparation {
	structure := make([]rag.ContextChunk, 0, len(pkg.Chunks))
	for _, chunk := range pkg.Chunks {
		structure = append(structure, rag.ContextChunk{
			ChunkID:        rag.Text(chunk.ID[:12]),
			CandyName:      rag.Text(chunk.Name),
			SimilarityRank: rag.Int(chunk.Rank),
			TokenCount:     rag.Int(chunk.Tokens),
			Metadata:       rag.Text(chunk.Metadata),
		})
	}
	return rag.ContextPreparation{
		ContextWindow: &rag.ContextWindow{
			TotalTokens:      rag.Int(pkg.TotalTokens),
			MaxContextLength: rag.Int(pkg.MaxTokens),
			Utilization:      rag.Text(pkg.Utilization()),
			ChunksIncluded:   rag.Int(len(pkg.Chunks)),
		},
		RAGStrategy: &rag.RAGStrategy{
			RetrievalCount:   rag.Int(retrieved),
			ContextSelection: rag.Text("Top-k similarity ranking"),
			ChunkSize:        rag.Text(fmt.Sprintf("~%d chars per description", chunker.DefaultDescriptionChars)),
			MetadataIncluded: rag.Texts("name", "category", "sweetness", "description"),
		},
		ContextStructure: structure,
		ContextPreview:   rag.Text(chunker.Preview(pkg.Context, contextPreviewLen)),
	}
}

func generate(q preparedQuery, hits []searchHit, contextText string, lang i18n.Language) (rag.Localized, rag.AIGeneration) {
	strategy := "retrieval_augmented"
	method := "template_based_generation"
	confidence := 0.6
	matchedConcepts := 0
	var answer rag.Localized

	if len(hits) == 0 {
		strategy = "fallback_general"
		method = "general_knowledge_template"
		answer = fallbackAnswer(q.filtered)
	} else {
		lowered := strings.ToLower(contextText)
		for _, token := range q.filtered {
			if strings.Contains(lowered, token) {
				matchedConcepts++
			}
		}
		confidence = math.Min(scoreCap, 0.5+hits[0].score*0.5)
		answer = groundedAnswer(q, hits[0])
	}

	text := answer.In(lang)
	return answer, rag.AIGeneration{
		GenerationModel: &rag.GenerationModel{
			Approach:         rag.Text("Rule-based + Template Generation"),
			ContextInjection: rag.Text("Retrieved documents as structured input"),
			FallbackStrategy: rag.Text("Template-based responses when no matches"),
			ResponseFormat:   rag.Text("Natural language with candy recommendations"),
		},
		PromptEngineering: &rag.PromptEngineering{
			SystemPrompt:        rag.Text("Candy store AI assistant with expertise in confectionery"),
			ContextTemplate:     rag.Text(chunker.Template),
			UserQueryProcessing: rag.Text(fmt.Sprintf("Original: '%s' → Processed: '%s'", q.original, strings.Join(q.filtered, " "))),
			ResponseStrategy:    rag.Text(strategy),
		},
		OutputAnalysis: &rag.OutputAnalysis{
			CharacterCount:    rag.Int(len([]rune(text))),
			WordCount:         rag.Int(len(strings.Fields(text))),
			SourcesReferenced: rag.Int(len(hits)),
			ConfidenceScore:   rag.Number(round(confidence, 4)),
			GenerationMethod:  rag.Text(method),
		},
		RAGEffectiveness: &rag.RAGEffectiveness{
			RetrievalSuccess:   rag.Bool(len(hits) > 0),
			ContextUtilization: rag.Text(fmt.Sprintf("%d chars of context used", len([]rune(contextText)))),
			SemanticMatching:   rag.Text(fmt.Sprintf("Query matched %d candy concepts", matchedConcepts)),
			ResponseGrounding:  rag.Text("Generated response grounded in retrieved candy data"),
		},
	}
}

func groundedAnswer(q preparedQuery, top searchHit) rag.Localized {
	c := top.candy
	analysis := fmt.Sprintf("Vector similarity: %.3f, Matched tokens: %s", top.score, tokenList(top.matched))
	tokens := tokenList(q.filtered)
	return rag.Localized{
		i18n.English: fmt.Sprintf("🎯 RAG RESULT: Query '%s' → Top match: '%s' (similarity: %.3f). TECHNICAL ANALYSIS: %s. "+
			"RECOMMENDATION: %s This candy scores %d/10 on sweetness and costs $%.2f. The retrieval system identified "+
			"semantic alignment between your query tokens %s and this %s category item through embedding space proximity.",
			q.original, c.LocalName(i18n.English), top.score, analysis, c.LocalDescription(i18n.English),
			c.Sweetness, c.Price, tokens, c.LocalCategory(i18n.English)),
		i18n.Finnish: fmt.Sprintf("🎯 RAG TULOS: Kysely '%s' → Paras osuma: '%s' (samankaltaisuus: %.3f). TEKNINEN ANALYYSI: %s. "+
			"SUOSITUS: %s Tämä karkki saa %d/10 makeus-pistettä ja maksaa $%.2f. Hakujärjestelmä tunnisti semanttisen "+
			"yhteyden kyselytokeniesi %s ja tämän %s -kategorian tuotteen välillä upotusavaruuden läheisyyden kautta.",
			q.original, c.LocalName(i18n.Finnish), top.score, analysis, c.LocalDescription(i18n.Finnish),
			c.Sweetness, c.Price, tokens, c.LocalCategory(i18n.Finnish)),
	}
}

func fallbackAnswer(tokens []string) rag.Localized {
	list := tokenList(tokens)
	return rag.Localized{
		i18n.English: fmt.Sprintf("🔍 RAG ANALYSIS: No semantic matches found for query tokens %s. Falling back to general candy knowledge. "+
			"In a production system, this might trigger query expansion or alternative retrieval strategies. Our collection "+
			"includes diverse confectionery across categories: gummy, chocolate, sour, marshmallow, and hard candy varieties.", list),
		i18n.Finnish: fmt.Sprintf("🔍 RAG ANALYYSI: Ei semanttisia osumia kyselytokeneille %s. Palataan yleiseen karkkitietoon. "+
			"Tuotantojärjestelmässä tämä voisi laukaista kyselyn laajennuksen tai vaihtoehtoisia hakustrategioita. Kokoelmamme "+
			"sisältää monipuolisia makeisia eri kategorioissa: kumi-, suklaa-, happamat, vaahto- ja kovat karkit.", list),
	}
}

func tokenList(tokens []string) string {
	quoted := make([]string, 0, len(tokens))
	for _, token := range tokens {
		quoted = append(quoted, "'"+token+"'")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func queryProcessingDescription() rag.Localized {
	return rag.Localized{
		i18n.English: "🔍 TECHNICAL: Text preprocessing pipeline transforms raw user input into machine-readable format. " +
			"This includes normalization, tokenization, and stop-word removal, which semantic similarity matching depends on.",
		i18n.Finnish: "🔍 TEKNINEN: Tekstin esikäsittelypipeline muuntaa raaka käyttäjäsyötteen koneluettavaan muotoon. " +
			"Sisältää normalisointia, tokenisointia ja stop-sanojen poistoa, joihin semanttinen samankaltaisuus perustuu.",
	}
}

func queryEmbeddingDescription(norm float64) rag.Localized {
	return rag.Localized{
		i18n.English: fmt.Sprintf("🧠 TECHNICAL: Sentence transformer converts text to dense vector representation in %d-dimensional "+
			"semantic space. Each dimension captures different linguistic/semantic features. L2 norm: %.3f", embeddingDims, norm),
		i18n.Finnish: fmt.Sprintf("🧠 TEKNINEN: Lause-transformaattori muuntaa tekstin tiheäksi vektorirepresentaatioksi %d-ulotteisessa "+
			"semanttisessa avaruudessa. Jokainen ulottuvuus kaappaa erilaisia kielellisiä/semanttisia piirteitä. L2-normi: %.3f", embeddingDims, norm),
	}
}

func vectorSearchDescription(size int, avg float64) rag.Localized {
	return rag.Localized{
		i18n.English: fmt.Sprintf("🔍 TECHNICAL: Cosine similarity search across %d embedded documents. Query vector compared against "+
			"pre-computed candy embeddings using dot product / (||a|| × ||b||). Avg similarity: %.3f", size, avg),
		i18n.Finnish: fmt.Sprintf("🔍 TEKNINEN: Kosini-samankaltaisuushaku %d upotetun dokumentin läpi. Kyselyvektoria verrataan "+
			"ennalta laskettuihin karkkiupotuksiin käyttäen pistetuloa / (||a|| × ||b||). Keskim. samankaltaisuus: %.3f", size, avg),
	}
}

func contextDescription(pkg chunker.Package) rag.Localized {
	return rag.Localized{
		i18n.English: fmt.Sprintf("📝 TECHNICAL: Context window assembly for LLM. Retrieved docs ranked by similarity, chunked and "+
			"formatted with metadata. Token budget: %d/%d tokens used.", pkg.TotalTokens, pkg.MaxTokens),
		i18n.Finnish: fmt.Sprintf("📝 TEKNINEN: Konteksti-ikkunan kokoaminen LLM:lle. Haetut dokumentit järjestetty samankaltaisuuden "+
			"mukaan, pilkottu ja formatoitu metadatalla. Token-budjetti: %d/%d tokenia käytetty.", pkg.TotalTokens, pkg.MaxTokens),
	}
}

func generationDescription(sources int, answer string) rag.Localized {
	length := len([]rune(answer))
	return rag.Localized{
		i18n.English: fmt.Sprintf("🤖 TECHNICAL: LLM prompt engineering with RAG context injection. Template-based generation with "+
			"%d retrieved sources. Response length: %d chars.", sources, length),
		i18n.Finnish: fmt.Sprintf("🤖 TEKNINEN: LLM-kehotteen suunnittelu RAG-kontekstin injektoinnilla. Mallipohjainen generointi "+
			"%d haetulla lähteellä. Vastauksen pituus: %d merkkiä.", sources, length),
	}
}
