package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/csheth/candyrag/internal/i18n"
	"github.com/csheth/candyrag/internal/rag"
)

const notAvailable = "N/A"

// stepFormatter decorates step details. The plain formatter leaves text
// untouched so the same layout serves the transcript.
type stepFormatter struct {
	heading func(string) string
	label   func(string) string
	note    func(string) string
	score   func(score float64, text string) string
	pending string
	wrap    int
}

func identity(s string) string { return s }

// plainFormatter renders without styling. pending is shown for steps whose
// kind is not recognised.
func plainFormatter(wrap int, pending string) stepFormatter {
	return stepFormatter{
		heading: identity,
		label:   identity,
		note:    identity,
		score:   func(_ float64, text string) string { return text },
		pending: pending,
		wrap:    wrap,
	}
}

func (t theme) formatter(wrap int, pending string) stepFormatter {
	note := lipgloss.NewStyle().Italic(true).Inherit(t.helper)
	return stepFormatter{
		heading: func(s string) string { return t.sectionHeader.Render(s) },
		label:   func(s string) string { return t.label.Render(s) },
		note:    func(s string) string { return note.Render(s) },
		score: func(score float64, text string) string {
			return lipgloss.NewStyle().Bold(true).Foreground(similarityColor(score)).Render(text)
		},
		pending: pending,
		wrap:    wrap,
	}
}

func (f stepFormatter) row(name, value string) string {
	return f.label(name+":") + " " + value
}

func (f stepFormatter) text(s string) string {
	if f.wrap <= 0 {
		return s
	}
	return wordwrap.String(s, f.wrap)
}

// section renders a heading followed by its rows; it is empty without rows.
func (f stepFormatter) section(title string, rows ...string) string {
	kept := make([]string, 0, len(rows))
	for _, r := range rows {
		if strings.TrimSpace(r) != "" {
			kept = append(kept, r)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	if title == "" {
		return strings.Join(kept, "\n")
	}
	return f.heading(title) + "\n" + indentMultiline(strings.Join(kept, "\n"), 2)
}

func bracketed(vs rag.Values, fallback string) string {
	return "[" + vs.Join(", ", fallback) + "]"
}

func percent(v rag.Value) (float64, string) {
	score, ok := v.Float()
	if !ok {
		return 0, notAvailable
	}
	return score, fmt.Sprintf("%.1f%%", score*100)
}

// renderPayload lays out the details of one step. Absent sections are left
// out; absent values inside a present section read N/A.
func renderPayload(p rag.Payload, f stepFormatter) string {
	switch p := p.(type) {
	case rag.QueryProcessing:
		return renderQueryProcessing(p, f)
	case rag.QueryEmbedding:
		return renderQueryEmbedding(p, f)
	case rag.VectorSearch:
		return renderVectorSearch(p, f)
	case rag.ContextPreparation:
		return renderContextPreparation(p, f)
	case rag.AIGeneration:
		return renderAIGeneration(p, f)
	case rag.UnknownPayload:
		return f.note(f.pending)
	default:
		// nil: a step without any payload has nothing to show.
		return ""
	}
}

func renderQueryProcessing(p rag.QueryProcessing, f stepFormatter) string {
	parts := []string{}
	if p.OriginalQuery.IsSet() {
		parts = append(parts, f.section("Original Query", f.text(fmt.Sprintf("%q", p.OriginalQuery.String()))))
	}
	if p.ProcessedQuery.IsSet() {
		parts = append(parts, f.section("Processed Query", f.text(p.ProcessedQuery.String())))
	}
	if tok := p.Tokenization; tok != nil {
		parts = append(parts, f.section("Tokenization Analysis",
			f.row("Raw tokens", bracketed(tok.RawTokens, notAvailable)),
			f.row("Filtered tokens", bracketed(tok.FilteredTokens, notAvailable)),
			f.row("Removed stop words", bracketed(tok.RemovedStopWords, "none")),
			f.row("Final token count", tok.TokenCount.Or("0")),
		))
	}
	if len(p.PreprocessingSteps) > 0 {
		rows := make([]string, 0, len(p.PreprocessingSteps))
		for i, step := range p.PreprocessingSteps {
			rows = append(rows, fmt.Sprintf("%d. %s", i+1, step.String()))
		}
		parts = append(parts, f.section("Processing Pipeline", rows...))
	}
	if p.Language.IsSet() {
		label := p.Language.String()
		if lang, ok := i18n.Parse(label); ok {
			label = lang.Label()
		}
		parts = append(parts, f.row("Language", label))
	}
	return joinNonEmpty(parts)
}

func renderQueryEmbedding(p rag.QueryEmbedding, f stepFormatter) string {
	parts := []string{}
	if mi := p.ModelInfo; mi != nil {
		parts = append(parts, f.section("Model",
			f.row("Model", mi.Model.Or(notAvailable)),
			f.row("Architecture", mi.Architecture.Or(notAvailable)),
			f.row("Dimensions", mi.Dimensions.Or(notAvailable)),
			f.row("Max Sequence Length", mi.MaxSequenceLength.Or(notAvailable)),
		))
	}
	if ev := p.EmbeddingVector; ev != nil {
		samples := notAvailable
		if len(ev.SampleValues) > 0 {
			rendered := make([]string, 0, len(ev.SampleValues))
			for _, v := range ev.SampleValues {
				rendered = append(rendered, v.Fixed(4))
			}
			samples = strings.Join(rendered, ", ") + "..."
		}
		rows := []string{}
		if ev.FullDimensions.IsSet() {
			rows = append(rows, f.row("Dimensions", ev.FullDimensions.String()))
		}
		rows = append(rows,
			f.row("Magnitude", ev.Magnitude.Or(notAvailable)),
			f.row("Sparsity", ev.Sparsity.Or(notAvailable)),
			f.row("Sample Values", f.text("["+samples+"]")),
		)
		parts = append(parts, f.section("Vector Analysis", rows...))
	}
	if vp := p.VectorProperties; vp != nil {
		parts = append(parts, f.section("Statistical Properties",
			f.row("Min", vp.MinValue.Fixed(4)),
			f.row("Max", vp.MaxValue.Fixed(4)),
			f.row("Mean", vp.Mean.Fixed(4)),
			f.row("Std Dev", vp.StdDev.Fixed(4)),
		))
	}
	if p.SemanticEncoding.IsSet() {
		parts = append(parts, f.note(f.text("🧠 "+p.SemanticEncoding.String())))
	}
	return joinNonEmpty(parts)
}

func renderVectorSearch(p rag.VectorSearch, f stepFormatter) string {
	parts := []string{}
	if sa := p.SearchAlgorithm; sa != nil {
		rows := []string{
			f.row("Method", sa.Method.Or("Cosine Similarity")),
			f.row("Formula", sa.Formula.Or("cos(θ) = (A·B) / (||A|| × ||B||)")),
			f.row("Database Size", sa.DatabaseSize.Or(notAvailable)),
		}
		if sa.SearchSpace.IsSet() {
			rows = append(rows, f.row("Search Space", sa.SearchSpace.String()))
		}
		parts = append(parts, f.section("Search Algorithm", rows...))
	}
	if sd := p.SimilarityDistribution; sd != nil {
		rows := []string{
			f.row("Highest Score", sd.HighestScore.Fixed(3)),
			f.row("Average", sd.AverageScore.Fixed(3)),
		}
		if sd.LowestScore.IsSet() {
			rows = append(rows, f.row("Lowest Score", sd.LowestScore.Fixed(3)))
		}
		if sd.ResultsAboveThreshold.IsSet() {
			rows = append(rows, f.row("Above Threshold", sd.ResultsAboveThreshold.String()))
		}
		parts = append(parts, f.section("Similarity Distribution", rows...))
	}
	if len(p.TopMatches) == 0 {
		parts = append(parts, f.section("Top Matches", f.note("No matches found")))
	} else {
		rows := make([]string, 0, len(p.TopMatches))
		for i, match := range p.TopMatches {
			rows = append(rows, renderMatch(i, match, f))
		}
		parts = append(parts, f.heading("Top Matches")+"\n"+indentMultiline(strings.Join(rows, "\n"), 2))
	}
	if p.VectorSpaceAnalysis.IsSet() {
		parts = append(parts, f.note(f.text("🔬 "+p.VectorSpaceAnalysis.String())))
	}
	return joinNonEmpty(parts)
}

func renderMatch(i int, m rag.Match, f stepFormatter) string {
	score, scoreText := percent(m.Score())
	head := fmt.Sprintf("#%s %s  %s", m.Rank.Or(fmt.Sprint(i+1)), m.CandyName.Or(notAvailable), f.score(score, scoreText))
	lines := []string{head}
	if m.SimilarityExplanation.IsSet() {
		lines = append(lines, "   "+f.note(m.SimilarityExplanation.String()))
	}
	if len(m.MatchedTokens) > 0 {
		lines = append(lines, "   "+f.row("Matched tokens", bracketed(m.MatchedTokens, "")))
	}
	lines = append(lines, "   "+f.row("Category", m.Category.Or(notAvailable)))
	return strings.Join(lines, "\n")
}

func renderContextPreparation(p rag.ContextPreparation, f stepFormatter) string {
	parts := []string{}
	if cw := p.ContextWindow; cw != nil {
		parts = append(parts, f.section("Context Window",
			f.row("Token Budget", cw.TotalTokens.Or(notAvailable)+"/"+cw.MaxContextLength.Or(notAvailable)),
			f.row("Utilization", cw.Utilization.Or(notAvailable)),
			f.row("Chunks Included", cw.ChunksIncluded.Or(notAvailable)),
		))
	}
	if rs := p.RAGStrategy; rs != nil {
		parts = append(parts, f.section("RAG Strategy",
			f.row("Retrieval Count", rs.RetrievalCount.Or(notAvailable)),
			f.row("Selection Method", rs.ContextSelection.Or(notAvailable)),
			f.row("Chunk Size", rs.ChunkSize.Or(notAvailable)),
			f.row("Metadata", bracketed(rs.MetadataIncluded, notAvailable)),
		))
	}
	if len(p.ContextStructure) > 0 {
		rows := make([]string, 0, len(p.ContextStructure))
		for _, chunk := range p.ContextStructure {
			head := fmt.Sprintf("%s  Rank #%s", chunk.CandyName.Or(notAvailable), chunk.SimilarityRank.Or(notAvailable))
			if chunk.ChunkID.IsSet() {
				head += "  " + f.note(chunk.ChunkID.String())
			}
			rows = append(rows, head,
				"   "+f.row("Tokens", chunk.TokenCount.Or(notAvailable)),
				"   "+f.row("Metadata", chunk.Metadata.Or(notAvailable)))
		}
		parts = append(parts, f.section("Context Chunks", rows...))
	}
	if p.ContextPreview.IsSet() {
		parts = append(parts, f.section("Context Preview", f.text(p.ContextPreview.String())))
	}
	return joinNonEmpty(parts)
}

func renderAIGeneration(p rag.AIGeneration, f stepFormatter) string {
	parts := []string{}
	if gm := p.GenerationModel; gm != nil {
		parts = append(parts, f.section("Generation Model",
			f.row("Approach", gm.Approach.Or(notAvailable)),
			f.row("Context Injection", gm.ContextInjection.Or(notAvailable)),
			f.row("Fallback Strategy", gm.FallbackStrategy.Or(notAvailable)),
			f.row("Response Format", gm.ResponseFormat.Or(notAvailable)),
		))
	}
	if pe := p.PromptEngineering; pe != nil {
		parts = append(parts, f.section("Prompt Engineering",
			f.row("System Prompt", f.text(pe.SystemPrompt.Or(notAvailable))),
			f.row("Context Template", f.text(pe.ContextTemplate.Or(notAvailable))),
			f.row("Query Processing", pe.UserQueryProcessing.Or(notAvailable)),
			f.row("Response Strategy", pe.ResponseStrategy.Or(notAvailable)),
		))
	}
	if oa := p.OutputAnalysis; oa != nil {
		_, confidence := percent(oa.ConfidenceScore)
		rows := []string{
			f.row("Characters", oa.CharacterCount.Or(notAvailable)),
			f.row("Words", oa.WordCount.Or(notAvailable)),
			f.row("Sources", oa.SourcesReferenced.Or(notAvailable)),
			f.row("Confidence", confidence),
		}
		if oa.GenerationMethod.IsSet() {
			rows = append(rows, f.row("Generation Method", oa.GenerationMethod.String()))
		}
		parts = append(parts, f.section("Output Analysis", rows...))
	}
	if re := p.RAGEffectiveness; re != nil {
		success := notAvailable
		if ok, set := re.RetrievalSuccess.Bool(); set {
			success = "❌ No"
			if ok {
				success = "✅ Yes"
			}
		}
		parts = append(parts, f.section("RAG Effectiveness",
			f.row("Retrieval Success", success),
			f.row("Context Utilization", re.ContextUtilization.Or(notAvailable)),
			f.row("Semantic Matching", re.SemanticMatching.Or(notAvailable)),
			f.row("Response Grounding", re.ResponseGrounding.Or(notAvailable)),
		))
	}
	return joinNonEmpty(parts)
}

func payloadKind(p rag.Payload) rag.StepKind {
	if p == nil {
		return ""
	}
	return p.Kind()
}

// stepTitle prefers the title carried by the step and falls back to the
// local table, then to the raw tag.
func stepTitle(step rag.Step, s i18n.Strings, lang i18n.Language) string {
	if title := strings.TrimSpace(step.Title.In(lang)); title != "" {
		return title
	}
	if title := s.Steps.Lookup(step.Tag); title != "" {
		return title
	}
	if step.Tag == "" {
		return "?"
	}
	return step.Tag
}

func formatMillis(seconds float64) string {
	return fmt.Sprintf("%.0fms", seconds*1000)
}

// answerConfidence reads the confidence reported by the generation step.
func answerConfidence(steps []rag.Step) (string, bool) {
	for _, step := range steps {
		gen, ok := step.Payload.(rag.AIGeneration)
		if !ok || gen.OutputAnalysis == nil {
			continue
		}
		if _, text := percent(gen.OutputAnalysis.ConfidenceScore); text != notAvailable {
			return text, true
		}
	}
	return "", false
}
