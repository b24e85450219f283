package chunker

import (
	"strings"
	"testing"
)

func TestBuildFormatsAndDedupes(t *testing.T) {
	builder := NewBuilder(0, 10, 0)
	pkg := builder.Build([]Source{
		{Name: "Chocolate Dreams", Category: "Chocolate", Sweetness: 7, Description: "Rich,   creamy milk chocolate"},
		{Name: "Chocolate Dreams", Category: "Chocolate", Sweetness: 7, Description: "Rich, creamy milk chocolate"},
		{Name: "Sour Space Crystals", Category: "Sour", Sweetness: 3, Description: "Ultra-sour"},
	})
	if len(pkg.Chunks) != 2 {
		t.Fatalf("chunk count mismatch: got %d want 2", len(pkg.Chunks))
	}
	want := "[CANDY: Chocolate Dreams] Category: Chocolate, Sweetness: 7/10, Description: Rich, crea..."
	if pkg.Chunks[0].Text != want {
		t.Fatalf("chunk text mismatch:\n got %q\nwant %q", pkg.Chunks[0].Text, want)
	}
	if pkg.Chunks[1].Rank != 3 || pkg.Chunks[1].Index != 1 {
		t.Fatalf("rank/index mismatch: %+v", pkg.Chunks[1])
	}
	if pkg.TotalTokens != pkg.Chunks[0].Tokens+pkg.Chunks[1].Tokens {
		t.Fatalf("token total mismatch: %d", pkg.TotalTokens)
	}
	if strings.Count(pkg.Context, "\n") != 1 {
		t.Fatalf("context should join chunks by newline: %q", pkg.Context)
	}
}

func TestBuildRespectsBudgetAndChunkLimit(t *testing.T) {
	sources := []Source{
		{Name: "A", Category: "Gummy", Sweetness: 8, Description: "one"},
		{Name: "B", Category: "Gummy", Sweetness: 8, Description: "two"},
		{Name: "C", Category: "Gummy", Sweetness: 8, Description: "three"},
		{Name: "D", Category: "Gummy", Sweetness: 8, Description: "four"},
	}
	if got := len(NewBuilder(0, 0, 0).Build(sources).Chunks); got != DefaultMaxChunks {
		t.Fatalf("chunk limit mismatch: got %d want %d", got, DefaultMaxChunks)
	}
	tight := NewBuilder(10, 0, 5).Build(sources)
	if len(tight.Chunks) != 1 {
		t.Fatalf("budget should admit one chunk, got %d", len(tight.Chunks))
	}
	if tight.TotalTokens > 10 {
		t.Fatalf("budget exceeded: %d", tight.TotalTokens)
	}
}

func TestBuildEmpty(t *testing.T) {
	pkg := NewBuilder(0, 0, 0).Build(nil)
	if len(pkg.Chunks) != 0 || pkg.Context != "" || pkg.Utilization() != "0.0%" {
		t.Fatalf("unexpected empty package: %+v", pkg)
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("short", 200); got != "short" {
		t.Fatalf("preview changed short text: %q", got)
	}
	if got := Preview("abcdef", 3); got != "abc..." {
		t.Fatalf("preview mismatch: %q", got)
	}
}
