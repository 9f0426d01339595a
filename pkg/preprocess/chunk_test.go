// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"strings"
	"testing"
)

func TestChunkDocument_MarkdownHeaders(t *testing.T) {
	content := "# Section One\n\nSome body text for the first section.\n\n# Section Two\n\nSome body text for the second section.\n"
	analysis := AnalyzeDocument("doc.md", content, ".md")

	chunks := ChunkDocument(analysis, content)
	if len(chunks) == 0 {
		t.Fatal("expected at least one chunk")
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("chunk %d has Index %d", i, c.Index)
		}
		if c.SourcePath != "doc.md" {
			t.Errorf("chunk %d SourcePath = %q, want doc.md", i, c.SourcePath)
		}
		if c.ContentHash == "" {
			t.Errorf("chunk %d missing ContentHash", i)
		}
		if c.StrategyUsed != StrategyMarkdownHeader {
			t.Errorf("chunk %d StrategyUsed = %q, want %q", i, c.StrategyUsed, StrategyMarkdownHeader)
		}
	}
}

func TestChunkDocument_RecursiveCharacterRespectsSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Sentence number filler text to build up a long document. ")
	}
	content := b.String()
	analysis := AnalyzeDocument("plain.txt", content, ".txt")
	analysis.RecommendedStrategy = StrategyRecursiveCharacter

	chunks := ChunkDocument(analysis, content)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks for a long document, got %d", len(chunks))
	}
}

func TestContentHash_NormalizesWhitespaceAndCase(t *testing.T) {
	a := contentHash("Hello   World")
	b := contentHash("hello world")
	if a != b {
		t.Errorf("expected normalized hashes to match: %q != %q", a, b)
	}

	c := contentHash("a different string entirely")
	if a == c {
		t.Error("expected different content to produce different hashes")
	}
}

func TestAddOverlap(t *testing.T) {
	pieces := []string{"abcdefghij", "klmnopqrst"}
	out := addOverlap(pieces, 3)
	if len(out) != 2 {
		t.Fatalf("expected 2 pieces, got %d", len(out))
	}
	if out[0] != pieces[0] {
		t.Errorf("first piece should be unchanged, got %q", out[0])
	}
	if !strings.HasPrefix(out[1], "hij") {
		t.Errorf("expected overlap prefix from previous piece, got %q", out[1])
	}
}

func TestHardSplit(t *testing.T) {
	text := strings.Repeat("x", 25)
	out := hardSplit(text, 10)
	if len(out) != 3 {
		t.Fatalf("expected 3 pieces for 25 chars split at 10, got %d: %v", len(out), out)
	}
}
