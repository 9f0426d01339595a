// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"strings"
	"testing"
)

func TestExactDeduplicate(t *testing.T) {
	chunks := []Chunk{
		{Content: "the quick brown fox", ContentHash: contentHash("the quick brown fox")},
		{Content: "THE quick   brown fox", ContentHash: contentHash("THE quick   brown fox")},
		{Content: "a completely different sentence", ContentHash: contentHash("a completely different sentence")},
	}

	kept, dropped := ExactDeduplicate(chunks)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}
	if kept[0].Content != chunks[0].Content {
		t.Error("expected the first occurrence to be kept")
	}
}

func longText(seed string, words int) string {
	var b strings.Builder
	for i := 0; i < words; i++ {
		b.WriteString(seed)
		b.WriteString(" word")
		b.WriteString(string(rune('a' + i%26)))
		b.WriteString(" ")
	}
	return b.String()
}

func TestNearDeduplicate_DropsNearIdenticalKeepsLonger(t *testing.T) {
	base := longText("report content repeated across documents", 60)
	nearCopy := base + "one extra trailing sentence to make this version longer."

	chunks := []Chunk{
		{Content: base, ContentHash: contentHash(base), SourcePath: "a.txt"},
		{Content: nearCopy, ContentHash: contentHash(nearCopy), SourcePath: "b.txt"},
		{Content: "an entirely unrelated chunk of text about something else", SourcePath: "c.txt"},
	}
	chunks[2].ContentHash = contentHash(chunks[2].Content)

	kept, dropped := NearDeduplicate(chunks)
	if dropped != 1 {
		t.Fatalf("dropped = %d, want 1", dropped)
	}
	if len(kept) != 2 {
		t.Fatalf("kept = %d, want 2", len(kept))
	}

	foundLonger := false
	for _, c := range kept {
		if c.Content == nearCopy {
			foundLonger = true
		}
		if c.Content == base {
			t.Error("expected the shorter near-duplicate to be dropped")
		}
	}
	if !foundLonger {
		t.Error("expected the longer near-duplicate to survive")
	}
}

func TestNearDeduplicate_FewerThanTwoChunksIsNoop(t *testing.T) {
	chunks := []Chunk{{Content: "solo chunk", ContentHash: contentHash("solo chunk")}}
	kept, dropped := NearDeduplicate(chunks)
	if dropped != 0 || len(kept) != 1 {
		t.Errorf("expected no-op for a single chunk, got kept=%d dropped=%d", len(kept), dropped)
	}
}

func TestShorterOf_TieBreaksByHash(t *testing.T) {
	a := Chunk{Content: "same length", ContentHash: "aaa"}
	b := Chunk{Content: "same length", ContentHash: "bbb"}

	loser := shorterOf(a, b, 0, 1)
	if loser != 1 {
		t.Errorf("expected the chunk with the larger hash (index 1) to be dropped, got %d", loser)
	}
}

func TestShingles(t *testing.T) {
	out := shingles("one two three four five six", 5)
	if len(out) != 2 {
		t.Fatalf("expected 2 shingles, got %d: %v", len(out), out)
	}
}
