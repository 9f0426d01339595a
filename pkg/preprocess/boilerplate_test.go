// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"strings"
	"testing"
)

func TestStripBoilerplate_RemovesBlockRepeatedAcrossSources(t *testing.T) {
	footer := "Confidential and proprietary. Do not distribute outside the organization."
	chunks := []Chunk{
		{Content: "Unique content from document one.\n\n" + footer, SourcePath: "a.txt"},
		{Content: "Unique content from document two.\n\n" + footer, SourcePath: "b.txt"},
		{Content: "Unique content from document three.\n\n" + footer, SourcePath: "c.txt"},
	}
	for i := range chunks {
		chunks[i].ContentHash = contentHash(chunks[i].Content)
	}

	out := StripBoilerplate(chunks)
	if len(out) != 3 {
		t.Fatalf("expected 3 chunks to survive, got %d", len(out))
	}
	for _, c := range out {
		if strings.Contains(c.Content, footer) {
			t.Errorf("expected footer boilerplate stripped from %q", c.Content)
		}
		if c.Content == "" {
			t.Error("expected remaining unique content to survive")
		}
	}
}

func TestStripBoilerplate_NoRepeatedBlockIsNoop(t *testing.T) {
	chunks := []Chunk{
		{Content: "Completely unique text number one that is long enough to count.", SourcePath: "a.txt"},
		{Content: "Completely unique text number two that is long enough to count.", SourcePath: "b.txt"},
	}
	for i := range chunks {
		chunks[i].ContentHash = contentHash(chunks[i].Content)
	}

	out := StripBoilerplate(chunks)
	if len(out) != 2 {
		t.Fatalf("expected both chunks unchanged, got %d", len(out))
	}
}

func TestStripBoilerplate_DropsChunkLeftEmpty(t *testing.T) {
	footer := "Confidential and proprietary. Do not distribute outside the organization."
	chunks := []Chunk{
		{Content: footer, SourcePath: "a.txt"},
		{Content: footer, SourcePath: "b.txt"},
		{Content: footer, SourcePath: "c.txt"},
	}
	for i := range chunks {
		chunks[i].ContentHash = contentHash(chunks[i].Content)
	}

	out := StripBoilerplate(chunks)
	if len(out) != 0 {
		t.Errorf("expected all-boilerplate chunks to be dropped, got %d remaining", len(out))
	}
}
