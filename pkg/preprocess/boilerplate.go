// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import "strings"

const (
	minBoilerplateLength     = 40
	minBoilerplateOccurrence = 3
)

// StripBoilerplate detects blocks (paragraph-delimited spans of at least
// minBoilerplateLength characters) repeated across at least
// minBoilerplateOccurrence distinct source documents and removes them
// from every chunk's content (spec §4.11 step 6). Chunks left empty after
// stripping are dropped.
func StripBoilerplate(chunks []Chunk) []Chunk {
	blockSources := make(map[string]map[string]bool)
	for _, c := range chunks {
		for _, block := range candidateBlocks(c.Content) {
			if blockSources[block] == nil {
				blockSources[block] = make(map[string]bool)
			}
			blockSources[block][c.SourcePath] = true
		}
	}

	boilerplate := make(map[string]bool)
	for block, sources := range blockSources {
		if len(sources) >= minBoilerplateOccurrence {
			boilerplate[block] = true
		}
	}
	if len(boilerplate) == 0 {
		return chunks
	}

	var out []Chunk
	for _, c := range chunks {
		cleaned := c.Content
		for block := range boilerplate {
			cleaned = strings.ReplaceAll(cleaned, block, "")
		}
		cleaned = strings.TrimSpace(cleaned)
		if cleaned == "" {
			continue
		}
		c.Content = cleaned
		c.ContentHash = contentHash(cleaned)
		out = append(out, c)
	}
	return out
}

func candidateBlocks(content string) []string {
	var blocks []string
	for _, p := range strings.Split(content, "\n\n") {
		trimmed := strings.TrimSpace(p)
		if len(trimmed) >= minBoilerplateLength {
			blocks = append(blocks, trimmed)
		}
	}
	return blocks
}
