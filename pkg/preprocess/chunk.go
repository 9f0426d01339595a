// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
)

// Chunk is the preprocessing pipeline's unit of output (spec §3). Two
// chunks sharing a ContentHash after deduplication is a DataIntegrityError
// (enforced by Pipeline.Run, not here).
type Chunk struct {
	Content      string
	SourcePath   string
	StrategyUsed string
	QualityScore float64
	ContentHash  string
	Index        int
}

var markdownHeaderPattern = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)

// ChunkDocument splits content according to strategy and attaches
// per-chunk metadata (spec §4.11 step 3). minContentLength-short chunks
// are dropped by the caller (Pipeline.Run), not here, so callers can
// report how many were dropped.
func ChunkDocument(analysis DocumentAnalysis, content string) []Chunk {
	size, overlap := TargetChunkSize(analysis.Language)

	var texts []string
	switch analysis.RecommendedStrategy {
	case StrategyMarkdownHeader:
		texts = chunkByMarkdownHeaders(content, size, overlap)
	case StrategyHybrid:
		texts = chunkHybrid(content, size, overlap)
	default:
		separators := proseSeparators
		if analysis.Structure == StructureCode {
			separators = codeSeparators
		}
		texts = chunkRecursiveCharacter(content, size, overlap, separators)
	}

	chunks := make([]Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = Chunk{
			Content:      t,
			SourcePath:   analysis.SourcePath,
			StrategyUsed: analysis.RecommendedStrategy,
			QualityScore: analysis.QualityScore,
			ContentHash:  contentHash(t),
			Index:        i,
		}
	}
	return chunks
}

// chunkRecursiveCharacter splits text by trying each separator in order
// until pieces fit within size, falling back to a hard character split,
// then reassembles pieces into overlapping windows of approximately size
// characters (the teacher's splitIntoChunks generalized with a separator
// preference list and overlap, per spec §4.11 step 2/3).
func chunkRecursiveCharacter(text string, size, overlap int, separators []string) []string {
	pieces := splitRecursive(text, size, separators)
	return addOverlap(pieces, overlap)
}

func splitRecursive(text string, size int, separators []string) []string {
	if len(text) <= size {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{strings.TrimSpace(text)}
	}
	if len(separators) == 0 {
		return hardSplit(text, size)
	}

	sep := separators[0]
	parts := strings.Split(text, sep)
	if len(parts) == 1 {
		return splitRecursive(text, size, separators[1:])
	}

	var out []string
	var current strings.Builder
	for _, p := range parts {
		candidate := current.String()
		if candidate != "" {
			candidate += sep
		}
		candidate += p

		if len(candidate) > size && current.Len() > 0 {
			out = append(out, splitRecursive(current.String(), size, separators[1:])...)
			current.Reset()
			current.WriteString(p)
		} else {
			current.Reset()
			current.WriteString(candidate)
		}
	}
	if current.Len() > 0 {
		out = append(out, splitRecursive(current.String(), size, separators[1:])...)
	}
	return out
}

func hardSplit(text string, size int) []string {
	var out []string
	for len(text) > size {
		out = append(out, strings.TrimSpace(text[:size]))
		text = text[size:]
	}
	if strings.TrimSpace(text) != "" {
		out = append(out, strings.TrimSpace(text))
	}
	return out
}

// addOverlap prepends the trailing overlap characters of the previous
// piece onto each piece after the first, so adjacent chunks share context.
func addOverlap(pieces []string, overlap int) []string {
	if overlap <= 0 || len(pieces) < 2 {
		return pieces
	}
	out := make([]string, len(pieces))
	out[0] = pieces[0]
	for i := 1; i < len(pieces); i++ {
		prev := pieces[i-1]
		tail := prev
		if len(tail) > overlap {
			tail = tail[len(tail)-overlap:]
		}
		out[i] = strings.TrimSpace(tail + " " + pieces[i])
	}
	return out
}

// chunkByMarkdownHeaders splits at heading boundaries, then further
// splits any resulting section exceeding size via recursive-character.
func chunkByMarkdownHeaders(content string, size, overlap int) []string {
	locs := markdownHeaderPattern.FindAllStringIndex(content, -1)
	if len(locs) == 0 {
		return chunkRecursiveCharacter(content, size, overlap, proseSeparators)
	}

	var sections []string
	for i, loc := range locs {
		start := loc[0]
		end := len(content)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		if section := strings.TrimSpace(content[start:end]); section != "" {
			sections = append(sections, section)
		}
	}

	var out []string
	for _, s := range sections {
		if len(s) <= size {
			out = append(out, s)
		} else {
			out = append(out, chunkRecursiveCharacter(s, size, overlap, proseSeparators)...)
		}
	}
	return out
}

// chunkHybrid splits by markdown headers when present, and within each
// section (or the whole document when there are none) falls back to
// recursive-character splitting (spec §4.11: "mixed or long prose ⇒
// hybrid").
func chunkHybrid(content string, size, overlap int) []string {
	if markdownHeaderPattern.MatchString(content) {
		return chunkByMarkdownHeaders(content, size, overlap)
	}
	return chunkRecursiveCharacter(content, size, overlap, proseSeparators)
}

// contentHash computes a strong hash over Unicode-normalized,
// whitespace-collapsed text (spec §3 Chunk invariant, §4.11 step 4).
func contentHash(text string) string {
	normalized := normalizeForHash(text)
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func normalizeForHash(text string) string {
	return strings.ToLower(strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " ")))
}
