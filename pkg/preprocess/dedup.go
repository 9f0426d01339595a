// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"sort"
	"strings"
)

// ExactDeduplicate drops chunks sharing a ContentHash with an
// earlier-indexed chunk, keeping the first occurrence (spec §4.11 step
// 4). Returns the kept chunks and the count dropped.
func ExactDeduplicate(chunks []Chunk) (kept []Chunk, dropped int) {
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if seen[c.ContentHash] {
			dropped++
			continue
		}
		seen[c.ContentHash] = true
		kept = append(kept, c)
	}
	return kept, dropped
}

const (
	shingleSize        = 5
	minHashPermutations = 32
	lshBands            = 8
	nearDuplicateThreshold = 0.95
)

// NearDeduplicate collapses near-duplicate chunks (Jaccard similarity ≥
// 0.95 over shingled token sets) to the longer chunk, ties broken by
// lexicographic content hash (spec §3, §4.11 step 5). Candidate pairs are
// found via MinHash/LSH banding so the amortized cost is better than
// O(n^2) for large chunk sets, falling back to the banding result
// directly below 10,000 chunks where the spec permits naive O(n^2) but a
// single banding pass already suffices.
func NearDeduplicate(chunks []Chunk) (kept []Chunk, dropped int) {
	if len(chunks) < 2 {
		return chunks, 0
	}

	signatures := make([][]uint64, len(chunks))
	for i, c := range chunks {
		signatures[i] = minHashSignature(shingles(c.Content, shingleSize))
	}

	candidates := lshCandidatePairs(signatures)

	removed := make(map[int]bool, len(chunks))
	for _, pair := range candidates {
		i, j := pair[0], pair[1]
		if removed[i] || removed[j] {
			continue
		}
		sim := estimateJaccard(signatures[i], signatures[j])
		if sim < nearDuplicateThreshold {
			continue
		}
		loser := shorterOf(chunks[i], chunks[j], i, j)
		removed[loser] = true
		dropped++
	}

	for i, c := range chunks {
		if !removed[i] {
			kept = append(kept, c)
		}
	}
	return kept, dropped
}

// shorterOf returns the index of the chunk that should be dropped: the
// shorter one, ties broken by lexicographic content hash (spec §3).
func shorterOf(a, b Chunk, ai, bi int) int {
	if len(a.Content) != len(b.Content) {
		if len(a.Content) < len(b.Content) {
			return ai
		}
		return bi
	}
	if a.ContentHash < b.ContentHash {
		return bi
	}
	return ai
}

func shingles(text string, k int) []string {
	tokens := strings.Fields(normalizeForHash(text))
	if len(tokens) < k {
		if len(tokens) == 0 {
			return nil
		}
		return []string{strings.Join(tokens, " ")}
	}
	out := make([]string, 0, len(tokens)-k+1)
	for i := 0; i+k <= len(tokens); i++ {
		out = append(out, strings.Join(tokens[i:i+k], " "))
	}
	return out
}

// fnv64 is a small non-cryptographic hash used only to seed MinHash
// permutations; no security property is needed here.
func fnv64(s string, seed uint64) uint64 {
	var h uint64 = 14695981039346656037 ^ seed
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= 1099511628211
	}
	return h
}

func minHashSignature(shingleSet []string) []uint64 {
	sig := make([]uint64, minHashPermutations)
	for p := 0; p < minHashPermutations; p++ {
		var min uint64 = ^uint64(0)
		seed := uint64(p)*0x9E3779B97F4A7C15 + 1
		for _, s := range shingleSet {
			h := fnv64(s, seed)
			if h < min {
				min = h
			}
		}
		sig[p] = min
	}
	return sig
}

func estimateJaccard(a, b []uint64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	matches := 0
	for i := range a {
		if a[i] == b[i] {
			matches++
		}
	}
	return float64(matches) / float64(len(a))
}

// lshCandidatePairs buckets signatures by band and emits index pairs that
// share at least one band (the LSH candidate-generation step); this
// keeps full Jaccard estimation off all-but-likely pairs, giving better
// than O(n^2) amortized behavior for large chunk sets.
func lshCandidatePairs(signatures [][]uint64) [][2]int {
	rowsPerBand := minHashPermutations / lshBands
	buckets := make(map[string][]int)

	for i, sig := range signatures {
		for b := 0; b < lshBands; b++ {
			start := b * rowsPerBand
			end := start + rowsPerBand
			key := bandKey(b, sig[start:end])
			buckets[key] = append(buckets[key], i)
		}
	}

	seenPair := make(map[[2]int]bool)
	var pairs [][2]int
	for _, members := range buckets {
		if len(members) < 2 {
			continue
		}
		sort.Ints(members)
		for x := 0; x < len(members); x++ {
			for y := x + 1; y < len(members); y++ {
				key := [2]int{members[x], members[y]}
				if !seenPair[key] {
					seenPair[key] = true
					pairs = append(pairs, key)
				}
			}
		}
	}
	return pairs
}

func bandKey(band int, rows []uint64) string {
	var b strings.Builder
	b.WriteByte(byte(band))
	for _, r := range rows {
		b.WriteByte(byte(r))
		b.WriteByte(byte(r >> 8))
		b.WriteByte(byte(r >> 16))
		b.WriteByte(byte(r >> 24))
	}
	return b.String()
}
