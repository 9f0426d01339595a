// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"fmt"
	"strings"
)

// SizeBucket labels a chunk by its character-length bucket (spec §4.11
// step 7).
type SizeBucket string

const (
	BucketVerySmall SizeBucket = "very_small" // < 200
	BucketSmall     SizeBucket = "small"      // 200-500
	BucketMedium    SizeBucket = "medium"      // 500-1000
	BucketLarge     SizeBucket = "large"       // 1000-2000
	BucketVeryLarge SizeBucket = "very_large"  // > 2000
)

// QualityReport is the human- and machine-readable output of the quality
// metrics phase (spec §4.11 step 7).
type QualityReport struct {
	TotalChunks         int
	MedianChunkSize     int
	MeanChunkSize       float64
	DuplicationRate     float64
	VocabularyDiversity float64
	SizeDistribution    map[SizeBucket]int
	OverallQuality      string
}

// BuildQualityReport computes the metrics report from the final
// (post-dedup, post-boilerplate) chunk set, plus the chunk count before
// deduplication, from which DuplicationRate is derived.
func BuildQualityReport(chunks []Chunk, totalBeforeDedup int) QualityReport {
	report := QualityReport{
		TotalChunks:      len(chunks),
		SizeDistribution: map[SizeBucket]int{},
	}
	if len(chunks) == 0 {
		report.OverallQuality = "poor"
		return report
	}

	sizes := make([]int, len(chunks))
	var sum int
	vocab := make(map[string]bool)
	var totalTokens int

	for i, c := range chunks {
		sizes[i] = len(c.Content)
		sum += sizes[i]
		report.SizeDistribution[bucketFor(sizes[i])]++

		for _, tok := range strings.Fields(strings.ToLower(c.Content)) {
			vocab[tok] = true
			totalTokens++
		}
	}

	sortInts(sizes)
	mid := len(sizes) / 2
	if len(sizes)%2 == 0 {
		report.MedianChunkSize = (sizes[mid-1] + sizes[mid]) / 2
	} else {
		report.MedianChunkSize = sizes[mid]
	}
	report.MeanChunkSize = float64(sum) / float64(len(chunks))

	if totalBeforeDedup > 0 {
		report.DuplicationRate = float64(totalBeforeDedup-len(chunks)) / float64(totalBeforeDedup)
	}
	if totalTokens > 0 {
		report.VocabularyDiversity = float64(len(vocab)) / float64(totalTokens)
	}

	report.OverallQuality = overallQualityLabel(report)
	return report
}

func bucketFor(size int) SizeBucket {
	switch {
	case size < 200:
		return BucketVerySmall
	case size < 500:
		return BucketSmall
	case size < 1000:
		return BucketMedium
	case size < 2000:
		return BucketLarge
	default:
		return BucketVeryLarge
	}
}

// overallQualityLabel combines median size fit, vocabulary diversity, and
// duplication rate into a single weighted label (spec §4.11 step 7: "a
// weighted combination").
func overallQualityLabel(r QualityReport) string {
	sizeScore := 0.0
	if r.MedianChunkSize >= 500 && r.MedianChunkSize <= 1000 {
		sizeScore = 1.0
	} else if r.MedianChunkSize >= 300 && r.MedianChunkSize <= 1500 {
		sizeScore = 0.6
	}

	diversityScore := r.VocabularyDiversity * 2 // diversity rarely exceeds 0.5 for prose
	if diversityScore > 1 {
		diversityScore = 1
	}

	dupScore := 1 - r.DuplicationRate
	if dupScore < 0 {
		dupScore = 0
	}

	weighted := 0.4*sizeScore + 0.3*diversityScore + 0.3*dupScore
	switch {
	case weighted >= 0.8:
		return "excellent"
	case weighted >= 0.6:
		return "good"
	case weighted >= 0.4:
		return "fair"
	default:
		return "poor"
	}
}

// Render produces the human-readable form of the report (spec §4.11 step
// 7: "a human-readable report plus a machine-readable record" — the
// machine-readable form is the QualityReport struct itself, JSON-
// marshalable as-is).
func (r QualityReport) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Preprocessing Quality Report\n")
	fmt.Fprintf(&b, "============================\n")
	fmt.Fprintf(&b, "Total chunks:          %d\n", r.TotalChunks)
	fmt.Fprintf(&b, "Median chunk size:     %d chars\n", r.MedianChunkSize)
	fmt.Fprintf(&b, "Duplication rate:      %.0f%%\n", r.DuplicationRate*100)
	fmt.Fprintf(&b, "Vocabulary diversity:  %.0f%%\n", r.VocabularyDiversity*100)
	fmt.Fprintf(&b, "Overall quality:       %s\n\n", r.OverallQuality)
	fmt.Fprintf(&b, "Size distribution:\n")
	for _, bucket := range []SizeBucket{BucketVerySmall, BucketSmall, BucketMedium, BucketLarge, BucketVeryLarge} {
		fmt.Fprintf(&b, "  %s: %d\n", bucket, r.SizeDistribution[bucket])
	}
	return b.String()
}
