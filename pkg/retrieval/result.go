// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package retrieval

import (
	"sort"

	"test-smith/pkg/vectorstore"
)

// Result is the common shape retrieval and web search steps append to
// state, regardless of which external collaborator produced it: {text,
// source_id, score, metadata}, ordered descending by score then source_id
// for determinism.
type Result struct {
	Text     string
	SourceID string
	Score    float32
	Metadata map[string]interface{}
}

// FromDocuments converts vector/keyword/hybrid search hits into Results.
func FromDocuments(docs []vectorstore.Document) []Result {
	out := make([]Result, len(docs))
	for i, d := range docs {
		out[i] = Result{
			Text:     d.Content,
			SourceID: d.ID,
			Score:    d.Score,
			Metadata: d.Metadata,
		}
	}
	return out
}

// SortDescending orders results by descending score, breaking ties by
// ascending source id, per the data model's determinism requirement.
func SortDescending(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].SourceID < results[j].SourceID
	})
}
