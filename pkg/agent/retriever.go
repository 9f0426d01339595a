// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package agent

import (
	"context"
	"fmt"

	"test-smith/pkg/embedding"
	"test-smith/pkg/vectorstore"
)

// Retriever performs top-k nearest-neighbor retrieval against the vector
// store on behalf of the retriever step (§4.4). Grounded on the teacher's
// Retriever, simplified from the old schema-filter-heavy RetrievalContext
// to the plain (query, topK, filter) shape the spec's Retriever Result
// entity requires.
type Retriever struct {
	vectorStore vectorstore.Store
	embedder    embedding.Embedder
	collection  string
}

// NewRetriever creates a new retriever agent bound to collection.
func NewRetriever(store vectorstore.Store, embedder embedding.Embedder, collection string) *Retriever {
	return &Retriever{vectorStore: store, embedder: embedder, collection: collection}
}

// Retrieve embeds query and returns the top-k nearest documents.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, filter vectorstore.Filter) ([]vectorstore.Document, error) {
	embedResp, err := r.embedder.Embed(ctx, &embedding.EmbedRequest{Texts: []string{query}})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(embedResp.Vectors) == 0 {
		return nil, fmt.Errorf("no embeddings generated for query")
	}

	searchResp, err := r.vectorStore.Search(ctx, &vectorstore.SearchRequest{
		Vector: embedResp.Vectors[0].Embedding,
		TopK:   topK,
		Filter: filter,
	})
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}

	return searchResp.Documents, nil
}

// CollectionStatus reports the collection's size, used by the strategic
// planner to decide whether rag_queries may be non-empty (spec §4.3).
func (r *Retriever) CollectionStatus(ctx context.Context) (total int, sampleTitles []string, err error) {
	info, err := r.vectorStore.GetCollection(ctx, r.collection)
	if err != nil {
		return 0, nil, nil // absent collection: treated as empty, not an error
	}
	return info.DocumentCount, nil, nil
}

// Collection returns the bound collection name.
func (r *Retriever) Collection() string { return r.collection }
