// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package retrieval

import (
	"context"

	"test-smith/pkg/vectorstore"
)

// SchemaFilters narrows a search to specific document ids, section types,
// or semantic tags, for the code-investigation workflow's code retriever
// and other schema-aware callers. Replaces the old workflow.SchemaFilters
// (the workflow package no longer owns any retrieval-specific types after
// the engine's §9 re-architecture).
type SchemaFilters struct {
	DocumentIDs       []string
	SectionTypes      []string
	SemanticTags      []string
	MinRelevanceScore float32
	CustomAttributes  map[string]interface{}
}

// SchemaRetriever implements schema-aware targeted retrieval.
// It applies metadata filters based on document schemas.
type SchemaRetriever struct {
	vectorRetriever *VectorRetriever
}

// NewSchemaRetriever creates a new schema-filtered retriever.
func NewSchemaRetriever(vectorRet *VectorRetriever) *SchemaRetriever {
	return &SchemaRetriever{vectorRetriever: vectorRet}
}

// Search performs schema-filtered retrieval.
func (s *SchemaRetriever) Search(ctx context.Context, query string, topK int, schemaFilters *SchemaFilters) ([]vectorstore.Document, error) {
	filters := s.buildMetadataFilters(schemaFilters)
	return s.vectorRetriever.Search(ctx, query, topK, filters)
}

// SearchWithFilters performs retrieval with explicit metadata filters.
func (s *SchemaRetriever) SearchWithFilters(ctx context.Context, query string, topK int, filters map[string]interface{}) ([]vectorstore.Document, error) {
	return s.vectorRetriever.Search(ctx, query, topK, filters)
}

// buildMetadataFilters converts schema filters to vector store filters.
func (s *SchemaRetriever) buildMetadataFilters(schemaFilters *SchemaFilters) map[string]interface{} {
	if schemaFilters == nil {
		return nil
	}

	filters := make(map[string]interface{})

	if len(schemaFilters.DocumentIDs) > 0 {
		filters["doc_id"] = schemaFilters.DocumentIDs
	}
	if len(schemaFilters.SectionTypes) > 0 {
		filters["section_type"] = schemaFilters.SectionTypes
	}
	if len(schemaFilters.SemanticTags) > 0 {
		filters["semantic_tags"] = schemaFilters.SemanticTags
	}
	if schemaFilters.MinRelevanceScore > 0 {
		filters["min_score"] = schemaFilters.MinRelevanceScore
	}
	for key, value := range schemaFilters.CustomAttributes {
		filters[key] = value
	}

	return filters
}

// Name returns the retriever name.
func (s *SchemaRetriever) Name() string {
	return "schema_filtered"
}
