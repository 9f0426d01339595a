// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"test-smith/pkg/embedding"
	"test-smith/pkg/vectorstore"
)

var errTestEmbedFailure = errors.New("embedding provider unavailable")

type fakeEmbedder struct {
	dims int
	err  error
}

func (e *fakeEmbedder) Embed(ctx context.Context, req *embedding.EmbedRequest) (*embedding.EmbedResponse, error) {
	if e.err != nil {
		return nil, e.err
	}
	dims := e.dims
	if dims == 0 {
		dims = 8
	}
	vectors := make([]embedding.Vector, len(req.Texts))
	for i, text := range req.Texts {
		vec := make([]float32, dims)
		for j := range vec {
			vec[j] = 0.1
		}
		vectors[i] = embedding.Vector{Embedding: vec, Text: text}
	}
	return &embedding.EmbedResponse{Vectors: vectors}, nil
}

func (e *fakeEmbedder) Dimensions() int   { return e.dims }
func (e *fakeEmbedder) ModelName() string { return "fake-embedder" }

type fakeStore struct {
	inserted map[string][]vectorstore.Document
}

func newFakeStore() *fakeStore {
	return &fakeStore{inserted: make(map[string][]vectorstore.Document)}
}

func (s *fakeStore) Insert(ctx context.Context, req *vectorstore.InsertRequest) (*vectorstore.InsertResponse, error) {
	s.inserted[req.CollectionName] = append(s.inserted[req.CollectionName], req.Documents...)
	var ids []string
	for _, d := range req.Documents {
		ids = append(ids, d.ID)
	}
	return &vectorstore.InsertResponse{InsertedIDs: ids}, nil
}

func (s *fakeStore) Search(ctx context.Context, req *vectorstore.SearchRequest) (*vectorstore.SearchResponse, error) {
	return &vectorstore.SearchResponse{}, nil
}

func (s *fakeStore) Delete(ctx context.Context, req *vectorstore.DeleteRequest) (*vectorstore.DeleteResponse, error) {
	return &vectorstore.DeleteResponse{}, nil
}

func (s *fakeStore) Get(ctx context.Context, collectionName string, ids []string) ([]vectorstore.Document, error) {
	return nil, nil
}

func (s *fakeStore) CreateCollection(ctx context.Context, name string, dimension int, metadata map[string]interface{}) error {
	return nil
}

func (s *fakeStore) DeleteCollection(ctx context.Context, name string) error {
	delete(s.inserted, name)
	return nil
}

func (s *fakeStore) ListCollections(ctx context.Context) ([]vectorstore.CollectionInfo, error) {
	var out []vectorstore.CollectionInfo
	for name, docs := range s.inserted {
		out = append(out, vectorstore.CollectionInfo{Name: name, DocumentCount: len(docs)})
	}
	return out, nil
}

func (s *fakeStore) GetCollection(ctx context.Context, name string) (*vectorstore.CollectionInfo, error) {
	docs, ok := s.inserted[name]
	if !ok {
		return nil, nil
	}
	return &vectorstore.CollectionInfo{Name: name, DocumentCount: len(docs)}, nil
}

func (s *fakeStore) Close() error { return nil }
func (s *fakeStore) Name() string { return "fake" }

func writeTestFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
}

func TestPipeline_Run_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "one.txt", "This is the first unique document with enough length to pass the minimum content size filter comfortably.")
	writeTestFile(t, dir, "two.txt", "This is the first unique document with enough length to pass the minimum content size filter comfortably.")
	writeTestFile(t, dir, "three.txt", "A second, entirely different document discussing something unrelated to the first pair of files here.")

	store := newFakeStore()
	pipeline := NewPipeline(&fakeEmbedder{dims: 4}, store, DefaultOptions())

	result, err := pipeline.Run(context.Background(), dir, "docs")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if result.DocumentsProcessed != 3 {
		t.Errorf("DocumentsProcessed = %d, want 3", result.DocumentsProcessed)
	}
	if result.ExactDuplicatesDropped == 0 {
		t.Error("expected the duplicate document's chunk(s) to be dropped")
	}
	if result.ChunksInstalled == 0 {
		t.Error("expected at least one chunk installed")
	}
	if len(store.inserted["docs"]) != result.ChunksInstalled {
		t.Errorf("installed %d docs into the final collection, report says %d", len(store.inserted["docs"]), result.ChunksInstalled)
	}
	if _, stillStaged := store.inserted["docs__staging"]; stillStaged {
		t.Error("expected the staging collection to be cleaned up after swap")
	}
}

func TestPipeline_Run_SkipsLowQualityDocuments(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "good.txt", "A well formed document with multiple paragraphs of readable prose.\n\nA second paragraph continues the thought at reasonable length for scoring well.")
	writeTestFile(t, dir, "bad.txt", strings.Repeat("x", 150))

	store := newFakeStore()
	opts := DefaultOptions()
	opts.MinQualityScore = 0.9
	pipeline := NewPipeline(&fakeEmbedder{dims: 4}, store, opts)

	result, err := pipeline.Run(context.Background(), dir, "docs")
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if result.DocumentsSkipped == 0 {
		t.Error("expected the low quality document to be skipped")
	}
}

func TestPipeline_EmbedBatchWithRetry_HalvesOnFailure(t *testing.T) {
	calls := 0
	embedder := &countingFailOnceEmbedder{failFirstCall: true, calls: &calls}
	pipeline := NewPipeline(embedder, newFakeStore(), DefaultOptions())

	chunks := []Chunk{
		{Content: "chunk one content here"},
		{Content: "chunk two content here"},
	}

	docs, err := pipeline.embedBatchWithRetry(context.Background(), chunks, 2)
	if err != nil {
		t.Fatalf("embedBatchWithRetry() error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 embedded docs, got %d", len(docs))
	}
	if calls < 3 {
		t.Errorf("expected the batch to fail once then retry as two halves, got %d calls", calls)
	}
}

type countingFailOnceEmbedder struct {
	failFirstCall bool
	failed        bool
	calls         *int
}

func (e *countingFailOnceEmbedder) Embed(ctx context.Context, req *embedding.EmbedRequest) (*embedding.EmbedResponse, error) {
	*e.calls++
	if e.failFirstCall && !e.failed {
		e.failed = true
		return nil, errTestEmbedFailure
	}
	vectors := make([]embedding.Vector, len(req.Texts))
	for i, text := range req.Texts {
		vectors[i] = embedding.Vector{Embedding: []float32{0.1, 0.2}, Text: text}
	}
	return &embedding.EmbedResponse{Vectors: vectors}, nil
}

func (e *countingFailOnceEmbedder) Dimensions() int   { return 2 }
func (e *countingFailOnceEmbedder) ModelName() string { return "counting-fail-once" }
