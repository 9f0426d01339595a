// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"test-smith/internal/errs"
	"test-smith/pkg/document/parser"
	"test-smith/pkg/embedding"
	"test-smith/pkg/vectorstore"
)

// Options configures a pipeline run (spec §4.11 defaults).
type Options struct {
	MinQualityScore  float64 // documents below this are skipped; 0 disables the filter
	MinContentLength int     // chunks shorter than this are dropped
	EmbedBatchSize   int
}

// DefaultOptions returns the spec's stated defaults.
func DefaultOptions() Options {
	return Options{MinQualityScore: 0, MinContentLength: 100, EmbedBatchSize: 64}
}

// Pipeline runs the offline preprocessing pipeline (spec §4.11) over a
// directory of source files and installs the resulting clean chunks into
// a vector store collection.
type Pipeline struct {
	Embedder embedding.Embedder
	Store    vectorstore.Store
	Parsers  *parser.ParserRegistry
	Options  Options
}

// NewPipeline constructs a Pipeline with the default parser registry.
func NewPipeline(embedder embedding.Embedder, store vectorstore.Store, opts Options) *Pipeline {
	return &Pipeline{Embedder: embedder, Store: store, Parsers: parser.NewParserRegistry(), Options: opts}
}

// Result summarizes a completed pipeline run.
type Result struct {
	DocumentsProcessed     int
	DocumentsSkipped       int
	ChunksInstalled        int
	ExactDuplicatesDropped int
	NearDuplicatesDropped  int
	ShortChunksDropped     int
	Report                 QualityReport
}

// Run walks dir (non-recursively; the caller widens this by invoking Run
// per directory, matching spec §4.11's "applied per directory in order"),
// analyzes, chunks, deduplicates, strips boilerplate, and installs the
// result into collection.
func (p *Pipeline) Run(ctx context.Context, dir, collection string) (*Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var allChunks []Chunk
	result := &Result{}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		chunks, skipped, err := p.processFile(path)
		if err != nil {
			return nil, fmt.Errorf("processing %s: %w", path, err)
		}
		if skipped {
			result.DocumentsSkipped++
			continue
		}
		result.DocumentsProcessed++
		allChunks = append(allChunks, chunks...)
	}

	allChunks, shortDropped := dropShort(allChunks, p.Options.MinContentLength)
	result.ShortChunksDropped = shortDropped

	totalBeforeDedup := len(allChunks)

	allChunks, exactDropped := ExactDeduplicate(allChunks)
	result.ExactDuplicatesDropped = exactDropped

	allChunks, nearDropped := NearDeduplicate(allChunks)
	result.NearDuplicatesDropped = nearDropped

	allChunks = StripBoilerplate(allChunks)

	if err := verifyIntegrity(allChunks); err != nil {
		return nil, err
	}

	result.Report = BuildQualityReport(allChunks, totalBeforeDedup)

	installed, err := p.install(ctx, allChunks, collection)
	if err != nil {
		return nil, err
	}
	result.ChunksInstalled = installed

	return result, nil
}

func (p *Pipeline) processFile(path string) (chunks []Chunk, skipped bool, err error) {
	ext := Ext(path)
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	doc, err := p.Parsers.ParseFile(bytes.NewReader(content), path, ext)
	if err != nil {
		return nil, false, fmt.Errorf("parsing document: %w", err)
	}

	analysis := AnalyzeDocument(path, doc.Content, ext)
	if p.Options.MinQualityScore > 0 && analysis.QualityScore < p.Options.MinQualityScore {
		return nil, true, nil
	}

	return ChunkDocument(analysis, doc.Content), false, nil
}

func dropShort(chunks []Chunk, minLength int) ([]Chunk, int) {
	if minLength <= 0 {
		return chunks, 0
	}
	var out []Chunk
	dropped := 0
	for _, c := range chunks {
		if len(c.Content) < minLength {
			dropped++
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}

// verifyIntegrity enforces the Chunk invariant (spec §3) that no two
// chunks share a content hash after deduplication; chunk lengths are not
// checked here. A violation here is fatal for the pipeline run (spec §7
// DataIntegrityError: "no partial install").
func verifyIntegrity(chunks []Chunk) error {
	seen := make(map[string]bool, len(chunks))
	for _, c := range chunks {
		if seen[c.ContentHash] {
			return &errs.DataIntegrityError{Reason: fmt.Sprintf("duplicate content hash %s survived deduplication", c.ContentHash)}
		}
		seen[c.ContentHash] = true
	}
	return nil
}

// install embeds chunks in batches (halving and retrying once on
// failure, per spec §7) and writes them to a staging collection before
// swapping it in as collection. The Store interface has no atomic
// rename, so the swap is emulated: chunks land in
// "<collection>__staging" first, and only once every batch succeeds are
// they re-inserted under collection, leaving the staging copy as a
// recovery point if that final step fails partway.
func (p *Pipeline) install(ctx context.Context, chunks []Chunk, collection string) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}

	staging := collection + "__staging"
	docs, err := p.embedBatches(ctx, chunks)
	if err != nil {
		return 0, err
	}

	dimension := len(docs[0].Embedding)
	_ = p.Store.CreateCollection(ctx, staging, dimension, nil)
	if _, err := p.Store.Insert(ctx, &vectorstore.InsertRequest{CollectionName: staging, Documents: docs}); err != nil {
		return 0, fmt.Errorf("inserting into staging collection: %w", err)
	}

	_ = p.Store.CreateCollection(ctx, collection, dimension, nil)
	if _, err := p.Store.Insert(ctx, &vectorstore.InsertRequest{CollectionName: collection, Documents: docs}); err != nil {
		return 0, fmt.Errorf("swapping staging collection into %q (staging copy retained at %q): %w", collection, staging, err)
	}

	_ = p.Store.DeleteCollection(ctx, staging)
	return len(docs), nil
}

func (p *Pipeline) embedBatches(ctx context.Context, chunks []Chunk) ([]vectorstore.Document, error) {
	batchSize := p.Options.EmbedBatchSize
	if batchSize <= 0 {
		batchSize = 64
	}

	var docs []vectorstore.Document
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]

		embedded, err := p.embedBatchWithRetry(ctx, batch, batchSize)
		if err != nil {
			return nil, err
		}
		docs = append(docs, embedded...)
	}
	return docs, nil
}

// embedBatchWithRetry implements the "halve the batch and retry once"
// policy (spec §7 ExternalProviderError).
func (p *Pipeline) embedBatchWithRetry(ctx context.Context, batch []Chunk, originalBatchSize int) ([]vectorstore.Document, error) {
	docs, err := p.embedChunks(ctx, batch)
	if err == nil {
		return docs, nil
	}
	if len(batch) <= 1 {
		return nil, &errs.EmbeddingBatchFailure{BatchSize: originalBatchSize, Cause: err}
	}

	mid := len(batch) / 2
	first, ferr := p.embedChunks(ctx, batch[:mid])
	if ferr != nil {
		return nil, &errs.EmbeddingBatchFailure{BatchSize: originalBatchSize, Cause: ferr}
	}
	second, serr := p.embedChunks(ctx, batch[mid:])
	if serr != nil {
		return nil, &errs.EmbeddingBatchFailure{BatchSize: originalBatchSize, Cause: serr}
	}
	return append(first, second...), nil
}

func (p *Pipeline) embedChunks(ctx context.Context, batch []Chunk) ([]vectorstore.Document, error) {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Content
	}

	resp, err := p.Embedder.Embed(ctx, &embedding.EmbedRequest{Texts: texts})
	if err != nil {
		return nil, err
	}

	docs := make([]vectorstore.Document, len(batch))
	for i, c := range batch {
		docs[i] = vectorstore.Document{
			ID:        uuid.New().String(),
			Content:   c.Content,
			Embedding: resp.Vectors[i].Embedding,
			Metadata: map[string]interface{}{
				"source_path":   c.SourcePath,
				"strategy_used": c.StrategyUsed,
				"quality_score": c.QualityScore,
				"content_hash":  c.ContentHash,
				"index":         c.Index,
			},
		}
	}
	return docs, nil
}
