// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"test-smith/cmd/common"
	"test-smith/internal/config"
	"test-smith/pkg/preprocess"
)

var documentExts = []string{".txt", ".md", ".markdown"}
var codeExts = []string{".go", ".py", ".js", ".ts", ".java", ".rb", ".rs", ".c", ".h", ".cpp"}

func runIngest(args []string) error {
	fs := flag.NewFlagSet("ingest", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "Path to configuration file")
	recursive := fs.Bool("recursive", false, "Recursively process directories")
	code := fs.Bool("code", false, "Ingest into the code-investigation collection instead of the document knowledge base")
	deriveSchema := fs.Bool("derive-schema", true, "Derive document schema using LLM")
	verbose := fs.Bool("verbose", false, "Show detailed processing information")
	doPreprocess := fs.Bool("preprocess", false, "Run the full preprocessing pipeline (quality scoring, deduplication, boilerplate removal) instead of direct ingestion; only valid for a single directory argument")
	minQuality := fs.Float64("min-quality", 0, "Skip documents scoring below this quality threshold when -preprocess is set (0 disables the filter)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: test-smith ingest [options] <file-or-directory>...

Ingest documents or source code into their respective vector store collections.

Options:
  -config string
        Path to configuration file (default "config.json")
  -recursive
        Recursively process directories
  -code
        Ingest into the code-investigation collection (source files) instead
        of the document knowledge base (text/markdown)
  -derive-schema
        Derive document schema using LLM (default true)
  -verbose
        Show detailed processing information
  -preprocess
        Run the full preprocessing pipeline (quality scoring, exact/near-
        duplicate removal, boilerplate stripping, quality report) over a
        single directory instead of ingesting files directly
  -min-quality float
        Skip documents scoring below this threshold when -preprocess is set

Examples:
  # Ingest a single document
  test-smith ingest document.txt

  # Ingest a directory of documents
  test-smith ingest -recursive ./documents

  # Ingest a source tree for code investigation
  test-smith ingest -code -recursive ./src

  # Run the full preprocessing pipeline over a directory
  test-smith ingest -preprocess -min-quality 0.5 ./corpus
`)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("at least one file or directory path is required")
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	system, err := common.InitializeSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize system: %w", err)
	}
	defer system.Close()

	ctx := context.Background()

	if *doPreprocess {
		if fs.NArg() != 1 {
			return fmt.Errorf("-preprocess takes exactly one directory argument")
		}
		return runPreprocess(ctx, system, fs.Arg(0), *code, *minQuality, cfg)
	}

	var totalFiles, totalChunks int
	for _, path := range fs.Args() {
		files, chunks, err := processPath(ctx, system, path, *recursive, *code, *deriveSchema, *verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to process %s: %v\n", path, err)
			continue
		}
		totalFiles += files
		totalChunks += chunks
	}

	fmt.Printf("\nIngestion complete:\n")
	fmt.Printf("  Files processed: %d\n", totalFiles)
	fmt.Printf("  Chunks created: %d\n", totalChunks)
	if *code {
		fmt.Printf("  Collection: %s\n", cfg.VectorStore.CodeCollection)
	} else {
		fmt.Printf("  Collection: %s\n", cfg.VectorStore.DefaultCollection)
	}

	return nil
}

func runPreprocess(ctx context.Context, system *common.System, dir string, code bool, minQuality float64, cfg *config.Config) error {
	store := system.VectorStore
	collection := cfg.VectorStore.DefaultCollection
	if code {
		store = system.CodeVectorStore
		collection = cfg.VectorStore.CodeCollection
	}

	opts := preprocess.DefaultOptions()
	opts.MinQualityScore = minQuality

	pipeline := preprocess.NewPipeline(system.Embedder, store, opts)

	result, err := pipeline.Run(ctx, dir, collection)
	if err != nil {
		return fmt.Errorf("preprocessing pipeline failed: %w", err)
	}

	fmt.Printf("\nPreprocessing complete:\n")
	fmt.Printf("  Documents processed: %d\n", result.DocumentsProcessed)
	fmt.Printf("  Documents skipped (low quality): %d\n", result.DocumentsSkipped)
	fmt.Printf("  Short chunks dropped: %d\n", result.ShortChunksDropped)
	fmt.Printf("  Exact duplicates dropped: %d\n", result.ExactDuplicatesDropped)
	fmt.Printf("  Near-duplicates dropped: %d\n", result.NearDuplicatesDropped)
	fmt.Printf("  Chunks installed: %d\n", result.ChunksInstalled)
	fmt.Printf("  Collection: %s\n\n", collection)
	fmt.Print(result.Report.Render())

	return nil
}

func processPath(ctx context.Context, system *common.System, path string, recursive, code, deriveSchema, verbose bool) (int, int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}

	if info.IsDir() {
		return processDirectory(ctx, system, path, recursive, code, deriveSchema, verbose)
	}

	return processFile(ctx, system, path, code, deriveSchema, verbose)
}

func processDirectory(ctx context.Context, system *common.System, dirPath string, recursive, code, deriveSchema, verbose bool) (int, int, error) {
	var totalFiles, totalChunks int

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return 0, 0, err
	}

	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())

		if entry.IsDir() {
			if recursive {
				files, chunks, err := processDirectory(ctx, system, fullPath, recursive, code, deriveSchema, verbose)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: failed to process directory %s: %v\n", fullPath, err)
					continue
				}
				totalFiles += files
				totalChunks += chunks
			}
			continue
		}

		files, chunks, err := processFile(ctx, system, fullPath, code, deriveSchema, verbose)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to process file %s: %v\n", fullPath, err)
			continue
		}
		totalFiles += files
		totalChunks += chunks
	}

	return totalFiles, totalChunks, nil
}

func processFile(ctx context.Context, system *common.System, filePath string, code, deriveSchema, verbose bool) (int, int, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	allowed := documentExts
	if code {
		allowed = codeExts
	}
	supported := false
	for _, supportedExt := range allowed {
		if ext == supportedExt {
			supported = true
			break
		}
	}

	if !supported {
		if verbose {
			fmt.Printf("Skipping unsupported file: %s\n", filePath)
		}
		return 0, 0, nil
	}

	if verbose {
		fmt.Printf("Processing: %s\n", filePath)
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read file: %w", err)
	}

	var chunks int
	if code {
		chunks, err = system.IngestCode(ctx, filePath, string(content))
	} else {
		chunks, err = system.IngestDocument(ctx, filePath, string(content), deriveSchema)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to ingest: %w", err)
	}

	if verbose {
		fmt.Printf("  Created %d chunks\n", chunks)
	}

	return 1, chunks, nil
}
