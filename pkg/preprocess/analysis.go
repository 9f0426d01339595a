// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package preprocess implements the offline preprocessing pipeline (spec
// §4.11): document analysis, chunking-strategy selection, chunking, exact
// and near-duplicate removal, boilerplate stripping, and a quality metrics
// report, culminating in an atomic install into a vector store collection.
// Grounded on the teacher's pkg/document/parser (format detection) and
// pkg/document/chunker (chunk shape), generalized from schema-driven
// financial-document chunking to structure/quality-driven general chunking.
package preprocess

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

// Structure is the detected document structure kind.
type Structure string

const (
	StructureMarkdown Structure = "markdown"
	StructurePDF      Structure = "pdf"
	StructurePlain    Structure = "plain"
	StructureCode     Structure = "code"
)

// DocumentAnalysis is the Document Analyzer's per-file output (spec §3).
type DocumentAnalysis struct {
	SourcePath         string
	Language           string
	Structure          Structure
	SizeBytes          int
	QualityScore       float64
	DetectedIssues     []string
	RecommendedStrategy string
}

var codeExtensions = map[string]string{
	".go": "go", ".py": "python", ".js": "javascript", ".ts": "typescript",
	".java": "java", ".rb": "ruby", ".rs": "rust", ".c": "c", ".h": "c",
	".cpp": "c++",
}

var headerPattern = regexp.MustCompile(`(?m)^#{1,6}\s+\S`)
// hasRepeatedBlock reports whether a line of at least 20 characters occurs
// three or more times in a row, each occurrence ending in a newline.
func hasRepeatedBlock(content string) bool {
	lines := strings.Split(content, "\n")
	run := 1
	for i := 1; i < len(lines)-1; i++ {
		if lines[i] == lines[i-1] && len([]rune(lines[i])) >= 20 {
			if run++; run >= 3 {
				return true
			}
		} else {
			run = 1
		}
	}
	return false
}

// AnalyzeDocument inspects content (already extracted to plain text by
// pkg/document/parser) and produces a DocumentAnalysis. ext is the
// original file extension, used for structure/language detection.
func AnalyzeDocument(sourcePath, content, ext string) DocumentAnalysis {
	ext = strings.ToLower(ext)
	structure := detectStructure(ext, content)
	language := detectLanguage(ext, structure)

	quality, issues := scoreQuality(content, structure)

	return DocumentAnalysis{
		SourcePath:          sourcePath,
		Language:            language,
		Structure:           structure,
		SizeBytes:           len(content),
		QualityScore:        quality,
		DetectedIssues:      issues,
		RecommendedStrategy: SelectStrategy(structure, content),
	}
}

func detectStructure(ext, content string) Structure {
	if lang, ok := codeExtensions[ext]; ok && lang != "" {
		return StructureCode
	}
	if ext == ".pdf" {
		return StructurePDF
	}
	if ext == ".md" || ext == ".markdown" || headerPattern.MatchString(content) {
		return StructureMarkdown
	}
	return StructurePlain
}

func detectLanguage(ext string, structure Structure) string {
	if structure == StructureCode {
		if lang, ok := codeExtensions[ext]; ok {
			return lang
		}
	}
	return "en"
}

// scoreQuality computes quality_score (spec §4.11 step 1) from: presence
// of structure, median paragraph length (reward 80-400 chars), the ratio
// of alphabetic content to whitespace/boilerplate, and absence of
// repeated blocks.
func scoreQuality(content string, structure Structure) (float64, []string) {
	var issues []string
	if strings.TrimSpace(content) == "" {
		return 0, []string{"empty document"}
	}

	paragraphs := splitParagraphs(content)
	structureScore := 0.0
	if structure == StructureMarkdown || len(paragraphs) > 1 {
		structureScore = 1.0
	} else {
		issues = append(issues, "no detectable paragraph/heading structure")
	}

	medianLen := medianParagraphLength(paragraphs)
	lengthScore := 0.0
	switch {
	case medianLen >= 80 && medianLen <= 400:
		lengthScore = 1.0
	case medianLen > 0:
		lengthScore = 0.5
		issues = append(issues, "paragraph lengths outside the 80-400 char sweet spot")
	default:
		issues = append(issues, "no paragraphs detected")
	}

	alphaRatio := alphabeticRatio(content)
	if alphaRatio < 0.5 {
		issues = append(issues, "low alphabetic-content ratio (likely boilerplate/markup heavy)")
	}

	repeatScore := 1.0
	if hasRepeatedBlock(content) {
		repeatScore = 0.3
		issues = append(issues, "repeated blocks detected")
	}

	score := 0.25*structureScore + 0.25*lengthScore + 0.25*alphaRatio + 0.25*repeatScore
	return score, issues
}

func splitParagraphs(content string) []string {
	raw := strings.Split(content, "\n\n")
	var out []string
	for _, p := range raw {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func medianParagraphLength(paragraphs []string) int {
	if len(paragraphs) == 0 {
		return 0
	}
	lens := make([]int, len(paragraphs))
	for i, p := range paragraphs {
		lens[i] = len(p)
	}
	sortInts(lens)
	mid := len(lens) / 2
	if len(lens)%2 == 0 {
		return (lens[mid-1] + lens[mid]) / 2
	}
	return lens[mid]
}

func sortInts(nums []int) {
	for i := 1; i < len(nums); i++ {
		for j := i; j > 0 && nums[j-1] > nums[j]; j-- {
			nums[j-1], nums[j] = nums[j], nums[j-1]
		}
	}
}

func alphabeticRatio(content string) float64 {
	if len(content) == 0 {
		return 0
	}
	var alpha, total int
	for _, r := range content {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(alpha) / float64(total)
}

// Ext returns the lowercased file extension of path, including the dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
