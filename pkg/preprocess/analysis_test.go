// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package preprocess

import "testing"

func TestAnalyzeDocument_Structure(t *testing.T) {
	tests := []struct {
		name          string
		sourcePath    string
		content       string
		ext           string
		wantStructure Structure
		wantLanguage  string
	}{
		{
			name:          "go source is code",
			sourcePath:    "main.go",
			content:       "package main\n\nfunc main() {}\n",
			ext:           ".go",
			wantStructure: StructureCode,
			wantLanguage:  "go",
		},
		{
			name:          "pdf extension",
			sourcePath:    "report.pdf",
			content:       "some extracted text",
			ext:           ".pdf",
			wantStructure: StructurePDF,
			wantLanguage:  "en",
		},
		{
			name:          "markdown headers detected without extension",
			sourcePath:    "notes",
			content:       "# Title\n\nSome body text that is reasonably long for scoring.\n",
			ext:           "",
			wantStructure: StructureMarkdown,
			wantLanguage:  "en",
		},
		{
			name:          "plain prose",
			sourcePath:    "notes.txt",
			content:       "Just a plain paragraph of prose with no markup at all.",
			ext:           ".txt",
			wantStructure: StructurePlain,
			wantLanguage:  "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := AnalyzeDocument(tt.sourcePath, tt.content, tt.ext)
			if analysis.Structure != tt.wantStructure {
				t.Errorf("Structure = %v, want %v", analysis.Structure, tt.wantStructure)
			}
			if analysis.Language != tt.wantLanguage {
				t.Errorf("Language = %v, want %v", analysis.Language, tt.wantLanguage)
			}
			if analysis.SizeBytes != len(tt.content) {
				t.Errorf("SizeBytes = %d, want %d", analysis.SizeBytes, len(tt.content))
			}
			if analysis.RecommendedStrategy == "" {
				t.Error("RecommendedStrategy is empty")
			}
		})
	}
}

func TestAnalyzeDocument_QualityScoreAndIssues(t *testing.T) {
	repeated := "this is a repeated line of content\n"
	content := repeated + repeated + repeated + repeated
	analysis := AnalyzeDocument("repeated.txt", content, ".txt")

	if analysis.QualityScore >= 0.8 {
		t.Errorf("expected a low quality score for repetitive content, got %v", analysis.QualityScore)
	}
	if len(analysis.DetectedIssues) == 0 {
		t.Error("expected detected issues for repetitive content")
	}
}

func TestExt(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/a/b/c.MD", ".md"},
		{"file.txt", ".txt"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := Ext(tt.path); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
