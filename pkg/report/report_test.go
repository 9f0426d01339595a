// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package report

import (
	"strings"
	"testing"
	"time"

	"test-smith/pkg/notes"
)

func TestReport_Render_HeaderBlock(t *testing.T) {
	r := Build("What is the capital of France?", "quick_research", "thread-123",
		time.Date(2026, 3, 5, 10, 30, 0, 0, time.UTC),
		"Paris is the capital of France.",
		[]notes.AnalyzedNote{{Summary: "Paris", SourceIDs: []string{"web-1"}}})

	out := r.Render()

	for _, want := range []string{
		"# Test-Smith Report",
		"**Query:** What is the capital of France?",
		"**Workflow:** quick_research",
		"**Thread ID:** thread-123",
		"2026-03-05T10:30:00Z",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected rendered report to contain %q, got:\n%s", want, out)
		}
	}
}

func TestReport_Render_NumberedSectionsFromHeaders(t *testing.T) {
	body := "# Overview\nSome overview text.\n\n# Risk Factors\nSome risk text."
	r := Build("q", "deep_research", "t1", time.Now(), body, nil)

	out := r.Render()
	if !strings.Contains(out, "## 1. Overview") {
		t.Errorf("expected numbered section 1 for Overview, got:\n%s", out)
	}
	if !strings.Contains(out, "## 2. Risk Factors") {
		t.Errorf("expected numbered section 2 for Risk Factors, got:\n%s", out)
	}
}

func TestReport_Render_NoHeadersBecomesSingleFindingsSection(t *testing.T) {
	r := Build("q", "quick_research", "t1", time.Now(), "Just a plain synthesized answer.", nil)
	out := r.Render()
	if !strings.Contains(out, "## 1. Findings") {
		t.Errorf("expected a single Findings section, got:\n%s", out)
	}
}

func TestReport_Render_SourcesAppendixDeduplicatesAndSorts(t *testing.T) {
	cited := []notes.AnalyzedNote{
		{Summary: "a", SourceIDs: []string{"doc-2", "doc-1"}},
		{Summary: "b", SourceIDs: []string{"doc-1"}},
	}
	r := Build("q", "quick_research", "t1", time.Now(), "body", cited)
	out := r.Render()

	idx1 := strings.Index(out, "doc-1")
	idx2 := strings.Index(out, "doc-2")
	if idx1 == -1 || idx2 == -1 {
		t.Fatalf("expected both source ids in output, got:\n%s", out)
	}
	if idx1 > idx2 {
		t.Error("expected source ids sorted ascending")
	}
	if strings.Count(out, "doc-1") != 1 {
		t.Errorf("expected doc-1 to appear once (deduplicated), got %d times", strings.Count(out, "doc-1"))
	}
}

func TestReport_Render_NoSourcesNotesMessage(t *testing.T) {
	r := Build("q", "quick_research", "t1", time.Now(), "body", nil)
	out := r.Render()
	if !strings.Contains(out, "No sources were cited.") {
		t.Errorf("expected a no-sources message, got:\n%s", out)
	}
}

func TestReport_Save_WritesFile(t *testing.T) {
	dir := t.TempDir()
	r := Build("q", "quick_research", "thread-abcdefgh", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), "body", nil)

	path, err := r.Save(dir)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("expected path under %s, got %s", dir, path)
	}
	if !strings.Contains(path, "-thread-a.md") {
		t.Errorf("expected filename to contain the shortened thread id, got %s", path)
	}
}
