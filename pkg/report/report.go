// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package report renders a workflow run's final answer into the
// Markdown report format named by spec §6: a header block (query,
// workflow, timestamp, thread id), numbered sections, and a Sources
// appendix keyed by source id.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"test-smith/pkg/notes"
)

// Report is the rendered output of a completed workflow run.
type Report struct {
	Query     string
	Workflow  string
	ThreadID  string
	Timestamp time.Time
	Body      string
	Notes     []notes.AnalyzedNote
}

var sectionHeaderPattern = regexp.MustCompile(`(?m)^#{1,6}\s+.+$`)

// Build assembles a Report from a completed run's final answer text and
// the notes that were cited along the way.
func Build(query, workflowName, threadID string, timestamp time.Time, body string, cited []notes.AnalyzedNote) Report {
	return Report{
		Query:     query,
		Workflow:  workflowName,
		ThreadID:  threadID,
		Timestamp: timestamp,
		Body:      strings.TrimSpace(body),
		Notes:     cited,
	}
}

// Render produces the report's Markdown text.
func (r Report) Render() string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Test-Smith Report\n\n")
	fmt.Fprintf(&b, "**Query:** %s\n\n", r.Query)
	fmt.Fprintf(&b, "**Workflow:** %s\n\n", r.Workflow)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", r.Timestamp.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "**Thread ID:** %s\n\n", r.ThreadID)
	fmt.Fprintf(&b, "---\n\n")

	for i, section := range numberedSections(r.Body) {
		fmt.Fprintf(&b, "## %d. %s\n\n%s\n\n", i+1, section.title, section.body)
	}

	fmt.Fprintf(&b, "## Sources\n\n")
	ids := sourceIDs(r.Notes)
	if len(ids) == 0 {
		fmt.Fprintf(&b, "No sources were cited.\n")
	} else {
		for _, id := range ids {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	return b.String()
}

// Save writes the rendered report to dir, named by timestamp and thread
// id, and returns the written path.
func (r Report) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating report directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.md", r.Timestamp.UTC().Format("20060102T150405Z"), shortID(r.ThreadID))
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(r.Render()), 0o644); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type section struct {
	title string
	body  string
}

// numberedSections splits body at existing Markdown headers, re-numbering
// them as the report's sections. A body with no headers becomes a single
// "Findings" section.
func numberedSections(body string) []section {
	if body == "" {
		return []section{{title: "Findings", body: "No findings were produced."}}
	}

	locs := sectionHeaderPattern.FindAllStringIndex(body, -1)
	if len(locs) == 0 {
		return []section{{title: "Findings", body: body}}
	}

	var sections []section
	for i, loc := range locs {
		start := loc[0]
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		raw := strings.TrimSpace(body[start:end])
		title, text := splitHeaderLine(raw)
		sections = append(sections, section{title: title, body: text})
	}
	return sections
}

func splitHeaderLine(raw string) (title, body string) {
	lines := strings.SplitN(raw, "\n", 2)
	title = strings.TrimLeft(lines[0], "# ")
	title = strings.TrimSpace(title)
	if len(lines) > 1 {
		body = strings.TrimSpace(lines[1])
	}
	return title, body
}

// sourceIDs collects the distinct, sorted source ids cited across notes.
func sourceIDs(cited []notes.AnalyzedNote) []string {
	seen := make(map[string]bool)
	for _, n := range cited {
		for _, id := range n.SourceIDs {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
