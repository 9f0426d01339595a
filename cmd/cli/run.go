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
	"time"

	"github.com/google/uuid"

	"test-smith/cmd/common"
	"test-smith/internal/config"
	"test-smith/pkg/notes"
	"test-smith/pkg/report"
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

// runRun implements the `run` command (spec §6): run a workflow against a
// query, writing a Markdown report and a run log unless suppressed.
func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "Path to configuration file")
	workflowName := fs.String("workflow", common.DeepResearchWorkflow, "Registered workflow to run")
	threadID := fs.String("thread-id", "", "Label the run with this thread id; the run always starts fresh (default: a generated id)")
	noReport := fs.Bool("no-report", false, "Do not write a report file to the configured report directory")
	noLog := fs.Bool("no-log", false, "Do not write a run log file to the configured log directory")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: test-smith run [options] <query>

Run a registered workflow against a query, printing and (by default)
persisting a Markdown report and a run log.

Options:
  -config string
        Path to configuration file (default "config.json")
  -workflow string
        Registered workflow to run (default %q)
  -thread-id string
        Label the run with this thread id; the run always starts fresh (default: generated)
  -no-report
        Do not write a report file to the configured report directory
  -no-log
        Do not write a run log file to the configured log directory

Examples:
  test-smith run "What are the main risk factors mentioned in the document?"
  test-smith run -workflow fact_check -thread-id abc123 "The sky is green."
`, common.DeepResearchWorkflow)
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("query is required")
	}
	query := strings.Join(fs.Args(), " ")

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	system, err := common.InitializeSystem(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize system: %w", err)
	}
	defer system.Close()

	id := *threadID
	if id == "" {
		id = uuid.New().String()
	}

	start := time.Now()
	ctx := context.Background()
	initial := workflow.State{steps.Query: query}

	result, runErr := system.Engine.Run(ctx, *workflowName, initial, id)

	var body string
	var cited []notes.AnalyzedNote
	if runErr == nil {
		body = result.GetString(steps.FinalReport)
		cited = notesFromState(result)
	}

	fmt.Printf("Question: %s\n\n", query)
	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: execution failed (thread %s): %v\n", id, runErr)
	} else if body != "" {
		fmt.Println(body)
	} else {
		fmt.Println("No final report generated.")
	}

	r := report.Build(query, *workflowName, id, start, body, cited)

	if !*noReport && runErr == nil {
		path, err := r.Save(cfg.Paths.ReportDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write report: %v\n", err)
		} else {
			fmt.Printf("\nReport written to %s\n", path)
		}
	}

	if !*noLog {
		if path, err := writeRunLog(cfg.Paths.LogDir, query, *workflowName, id, start, runErr); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write run log: %v\n", err)
		} else {
			fmt.Printf("Run log written to %s\n", path)
		}
	}

	return runErr
}

func writeRunLog(dir, query, workflowName, threadID string, start time.Time, runErr error) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating log directory: %w", err)
	}

	status := "success"
	errLine := ""
	if runErr != nil {
		status = "failed"
		errLine = fmt.Sprintf("error: %v\n", runErr)
	}

	name := fmt.Sprintf("%s-%s.log", start.UTC().Format("20060102T150405Z"), shortID(threadID))
	path := filepath.Join(dir, name)

	var b strings.Builder
	fmt.Fprintf(&b, "timestamp: %s\n", start.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "thread_id: %s\n", threadID)
	fmt.Fprintf(&b, "workflow: %s\n", workflowName)
	fmt.Fprintf(&b, "query: %s\n", query)
	fmt.Fprintf(&b, "status: %s\n", status)
	fmt.Fprintf(&b, "duration: %s\n", time.Since(start))
	b.WriteString(errLine)

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
