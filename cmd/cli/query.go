// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"test-smith/cmd/common"
	"test-smith/internal/config"
	"test-smith/internal/errs"
	"test-smith/pkg/notes"
	"test-smith/pkg/steps"
	"test-smith/pkg/workflow"
)

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "Path to configuration file")
	workflowName := fs.String("workflow", common.DeepResearchWorkflow, "Registered workflow to run")
	interactive := fs.Bool("interactive", false, "Run in interactive mode")
	verbose := fs.Bool("verbose", false, "Show detailed execution information")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: test-smith query [options] <question>

Run a registered research workflow against a question.

Options:
  -config string
        Path to configuration file (default "config.json")
  -workflow string
        Registered workflow to run: deep_research, quick_research,
        fact_check, comparative, causal_inference, code_investigation
        (default %q)
  -interactive
        Run in interactive mode for multiple queries
  -verbose
        Show detailed execution information

Examples:
  # Single query against the default deep-research workflow
  test-smith query "What are the main risk factors mentioned in the document?"

  # A quicker single-pass workflow
  test-smith query -workflow quick_research "What is the capital of France?"

  # Interactive mode
  test-smith query -interactive
`, common.DeepResearchWorkflow)
	}

	if err := fs.Parse(args); err != nil {
		return err
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

	if *interactive {
		return runInteractiveQuery(system, *workflowName, *verbose)
	}

	if fs.NArg() < 1 {
		return fmt.Errorf("question is required")
	}

	question := strings.Join(fs.Args(), " ")
	return executeQuery(system, *workflowName, question, *verbose)
}

func runInteractiveQuery(system *common.System, workflowName string, verbose bool) error {
	fmt.Printf("test-smith — interactive mode (workflow: %s)\n", workflowName)
	fmt.Println("Type 'exit' or 'quit' to exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("Query> ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}

		if question == "exit" || question == "quit" {
			fmt.Println("Goodbye!")
			break
		}

		if err := executeQuery(system, workflowName, question, verbose); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		fmt.Println()
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// exitCodeForError maps a workflow run's error to the process exit code the
// spec's CLI contract requires (0 success, 1 budget/timeout exhaustion, 2
// configuration error, 3 a step's own failure).
func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var recursion *errs.RecursionLimitExceeded
	var runTimeout *errs.RunTimeout
	var budget *errs.BudgetExceeded
	var cfgErr *errs.ConfigurationError
	var notFound *errs.WorkflowNotFound
	var stepFail *errs.StepFailure
	switch {
	case errors.As(err, &recursion), errors.As(err, &runTimeout), errors.As(err, &budget):
		return 1
	case errors.As(err, &cfgErr), errors.As(err, &notFound):
		return 2
	case errors.As(err, &stepFail):
		return 3
	default:
		return 1
	}
}

func executeQuery(system *common.System, workflowName, question string, verbose bool) error {
	ctx := context.Background()

	fmt.Printf("Question: %s\n\n", question)
	if verbose {
		fmt.Printf("Running workflow %q...\n\n", workflowName)
	}

	initial := workflow.State{steps.Query: question}
	threadID := uuid.New().String()

	result, err := system.Engine.Run(ctx, workflowName, initial, threadID)
	if err != nil {
		return fmt.Errorf("execution failed (thread %s): %w", threadID, err)
	}

	if verbose {
		displayVerboseResults(result)
	} else {
		displayCompactResults(result)
	}

	return nil
}

func displayVerboseResults(state workflow.State) {
	fmt.Println("=== Notes ===")
	for i, n := range notesFromState(state) {
		fmt.Printf("%d. [%s] %s\n", i+1, strings.Join(n.SourceIDs, ","), n.Summary)
	}
	fmt.Println()

	fmt.Println("=== Final Report ===")
	report := state.GetString(steps.FinalReport)
	if report != "" {
		fmt.Println(report)
	} else {
		fmt.Println("No final report generated.")
	}
}

func displayCompactResults(state workflow.State) {
	report := state.GetString(steps.FinalReport)
	if report != "" {
		fmt.Println(report)
		return
	}
	fmt.Println("No final report generated.")
}

func notesFromState(state workflow.State) []notes.AnalyzedNote {
	v, ok := state.Get(steps.Notes)
	if !ok {
		return nil
	}
	ns, _ := v.([]notes.AnalyzedNote)
	return ns
}
