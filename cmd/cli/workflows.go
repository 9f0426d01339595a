// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"test-smith/cmd/common"
	"test-smith/internal/config"
)

// runWorkflows implements the `workflows` command (spec §6): list the
// registered workflows, optionally with their steps and budgets.
func runWorkflows(args []string) error {
	fs := flag.NewFlagSet("workflows", flag.ExitOnError)
	configPath := fs.String("config", "config.json", "Path to configuration file")
	detailed := fs.Bool("detailed", false, "Show each workflow's steps and resource budgets")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: test-smith workflows [options]

List the workflows registered with this build.

Options:
  -config string
        Path to configuration file (default "config.json")
  -detailed
        Show each workflow's steps and resource budgets
`)
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

	names := system.Registry.List()
	sort.Strings(names)

	if len(names) == 0 {
		fmt.Println("No workflows registered.")
		return nil
	}

	for _, name := range names {
		if !*detailed {
			fmt.Println(name)
			continue
		}

		def, err := system.Registry.Get(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %s: %v\n", name, err)
			continue
		}

		fmt.Printf("%s\n", name)
		fmt.Printf("  entry step:        %s\n", def.Graph.Entry())
		fmt.Printf("  steps:             %v\n", def.Graph.StepNames())
		fmt.Printf("  recursion limit:   %d\n", def.Budgets.RecursionLimit)
		fmt.Printf("  max loops:         %d\n", def.Budgets.MaxLoops)
		fmt.Printf("  step timeout (s):  %d\n", def.Budgets.StepTimeoutSec)
		fmt.Printf("  run timeout (s):   %d\n", def.Budgets.RunTimeoutSec)
		fmt.Println()
	}

	return nil
}
