// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"test-smith/internal/config"
)

// runList implements the `list reports`/`list logs` commands (spec §6):
// enumerate recent outputs written by `run`.
func runList(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: test-smith list <reports|logs> [-limit N]")
	}

	kind := args[0]
	rest := args[1:]

	fs := flag.NewFlagSet("list "+kind, flag.ExitOnError)
	configPath := fs.String("config", "config.json", "Path to configuration file")
	limit := fs.Int("limit", 20, "Maximum number of entries to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: test-smith list <reports|logs> [options]

Options:
  -config string
        Path to configuration file (default "config.json")
  -limit int
        Maximum number of entries to show (default 20)
`)
	}

	if err := fs.Parse(rest); err != nil {
		return err
	}

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var dir string
	switch kind {
	case "reports":
		dir = cfg.Paths.ReportDir
	case "logs":
		dir = cfg.Paths.LogDir
	default:
		return fmt.Errorf("unknown list target %q, expected \"reports\" or \"logs\"", kind)
	}

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		fmt.Printf("No %s found (directory %s does not exist yet).\n", kind, dir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading %s directory: %w", kind, err)
	}

	type item struct {
		name    string
		modTime int64
	}
	var items []item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, item{name: e.Name(), modTime: info.ModTime().Unix()})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].modTime > items[j].modTime })

	if len(items) > *limit {
		items = items[:*limit]
	}

	if len(items) == 0 {
		fmt.Printf("No %s found in %s.\n", kind, dir)
		return nil
	}

	for _, it := range items {
		fmt.Println(filepath.Join(dir, it.name))
	}
	return nil
}
