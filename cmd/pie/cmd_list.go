package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/pie/internal/domain/services"
	"github.com/ochairo/pie/internal/external-adapters/csvindex"
	"github.com/ochairo/pie/internal/external-adapters/yaml"
)

func runList(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory")
		indexURL   = fs.String("index", "", "Release index URL or local file (default "+DefaultIndexURL+")")
		configPath = fs.String("config", "", "Project config file (default "+yaml.DefaultFile+")")
		platform   = fs.String("platform", detectPlatform(), "Filter by platform (empty for all)")
		prerelease = fs.Bool("prerelease", false, "Include pre-release versions")
		quiet      = fs.Bool("quiet", false, "Only log warnings and errors")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pie list [options]

List available interpreter versions from the release index.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  pie list
  pie list --prerelease
  pie list --platform ""
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(*projectDir, yaml.DefaultFile)
	}
	cfg, err := yaml.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	setupLogging(*quiet, false, cfg.LogFile)

	repo := csvindex.NewRepository(firstOf(*indexURL, cfg.Index, DefaultIndexURL))
	idx, err := repo.Index(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading release index: %v\n", err)
		os.Exit(1)
	}

	versions := services.NewVersionService()
	releases := versions.Sorted(idx, *platform, *prerelease)

	if len(releases) == 0 {
		fmt.Printf("No versions available for %s\n", *platform)
		return
	}

	if *platform != "" {
		fmt.Printf("Available versions for %s (%d total):\n\n", *platform, len(releases))
	} else {
		fmt.Printf("Available versions (%d total):\n\n", len(releases))
	}

	for _, rel := range releases {
		marker := ""
		if versions.IsPrerelease(rel.Version) {
			marker = "  (pre-release)"
		}
		if *platform != "" {
			fmt.Printf("  %s%s\n", rel.Version, marker)
		} else {
			fmt.Printf("  %-12s %s%s\n", rel.Version, rel.Platform, marker)
		}
	}
}
