package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/pie/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/pie/internal/domain-orchestrators"
	"github.com/ochairo/pie/internal/domain/services"
	"github.com/ochairo/pie/internal/external-adapters/yaml"
)

func runUninstall(_ context.Context, args []string) {
	fs := flag.NewFlagSet("uninstall", flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory")
		baseDir    = fs.String("base", "", "Installation base path (default ./"+DefaultBaseDir+")")
		cacheDir   = fs.String("cache-dir", "", "Archive cache directory (default <base>/cache)")
		configPath = fs.String("config", "", "Project config file (default "+yaml.DefaultFile+")")
		purgeCache = fs.Bool("purge-cache", false, "Also remove cached archives")
		quiet      = fs.Bool("quiet", false, "Only log warnings and errors")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pie uninstall [options]

Remove the provisioned environment: distribution, wrappers and lock file.
Cached archives are kept unless --purge-cache is given.

Options:
`)
		fs.PrintDefaults()
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

	base := firstOf(*baseDir, cfg.BaseDir, filepath.Join(*projectDir, DefaultBaseDir))
	cache := firstOf(*cacheDir, cfg.CacheDir, filepath.Join(base, "cache"))

	setupLogging(*quiet, false, cfg.LogFile)

	orch := orchestrators.NewUninstallOrchestrator(
		services.NewEnvironmentService(),
		gateways.NewWrapperWriter(),
	)

	if err := orch.Uninstall(base, cache, *purgeCache); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if !*quiet {
		fmt.Printf("Removed environment at %s\n", base)
	}
}
