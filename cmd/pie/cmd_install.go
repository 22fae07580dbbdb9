package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/pie/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/pie/internal/domain-orchestrators"
	"github.com/ochairo/pie/internal/domain/entities"
	ifgateways "github.com/ochairo/pie/internal/domain/interfaces/gateways"
	"github.com/ochairo/pie/internal/domain/services"
	"github.com/ochairo/pie/internal/external-adapters/csvindex"
	"github.com/ochairo/pie/internal/external-adapters/gpg"
	"github.com/ochairo/pie/internal/external-adapters/manifest"
	"github.com/ochairo/pie/internal/external-adapters/yaml"
)

// DefaultIndexURL is the canonical release index location, overridable
// with --index or the config file
const DefaultIndexURL = "https://raw.githubusercontent.com/ochairo/pie-index/main/versions.csv"

// DefaultBaseDir is the default environment location
const DefaultBaseDir = ".python"

func runInstall(ctx context.Context, args []string) {
	provision(ctx, "install", args, false)
}

// provision implements install and update, which differ only in whether
// dependencies are refreshed when the interpreter is already current
func provision(ctx context.Context, name string, args []string, refreshDeps bool) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var (
		projectDir = fs.String("project", ".", "Project directory holding pyver.txt and requirements files")
		baseDir    = fs.String("base", "", "Installation base path (default ./"+DefaultBaseDir+")")
		cacheDir   = fs.String("cache-dir", "", "Archive cache directory (default <base>/cache)")
		indexURL   = fs.String("index", "", "Release index URL or local file (default "+DefaultIndexURL+")")
		configPath = fs.String("config", "", "Project config file (default "+yaml.DefaultFile+")")
		prerelease = fs.Bool("prerelease", false, "Consider pre-release interpreter versions")
		wrappers   = fs.Bool("wrappers", false, "Generate python/pip wrapper scripts")
		quiet      = fs.Bool("quiet", false, "Only log warnings and errors")
		verbose    = fs.Bool("verbose", false, "Log debug details")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: pie %s [options]

%s

Options:
`, name, commandSummary(name))
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  pie %s
  pie %s --base .python --wrappers
  pie %s --index ./versions.csv --prerelease
`, name, name, name)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	explicit := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfgPath := *configPath
	if cfgPath == "" {
		cfgPath = filepath.Join(*projectDir, yaml.DefaultFile)
	}
	cfg, err := yaml.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Flags beat config, config beats defaults
	base := firstOf(*baseDir, cfg.BaseDir, filepath.Join(*projectDir, DefaultBaseDir))
	cache := firstOf(*cacheDir, cfg.CacheDir, filepath.Join(base, "cache"))
	index := firstOf(*indexURL, cfg.Index, DefaultIndexURL)
	usePrerelease := *prerelease || (!explicit["prerelease"] && cfg.Prerelease)
	useWrappers := *wrappers || (!explicit["wrappers"] && cfg.Wrappers)

	setupLogging(*quiet, *verbose, cfg.LogFile)

	loader := manifest.NewLoader(*projectDir)
	m, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var verifier ifgateways.SignatureVerifier
	if cfg.GPG.Enabled() {
		v := gpg.NewVerifier()
		if err := v.ImportKeys(ctx, cfg.GPG.KeyIDs); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing signing keys: %v\n", err)
			os.Exit(1)
		}
		verifier = v
	}

	orch := orchestrators.NewInstallOrchestrator(
		csvindex.NewRepository(index),
		services.NewVersionService(),
		services.NewEnvironmentService(),
		gateways.NewDownloader(),
		gateways.NewExtractor(),
		gateways.NewPipRunner(),
		verifier,
		gateways.NewWrapperWriter(),
		orchestrators.InstallConfig{
			Platform:        detectPlatform(),
			BaseDir:         base,
			CacheDir:        cache,
			Prerelease:      usePrerelease,
			Wrappers:        useWrappers,
			RefreshDeps:     refreshDeps,
			SignatureSuffix: cfg.GPG.Suffix(),
		},
	)

	report, err := orch.Install(ctx, m)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var toolErr *gateways.ToolError
		if errors.As(err, &toolErr) && toolErr.ExitCode > 0 {
			os.Exit(toolErr.ExitCode)
		}
		os.Exit(1)
	}

	if !*quiet {
		printReport(report, base)
	}
}

func commandSummary(name string) string {
	if name == "update" {
		return "Re-resolve the requested interpreter version and refresh dependencies."
	}
	return "Provision the local interpreter and install declared dependencies."
}

// firstOf returns the first non-empty value
func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printReport(report *entities.InstallReport, base string) {
	switch report.Action {
	case entities.ActionNone:
		if report.RequirementsRun == 0 {
			fmt.Printf("Environment up to date (%s in %s)\n", report.Release.Version, base)
			return
		}
		fmt.Printf("Refreshed %d requirements file(s) for %s in %s\n",
			report.RequirementsRun, report.Release.Version, base)
	case entities.ActionInstall:
		fmt.Printf("Installed %s to %s", report.Release.Version, base)
		if report.CacheHit {
			fmt.Print(" (archive from cache)")
		}
		fmt.Printf(" in %.1fs\n", report.TotalDuration.Seconds())
	case entities.ActionReinstall:
		fmt.Printf("Reinstalled %s to %s in %.1fs\n",
			report.Release.Version, base, report.TotalDuration.Seconds())
	}
}
