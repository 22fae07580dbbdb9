// Package main provides the pie CLI for provisioning local Python
// environments.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/ochairo/pie/internal/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "install":
		runInstall(ctx, os.Args[2:])
	case "uninstall":
		runUninstall(ctx, os.Args[2:])
	case "update":
		runUpdate(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "version":
		runVersion(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pie - portable Python environment provisioner

Usage:
  pie <command> [options]

Commands:
  install    Provision the local interpreter and install dependencies
  uninstall  Remove the provisioned environment
  update     Re-resolve the requested version and refresh dependencies
  list       List interpreter versions available in the release index
  version    Show pie's own version

Use "pie <command> --help" for more information about a command.`)
}

// setupLogging installs the process logger based on shared verbosity flags
func setupLogging(quiet, verbose bool, logFile string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	if quiet {
		level = slog.LevelWarn
	}

	slog.SetDefault(logger.New(
		logger.WithLevel(level),
		logger.WithLogFile(logFile),
	))
}

// detectPlatform returns the release index platform key for this host
func detectPlatform() string {
	goos := runtime.GOOS

	// Map Go's GOARCH to the names interpreter builds are published under
	archMap := map[string]string{
		"amd64": "x86_64",
		"arm64": "arm64",
		"386":   "i686",
	}

	arch := archMap[runtime.GOARCH]
	if arch == "" {
		arch = runtime.GOARCH
	}

	return fmt.Sprintf("%s-%s", goos, arch)
}
