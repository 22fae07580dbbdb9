package main

import (
	"flag"
	"fmt"
	"os"
)

// Version is pie's own version, overridable at build time with
// -ldflags "-X main.Version=..."
var Version = "1.0.0"

func runVersion(args []string) {
	fs := flag.NewFlagSet("version", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pie version\n\nShow pie's own version.\n")
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("pie %s\n", Version)
}
