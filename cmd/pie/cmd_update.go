package main

import "context"

// update is install with a forced dependency refresh: the index is
// re-resolved, a newer matching release replaces the installed one, and
// requirements are reinstalled either way.
func runUpdate(ctx context.Context, args []string) {
	provision(ctx, "update", args, true)
}
