// planner runs the satellite tasking planner from the command line.
//
// Usage:
//
//	planner plan <problem> [--json] [--domain satellite|blocks]
//	planner batch <dir> [--report path] [--workers n] [--pattern s] [--db path]
//	planner history [--db path] [--limit n]
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
