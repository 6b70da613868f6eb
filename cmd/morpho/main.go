// Command morpho measures per-object shape statistics of labelled grids and
// serves the stored results.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/morphometry/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run dispatches a subcommand and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) < 1 {
		printUsage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "measure":
		err = runMeasure(ctx, args[1:], stdout, stderr)
	case "serve":
		err = runServe(ctx, args[1:], stderr)
	case "migrate":
		err = runMigrate(args[1:], stdout, stderr)
	case "version", "-version", "--version":
		fmt.Fprintln(stdout, version.String("morpho"))
	case "help", "-h", "-help", "--help":
		printUsage(stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "morpho %s: %v\n", args[0], err)
		return 2
	default:
		fmt.Fprintf(stderr, "morpho %s: %v\n", args[0], err)
		return 1
	}
}

var errUsage = errors.New("usage error")

func printUsage(w io.Writer) {
	fmt.Fprint(w, `morpho - per-object morphometry of labelled grids

Usage: morpho <command> [options]

Commands:
  measure    Measure every object of a raw label grid
  serve      Serve stored runs over HTTP
  migrate    Inspect or change the statistics database schema
  version    Show build information
  help       Show this help message

Examples:
  morpho measure -grid pores.raw -dims 512,512,300 -spacing 0.01,0.01,0.01 -db morpho.db
  morpho measure -grid section.raw -dims 2048,2048,1 -spacing 0.002,0.002,1 -shard -csv out.csv
  morpho serve -db morpho.db -listen :8090
  morpho migrate status -db morpho.db
`)
}
