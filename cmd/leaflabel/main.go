package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code: 0 on success,
// 1 when the command fails and 2 for usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	switch args[0] {
	case "--version", "-v", "version":
		fmt.Fprintf(stdout, "leaflabel %s\n", Version)
		fmt.Fprintf(stdout, "  Build time: %s\n", BuildTime)
		fmt.Fprintf(stdout, "  Git commit: %s\n", GitCommit)
		return 0
	case "--help", "-h", "help":
		printUsage(stdout)
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "leaflabel: unknown command %q\n\n", args[0])
		printUsage(stderr)
		return 2
	}

	if err := cmd.run(args[0], args[1:], stdout, stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "leaflabel %s: %v\n", args[0], err)
		if isUsageError(err) {
			return 2
		}
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "leaflabel - leaf segmentation and YOLO polygon labeling")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage: leaflabel <command> [options] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range commandOrder {
		c := commands[name]
		fmt.Fprintf(w, "  %-8s %-22s %s\n", name, c.usage, c.summary)
	}
	fmt.Fprintf(w, "  %-8s %-22s %s\n", "version", "", "Print version information")
	fmt.Fprintf(w, "  %-8s %-22s %s\n", "help", "", "Print this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  --config FILE          YAML or JSON config file")
	fmt.Fprintln(w, "  --filters LIST         stages: color,edge,cluster,statistical,alpha,crop or all")
	fmt.Fprintln(w, "  -o, --output DIR       label directory (default ~/Desktop)")
	fmt.Fprintln(w, "  --format text|json     result format")
	fmt.Fprintln(w, "  --approximation MODE   contour points: none or simple")
	fmt.Fprintln(w, "  --seed N               cluster stage random seed")
	fmt.Fprintln(w, "  --log-level LEVEL      debug, info, warn, error")
	fmt.Fprintln(w, "  --log-format FORMAT    console or json")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Every option can also be set with a LEAFLABEL_* environment variable,")
	fmt.Fprintln(w, "e.g. LEAFLABEL_FILTERS=statistical,crop or LEAFLABEL_LOG_LEVEL=debug.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "The serve command speaks MCP (JSON-RPC 2.0) over stdin/stdout.")
}
