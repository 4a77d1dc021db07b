// Command nasrpc-log is a tool for viewing and analyzing protocol log files.
//
// Log files are written by nasrpc-client when run with -protocol-log, or by
// any program that attaches a log.FileLogger to an rpc.Engine.
//
// Usage:
//
//	nasrpc-log <command> [flags] <file.nlog>
//
// Commands:
//
//	view     View log file in human-readable format
//	export   Export log file to JSON or CSV format
//	filter   Filter log file and write to new file
//	stats    Show statistics about the log file
//
// Examples:
//
//	# View only wire-layer events
//	nasrpc-log view -layer wire session.nlog
//
//	# View one method's calls and replies
//	nasrpc-log view -method pool.query session.nlog
//
//	# Export to CSV
//	nasrpc-log export -format csv -o session.csv session.nlog
//
//	# Extract one call and its reply
//	nasrpc-log filter -id 7 -o call7.nlog session.nlog
//
//	# Show statistics
//	nasrpc-log stats session.nlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nasrpc/nasrpc-go/cmd/nasrpc-log/commands"
)

const usage = `nasrpc-log - Protocol Log Analyzer

Usage:
  nasrpc-log <command> [flags] <file.nlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "nasrpc-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func usageFor(fs *flag.FlagSet, title, synopsis string) func() {
	return func() {
		fmt.Fprintf(os.Stderr, "nasrpc-log %s - %s\n\nUsage:\n  nasrpc-log %s\n\nFlags:\n", fs.Name(), title, synopsis)
		fs.PrintDefaults()
	}
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = usageFor(fs, "View log file in human-readable format", "view [flags] <file.nlog>")

	layer := fs.String("layer", "", "Filter by layer (transport, wire, engine)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, control, state, error)")
	method := fs.String("method", "", "Filter by method name")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	filter := commands.ViewFilter{Method: *method}

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
	}

	if *direction != "" {
		d, err := commands.ParseDirectionFlag(*direction)
		if err != nil {
			fail(err)
		}
		filter.Direction = &d
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fail(err)
		}
		filter.Category = &c
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fail(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = usageFor(fs, "Export log file to JSON or CSV format", "export [flags] <file.nlog>")

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = usageFor(fs, "Filter log file and write to new file", "filter [flags] <file.nlog>")

	output := fs.String("o", "", "Output file (required)")
	connID := fs.String("conn-id", "", "Filter by connection ID")
	correlationID := fs.String("id", "", "Filter by call id")
	method := fs.String("method", "", "Filter by method name")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, wire, engine)")
	direction := fs.String("direction", "", "Filter by direction (in, out)")
	category := fs.String("category", "", "Filter by category (message, control, state, error)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:        *output,
		ConnID:        *connID,
		CorrelationID: *correlationID,
		Method:        *method,
		TimeStart:     *timeStart,
		TimeEnd:       *timeEnd,
		Layer:         *layer,
		Direction:     *direction,
		Category:      *category,
	}

	if err := commands.RunFilter(path, opts, os.Stdout); err != nil {
		fail(err)
	}
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = usageFor(fs, "Show statistics about the log file", "stats <file.nlog>")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
