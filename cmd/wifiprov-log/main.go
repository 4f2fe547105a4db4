// Command wifiprov-log is a tool for viewing and analyzing device event logs.
//
// Event logs are written by wifiprov-device when run with -event-log.
//
// Usage:
//
//	wifiprov-log <command> [flags] <file.wlog>
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
//	# View all events
//	wifiprov-log view boot.wlog
//
//	# View only failed attempts
//	wifiprov-log view --category retry boot.wlog
//
//	# Export to CSV
//	wifiprov-log export --format csv -o boot.csv boot.wlog
//
//	# Keep one boot and save it to a new file
//	wifiprov-log filter --boot-id 3f2a9c1e-... -o one.wlog boot.wlog
//
//	# Show statistics
//	wifiprov-log stats boot.wlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/wifiprov/wifiprov-go/cmd/wifiprov-log/commands"
)

const usage = `wifiprov-log - Wi-Fi Bring-up Event Log Analyzer

Usage:
  wifiprov-log <command> [flags] <file.wlog>

Commands:
  view     View log file in human-readable format
  export   Export log file to JSON or CSV format
  filter   Filter log file and write to new file
  stats    Show statistics about the log file

Use "wifiprov-log <command> -help" for more information about a command.
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

// parseArgs parses args and returns the single log file path.
func parseArgs(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func newFlagSet(name, synopsis string, withFlags bool) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "wifiprov-log %s - %s\n\nUsage:\n  wifiprov-log %s [flags] <file.wlog>\n\n", name, synopsis, name)
		if withFlags {
			fmt.Fprintln(os.Stderr, "Flags:")
			fs.PrintDefaults()
		}
	}
	return fs
}

func runView(args []string) {
	fs := newFlagSet("view", "View log file in human-readable format", true)
	layer := fs.String("layer", "", "Filter by layer (link, association, provisioning, readiness, timesync)")
	category := fs.String("category", "", "Filter by category (state, retry, credential, error)")
	bootID := fs.String("boot-id", "", "Filter by boot ID")
	ssid := fs.String("ssid", "", "Filter retry and credential events by SSID")
	path := parseArgs(fs, args)

	filter := commands.ViewFilter{BootID: *bootID, SSID: *ssid}
	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fail(err)
		}
		filter.Layer = &l
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
	fs := newFlagSet("export", "Export log file to JSON or CSV format", true)
	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := parseArgs(fs, args)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fail(err)
	}
}

func runFilter(args []string) {
	fs := newFlagSet("filter", "Filter log file and write to new file", true)
	var opts commands.FilterOptions
	fs.StringVar(&opts.Output, "o", "", "Output file (required)")
	fs.StringVar(&opts.BootID, "boot-id", "", "Filter by boot ID")
	fs.StringVar(&opts.SSID, "ssid", "", "Filter retry and credential events by SSID")
	fs.StringVar(&opts.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&opts.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	fs.StringVar(&opts.Layer, "layer", "", "Filter by layer")
	fs.StringVar(&opts.Category, "category", "", "Filter by category")
	path := parseArgs(fs, args)

	if opts.Output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	n, err := commands.RunFilter(path, opts)
	if err != nil {
		fail(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, opts.Output)
}

func runStats(args []string) {
	fs := newFlagSet("stats", "Show statistics about the log file", false)
	path := parseArgs(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fail(err)
	}
}
