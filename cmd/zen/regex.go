package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"sort"
	"time"

	"github.com/benbjohnson/zen"
)

// RegexCommand represents a command for inspecting regular expressions.
type RegexCommand struct {
	w      io.Writer
	stderr io.Writer
}

// NewRegexCommand returns a new instance of RegexCommand that writes results
// to w and usage and logs to stderr.
func NewRegexCommand(w, stderr io.Writer) *RegexCommand {
	return &RegexCommand{w: w, stderr: stderr}
}

// Run executes the "regex" subcommand.
func (cmd *RegexCommand) Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("zen-regex", flag.ContinueOnError)
	fs.SetOutput(cmd.stderr)
	verbose := fs.Bool("v", false, "verbose")
	fs.Usage = cmd.usage
	if err := fs.Parse(args); err != nil {
		return err
	} else if fs.NArg() == 0 {
		return fmt.Errorf("pattern required")
	}

	log.SetFlags(0)
	if !*verbose {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(cmd.stderr)
	}

	start := time.Now()
	r, err := zen.ParseRegex(fs.Arg(0))
	if err != nil {
		return err
	}
	log.Printf("[parse] id=%d elapsed=%s", r.ID(), time.Since(start))

	fmt.Fprintln(cmd.w, r.String())

	counts := zen.RegexNodeCounts(r)
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(cmd.w, "%s=%d\n", name, counts[name])
	}

	for _, s := range fs.Args()[1:] {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := "no match"
		if zen.MatchRegex(r, s) {
			result = "match"
		}
		fmt.Fprintf(cmd.w, "%q: %s\n", s, result)
	}

	stats := zen.CacheStats()
	for _, name := range zen.CacheNames() {
		stat := stats[name]
		if stat.Lookups == 0 {
			continue
		}
		log.Printf("[cache] %s: entries=%d lookups=%d hits=%d nodes=%d", name, stat.Entries, stat.Lookups, stat.Hits, stat.Nodes)
	}
	return nil
}

func (cmd *RegexCommand) usage() {
	fmt.Fprintln(cmd.stderr, `
usage: zen regex [-v] PATTERN [STRING...]

Parses PATTERN, prints its simplified form and node counts, and reports
whether each STRING matches the whole pattern. With -v, parse timing
and hash-cons table statistics are logged to stderr.

Arguments:

	-v
	    Enable verbose logging.
`[1:])
}
