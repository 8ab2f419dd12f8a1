package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
)

// errUsage is returned when no command is given.
var errUsage = errors.New("usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := run(ctx, os.Stdout, os.Stderr, os.Args[1:])
	switch {
	case err == nil, err == flag.ErrHelp:
	case err == errUsage:
		stop()
		os.Exit(2)
	default:
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout, stderr io.Writer, args []string) error {
	var cmd string
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "":
		usage(stderr)
		return errUsage
	case "-h", "--help", "help":
		return help(stdout, stderr, args)
	case "regex":
		return NewRegexCommand(stdout, stderr).Run(ctx, args)
	default:
		return fmt.Errorf(`zen %s: unknown command`, cmd)
	}
}

// help prints the usage of the named command or of zen itself.
func help(stdout, stderr io.Writer, args []string) error {
	if len(args) == 0 {
		usage(stderr)
		return flag.ErrHelp
	}

	switch args[0] {
	case "regex":
		NewRegexCommand(stdout, stderr).usage()
		return flag.ErrHelp
	default:
		return fmt.Errorf(`zen help %s: unknown command`, args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, `
Zen builds hash-consed symbolic expressions and regular expressions.

Usage:

	zen <command> [arguments]

The commands are:

	regex       parse, simplify and match a regular expression
	help        this screen, or "zen help <command>" for a command

Zen exits with status 2 when no command is given and 1 on error.
`[1:])
}
