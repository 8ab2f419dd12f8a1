package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"strings"
	"testing"

	"github.com/benbjohnson/zen"
	"github.com/google/go-cmp/cmp"
)

func TestRun(t *testing.T) {
	t.Run("NoCommand", func(t *testing.T) {
		var stderr bytes.Buffer
		if err := run(context.Background(), &bytes.Buffer{}, &stderr, nil); err != errUsage {
			t.Fatalf("unexpected error: %v", err)
		} else if !strings.Contains(stderr.String(), "zen <command> [arguments]") {
			t.Fatalf("unexpected usage: %s", stderr.String())
		}
	})
	t.Run("Help", func(t *testing.T) {
		var stderr bytes.Buffer
		if err := run(context.Background(), &bytes.Buffer{}, &stderr, []string{"help"}); err != flag.ErrHelp {
			t.Fatalf("unexpected error: %v", err)
		} else if !strings.Contains(stderr.String(), "status 2 when no command is given") {
			t.Fatalf("unexpected usage: %s", stderr.String())
		}
	})
	t.Run("HelpCommand", func(t *testing.T) {
		var stderr bytes.Buffer
		if err := run(context.Background(), &bytes.Buffer{}, &stderr, []string{"help", "regex"}); err != flag.ErrHelp {
			t.Fatalf("unexpected error: %v", err)
		} else if !strings.HasPrefix(stderr.String(), "usage: zen regex") {
			t.Fatalf("unexpected usage: %s", stderr.String())
		}
	})
	t.Run("UnknownCommand", func(t *testing.T) {
		if err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"xyz"}); err == nil || err.Error() != `zen xyz: unknown command` {
			t.Fatalf("unexpected error: %v", err)
		} else if err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"help", "xyz"}); err == nil || err.Error() != `zen help xyz: unknown command` {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestRegexCommand_Run(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		var buf bytes.Buffer
		if err := run(context.Background(), &buf, &bytes.Buffer{}, []string{"regex", "a|b", "a", "c"}); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(buf.String(), ""+
			"(union (range 'a' 'a') (range 'b' 'b'))\n"+
			"range=2\n"+
			"union=1\n"+
			`"a": match`+"\n"+
			`"c": no match`+"\n",
		); diff != "" {
			t.Fatal(diff)
		}
	})

	t.Run("ErrPatternRequired", func(t *testing.T) {
		if err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"regex"}); err == nil || err.Error() != `pattern required` {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("ErrSyntax", func(t *testing.T) {
		err := run(context.Background(), &bytes.Buffer{}, &bytes.Buffer{}, []string{"regex", "(a"})
		var e *zen.SyntaxError
		if !errors.As(err, &e) {
			t.Fatalf("unexpected error: %#v", err)
		} else if e.Offset != 2 {
			t.Fatalf("unexpected offset: %d", e.Offset)
		}
	})

	t.Run("Verbose", func(t *testing.T) {
		var stderr bytes.Buffer
		if err := run(context.Background(), &bytes.Buffer{}, &stderr, []string{"regex", "-v", "ab"}); err != nil {
			t.Fatal(err)
		} else if !strings.Contains(stderr.String(), "[parse] id=") || !strings.Contains(stderr.String(), "[cache] regex-range:") {
			t.Fatalf("unexpected log: %s", stderr.String())
		}
	})
}
