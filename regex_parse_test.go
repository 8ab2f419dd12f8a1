package zen_test

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/benbjohnson/zen"
	"golang.org/x/tools/txtar"
)

func TestParseRegex(t *testing.T) {
	ar, err := txtar.ParseFile("testdata/regex.txtar")
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range ar.Files {
		f := f
		t.Run(f.Name, func(t *testing.T) {
			tc := parseRegexCase(t, string(f.Data))

			r, err := zen.ParseRegex(tc.pattern)
			if tc.err != "" {
				var e *zen.SyntaxError
				if !errors.As(err, &e) {
					t.Fatalf("expected syntax error, got %v", err)
				} else if err.Error() != tc.err {
					t.Fatalf("unexpected error:\ngot:  %s\nwant: %s", err, tc.err)
				}
				return
			} else if err != nil {
				t.Fatal(err)
			}

			if tc.string != "" && r.String() != tc.string {
				t.Fatalf("unexpected string:\ngot:  %s\nwant: %s", r, tc.string)
			}
			for _, s := range tc.match {
				if !zen.MatchRegex(r, s) {
					t.Errorf("expected %q to match %s", s, r)
				}
			}
			for _, s := range tc.nomatch {
				if zen.MatchRegex(r, s) {
					t.Errorf("expected %q not to match %s", s, r)
				}
			}
		})
	}
}

type regexCase struct {
	pattern string
	string  string
	err     string
	match   []string
	nomatch []string
}

func parseRegexCase(tb testing.TB, data string) regexCase {
	tb.Helper()

	var tc regexCase
	for _, line := range strings.Split(strings.TrimSuffix(data, "\n"), "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			tb.Fatalf("invalid line: %q", line)
		}
		value = strings.TrimSpace(value)

		switch key {
		case "pattern":
			tc.pattern = value
		case "string":
			tc.string = value
		case "error":
			tc.err = value
		case "match":
			tc.match = unquoteFields(tb, value)
		case "nomatch":
			tc.nomatch = unquoteFields(tb, value)
		default:
			tb.Fatalf("unknown key: %q", key)
		}
	}
	return tc
}

func unquoteFields(tb testing.TB, s string) []string {
	var a []string
	for _, field := range strings.Fields(s) {
		v, err := strconv.Unquote(field)
		if err != nil {
			tb.Fatalf("invalid string %s: %s", field, err)
		}
		a = append(a, v)
	}
	return a
}

func TestMustParseRegex(t *testing.T) {
	t.Run("OK", func(t *testing.T) {
		if r := zen.MustParseRegex("ab"); r != zen.RegexString("ab") {
			t.Fatalf("unexpected regex: %s", r)
		}
	})
	t.Run("Panic", func(t *testing.T) {
		defer func() {
			if _, ok := recover().(*zen.SyntaxError); !ok {
				t.Fatal("expected syntax error panic")
			}
		}()
		zen.MustParseRegex("(")
	})
}
