package zen

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// SyntaxError is returned by ParseRegex for a malformed pattern.
type SyntaxError struct {
	Pattern string
	Offset  int // byte offset into Pattern
	Msg     string
}

// Error returns the error as a string.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("regex: %s at offset %d in %q", e.Msg, e.Offset, e.Pattern)
}

// ParseRegex parses pattern into a Regex. The syntax, from lowest to highest
// precedence:
//
//	a|b      union
//	a&b      intersection
//	ab       concatenation
//	a* a+ a? a{n} a{n,} a{n,m}
//	~a       complement
//	(a) [a-z] [^a-z] . ^ $ \d \w \s \c
//
// An empty pattern matches only the empty string.
func ParseRegex(pattern string) (Regex, error) {
	p := &regexParser{pattern: pattern}
	r, err := p.parseUnion()
	if err != nil {
		return nil, err
	} else if !p.eof() {
		return nil, p.errorf("unexpected %q", p.peek())
	}
	return r, nil
}

// MustParseRegex is like ParseRegex but panics on error.
func MustParseRegex(pattern string) Regex {
	r, err := ParseRegex(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

type regexParser struct {
	pattern string
	pos     int
}

func (p *regexParser) eof() bool { return p.pos >= len(p.pattern) }

func (p *regexParser) peek() rune {
	c, _ := utf8.DecodeRuneInString(p.pattern[p.pos:])
	return c
}

func (p *regexParser) next() rune {
	c, n := utf8.DecodeRuneInString(p.pattern[p.pos:])
	p.pos += n
	return c
}

func (p *regexParser) errorf(format string, args ...interface{}) error {
	return &SyntaxError{Pattern: p.pattern, Offset: p.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *regexParser) parseUnion() (Regex, error) {
	r, err := p.parseIntersection()
	if err != nil {
		return nil, err
	}
	for !p.eof() && p.peek() == '|' {
		p.next()
		other, err := p.parseIntersection()
		if err != nil {
			return nil, err
		}
		r = RegexUnion(r, other)
	}
	return r, nil
}

func (p *regexParser) parseIntersection() (Regex, error) {
	r, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for !p.eof() && p.peek() == '&' {
		p.next()
		other, err := p.parseConcat()
		if err != nil {
			return nil, err
		}
		r = RegexIntersect(r, other)
	}
	return r, nil
}

func (p *regexParser) parseConcat() (Regex, error) {
	var parts []Regex
	for !p.eof() {
		switch p.peek() {
		case '|', '&', ')':
			return RegexConcat(parts...), nil
		}
		r, err := p.parseRepeat()
		if err != nil {
			return nil, err
		}
		parts = append(parts, r)
	}
	return RegexConcat(parts...), nil
}

func (p *regexParser) parseRepeat() (Regex, error) {
	r, err := p.parseComplement()
	if err != nil {
		return nil, err
	}
	for !p.eof() {
		switch p.peek() {
		case '*':
			p.next()
			r = RegexStar(r)
		case '+':
			p.next()
			r = RegexPlus(r)
		case '?':
			p.next()
			r = RegexOpt(r)
		case '{':
			lo, hi, err := p.parseBounds()
			if err != nil {
				return nil, err
			}
			r = RegexRepeat(r, lo, hi)
		default:
			return r, nil
		}
	}
	return r, nil
}

// parseBounds parses {n}, {n,} or {n,m}. An open upper bound is returned as -1.
func (p *regexParser) parseBounds() (lo, hi int, err error) {
	start := p.pos
	p.next() // '{'

	if lo, err = p.parseInt(); err != nil {
		return 0, 0, err
	}
	hi = lo

	if !p.eof() && p.peek() == ',' {
		p.next()
		hi = -1
		if !p.eof() && p.peek() != '}' {
			if hi, err = p.parseInt(); err != nil {
				return 0, 0, err
			}
		}
	}

	if p.eof() || p.next() != '}' {
		return 0, 0, p.errorf("unterminated repetition")
	} else if hi >= 0 && hi < lo {
		p.pos = start
		return 0, 0, p.errorf("invalid repetition bounds")
	}
	return lo, hi, nil
}

func (p *regexParser) parseInt() (int, error) {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.next()
	}
	if start == p.pos {
		return 0, p.errorf("expected number")
	}
	n, err := strconv.Atoi(p.pattern[start:p.pos])
	if err != nil {
		p.pos = start
		return 0, p.errorf("invalid number")
	}
	return n, nil
}

func (p *regexParser) parseComplement() (Regex, error) {
	if !p.eof() && p.peek() == '~' {
		p.next()
		r, err := p.parseComplement()
		if err != nil {
			return nil, err
		}
		return RegexNegate(r), nil
	}
	return p.parseAtom()
}

func (p *regexParser) parseAtom() (Regex, error) {
	if p.eof() {
		return nil, p.errorf("missing operand")
	}

	switch c := p.peek(); c {
	case '(':
		p.next()
		r, err := p.parseUnion()
		if err != nil {
			return nil, err
		} else if p.eof() || p.next() != ')' {
			return nil, p.errorf("missing closing )")
		}
		return r, nil
	case '[':
		return p.parseClass()
	case '.':
		p.next()
		return RegexDot(), nil
	case '^':
		p.next()
		return RegexBegin(), nil
	case '$':
		p.next()
		return RegexEnd(), nil
	case '\\':
		return p.parseEscape()
	case '*', '+', '?', '{':
		return nil, p.errorf("missing operand for %q", c)
	default:
		p.next()
		return RegexChar(c), nil
	}
}

// parseEscape parses a backslash sequence outside of a character class.
func (p *regexParser) parseEscape() (Regex, error) {
	p.next() // '\\'
	if p.eof() {
		return nil, p.errorf("trailing backslash")
	}

	c := p.next()
	if r := escapeClass(c); r != nil {
		return r, nil
	}
	return RegexChar(escapeRune(c)), nil
}

// escapeClass returns the regex for a class escape or nil if c is not one.
func escapeClass(c rune) Regex {
	switch c {
	case 'd':
		return NewRegexRangeExpr('0', '9')
	case 'w':
		return RegexUnion(NewRegexRangeExpr('a', 'z'), RegexUnion(NewRegexRangeExpr('A', 'Z'), RegexUnion(NewRegexRangeExpr('0', '9'), RegexChar('_'))))
	case 's':
		return RegexUnion(RegexChar(' '), RegexUnion(NewRegexRangeExpr('\t', '\r'), RegexChar('\f')))
	default:
		return nil
	}
}

func escapeRune(c rune) rune {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case 'f':
		return '\f'
	default:
		return c
	}
}

// parseClass parses a bracketed character class.
func (p *regexParser) parseClass() (Regex, error) {
	start := p.pos
	p.next() // '['

	negate := false
	if !p.eof() && p.peek() == '^' {
		p.next()
		negate = true
	}

	r := Regex(NewRegexEmptyExpr())
	for first := true; ; first = false {
		if p.eof() {
			p.pos = start
			return nil, p.errorf("missing closing ]")
		}
		if p.peek() == ']' && !first {
			p.next()
			break
		}

		lo, class, err := p.parseClassRune()
		if err != nil {
			return nil, err
		} else if class != nil {
			r = RegexUnion(r, class)
			continue
		}

		hi := lo
		if len(p.pattern)-p.pos >= 2 && p.peek() == '-' && p.pattern[p.pos+1] != ']' {
			p.next()
			if hi, class, err = p.parseClassRune(); err != nil {
				return nil, err
			} else if class != nil {
				return nil, p.errorf("invalid class range")
			} else if hi < lo {
				return nil, p.errorf("invalid class range %q-%q", lo, hi)
			}
		}
		r = RegexUnion(r, NewRegexRangeExpr(lo, hi))
	}

	if negate {
		return RegexIntersect(RegexDot(), RegexNegate(r)), nil
	}
	return r, nil
}

// parseClassRune parses a single member of a character class. If the member
// is a class escape, it is returned as a regex instead.
func (p *regexParser) parseClassRune() (rune, Regex, error) {
	c := p.next()
	if c != '\\' {
		return c, nil, nil
	} else if p.eof() {
		return 0, nil, p.errorf("trailing backslash")
	}

	c = p.next()
	if r := escapeClass(c); r != nil {
		return 0, r, nil
	}
	return escapeRune(c), nil, nil
}
