package zen

// MatchRegex returns true if r matches all of s. Anchors match the empty
// string only at the start or end of s.
func MatchRegex(r Regex, s string) bool {
	m := &regexMatcher{s: []rune(s), memo: make(map[matchKey][]bool)}
	return m.ends(r, 0)[len(m.s)]
}

type matchKey struct {
	id    uint64
	start int
}

// regexMatcher computes, for a regex and a start offset, the set of offsets at
// which a match of the regex beginning at start can end.
type regexMatcher struct {
	s    []rune
	memo map[matchKey][]bool
}

func (m *regexMatcher) ends(r Regex, start int) []bool {
	k := matchKey{id: r.ID(), start: start}
	if set, ok := m.memo[k]; ok {
		return set
	}
	set := VisitRegex[int, []bool](m, r, start)
	m.memo[k] = set
	return set
}

func (m *regexMatcher) newSet() []bool { return make([]bool, len(m.s)+1) }

func (m *regexMatcher) VisitEmpty(r *RegexEmptyExpr, start int) []bool {
	return m.newSet()
}

func (m *regexMatcher) VisitEpsilon(r *RegexEpsilonExpr, start int) []bool {
	set := m.newSet()
	set[start] = true
	return set
}

func (m *regexMatcher) VisitRange(r *RegexRangeExpr, start int) []bool {
	set := m.newSet()
	if start < len(m.s) && r.Contains(m.s[start]) {
		set[start+1] = true
	}
	return set
}

func (m *regexMatcher) VisitAnchor(r *RegexAnchorExpr, start int) []bool {
	set := m.newSet()
	if (r.begin && start == 0) || (!r.begin && start == len(m.s)) {
		set[start] = true
	}
	return set
}

func (m *regexMatcher) VisitUnop(r *RegexUnopExpr, start int) []bool {
	set := m.newSet()
	switch r.op {
	case RegexStarOp:
		set[start] = true
		queue := []int{start}
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			for j, ok := range m.ends(r.x, i) {
				if ok && !set[j] {
					set[j] = true
					queue = append(queue, j)
				}
			}
		}
	case RegexNegationOp:
		inner := m.ends(r.x, start)
		for j := start; j <= len(m.s); j++ {
			set[j] = !inner[j]
		}
	default:
		panic("unreachable")
	}
	return set
}

func (m *regexMatcher) VisitBinop(r *RegexBinopExpr, start int) []bool {
	set := m.newSet()
	lhs := m.ends(r.lhs, start)
	switch r.op {
	case RegexUnionOp:
		rhs := m.ends(r.rhs, start)
		for j := range set {
			set[j] = lhs[j] || rhs[j]
		}
	case RegexIntersectionOp:
		rhs := m.ends(r.rhs, start)
		for j := range set {
			set[j] = lhs[j] && rhs[j]
		}
	case RegexConcatenationOp:
		for i, ok := range lhs {
			if !ok {
				continue
			}
			for j, ok := range m.ends(r.rhs, i) {
				if ok {
					set[j] = true
				}
			}
		}
	default:
		panic("unreachable")
	}
	return set
}
