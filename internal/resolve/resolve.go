// Package resolve canonicalizes raw speaker refs into stable Speaker
// identities. Merge rules are applied pairwise to build an alias graph whose
// connected components become the canonical speakers, so the outcome does
// not depend on the order refs were seen in.
package resolve

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vthunder/confmind/internal/logging"
	"github.com/vthunder/confmind/internal/types"
)

// Resolver merges speaker name variants
type Resolver struct {
	aliases map[string]string // explicit raw-ref -> canonical-name overrides, lowercased keys
}

// New creates a resolver with optional explicit alias overrides
func New(aliases map[string]string) *Resolver {
	lowered := make(map[string]string, len(aliases))
	for k, v := range aliases {
		lowered[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return &Resolver{aliases: lowered}
}

// Resolve maps every raw ref to its canonical Speaker. Refs merge on exact
// case-insensitive match, on a short form (≤2 tokens) matching the token
// suffix of a longer form, or on an explicit alias override. A short form
// that suffix-matches two distinct longer forms is ambiguous: it is kept as
// its own speaker and a warning is logged, never silently guessed.
func (r *Resolver) Resolve(refs []string) map[string]*types.Speaker {
	uniq := dedupe(refs)
	n := len(uniq)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	// Exact case-insensitive and explicit-alias merges
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if strings.EqualFold(uniq[i], uniq[j]) || r.aliasedTogether(uniq[i], uniq[j]) {
				union(i, j)
			}
		}
	}

	// Suffix merges: collect candidates first so a short form matching two
	// distinct longer components can be refused as ambiguous
	for i := 0; i < n; i++ {
		short := uniq[i]
		if tokenCount(short) > 2 {
			continue
		}
		var candidates []int
		for j := 0; j < n; j++ {
			if j == i || find(j) == find(i) {
				continue
			}
			if isTokenSuffix(short, uniq[j]) {
				candidates = append(candidates, j)
			}
		}
		roots := map[int]bool{}
		for _, c := range candidates {
			roots[find(c)] = true
		}
		switch len(roots) {
		case 0:
		case 1:
			union(i, candidates[0])
		default:
			logging.Warn("resolve", "ambiguous merge for %q: %d distinct candidates, keeping refs distinct", short, len(roots))
		}
	}

	// Components -> canonical speakers
	groups := map[int][]string{}
	for i, ref := range uniq {
		root := find(i)
		groups[root] = append(groups[root], ref)
	}

	out := make(map[string]*types.Speaker, len(uniq))
	for _, members := range groups {
		sp := canonicalize(members, r.aliases)
		for _, ref := range members {
			out[ref] = sp
		}
	}
	return out
}

func (r *Resolver) aliasedTogether(a, b string) bool {
	ca, okA := r.aliases[strings.ToLower(a)]
	cb, okB := r.aliases[strings.ToLower(b)]
	if okA && strings.EqualFold(ca, b) {
		return true
	}
	if okB && strings.EqualFold(cb, a) {
		return true
	}
	return okA && okB && strings.EqualFold(ca, cb)
}

// canonicalize picks the display name (most tokens; first seen wins ties)
// and accumulates the other spellings as aliases
func canonicalize(members []string, aliases map[string]string) *types.Speaker {
	display := members[0]
	for _, m := range members[1:] {
		if tokenCount(m) > tokenCount(display) {
			display = m
		}
	}
	// An explicit alias target overrides the longest-form rule
	for _, m := range members {
		if canon, ok := aliases[strings.ToLower(m)]; ok {
			display = canon
			break
		}
	}

	sp := &types.Speaker{ID: Slugify(display), DisplayName: display}
	seen := map[string]bool{strings.ToLower(display): true}
	for _, m := range members {
		if !seen[strings.ToLower(m)] {
			seen[strings.ToLower(m)] = true
			sp.Aliases = append(sp.Aliases, m)
		}
	}
	sort.Strings(sp.Aliases)
	return sp
}

// isTokenSuffix reports whether short's tokens equal the trailing tokens of
// long, case-insensitively ("Smith" vs "Dr. Smith")
func isTokenSuffix(short, long string) bool {
	st := strings.Fields(short)
	lt := strings.Fields(long)
	if len(st) == 0 || len(st) >= len(lt) {
		return false
	}
	offset := len(lt) - len(st)
	for i, tok := range st {
		if !strings.EqualFold(normToken(tok), normToken(lt[offset+i])) {
			return false
		}
	}
	return true
}

func normToken(t string) string {
	return strings.Trim(t, ".,")
}

func tokenCount(s string) int {
	return len(strings.Fields(s))
}

func dedupe(refs []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range refs {
		r = strings.TrimSpace(r)
		if r != "" && !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a name to a stable filesystem/db-safe id
func Slugify(name string) string {
	slug := slugRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
