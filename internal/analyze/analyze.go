// Package analyze derives cross-speaker themes and pairwise tensions from
// the indexed passages and skills profiles. Both passes are deterministic:
// re-running on unchanged input reproduces the identical sets.
package analyze

import (
	"regexp"
	"sort"
	"strings"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/index"
	"github.com/vthunder/confmind/internal/types"
)

// Analyzer detects themes and tensions
type Analyzer struct {
	cfg       *config.Config
	stopwords map[string]bool
}

// New creates an analyzer from config
func New(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg: cfg, stopwords: cfg.StopwordSet()}
}

// Analyze runs theme then tension detection over the full speaker set
func (a *Analyzer) Analyze(speakers []*types.Speaker, skills map[string]*types.SkillsProfile, idx *index.Index) ([]types.Theme, []types.Tension) {
	themes := a.themes(speakers, skills, idx)
	tensions := a.tensions(themes, speakers, idx)
	return themes, tensions
}

// termSupport tracks which speakers use a domain term and where
type termSupport struct {
	term      string
	count     int
	speakers  map[string]bool
	positions map[int]bool
}

// themes clusters domain terms by shared non-stopword token ("cloud-first"
// and "local-first" cluster under "first"), then keeps clusters whose
// supporting speakers number at least two. The cluster label is its most
// frequent shared token.
func (a *Analyzer) themes(speakers []*types.Speaker, skills map[string]*types.SkillsProfile, idx *index.Index) []types.Theme {
	supports := a.collectSupport(speakers, skills, idx)

	// Group term supports by each non-stopword token of the term
	clusters := map[string][]*termSupport{}
	for _, sup := range supports {
		for _, tok := range termTokens(sup.term) {
			if !a.stopwords[tok] && len(tok) >= 2 {
				clusters[tok] = append(clusters[tok], sup)
			}
		}
	}

	var labels []string
	for label := range clusters {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var themes []types.Theme
	claimed := map[string]bool{} // a term backs at most one theme
	for _, label := range byTotalCount(labels, clusters) {
		speakerSet := map[string]bool{}
		posSet := map[int]bool{}
		used := false
		for _, sup := range clusters[label] {
			if claimed[sup.term] {
				continue
			}
			used = true
			for s := range sup.speakers {
				speakerSet[s] = true
			}
			for p := range sup.positions {
				posSet[p] = true
			}
		}
		if !used || len(speakerSet) < 2 {
			continue
		}
		for _, sup := range clusters[label] {
			claimed[sup.term] = true
		}
		themes = append(themes, types.Theme{
			Label:     label,
			Speakers:  sortedKeys(speakerSet),
			Positions: sortedInts(posSet),
		})
	}

	sort.Slice(themes, func(i, j int) bool {
		if len(themes[i].Speakers) != len(themes[j].Speakers) {
			return len(themes[i].Speakers) > len(themes[j].Speakers)
		}
		return themes[i].Label < themes[j].Label
	})
	return themes
}

// collectSupport gathers, per domain term above the frequency threshold,
// the supporting speakers and the positions of their passages containing it
func (a *Analyzer) collectSupport(speakers []*types.Speaker, skills map[string]*types.SkillsProfile, idx *index.Index) []*termSupport {
	byTerm := map[string]*termSupport{}
	minFreq := a.cfg.Thresholds.ThemeMinFreq

	for _, sp := range speakers {
		prof := skills[sp.ID]
		if prof == nil {
			continue
		}
		for _, tf := range prof.DomainTerms {
			if tf.Frequency < minFreq {
				continue
			}
			sup, ok := byTerm[tf.Term]
			if !ok {
				sup = &termSupport{
					term:      tf.Term,
					speakers:  map[string]bool{},
					positions: map[int]bool{},
				}
				byTerm[tf.Term] = sup
			}
			sup.count += tf.Count
			sup.speakers[sp.ID] = true
			re := termRe(tf.Term)
			for _, pos := range idx.Positions(sp.ID) {
				if seg, ok := idx.At(pos); ok && re.MatchString(strings.ToLower(seg.Text)) {
					sup.positions[pos] = true
				}
			}
		}
	}

	var out []*termSupport
	for _, sup := range byTerm {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].term < out[j].term })
	return out
}

// tensions inspects, per theme, each supporting speaker pair for contrast
// markers near the theme's term, or for opposed sentiment polarity on it.
// At most one tension exists per unordered pair per topic.
func (a *Analyzer) tensions(themes []types.Theme, speakers []*types.Speaker, idx *index.Index) []types.Tension {
	names := map[string]string{} // speaker id -> lowercased display name
	for _, sp := range speakers {
		names[sp.ID] = strings.ToLower(sp.DisplayName)
	}

	var tensions []types.Tension
	seen := map[string]bool{}
	for _, th := range themes {
		for i := 0; i < len(th.Speakers); i++ {
			for j := i + 1; j < len(th.Speakers); j++ {
				idA, idB := th.Speakers[i], th.Speakers[j]
				key := idA + "|" + idB + "|" + th.Label
				if seen[key] {
					continue
				}
				t, ok := a.pairTension(th, idA, idB, names, idx)
				if ok {
					seen[key] = true
					tensions = append(tensions, t)
				}
			}
		}
	}

	sort.Slice(tensions, func(i, j int) bool {
		a, b := tensions[i], tensions[j]
		if a.SpeakerA != b.SpeakerA {
			return a.SpeakerA < b.SpeakerA
		}
		if a.SpeakerB != b.SpeakerB {
			return a.SpeakerB < b.SpeakerB
		}
		return a.Topic < b.Topic
	})
	return tensions
}

func (a *Analyzer) pairTension(th types.Theme, idA, idB string, names map[string]string, idx *index.Index) (types.Tension, bool) {
	posA := supportingPositions(th, idA, idx)
	posB := supportingPositions(th, idB, idx)
	if len(posA) == 0 || len(posB) == 0 {
		return types.Tension{}, false
	}

	markersA, polA := a.inspect(posA, names[idB], idx)
	markersB, polB := a.inspect(posB, names[idA], idx)
	markers := markersA + markersB

	opposed := (polA > 0 && polB < 0 || polA < 0 && polB > 0) &&
		abs(polA-polB) >= a.cfg.Thresholds.PolarityGap

	if markers < a.cfg.Thresholds.TensionMinMarkers && !opposed {
		return types.Tension{}, false
	}
	return types.Tension{
		SpeakerA:   idA,
		SpeakerB:   idB,
		Topic:      th.Label,
		PositionsA: posA,
		PositionsB: posB,
		Markers:    markers,
	}, true
}

// supportingPositions filters a theme's positions down to one speaker's
func supportingPositions(th types.Theme, speakerID string, idx *index.Index) []int {
	var out []int
	for _, p := range th.Positions {
		if seg, ok := idx.At(p); ok && seg.SpeakerID == speakerID {
			out = append(out, p)
		}
	}
	return out
}

// Explicit disagreement counts double; bare negation and contrast
// connectives count once. The tension threshold is in marker units.
var strongContrast = []string{
	"disagree", "on the contrary", "i would argue", "the problem with",
	"but actually", "wrong",
}

var weakContrast = []string{
	"however", "but ", "not necessarily", "n't ", " not ", "never ",
}

var positiveMarkers = []string{
	"essential", "great", "love", "agree", "important", "right", "best",
	"key", "valuable", "works",
}

var negativeMarkers = []string{
	"wrong", "bad", "disagree", "broken", "fails", "problem", "terrible",
	"waste", "overrated", "risky",
}

// inspect scans the given segments plus each adjacent segment by the same
// speaker for contrast markers (including the other speaker's name) and
// accumulates a coarse sentiment polarity
func (a *Analyzer) inspect(positions []int, otherName string, idx *index.Index) (markers, polarity int) {
	counted := map[int]bool{}
	scan := func(pos int, selfID string) {
		seg, ok := idx.At(pos)
		if !ok || counted[pos] || (selfID != "" && seg.SpeakerID != selfID) {
			return
		}
		counted[pos] = true
		lower := " " + strings.ToLower(seg.Text) + " "
		for _, m := range strongContrast {
			markers += 2 * strings.Count(lower, m)
		}
		for _, m := range weakContrast {
			markers += strings.Count(lower, m)
		}
		if otherName != "" && strings.Contains(lower, otherName) {
			markers++
		}
		for _, m := range positiveMarkers {
			polarity += strings.Count(lower, m)
		}
		for _, m := range negativeMarkers {
			polarity -= strings.Count(lower, m)
		}
	}
	for _, pos := range positions {
		seg, ok := idx.At(pos)
		if !ok {
			continue
		}
		scan(pos, "")
		scan(pos-1, seg.SpeakerID)
		scan(pos+1, seg.SpeakerID)
	}
	return markers, polarity
}

// byTotalCount orders cluster labels by the summed counts of their terms,
// descending, then lexically, so the most talked-about cluster claims
// shared terms first
func byTotalCount(labels []string, clusters map[string][]*termSupport) []string {
	totals := map[string]int{}
	for _, label := range labels {
		for _, sup := range clusters[label] {
			totals[label] += sup.count
		}
	}
	ordered := append([]string(nil), labels...)
	sort.Slice(ordered, func(i, j int) bool {
		if totals[ordered[i]] != totals[ordered[j]] {
			return totals[ordered[i]] > totals[ordered[j]]
		}
		return ordered[i] < ordered[j]
	})
	return ordered
}

var termTokenRe = regexp.MustCompile(`[a-z0-9]+`)

func termTokens(term string) []string {
	return termTokenRe.FindAllString(strings.ToLower(term), -1)
}

func termRe(term string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedInts(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
