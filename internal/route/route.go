// Package route answers "who should take this question" over a fully-built
// ConferenceMind. Scoring is a fixed weighted sum so rankings are
// reproducible; the router selects and ranks passages, it never writes prose.
package route

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/index"
	"github.com/vthunder/confmind/internal/types"
)

// ErrNoRelevantSpeaker means the question is not covered by this
// conference. A defined outcome, not a crash.
var ErrNoRelevantSpeaker = errors.New("no speaker relevant to this question")

// Fixed scoring weights. Constants, not configuration: the ranking contract
// is part of the engine's reproducibility guarantees.
const (
	weightTopical    = 0.5
	weightDepth      = 0.3
	weightRecency    = 0.1
	weightUniqueness = 0.1
)

// Result is one routed speaker with attribution
type Result struct {
	Speaker   *types.Speaker `json:"speaker"`
	Score     float64        `json:"score"`
	Positions []int          `json:"positions"`          // top-k supporting passages
	Opposing  []string       `json:"opposing,omitempty"` // co-returned tension-linked speaker ids
}

// Options narrow or tune one routing call
type Options struct {
	TargetSpeaker string // restrict to speakers whose name contains this
}

// Router scores and ranks speakers for questions
type Router struct {
	cfg       *config.Config
	stopwords map[string]bool
}

// New creates a router from config
func New(cfg *config.Config) *Router {
	return &Router{cfg: cfg, stopwords: cfg.StopwordSet()}
}

// Route computes per-speaker relevance for the question and returns every
// speaker within the configured margin of the top score. When co-returned
// speakers share a tension, each is flagged with the other: that is how
// disagreement surfaces in answers.
func (r *Router) Route(question string, mind *types.ConferenceMind, idx *index.Index, opts Options) ([]Result, error) {
	qTokens := r.tokenize(question)
	if len(qTokens) == 0 {
		return nil, ErrNoRelevantSpeaker
	}

	var scored []Result
	for _, sp := range mind.Speakers {
		if opts.TargetSpeaker != "" &&
			!strings.Contains(strings.ToLower(sp.DisplayName), strings.ToLower(opts.TargetSpeaker)) {
			continue
		}
		res := r.score(qTokens, sp, mind, idx)
		scored = append(scored, res)
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Speaker.ID < scored[j].Speaker.ID
	})

	if len(scored) == 0 || scored[0].Score < r.cfg.Thresholds.RouterFloor {
		return nil, ErrNoRelevantSpeaker
	}

	selected := withinMargin(scored, r.cfg.Thresholds.RouterMargin)
	markOpposing(selected, mind.Tensions)
	return selected, nil
}

// score computes 0.5*topical + 0.3*depth + 0.1*recency + 0.1*uniqueness
func (r *Router) score(qTokens []string, sp *types.Speaker, mind *types.ConferenceMind, idx *index.Index) Result {
	skills := mind.Skills[sp.ID]
	soul := mind.Souls[sp.ID]

	matched := r.matchedTerms(qTokens, skills, soul)

	// topical_match: normalized overlap between question tokens and the
	// speaker's domain terms + signature phrases
	topical := float64(len(matched)) / float64(len(qTokens))

	// expertise_depth: how heavily the matched terms figure in this
	// speaker's profile, scaled so a strong profile hit saturates
	depth := 0.0
	if skills != nil {
		for _, tf := range skills.DomainTerms {
			if matched[tf.Term] {
				depth += tf.Frequency * 20
			}
		}
	}
	if depth > 1 {
		depth = 1
	}

	// Supporting passages: speaker segments ranked by question-token overlap
	positions, recency := r.supporting(qTokens, sp.ID, idx)

	uniqueness := r.uniqueness(matched, mind)

	score := weightTopical*topical + weightDepth*depth +
		weightRecency*recency + weightUniqueness*uniqueness
	return Result{Speaker: sp, Score: score, Positions: positions}
}

// matchedTerms returns the speaker-profile terms that overlap the question
func (r *Router) matchedTerms(qTokens []string, skills *types.SkillsProfile, soul *types.SoulProfile) map[string]bool {
	qSet := map[string]bool{}
	for _, t := range qTokens {
		qSet[t] = true
	}
	matched := map[string]bool{}
	if skills != nil {
		for _, tf := range skills.DomainTerms {
			if qSet[tf.Term] { // hyphenated terms arrive whole from tokenize
				matched[tf.Term] = true
				continue
			}
			for _, tok := range strings.FieldsFunc(tf.Term, notAlnum) {
				if qSet[tok] {
					matched[tf.Term] = true
					break
				}
			}
		}
	}
	if soul != nil {
		for _, phrase := range soul.SignaturePhrases {
			for _, tok := range strings.Fields(phrase) {
				if qSet[tok] {
					matched[phrase] = true
					break
				}
			}
		}
	}
	return matched
}

// supporting ranks the speaker's passages by question-token overlap and
// returns the top-k positions plus a linear recency weight over the
// transcript order of the matched passages
func (r *Router) supporting(qTokens []string, speakerID string, idx *index.Index) ([]int, float64) {
	type hit struct {
		pos     int
		overlap int
	}
	var hits []hit
	for _, pos := range idx.Positions(speakerID) {
		seg, ok := idx.At(pos)
		if !ok {
			continue
		}
		lower := strings.ToLower(seg.Text)
		overlap := 0
		for _, t := range qTokens {
			if strings.Contains(lower, t) {
				overlap++
			}
		}
		if overlap > 0 {
			hits = append(hits, hit{pos, overlap})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].overlap != hits[j].overlap {
			return hits[i].overlap > hits[j].overlap
		}
		return hits[i].pos < hits[j].pos
	})

	k := r.cfg.Thresholds.RouterTopK
	if k <= 0 {
		k = 3
	}
	var positions []int
	recency := 0.0
	for i, h := range hits {
		if i < k {
			positions = append(positions, h.pos)
		}
		recency += float64(h.pos)
	}
	if len(hits) > 0 && idx.MaxPosition() > 0 {
		recency /= float64(len(hits)) * float64(idx.MaxPosition())
	} else {
		recency = 0
	}
	return positions, recency
}

// uniqueness rewards matched terms few other speakers share
// (inverse speaker-frequency)
func (r *Router) uniqueness(matched map[string]bool, mind *types.ConferenceMind) float64 {
	if len(matched) == 0 || len(mind.Speakers) < 2 {
		return 0
	}
	total := 0.0
	for term := range matched {
		holders := 0
		for _, sp := range mind.Speakers {
			if hasTerm(mind.Skills[sp.ID], term) {
				holders++
			}
		}
		if holders == 0 {
			holders = 1
		}
		total += 1 - float64(holders-1)/float64(len(mind.Speakers)-1)
	}
	return total / float64(len(matched))
}

func hasTerm(skills *types.SkillsProfile, term string) bool {
	if skills == nil {
		return false
	}
	for _, tf := range skills.DomainTerms {
		if tf.Term == term {
			return true
		}
	}
	return false
}

// withinMargin keeps every speaker whose score is within margin of the top
func withinMargin(scored []Result, margin float64) []Result {
	var out []Result
	top := scored[0].Score
	for _, res := range scored {
		if top-res.Score <= margin {
			out = append(out, res)
		}
	}
	return out
}

// markOpposing flags co-returned speakers that share a detected tension
func markOpposing(selected []Result, tensions []types.Tension) {
	ids := map[string]int{}
	for i, res := range selected {
		ids[res.Speaker.ID] = i
	}
	for _, t := range tensions {
		i, okA := ids[t.SpeakerA]
		j, okB := ids[t.SpeakerB]
		if okA && okB {
			selected[i].Opposing = appendUnique(selected[i].Opposing, t.SpeakerB)
			selected[j].Opposing = appendUnique(selected[j].Opposing, t.SpeakerA)
		}
	}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

var qTokenRe = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

// tokenize lowercases the question and drops stopwords and short tokens
func (r *Router) tokenize(question string) []string {
	var out []string
	for _, t := range qTokenRe.FindAllString(strings.ToLower(question), -1) {
		if len(t) >= 3 && !r.stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

func notAlnum(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
}
