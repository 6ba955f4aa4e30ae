// Package profile derives per-speaker soul (communication style) and skills
// (domain expertise) profiles from that speaker's segments. Synthesis is
// purely lexical and statistical: same segments in, same profiles out.
package profile

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tsawler/prose/v3"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/types"
)

// Synthesizer builds soul and skills profiles
type Synthesizer struct {
	cfg        *config.Config
	stopwords  map[string]bool
	techTerms  map[string]bool
	lexicon    []compiledTerm
	frameworks []compiledTerm
}

type compiledTerm struct {
	term string
	re   *regexp.Regexp
}

// New creates a synthesizer from config, compiling the term lists once
func New(cfg *config.Config) *Synthesizer {
	s := &Synthesizer{
		cfg:       cfg,
		stopwords: cfg.StopwordSet(),
		techTerms: map[string]bool{},
	}
	for _, t := range cfg.TechTerms {
		s.techTerms[strings.ToLower(t)] = true
	}
	for _, t := range cfg.Lexicon {
		s.lexicon = append(s.lexicon, compileTerm(t))
	}
	for _, t := range cfg.Frameworks {
		s.frameworks = append(s.frameworks, compileTerm(t))
	}
	return s
}

func compileTerm(term string) compiledTerm {
	term = strings.ToLower(strings.TrimSpace(term))
	return compiledTerm{
		term: term,
		re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`),
	}
}

// Synthesize derives both profiles for one speaker. all is the full segment
// set of the conference, used only to build the common-phrase baseline that
// signature phrases are checked against.
func (s *Synthesizer) Synthesize(sp *types.Speaker, own []types.Segment, all []types.Segment) (*types.SoulProfile, *types.SkillsProfile) {
	text := joinSegments(own)
	sentences, tokens := parse(text)
	words := lowerWords(tokens)

	soul := s.buildSoul(text, sentences, tokens, words, own, all)
	skills := s.buildSkills(strings.ToLower(text), sentences, len(words))
	return soul, skills
}

func (s *Synthesizer) buildSoul(text string, sentences []string, tokens []token, words []string, own, all []types.Segment) *types.SoulProfile {
	soul := &types.SoulProfile{WordCount: len(words)}

	// Sentence structure from mean sentence token count
	total := 0
	for _, sent := range sentences {
		total += len(strings.Fields(sent))
	}
	if n := len(sentences); n > 0 {
		soul.AvgSentenceLen = float64(total) / float64(n)
	}
	switch {
	case soul.AvgSentenceLen < 12:
		soul.SentenceStructure = "short"
	case soul.AvgSentenceLen > 22:
		soul.SentenceStructure = "complex"
	default:
		soul.SentenceStructure = "mixed"
	}

	if n := len(sentences); n > 0 {
		soul.QuestionRatio = float64(strings.Count(text, "?")) / float64(n)
	}

	// Vocabulary register from technical-term density
	techHits := 0
	for _, w := range words {
		if s.techTerms[w] {
			techHits++
		}
	}
	density := ratio(techHits, len(words))
	switch {
	case density > 0.03:
		soul.VocabularyRegister = "technical"
	case density > 0.01:
		soul.VocabularyRegister = "blended"
	default:
		soul.VocabularyRegister = "general"
	}

	soul.RhetoricalDevices = rhetoricalTags(text, tokens)
	soul.SignaturePhrases = s.signaturePhrases(own, all)
	soul.Posture = s.posture(strings.ToLower(text), words, soul.QuestionRatio)
	return soul
}

var (
	simileRe = regexp.MustCompile(`(?i)\blike a\b|\blike the\b|\bas if\b|\bas though\b`)
	numberRe = regexp.MustCompile(`^\d[\d,.]*%?$`)
)

// rhetoricalTags reports which device patterns are present: simile/analogy
// markers, numeral density (data-driven), and first-person past-tense
// clauses (narrative). POS tags come from prose.
func rhetoricalTags(text string, tokens []token) []string {
	var tags []string

	if len(simileRe.FindAllString(text, -1)) >= 2 {
		tags = append(tags, "simile")
	}

	numerals := 0
	narrative := 0
	for i, tok := range tokens {
		if tok.tag == "CD" || numberRe.MatchString(tok.text) {
			numerals++
		}
		if tok.text == "I" && i+1 < len(tokens) && tokens[i+1].tag == "VBD" {
			narrative++
		}
	}
	if ratio(numerals, len(tokens)) > 0.02 {
		tags = append(tags, "data-driven")
	}
	if narrative >= 2 {
		tags = append(tags, "narrative")
	}
	return tags
}

// postureRule scores one intellectual-posture hypothesis. Rules are declared
// in the tie-break order of the enumeration.
type postureRule struct {
	posture types.Posture
	markers []string
}

var postureRules = []postureRule{
	{types.PostureContrarian, []string{"however", "disagree", "on the contrary", "not necessarily", "i would argue", "the problem with", "wrong", "but actually"}},
	{types.PostureConsensusBuilder, []string{"we all", "agree", "together", "exactly", "absolutely", "building on", "as you said", "shared"}},
	{types.PostureProvocateur, []string{"what if", "imagine", "why not", "think about", "provocative", "challenge"}},
	{types.PostureSynthesizer, []string{"combine", "connect", "both sides", "bring together", "on one hand", "across", "bridge"}},
	{types.PosturePragmatist, []string{"in practice", "actually works", "shipped", "concrete", "pragmatic", "it depends", "real world", "simple"}},
}

// posture picks the highest-scoring rule; ties break by declaration order.
// Scores are marker hits per hundred words so airtime doesn't dominate.
func (s *Synthesizer) posture(lower string, words []string, questionRatio float64) types.Posture {
	best := types.PosturePragmatist // default when no rule fires at all
	bestScore := 0.0
	for _, rule := range postureRules {
		hits := 0
		for _, m := range rule.markers {
			hits += strings.Count(lower, m)
		}
		score := 100 * ratio(hits, len(words))
		if rule.posture == types.PostureProvocateur && questionRatio > 0.3 {
			score += questionRatio
		}
		if score > bestScore {
			bestScore = score
			best = rule.posture
		}
	}
	return best
}

// signaturePhrases finds n-grams (n=2..4) this speaker repeats that are not
// part of the conference-wide common-phrase baseline, ranked by frequency
// then by recency of last occurrence
func (s *Synthesizer) signaturePhrases(own, all []types.Segment) []string {
	baseline := s.commonPhrases(all)

	type stat struct {
		count    int
		lastSeen int
	}
	counts := map[string]*stat{}
	for _, seg := range own {
		for _, gram := range s.ngrams(seg.Text) {
			st, ok := counts[gram]
			if !ok {
				st = &stat{}
				counts[gram] = st
			}
			st.count++
			st.lastSeen = seg.Position
		}
	}

	type ranked struct {
		phrase string
		stat   *stat
	}
	var out []ranked
	for gram, st := range counts {
		if st.count >= s.cfg.Thresholds.SignatureMinCount && !baseline[gram] {
			out = append(out, ranked{gram, st})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.stat.count != b.stat.count {
			return a.stat.count > b.stat.count
		}
		if a.stat.lastSeen != b.stat.lastSeen {
			return a.stat.lastSeen > b.stat.lastSeen
		}
		return a.phrase < b.phrase
	})

	var phrases []string
	for i := 0; i < len(out) && i < 5; i++ {
		phrases = append(phrases, out[i].phrase)
	}
	return phrases
}

// commonPhrases builds the baseline: n-grams used by two or more distinct
// speakers, which therefore signal the conference, not one voice. Keyed by
// resolved speaker id so merged refs ("Dr. Smith"/"Smith") count as one.
func (s *Synthesizer) commonPhrases(all []types.Segment) map[string]bool {
	speakersPer := map[string]map[string]bool{}
	for _, seg := range all {
		id := seg.SpeakerID
		if id == "" {
			id = seg.SpeakerRef
		}
		for _, gram := range s.ngrams(seg.Text) {
			if speakersPer[gram] == nil {
				speakersPer[gram] = map[string]bool{}
			}
			speakersPer[gram][id] = true
		}
	}
	baseline := map[string]bool{}
	for gram, speakers := range speakersPer {
		if len(speakers) >= 2 {
			baseline[gram] = true
		}
	}
	return baseline
}

// ngrams emits lowercased 2..4-grams, skipping any gram made entirely of
// stopwords or containing a token shorter than two letters
func (s *Synthesizer) ngrams(text string) []string {
	words := lowerWordsOf(text)
	var grams []string
	for n := 2; n <= 4; n++ {
		for i := 0; i+n <= len(words); i++ {
			gram := words[i : i+n]
			allStop, tooShort := true, false
			for _, w := range gram {
				if !s.stopwords[w] {
					allStop = false
				}
				if len(w) < 2 {
					tooShort = true
				}
			}
			if !allStop && !tooShort {
				grams = append(grams, strings.Join(gram, " "))
			}
		}
	}
	return grams
}

var assertionMarkers = []string{
	"i think", "i believe", "we should", "we must", "is essential",
	"the key is", "has to be", "i would argue", "the truth is",
	"it's clear", "always", "never",
}

const maxClaims = 20

func (s *Synthesizer) buildSkills(lower string, sentences []string, wordCount int) *types.SkillsProfile {
	skills := &types.SkillsProfile{WordCount: wordCount}

	// Domain-term frequencies, normalized by the speaker's word count so
	// speakers with unequal airtime stay comparable
	for _, ct := range s.lexicon {
		count := len(ct.re.FindAllString(lower, -1))
		if count > 0 {
			skills.DomainTerms = append(skills.DomainTerms, types.TermFreq{
				Term:      ct.term,
				Count:     count,
				Frequency: ratio(count, wordCount),
			})
		}
	}
	sort.Slice(skills.DomainTerms, func(i, j int) bool {
		a, b := skills.DomainTerms[i], skills.DomainTerms[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Term < b.Term
	})

	// Claim-like sentences: assertion markers present
	for _, sent := range sentences {
		ls := strings.ToLower(sent)
		for _, m := range assertionMarkers {
			if strings.Contains(ls, m) {
				skills.Claims = append(skills.Claims, strings.TrimSpace(sent))
				break
			}
		}
		if len(skills.Claims) >= maxClaims {
			break
		}
	}

	// Referenced frameworks/technologies
	for _, ct := range s.frameworks {
		if ct.re.MatchString(lower) {
			skills.Frameworks = append(skills.Frameworks, ct.term)
		}
	}
	sort.Strings(skills.Frameworks)
	return skills
}

// token is the slice of a prose token the synthesizer needs
type token struct {
	text string
	tag  string
}

// parse runs prose sentence segmentation and POS tagging, falling back to a
// naive split if the document fails to build. Synthesis must stay total.
func parse(text string) ([]string, []token) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(false))
	if err != nil {
		return naiveSentences(text), naiveTokens(text)
	}
	var sentences []string
	for _, s := range doc.Sentences() {
		if strings.TrimSpace(s.Text) != "" {
			sentences = append(sentences, s.Text)
		}
	}
	var tokens []token
	for _, t := range doc.Tokens() {
		tokens = append(tokens, token{text: t.Text, tag: t.Tag})
	}
	return sentences, tokens
}

var sentenceSplitRe = regexp.MustCompile(`[.!?]+`)

func naiveSentences(text string) []string {
	var out []string
	for _, s := range sentenceSplitRe.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}

func naiveTokens(text string) []token {
	var out []token
	for _, w := range strings.Fields(text) {
		tag := ""
		if _, err := strconv.ParseFloat(strings.Trim(w, "%,"), 64); err == nil {
			tag = "CD"
		}
		out = append(out, token{text: w, tag: tag})
	}
	return out
}

var wordRe = regexp.MustCompile(`[a-z0-9][a-z0-9'-]*`)

func lowerWordsOf(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func lowerWords(tokens []token) []string {
	var out []string
	for _, t := range tokens {
		w := strings.ToLower(strings.Trim(t.text, ".,;:!?\"'()"))
		if w != "" && wordRe.MatchString(w) {
			out = append(out, w)
		}
	}
	return out
}

func joinSegments(segs []types.Segment) string {
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
