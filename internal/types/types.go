package types

import "time"

// FormatKind identifies the transcript input dialect
type FormatKind string

const (
	FormatRaw     FormatKind = "raw"     // unlabeled prose, degraded single-speaker mode
	FormatLabeled FormatKind = "labeled" // "Name: text" lines
	FormatSRT     FormatKind = "srt"     // SubRip subtitles
	FormatVTT     FormatKind = "vtt"     // WebVTT subtitles
	FormatYouTube FormatKind = "youtube" // "[mm:ss] text" transcript dumps
)

// Segment is one attributable unit of speech: one speaker, one position.
// Position ordinals are assigned once at segmentation time and never reused.
type Segment struct {
	SpeakerRef string        `json:"speaker_ref"`          // raw label as seen in the transcript
	SpeakerID  string        `json:"speaker_id,omitempty"` // canonical id, set after resolution
	Text       string        `json:"text"`
	Position   int           `json:"position"`
	Timestamp  time.Duration `json:"timestamp,omitempty"` // original cue time if the format had one
}

// WordCount returns the number of whitespace-delimited words in the segment
func (s *Segment) WordCount() int {
	n := 0
	inWord := false
	for _, r := range s.Text {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
		} else if !inWord {
			inWord = true
			n++
		}
	}
	return n
}

// Speaker is a canonical speaker identity with accumulated alias spellings
type Speaker struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Aliases     []string `json:"aliases,omitempty"`
}

// Posture is a speaker's intellectual stance, one of a fixed enumeration
type Posture string

const (
	PostureContrarian       Posture = "contrarian"
	PostureConsensusBuilder Posture = "consensus-builder"
	PostureProvocateur      Posture = "provocateur"
	PostureSynthesizer      Posture = "synthesizer"
	PosturePragmatist       Posture = "pragmatist"
)

// SoulProfile describes how a speaker communicates. Derived, recomputable,
// a pure function of the speaker's segments.
type SoulProfile struct {
	SentenceStructure  string   `json:"sentence_structure"`  // short, mixed, complex
	VocabularyRegister string   `json:"vocabulary_register"` // technical, blended, general
	RhetoricalDevices  []string `json:"rhetorical_devices,omitempty"`
	SignaturePhrases   []string `json:"signature_phrases,omitempty"`
	Posture            Posture  `json:"posture"`
	AvgSentenceLen     float64  `json:"avg_sentence_len"`
	QuestionRatio      float64  `json:"question_ratio"`
	WordCount          int      `json:"word_count"`
}

// TermFreq is one ranked domain-term entry in a skills profile
type TermFreq struct {
	Term      string  `json:"term"`
	Count     int     `json:"count"`
	Frequency float64 `json:"frequency"` // count normalized by the speaker's word count
}

// SkillsProfile describes what a speaker knows about
type SkillsProfile struct {
	DomainTerms []TermFreq `json:"domain_terms,omitempty"`
	Claims      []string   `json:"claims,omitempty"`
	Frameworks  []string   `json:"frameworks,omitempty"`
	WordCount   int        `json:"word_count"`
}

// Theme is a topic supported by at least two speakers' passages
type Theme struct {
	Label     string   `json:"label"`
	Speakers  []string `json:"speakers"`  // speaker ids, sorted
	Positions []int    `json:"positions"` // supporting segment positions, sorted
}

// Tension is a detected disagreement between two speakers on a topic.
// The pair is undirected; SpeakerA sorts before SpeakerB.
type Tension struct {
	SpeakerA   string `json:"speaker_a"`
	SpeakerB   string `json:"speaker_b"`
	Topic      string `json:"topic"`
	PositionsA []int  `json:"positions_a"`
	PositionsB []int  `json:"positions_b"`
	Markers    int    `json:"markers"` // contrast-marker hits that cleared the threshold
}

// SessionMeta records one ingested transcript session
type SessionMeta struct {
	Title  string     `json:"title,omitempty"`
	Format FormatKind `json:"format"`
}

// ConferenceMind is the aggregate root: everything derived from one
// conference's transcripts. It is the serializable snapshot shape the
// persistence layer stores and the router queries.
type ConferenceMind struct {
	Name     string                    `json:"name"`
	Slug     string                    `json:"slug"`
	Created  time.Time                 `json:"created"`
	Sessions []SessionMeta             `json:"sessions,omitempty"`
	Speakers []*Speaker                `json:"speakers"`
	Segments []Segment                 `json:"segments"`
	Souls    map[string]*SoulProfile   `json:"souls"`  // by speaker id
	Skills   map[string]*SkillsProfile `json:"skills"` // by speaker id
	Themes   []Theme                   `json:"themes,omitempty"`
	Tensions []Tension                 `json:"tensions,omitempty"`
}

// SpeakerByID returns the speaker with the given canonical id, or nil
func (m *ConferenceMind) SpeakerByID(id string) *Speaker {
	for _, s := range m.Speakers {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// SegmentsOf returns the speaker's segments in position order
func (m *ConferenceMind) SegmentsOf(id string) []Segment {
	var out []Segment
	for _, seg := range m.Segments {
		if seg.SpeakerID == id {
			out = append(out, seg)
		}
	}
	return out
}
