package profile

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/types"
)

func termFreq(skills *types.SkillsProfile, term string) float64 {
	for _, tf := range skills.DomainTerms {
		if tf.Term == term {
			return tf.Frequency
		}
	}
	return 0
}

func testSpeaker(id string) *types.Speaker {
	return &types.Speaker{ID: id, DisplayName: id}
}

func segs(speaker string, texts ...string) []types.Segment {
	var out []types.Segment
	for i, txt := range texts {
		out = append(out, types.Segment{SpeakerRef: speaker, SpeakerID: speaker, Text: txt, Position: i})
	}
	return out
}

// Synthesis is a pure function of the segments: repeated calls on unchanged
// input must produce identical profiles
func TestSynthesizeIdempotent(t *testing.T) {
	s := New(config.Default())
	sp := testSpeaker("alice")
	own := segs("alice",
		"I think the model needs more compute. We deploy on kubernetes every week.",
		"The model is the key. I believe inference latency is what users feel.",
	)

	soul1, skills1 := s.Synthesize(sp, own, own)
	soul2, skills2 := s.Synthesize(sp, own, own)

	if !reflect.DeepEqual(soul1, soul2) {
		t.Errorf("soul profiles differ across calls:\n%+v\n%+v", soul1, soul2)
	}
	if !reflect.DeepEqual(skills1, skills2) {
		t.Errorf("skills profiles differ across calls:\n%+v\n%+v", skills1, skills2)
	}
}

func TestSentenceStructureBuckets(t *testing.T) {
	s := New(config.Default())
	tests := []struct {
		name string
		text string
		want string
	}{
		{"short", "Yes. It works. Ship it. Done now. Small steps win always.", "short"},
		{"complex", strings.Repeat("this sentence keeps going with many additional words and clauses stacked on top of each other until it finally crosses the bucket boundary somewhere ", 2) + ".", "complex"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			soul, _ := s.Synthesize(testSpeaker("x"), segs("x", tc.text), segs("x", tc.text))
			if soul.SentenceStructure != tc.want {
				t.Errorf("structure = %q (avg %.1f), want %q", soul.SentenceStructure, soul.AvgSentenceLen, tc.want)
			}
		})
	}
}

func TestVocabularyRegister(t *testing.T) {
	s := New(config.Default())
	tech := "The inference runtime hits latency limits when the pipeline saturates the cluster GPU. Every endpoint shares the compute framework."
	general := "We talked for a while over coffee and it was a lovely afternoon with friends and family around the table."

	soul, _ := s.Synthesize(testSpeaker("t"), segs("t", tech), segs("t", tech))
	if soul.VocabularyRegister != "technical" {
		t.Errorf("tech register = %q, want technical", soul.VocabularyRegister)
	}
	soul, _ = s.Synthesize(testSpeaker("g"), segs("g", general), segs("g", general))
	if soul.VocabularyRegister != "general" {
		t.Errorf("general register = %q, want general", soul.VocabularyRegister)
	}
}

func TestSignaturePhrases(t *testing.T) {
	s := New(config.Default())
	own := segs("p",
		"Build for humans first. Agents adapt to tools.",
		"I always say build for humans and let the system follow.",
		"Again: build for humans, that is the whole trick.",
	)
	soul, _ := s.Synthesize(testSpeaker("p"), own, own)

	found := false
	for _, phrase := range soul.SignaturePhrases {
		if strings.Contains(phrase, "build for humans") || strings.Contains(phrase, "for humans") {
			found = true
		}
	}
	if !found {
		t.Errorf("repeated phrase not in signature list: %v", soul.SignaturePhrases)
	}
}

// Phrases shared by multiple speakers belong to the conference baseline,
// not to one speaker's signature
func TestSignatureBaselineExcludesSharedPhrases(t *testing.T) {
	s := New(config.Default())
	alice := segs("alice",
		"The developer experience matters. The developer experience is the product.",
	)
	bob := []types.Segment{{SpeakerRef: "bob", SpeakerID: "bob", Text: "I care about the developer experience too, the developer experience defines us.", Position: 10}}
	all := append(append([]types.Segment(nil), alice...), bob...)

	soul, _ := s.Synthesize(testSpeaker("alice"), alice, all)
	for _, phrase := range soul.SignaturePhrases {
		if strings.Contains(phrase, "developer experience") {
			t.Errorf("shared phrase leaked into signature: %v", soul.SignaturePhrases)
		}
	}
}

// One person speaking under two merged refs is still one voice: their
// repeated phrases stay signature, not conference baseline
func TestSignatureSurvivesMergedRefs(t *testing.T) {
	s := New(config.Default())
	own := []types.Segment{
		{SpeakerRef: "Dr. Smith", SpeakerID: "dr-smith", Text: "Latency budgets drive the design.", Position: 0},
		{SpeakerRef: "Smith", SpeakerID: "dr-smith", Text: "I keep saying latency budgets drive everything.", Position: 2},
	}
	all := append(append([]types.Segment(nil), own...),
		types.Segment{SpeakerRef: "Jane Doe", SpeakerID: "jane-doe", Text: "Throughput is my concern, honestly.", Position: 1})

	soul, _ := s.Synthesize(&types.Speaker{ID: "dr-smith", DisplayName: "Dr. Smith"}, own, all)
	found := false
	for _, phrase := range soul.SignaturePhrases {
		if strings.Contains(phrase, "latency budgets") {
			found = true
		}
	}
	if !found {
		t.Errorf("merged-ref phrase missing from signature: %v", soul.SignaturePhrases)
	}
}

func TestPosture(t *testing.T) {
	s := New(config.Default())
	tests := []struct {
		name string
		text string
		want types.Posture
	}{
		{
			"contrarian",
			"I disagree with the premise. However, the problem with that framing is scale. I would argue the opposite.",
			types.PostureContrarian,
		},
		{
			"consensus",
			"I agree with that, exactly. Building on what you said, we all want the same shared outcome together.",
			types.PostureConsensusBuilder,
		},
		{
			"pragmatist default",
			"The weather was mild on the drive over and the venue coffee tasted fine.",
			types.PosturePragmatist,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			soul, _ := s.Synthesize(testSpeaker("x"), segs("x", tc.text), segs("x", tc.text))
			if soul.Posture != tc.want {
				t.Errorf("posture = %q, want %q", soul.Posture, tc.want)
			}
		})
	}
}

func TestSkillsDomainTermsNormalized(t *testing.T) {
	s := New(config.Default())
	// Same term density, very different airtime
	short := segs("a", "The model is everything.")
	long := segs("b", strings.Repeat("The model is everything. ", 10))

	_, skillsShort := s.Synthesize(testSpeaker("a"), short, short)
	_, skillsLong := s.Synthesize(testSpeaker("b"), long, long)

	fs := termFreq(skillsShort, "model")
	fl := termFreq(skillsLong, "model")
	if fs == 0 || fl == 0 {
		t.Fatalf("model term missing: short=%v long=%v", skillsShort.DomainTerms, skillsLong.DomainTerms)
	}
	if diff := fs - fl; diff > 0.01 || diff < -0.01 {
		t.Errorf("normalized frequencies diverge: short=%.3f long=%.3f", fs, fl)
	}
}

func TestSkillsClaimsAndFrameworks(t *testing.T) {
	s := New(config.Default())
	own := segs("a",
		"I think cloud-first is essential for every team.",
		"We run everything on kubernetes with docker images underneath.",
		"It rained on Tuesday.",
	)
	_, skills := s.Synthesize(testSpeaker("a"), own, own)

	if len(skills.Claims) == 0 || !strings.Contains(skills.Claims[0], "cloud-first is essential") {
		t.Errorf("claims = %v", skills.Claims)
	}
	wantFw := []string{"docker", "kubernetes"}
	if !reflect.DeepEqual(skills.Frameworks, wantFw) {
		t.Errorf("frameworks = %v, want %v", skills.Frameworks, wantFw)
	}
}

func TestRhetoricalDataDriven(t *testing.T) {
	s := New(config.Default())
	text := "We grew 40 percent in 3 months, from 12 to 160 people, and revenue went from 2 to 9 million."
	soul, _ := s.Synthesize(testSpeaker("d"), segs("d", text), segs("d", text))

	found := false
	for _, tag := range soul.RhetoricalDevices {
		if tag == "data-driven" {
			found = true
		}
	}
	if !found {
		t.Errorf("rhetorical devices = %v, want data-driven", soul.RhetoricalDevices)
	}
}

func TestWordCountGrowsWithSegments(t *testing.T) {
	s := New(config.Default())
	var texts []string
	for i := 0; i < 4; i++ {
		texts = append(texts, fmt.Sprintf("Segment number %d talks about the model and the pipeline.", i))
	}
	own := segs("w", texts...)
	soul, skills := s.Synthesize(testSpeaker("w"), own, own)
	if soul.WordCount == 0 || soul.WordCount != skills.WordCount {
		t.Errorf("word counts: soul=%d skills=%d", soul.WordCount, skills.WordCount)
	}
}
