package segment

import (
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/vthunder/confmind/internal/types"
)

var testFillers = []string{"um", "uh", "you know"}

func TestSplitLabeled(t *testing.T) {
	text := `Alice: Welcome to the panel.
Bob: Thanks for having me.
Bob: Glad to be here.
Alice: Let's get started.`

	segs := Split(text, types.FormatLabeled, Options{Fillers: testFillers})

	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3 (adjacent Bob cues merged): %+v", len(segs), segs)
	}
	if segs[1].SpeakerRef != "Bob" {
		t.Errorf("segment 1 ref = %q, want Bob", segs[1].SpeakerRef)
	}
	if segs[1].Text != "Thanks for having me. Glad to be here." {
		t.Errorf("merged text = %q", segs[1].Text)
	}
	for i, seg := range segs {
		if seg.Position != i {
			t.Errorf("segment %d position = %d", i, seg.Position)
		}
	}
}

func TestSplitLabeledContinuation(t *testing.T) {
	text := "Alice: This thought\ncontinues on the next line.\nBob: Mine doesn't."
	segs := Split(text, types.FormatLabeled, Options{})
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].Text != "This thought continues on the next line." {
		t.Errorf("continuation text = %q", segs[0].Text)
	}
}

func TestFillerStripping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Alice: So um I think, uh, we should start.", "So I think, we should start."},
		{"Alice: The umbrella uhh is not a filler word.", "The umbrella uhh is not a filler word."},
		{"Alice: It works, you know, most of the time.", "It works, most of the time."},
	}
	for _, tc := range tests {
		segs := Split(tc.in, types.FormatLabeled, Options{Fillers: testFillers})
		if len(segs) != 1 {
			t.Fatalf("got %d segments for %q", len(segs), tc.in)
		}
		if segs[0].Text != tc.want {
			t.Errorf("strip(%q) = %q, want %q", tc.in, segs[0].Text, tc.want)
		}
	}
}

func TestSplitSRT(t *testing.T) {
	text := `1
00:00:01,000 --> 00:00:03,000
Alice: Welcome to the panel.

2
00:00:03,500 --> 00:00:06,000
Today we talk about agents.

3
00:00:07,000 --> 00:00:09,000
Bob: Thanks for having me.`

	segs := Split(text, types.FormatSRT, Options{})
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2 (unlabeled cue inherits Alice): %+v", len(segs), segs)
	}
	if segs[0].SpeakerRef != "Alice" || segs[1].SpeakerRef != "Bob" {
		t.Errorf("refs = %q, %q", segs[0].SpeakerRef, segs[1].SpeakerRef)
	}
	if segs[0].Timestamp != time.Second {
		t.Errorf("timestamp = %v, want 1s", segs[0].Timestamp)
	}
	if !strings.Contains(segs[0].Text, "Today we talk about agents.") {
		t.Errorf("inherited cue not merged into Alice: %q", segs[0].Text)
	}
}

func TestSplitVTTVoiceTags(t *testing.T) {
	text := `WEBVTT

00:00:01.000 --> 00:00:03.000
<v Alice>Welcome to the panel.</v>

00:00:03.500 --> 00:00:06.000
<v Bob>Thanks for having me.</v>`

	segs := Split(text, types.FormatVTT, Options{})
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segs), segs)
	}
	if segs[0].SpeakerRef != "Alice" || segs[1].SpeakerRef != "Bob" {
		t.Errorf("voice tag refs = %q, %q", segs[0].SpeakerRef, segs[1].SpeakerRef)
	}
	if strings.Contains(segs[0].Text, "<") {
		t.Errorf("tags not stripped: %q", segs[0].Text)
	}
}

func TestSplitYouTube(t *testing.T) {
	text := "[00:12] Alice: welcome to the show\n[00:45] thanks everyone\n[01:02] Bob: happy to join"
	segs := Split(text, types.FormatYouTube, Options{})
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2: %+v", len(segs), segs)
	}
	if segs[0].Timestamp != 12*time.Second {
		t.Errorf("timestamp = %v, want 12s", segs[0].Timestamp)
	}
	if segs[1].Timestamp != 62*time.Second {
		t.Errorf("timestamp = %v, want 1m2s", segs[1].Timestamp)
	}
}

func TestSplitRawParagraphs(t *testing.T) {
	text := "First paragraph of an unlabeled talk.\n\nSecond paragraph, still the same voice.\n\nThird."
	segs := Split(text, types.FormatRaw, Options{})
	if len(segs) != 3 {
		t.Fatalf("got %d segments, want 3: %+v", len(segs), segs)
	}
	for _, seg := range segs {
		if seg.SpeakerRef != SyntheticSpeaker {
			t.Errorf("raw ref = %q, want %q", seg.SpeakerRef, SyntheticSpeaker)
		}
	}
}

func TestPositionsContinueFromStart(t *testing.T) {
	segs := Split("Alice: one.\nBob: two.", types.FormatLabeled, Options{Start: 7})
	if segs[0].Position != 7 || segs[1].Position != 8 {
		t.Errorf("positions = %d, %d, want 7, 8", segs[0].Position, segs[1].Position)
	}
}

// Segmentation coverage: all non-filler words of the transcript survive, in
// order, in the concatenated segment text
func TestCoverage(t *testing.T) {
	text := `Alice: So um the model needs more compute.
Bob: I disagree, uh, it needs better data.
Alice: Maybe both, you know, in the end.`

	segs := Split(text, types.FormatLabeled, Options{Fillers: testFillers})

	var got []string
	for _, seg := range segs {
		got = append(got, extractWords(seg.Text)...)
	}
	want := []string{
		"so", "the", "model", "needs", "more", "compute",
		"i", "disagree", "it", "needs", "better", "data",
		"maybe", "both", "in", "the", "end",
	}
	if len(got) != len(want) {
		t.Fatalf("word count = %d, want %d\ngot: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d = %q, want %q", i, got[i], want[i])
		}
	}
}

var wordOnlyRe = regexp.MustCompile(`[a-z]+`)

func extractWords(s string) []string {
	return wordOnlyRe.FindAllString(strings.ToLower(s), -1)
}
