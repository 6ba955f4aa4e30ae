package mind

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/route"
	"github.com/vthunder/confmind/internal/types"
)

const panelTranscript = `Dr. Smith: I think cloud-first is essential for every serious product today. The cloud gives you compute elasticity nothing on-premise can match.
Jane Doe: I disagree, local-first is essential. Privacy and latency both point toward keeping data on the device.
Smith: Elasticity still wins for me. You cannot train a model on a laptop.
Jane Doe: Training, sure. But inference belongs at the edge, close to the user.`

func TestIngestEndToEnd(t *testing.T) {
	e := NewEngine(config.Default())
	mind, err := e.Ingest("DevConf 2026", []Session{{Text: panelTranscript, Title: "Panel"}})
	if err != nil {
		t.Fatal(err)
	}

	if mind.Slug != "devconf-2026" {
		t.Errorf("slug = %q", mind.Slug)
	}
	if len(mind.Sessions) != 1 || mind.Sessions[0].Format != types.FormatLabeled {
		t.Errorf("sessions = %+v", mind.Sessions)
	}

	// "Dr. Smith" and "Smith" resolve to one speaker
	if len(mind.Speakers) != 2 {
		t.Fatalf("speakers = %+v, want 2", mind.Speakers)
	}
	smith := mind.SpeakerByID("dr-smith")
	if smith == nil || smith.DisplayName != "Dr. Smith" {
		t.Fatalf("smith = %+v", smith)
	}

	// Positions are contiguous from zero
	for i, seg := range mind.Segments {
		if seg.Position != i {
			t.Errorf("segment %d has position %d", i, seg.Position)
		}
		if seg.SpeakerID == "" {
			t.Errorf("segment %d unresolved", i)
		}
	}

	// Every speaker has both profiles
	for _, sp := range mind.Speakers {
		if mind.Souls[sp.ID] == nil || mind.Skills[sp.ID] == nil {
			t.Errorf("speaker %s missing profiles", sp.ID)
		}
	}

	// The cloud-first vs local-first exchange surfaces as theme and tension
	var firstTheme *types.Theme
	for i := range mind.Themes {
		if mind.Themes[i].Label == "first" {
			firstTheme = &mind.Themes[i]
		}
	}
	if firstTheme == nil {
		t.Fatalf("no theme labeled first: %+v", mind.Themes)
	}
	if len(firstTheme.Speakers) != 2 {
		t.Errorf("theme speakers = %v", firstTheme.Speakers)
	}
	found := false
	for _, tn := range mind.Tensions {
		if tn.Topic == "first" {
			found = true
		}
	}
	if !found {
		t.Errorf("no tension on the first topic: %+v", mind.Tensions)
	}
}

func TestIngestEmpty(t *testing.T) {
	e := NewEngine(config.Default())
	_, err := e.Ingest("Empty", []Session{{Text: "   \n  "}})
	if err == nil {
		t.Fatal("ingest of blank text should fail")
	}
}

// A second session continues position numbering and re-derives everything
func TestAppendContinuesPositions(t *testing.T) {
	e := NewEngine(config.Default())
	mind, err := e.Ingest("Two Days", []Session{{Text: panelTranscript, Title: "Day 1"}})
	if err != nil {
		t.Fatal(err)
	}
	day1Len := len(mind.Segments)

	day2 := `Jane Doe: Day two. Edge inference demos went well.
Dr. Smith: The cloud demos did too.`
	if err := e.Append(mind, []Session{{Text: day2, Title: "Day 2"}}); err != nil {
		t.Fatal(err)
	}

	if len(mind.Sessions) != 2 {
		t.Errorf("sessions = %+v", mind.Sessions)
	}
	for i, seg := range mind.Segments {
		if seg.Position != i {
			t.Fatalf("position %d at index %d after append", seg.Position, i)
		}
	}
	if len(mind.Segments) <= day1Len {
		t.Errorf("append added no segments")
	}
	// Still the same two people
	if len(mind.Speakers) != 2 {
		t.Errorf("speakers after append = %+v", mind.Speakers)
	}
}

// A failing session anywhere in the batch aborts the whole append: no
// segments, session entries, or stale derived state from earlier sessions
// may leak into the mind
func TestAppendFailureLeavesMindUntouched(t *testing.T) {
	e := NewEngine(config.Default())
	m, err := e.Ingest("Two Days", []Session{{Text: panelTranscript, Title: "Day 1"}})
	if err != nil {
		t.Fatal(err)
	}
	segments := append([]types.Segment(nil), m.Segments...)
	sessions := append([]types.SessionMeta(nil), m.Sessions...)
	themes := append([]types.Theme(nil), m.Themes...)

	day2 := "Jane Doe: More edge inference results.\nDr. Smith: And more cloud numbers."
	err = e.Append(m, []Session{{Text: day2, Title: "Day 2"}, {Text: "   \n  ", Title: "blank"}})
	if err == nil {
		t.Fatal("append with a blank session should fail")
	}

	if !reflect.DeepEqual(m.Segments, segments) {
		t.Errorf("failed append changed segments: %d -> %d", len(segments), len(m.Segments))
	}
	if !reflect.DeepEqual(m.Sessions, sessions) {
		t.Errorf("failed append changed sessions: %+v", m.Sessions)
	}
	if !reflect.DeepEqual(m.Themes, themes) {
		t.Errorf("failed append changed derived state: %+v", m.Themes)
	}
}

// Merge renumbers the second mind's segments after the first and re-derives
// the union; speakers common to both collapse
func TestMerge(t *testing.T) {
	e := NewEngine(config.Default())
	a, err := e.Ingest("Track A", []Session{{Text: panelTranscript}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Ingest("Track B", []Session{{Text: "Jane Doe: Local-first keeps coming up in the hallway track.\nBob Lee: Agreed, privacy is the draw."}})
	if err != nil {
		t.Fatal(err)
	}

	merged, err := e.Merge("", a, b)
	if err != nil {
		t.Fatal(err)
	}
	if merged.Name != "Track A + Track B" {
		t.Errorf("name = %q", merged.Name)
	}
	if len(merged.Segments) != len(a.Segments)+len(b.Segments) {
		t.Errorf("segments = %d, want %d", len(merged.Segments), len(a.Segments)+len(b.Segments))
	}
	for i, seg := range merged.Segments {
		if seg.Position != i {
			t.Fatalf("position %d at index %d after merge", seg.Position, i)
		}
	}
	if len(merged.Speakers) != 3 {
		t.Errorf("merged speakers = %+v, want smith, jane, bob", merged.Speakers)
	}
	// Inputs are untouched
	if len(a.Segments) != 4 || len(b.Segments) != 2 {
		t.Errorf("merge mutated its inputs: %d, %d", len(a.Segments), len(b.Segments))
	}
}

// Re-deriving from the same segments reproduces the same artifacts
func TestDeriveDeterministic(t *testing.T) {
	e := NewEngine(config.Default())
	m1, err := e.Ingest("Rerun", []Session{{Text: panelTranscript}})
	if err != nil {
		t.Fatal(err)
	}
	m2, err := e.Ingest("Rerun", []Session{{Text: panelTranscript}})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(m1.Speakers, m2.Speakers) {
		t.Errorf("speakers differ")
	}
	if !reflect.DeepEqual(m1.Souls, m2.Souls) {
		t.Errorf("souls differ")
	}
	if !reflect.DeepEqual(m1.Skills, m2.Skills) {
		t.Errorf("skills differ")
	}
	if !reflect.DeepEqual(m1.Themes, m2.Themes) {
		t.Errorf("themes differ")
	}
	if !reflect.DeepEqual(m1.Tensions, m2.Tensions) {
		t.Errorf("tensions differ")
	}
}

func TestRouteThroughEngine(t *testing.T) {
	e := NewEngine(config.Default())
	mind, err := e.Ingest("Routing", []Session{{Text: panelTranscript}})
	if err != nil {
		t.Fatal(err)
	}

	results, err := e.Route(mind, "Should we build cloud-first or local-first?", route.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 {
		t.Fatal("no results")
	}
	for _, res := range results {
		if len(res.Positions) == 0 {
			t.Errorf("speaker %s returned without passages", res.Speaker.ID)
		}
	}

	_, err = e.Route(mind, "What is the capital of France?", route.Options{})
	if !errors.Is(err, route.ErrNoRelevantSpeaker) {
		t.Errorf("err = %v, want ErrNoRelevantSpeaker", err)
	}
}
