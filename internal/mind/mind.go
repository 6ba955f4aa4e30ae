// Package mind assembles the full extraction pipeline: detect -> segment ->
// resolve -> synthesize -> index -> analyze. A ConferenceMind only becomes
// visible to callers once every stage has completed, so the router never
// sees partially-built state. Profile synthesis and analysis sit behind
// capability interfaces so a model-backed implementation could substitute
// without touching the router or the data model.
package mind

import (
	"errors"
	"fmt"
	"time"

	"github.com/vthunder/confmind/internal/analyze"
	"github.com/vthunder/confmind/internal/config"
	"github.com/vthunder/confmind/internal/format"
	"github.com/vthunder/confmind/internal/index"
	"github.com/vthunder/confmind/internal/logging"
	"github.com/vthunder/confmind/internal/profile"
	"github.com/vthunder/confmind/internal/resolve"
	"github.com/vthunder/confmind/internal/route"
	"github.com/vthunder/confmind/internal/segment"
	"github.com/vthunder/confmind/internal/types"
)

// ErrEmptyTranscript means segmentation produced nothing. Fatal to the
// ingest call; no partial ConferenceMind is returned.
var ErrEmptyTranscript = errors.New("transcript produced no segments")

// Synthesizer derives both profiles for one speaker. Must be a pure
// function of the segments.
type Synthesizer interface {
	Synthesize(sp *types.Speaker, own []types.Segment, all []types.Segment) (*types.SoulProfile, *types.SkillsProfile)
}

// Analyzer derives cross-speaker themes and tensions
type Analyzer interface {
	Analyze(speakers []*types.Speaker, skills map[string]*types.SkillsProfile, idx *index.Index) ([]types.Theme, []types.Tension)
}

// Session is one transcript to ingest
type Session struct {
	Text  string
	Title string
}

// Engine runs the pipeline. Safe for concurrent use across distinct
// ConferenceMinds; operations on one mind are serial by contract.
type Engine struct {
	cfg         *config.Config
	resolver    *resolve.Resolver
	synthesizer Synthesizer
	analyzer    Analyzer
	router      *route.Router
}

// NewEngine wires the default heuristic synthesizer and analyzer
func NewEngine(cfg *config.Config) *Engine {
	return &Engine{
		cfg:         cfg,
		resolver:    resolve.New(cfg.Aliases),
		synthesizer: profile.New(cfg),
		analyzer:    analyze.New(cfg),
		router:      route.New(cfg),
	}
}

// Ingest builds a ConferenceMind from one or more sessions. Positions are
// numbered continuously across sessions in the supplied order. Parse-stage
// errors abort the whole ingest.
func (e *Engine) Ingest(name string, sessions []Session) (*types.ConferenceMind, error) {
	if name == "" {
		name = "Conference " + time.Now().Format("2006-01-02 15:04")
	}

	mind := &types.ConferenceMind{
		Name:    name,
		Slug:    resolve.Slugify(name),
		Created: time.Now().UTC(),
	}
	if err := e.appendSessions(mind, sessions); err != nil {
		return nil, err
	}
	if err := e.derive(mind); err != nil {
		return nil, err
	}
	logging.Info("mind", "ingested %q: %d speakers, %d segments, %d themes, %d tensions",
		name, len(mind.Speakers), len(mind.Segments), len(mind.Themes), len(mind.Tensions))
	return mind, nil
}

// Append re-ingests additional sessions into an existing mind. New segments
// are numbered after the existing ones and all derived state is rebuilt
// from scratch, preserving the pure-derivation invariant. All sessions are
// staged on a copy; a failure in any session leaves the mind untouched.
func (e *Engine) Append(mind *types.ConferenceMind, sessions []Session) error {
	staged := *mind
	staged.Segments = append([]types.Segment(nil), mind.Segments...)
	staged.Sessions = append([]types.SessionMeta(nil), mind.Sessions...)
	if err := e.appendSessions(&staged, sessions); err != nil {
		return err
	}
	if err := e.derive(&staged); err != nil {
		return err
	}
	*mind = staged
	return nil
}

// Merge unions two minds into a new one: b's segments are renumbered after
// a's, speakers are re-resolved across the combined alias sets, and
// profiles, themes and tensions are re-derived over the union. Merge is
// re-derivation, not a shallow union.
func (e *Engine) Merge(name string, a, b *types.ConferenceMind) (*types.ConferenceMind, error) {
	if name == "" {
		name = a.Name + " + " + b.Name
	}
	merged := &types.ConferenceMind{
		Name:     name,
		Slug:     resolve.Slugify(name),
		Created:  time.Now().UTC(),
		Sessions: append(append([]types.SessionMeta(nil), a.Sessions...), b.Sessions...),
	}
	merged.Segments = append(merged.Segments, a.Segments...)
	offset := nextPosition(a.Segments)
	for _, seg := range b.Segments {
		seg.Position += offset
		merged.Segments = append(merged.Segments, seg)
	}
	if err := e.derive(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// Route answers a question against a fully-derived mind
func (e *Engine) Route(mind *types.ConferenceMind, question string, opts route.Options) ([]route.Result, error) {
	return e.router.Route(question, mind, index.Build(mind.Segments), opts)
}

// appendSessions detects and segments each session, numbering positions
// after whatever the mind already holds
func (e *Engine) appendSessions(mind *types.ConferenceMind, sessions []Session) error {
	start := nextPosition(mind.Segments)
	for i, sess := range sessions {
		kind, err := format.Detect(sess.Text)
		if err != nil {
			return fmt.Errorf("session %d: %w", i, err)
		}
		segs := segment.Split(sess.Text, kind, segment.Options{
			Fillers: e.cfg.Fillers,
			Start:   start,
		})
		if len(segs) == 0 {
			return fmt.Errorf("session %d: %w", i, ErrEmptyTranscript)
		}
		start = segs[len(segs)-1].Position + 1
		mind.Segments = append(mind.Segments, segs...)
		mind.Sessions = append(mind.Sessions, types.SessionMeta{Title: sess.Title, Format: kind})
	}
	return nil
}

// derive rebuilds every derived artifact from the mind's segments: speaker
// resolution, per-speaker profiles, the passage index, themes and tensions
func (e *Engine) derive(mind *types.ConferenceMind) error {
	if len(mind.Segments) == 0 {
		return ErrEmptyTranscript
	}

	refs := make([]string, 0, len(mind.Segments))
	for _, seg := range mind.Segments {
		refs = append(refs, seg.SpeakerRef)
	}
	bySpeakerRef := e.resolver.Resolve(refs)

	seen := map[string]bool{}
	mind.Speakers = nil
	for i := range mind.Segments {
		sp := bySpeakerRef[mind.Segments[i].SpeakerRef]
		mind.Segments[i].SpeakerID = sp.ID
		if !seen[sp.ID] {
			seen[sp.ID] = true
			mind.Speakers = append(mind.Speakers, sp)
		}
	}

	mind.Souls = make(map[string]*types.SoulProfile, len(mind.Speakers))
	mind.Skills = make(map[string]*types.SkillsProfile, len(mind.Speakers))
	for _, sp := range mind.Speakers {
		soul, skills := e.synthesizer.Synthesize(sp, mind.SegmentsOf(sp.ID), mind.Segments)
		mind.Souls[sp.ID] = soul
		mind.Skills[sp.ID] = skills
	}

	idx := index.Build(mind.Segments)
	mind.Themes, mind.Tensions = e.analyzer.Analyze(mind.Speakers, mind.Skills, idx)
	return nil
}

func nextPosition(segs []types.Segment) int {
	if len(segs) == 0 {
		return 0
	}
	return segs[len(segs)-1].Position + 1
}
