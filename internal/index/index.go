// Package index provides the passage index: a stable lookup over every
// segment by position and by speaker. Built once after resolution; the
// analyzer and router read it, nothing mutates it.
package index

import (
	"sort"

	"github.com/vthunder/confmind/internal/types"
)

// Index maps speaker ids to their ordered segment positions and positions
// back to segments
type Index struct {
	byPos     map[int]types.Segment
	bySpeaker map[string][]int
	maxPos    int
}

// Build constructs the index from resolved segments
func Build(segments []types.Segment) *Index {
	idx := &Index{
		byPos:     make(map[int]types.Segment, len(segments)),
		bySpeaker: make(map[string][]int),
	}
	for _, seg := range segments {
		idx.byPos[seg.Position] = seg
		idx.bySpeaker[seg.SpeakerID] = append(idx.bySpeaker[seg.SpeakerID], seg.Position)
		if seg.Position > idx.maxPos {
			idx.maxPos = seg.Position
		}
	}
	for _, positions := range idx.bySpeaker {
		sort.Ints(positions)
	}
	return idx
}

// At returns the segment at a position
func (i *Index) At(pos int) (types.Segment, bool) {
	seg, ok := i.byPos[pos]
	return seg, ok
}

// Positions returns a speaker's segment positions in transcript order
func (i *Index) Positions(speakerID string) []int {
	return i.bySpeaker[speakerID]
}

// Speakers returns all indexed speaker ids, sorted
func (i *Index) Speakers() []string {
	ids := make([]string, 0, len(i.bySpeaker))
	for id := range i.bySpeaker {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of indexed segments
func (i *Index) Len() int {
	return len(i.byPos)
}

// MaxPosition returns the highest assigned position ordinal
func (i *Index) MaxPosition() int {
	return i.maxPos
}
