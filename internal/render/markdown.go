// Package render turns engine results into human-readable markdown for the
// CLI and MCP surfaces. Rendering only quotes indexed passages; it never
// invents prose.
package render

import (
	"fmt"
	"strings"

	"github.com/vthunder/confmind/internal/route"
	"github.com/vthunder/confmind/internal/types"
)

const quoteLimit = 300

// Answer renders a routed result list with passage attribution
func Answer(results []route.Result, mind *types.ConferenceMind) string {
	if len(results) == 0 {
		return "No speakers found with relevant content for this question.\n"
	}
	segs := map[int]types.Segment{}
	for _, seg := range mind.Segments {
		segs[seg.Position] = seg
	}

	var b strings.Builder
	for _, res := range results {
		fmt.Fprintf(&b, "**%s** (relevance: %.0f%%)", res.Speaker.DisplayName, res.Score*100)
		if len(res.Opposing) > 0 {
			var names []string
			for _, id := range res.Opposing {
				if sp := mind.SpeakerByID(id); sp != nil {
					names = append(names, sp.DisplayName)
				}
			}
			fmt.Fprintf(&b, " (opposing %s)", strings.Join(names, ", "))
		}
		b.WriteString("\n")
		for _, pos := range res.Positions {
			seg, ok := segs[pos]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "  [%s, position %d] %q\n", res.Speaker.DisplayName, pos, truncate(seg.Text, quoteLimit))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Overview renders the conference composite: speakers, themes, tensions
func Overview(mind *types.ConferenceMind) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", mind.Name)
	fmt.Fprintf(&b, "- Created: %s\n", mind.Created.Format("2006-01-02 15:04"))
	fmt.Fprintf(&b, "- Speakers: %d\n", len(mind.Speakers))
	fmt.Fprintf(&b, "- Segments: %d\n\n", len(mind.Segments))

	b.WriteString("## Themes\n")
	if len(mind.Themes) == 0 {
		b.WriteString("(none detected)\n")
	}
	for _, th := range mind.Themes {
		var names []string
		for _, id := range th.Speakers {
			if sp := mind.SpeakerByID(id); sp != nil {
				names = append(names, sp.DisplayName)
			}
		}
		fmt.Fprintf(&b, "- **%s**: %s (%d passages)\n", th.Label, strings.Join(names, ", "), len(th.Positions))
	}

	b.WriteString("\n## Tensions\n")
	if len(mind.Tensions) == 0 {
		b.WriteString("(none detected)\n")
	}
	for _, t := range mind.Tensions {
		fmt.Fprintf(&b, "- %s vs %s on **%s** (%d contrast signals)\n",
			displayName(mind, t.SpeakerA), displayName(mind, t.SpeakerB), t.Topic, t.Markers)
	}

	b.WriteString("\n## Speakers\n")
	for _, sp := range mind.Speakers {
		fmt.Fprintf(&b, "- **%s**", sp.DisplayName)
		if skills := mind.Skills[sp.ID]; skills != nil && len(skills.DomainTerms) > 0 {
			var top []string
			for i, tf := range skills.DomainTerms {
				if i >= 3 {
					break
				}
				top = append(top, tf.Term)
			}
			fmt.Fprintf(&b, " | %s", strings.Join(top, ", "))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Speaker renders one speaker's soul and skills profiles
func Speaker(mind *types.ConferenceMind, sp *types.Speaker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", sp.DisplayName)
	if len(sp.Aliases) > 0 {
		fmt.Fprintf(&b, "Also appears as: %s\n\n", strings.Join(sp.Aliases, ", "))
	}

	if soul := mind.Souls[sp.ID]; soul != nil {
		b.WriteString("## Voice\n")
		fmt.Fprintf(&b, "- sentence structure: %s (avg %.1f words)\n", soul.SentenceStructure, soul.AvgSentenceLen)
		fmt.Fprintf(&b, "- vocabulary register: %s\n", soul.VocabularyRegister)
		fmt.Fprintf(&b, "- posture: %s\n", soul.Posture)
		if len(soul.RhetoricalDevices) > 0 {
			fmt.Fprintf(&b, "- rhetorical devices: %s\n", strings.Join(soul.RhetoricalDevices, ", "))
		}
		if len(soul.SignaturePhrases) > 0 {
			b.WriteString("\n## Signature Phrases\n")
			for _, p := range soul.SignaturePhrases {
				fmt.Fprintf(&b, "- %q\n", p)
			}
		}
	}

	if skills := mind.Skills[sp.ID]; skills != nil {
		b.WriteString("\n## Expertise\n")
		for _, tf := range skills.DomainTerms {
			fmt.Fprintf(&b, "- **%s**: %d references\n", tf.Term, tf.Count)
		}
		if len(skills.Frameworks) > 0 {
			fmt.Fprintf(&b, "\nMentions: %s\n", strings.Join(skills.Frameworks, ", "))
		}
		if len(skills.Claims) > 0 {
			b.WriteString("\n## Claims\n")
			for _, c := range skills.Claims {
				fmt.Fprintf(&b, "- %q\n", truncate(c, quoteLimit))
			}
		}
	}
	return b.String()
}

func displayName(mind *types.ConferenceMind, id string) string {
	if sp := mind.SpeakerByID(id); sp != nil {
		return sp.DisplayName
	}
	return id
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
