// Package segment converts detected-format transcript text into the ordered
// Segment sequence the rest of the engine works on. Adjacent cues from the
// same raw speaker ref are merged, filler tokens are stripped at word
// boundaries, and position ordinals are assigned after merging.
package segment

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/vthunder/confmind/internal/types"
)

// SyntheticSpeaker is the ref used when the transcript carries no speaker
// markers at all (degraded raw mode, not a failure).
const SyntheticSpeaker = "Speaker 1"

// Options control segmentation
type Options struct {
	Fillers []string // standalone tokens/phrases stripped at word boundaries
	Start   int      // first position ordinal, for continuous multi-session numbering
}

// cue is a pre-merge candidate segment
type cue struct {
	ref  string
	text string
	ts   time.Duration
}

var (
	labelRe     = regexp.MustCompile(`^([A-Z][\w .'-]*?):\s*(.*)$`)
	srtIndexRe  = regexp.MustCompile(`^\d+$`)
	stampLineRe = regexp.MustCompile(`(\d{1,2}:\d{2}:\d{2}[,.]\d{3})\s*-->`)
	youtubeRe   = regexp.MustCompile(`^\[?(\d{1,2}:\d{2}(?::\d{2})?)\]?\s+(.*)$`)
	voiceTagRe  = regexp.MustCompile(`<v(?:\.[^ >]*)?\s+([^>]+)>`)
	tagRe       = regexp.MustCompile(`</?[^>]+>`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// Split segments text of a known format. The returned segments carry raw
// speaker refs; resolution to canonical speakers happens later.
func Split(text string, kind types.FormatKind, opts Options) []types.Segment {
	var cues []cue
	switch kind {
	case types.FormatSRT:
		cues = parseSubtitles(text, ",")
	case types.FormatVTT:
		cues = parseSubtitles(text, ".")
	case types.FormatYouTube:
		cues = parseYouTube(text)
	case types.FormatLabeled:
		cues = parseLabeled(text)
	default:
		cues = parseRaw(text)
	}

	merged := mergeAdjacent(cues)

	stripper := newFillerStripper(opts.Fillers)
	var out []types.Segment
	pos := opts.Start
	for _, c := range merged {
		clean := stripper.strip(c.text)
		if clean == "" {
			continue
		}
		out = append(out, types.Segment{
			SpeakerRef: c.ref,
			Text:       clean,
			Position:   pos,
			Timestamp:  c.ts,
		})
		pos++
	}
	return out
}

// parseLabeled handles "Name: text" transcripts. Continuation lines attach
// to the current speaker; leading unlabeled lines go to the synthetic ref.
func parseLabeled(text string) []cue {
	var cues []cue
	current := cue{ref: SyntheticSpeaker}
	flush := func() {
		if strings.TrimSpace(current.text) != "" {
			cues = append(cues, current)
		}
	}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := labelRe.FindStringSubmatch(line); m != nil {
			flush()
			current = cue{ref: strings.TrimSpace(m[1]), text: m[2]}
			continue
		}
		if current.text != "" {
			current.text += " "
		}
		current.text += line
	}
	flush()
	return cues
}

// parseSubtitles handles SRT and VTT cue blocks. decimal is the millisecond
// separator ("," for SRT, "." for VTT). Cue text may carry its own speaker
// label or a VTT voice tag; unlabeled cues inherit the previous speaker.
func parseSubtitles(text string, decimal string) []cue {
	var cues []cue
	lastRef := SyntheticSpeaker

	blocks := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	for _, block := range blocks {
		lines := strings.Split(strings.TrimSpace(block), "\n")
		var ts time.Duration
		var body []string
		sawStamp := false
		for _, line := range lines {
			line = strings.TrimSpace(line)
			switch {
			case line == "" || strings.HasPrefix(line, "WEBVTT"),
				strings.HasPrefix(line, "NOTE"), strings.HasPrefix(line, "STYLE"),
				strings.HasPrefix(line, "REGION"):
				continue
			case stampLineRe.MatchString(line):
				if m := stampLineRe.FindStringSubmatch(line); m != nil {
					ts = parseStamp(m[1], decimal)
				}
				sawStamp = true
			case !sawStamp && srtIndexRe.MatchString(line):
				// cue index (SRT) or bare cue id, not content
			case !sawStamp:
				// VTT cue identifier line, skip
			default:
				body = append(body, line)
			}
		}
		if len(body) == 0 {
			continue
		}
		joined := strings.Join(body, " ")

		ref := lastRef
		if m := voiceTagRe.FindStringSubmatch(joined); m != nil {
			ref = strings.TrimSpace(m[1])
		}
		joined = tagRe.ReplaceAllString(joined, "")
		if m := labelRe.FindStringSubmatch(joined); m != nil {
			ref = strings.TrimSpace(m[1])
			joined = m[2]
		}
		lastRef = ref
		cues = append(cues, cue{ref: ref, text: joined, ts: ts})
	}
	return cues
}

// parseYouTube handles "[hh:mm:ss] text" and "mm:ss text" transcript lines
func parseYouTube(text string) []cue {
	var cues []cue
	lastRef := SyntheticSpeaker
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rest := line
		var ts time.Duration
		if m := youtubeRe.FindStringSubmatch(line); m != nil {
			ts = parseClock(m[1])
			rest = m[2]
		}
		ref := lastRef
		if m := labelRe.FindStringSubmatch(rest); m != nil {
			ref = strings.TrimSpace(m[1])
			rest = m[2]
		}
		lastRef = ref
		if rest != "" {
			cues = append(cues, cue{ref: ref, text: rest, ts: ts})
		}
	}
	return cues
}

// parseRaw splits unmarked prose at paragraph boundaries under one
// synthetic speaker
func parseRaw(text string) []cue {
	var cues []cue
	paras := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	for _, p := range paras {
		p = strings.TrimSpace(spaceRe.ReplaceAllString(p, " "))
		if p != "" {
			cues = append(cues, cue{ref: SyntheticSpeaker, text: p})
		}
	}
	return cues
}

// mergeAdjacent joins consecutive cues with an identical pre-resolution ref,
// keeping the first cue's timestamp
func mergeAdjacent(cues []cue) []cue {
	var out []cue
	for _, c := range cues {
		if n := len(out); n > 0 && out[n-1].ref == c.ref {
			out[n-1].text += " " + c.text
			continue
		}
		out = append(out, c)
	}
	return out
}

// fillerStripper removes configured filler tokens at word boundaries only
type fillerStripper struct {
	patterns []*regexp.Regexp
}

func newFillerStripper(fillers []string) *fillerStripper {
	s := &fillerStripper{}
	for _, f := range fillers {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(f) + `\b[,.]?`)
		if err == nil {
			s.patterns = append(s.patterns, re)
		}
	}
	return s
}

func (s *fillerStripper) strip(text string) string {
	for _, re := range s.patterns {
		text = re.ReplaceAllString(text, " ")
	}
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

func parseStamp(stamp, decimal string) time.Duration {
	parts := strings.SplitN(stamp, decimal, 2)
	d := parseClock(parts[0])
	if len(parts) == 2 {
		if ms, err := strconv.Atoi(parts[1]); err == nil {
			d += time.Duration(ms) * time.Millisecond
		}
	}
	return d
}

// parseClock parses hh:mm:ss or mm:ss into a duration
func parseClock(clock string) time.Duration {
	fields := strings.Split(clock, ":")
	var total int
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil {
			return 0
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second
}
