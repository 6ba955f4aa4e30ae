// Package format classifies raw transcript text into one of the supported
// input dialects. Probes run in a fixed order, cheapest and most specific
// first, so detection is deterministic: the first matching probe wins.
package format

import (
	"errors"
	"regexp"
	"strings"

	"github.com/vthunder/confmind/internal/types"
)

// ErrUnrecognized is returned only for input that cannot be treated even as
// plain prose (empty or whitespace). Unlabeled prose is still FormatRaw.
var ErrUnrecognized = errors.New("unrecognized transcript format")

var (
	srtIndexRe   = regexp.MustCompile(`^\d+$`)
	arrowStampRe = regexp.MustCompile(`\d{2}:\d{2}:\d{2}[,.]\d{3}\s*-->\s*\d{2}:\d{2}:\d{2}[,.]\d{3}`)
	youtubeRe    = regexp.MustCompile(`^\[?\d{1,2}:\d{2}(:\d{2})?\]?\s+\S`)
	labelRe      = regexp.MustCompile(`^[A-Z][\w .'-]*?:\s*\S`)
)

const probeLines = 20

// Detect classifies text into a FormatKind
func Detect(text string) (types.FormatKind, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrUnrecognized
	}

	lines := headLines(trimmed, probeLines)

	if isSRT(lines) {
		return types.FormatSRT, nil
	}
	if strings.HasPrefix(lines[0], "WEBVTT") {
		return types.FormatVTT, nil
	}
	if isYouTube(lines) {
		return types.FormatYouTube, nil
	}
	if isLabeled(lines) {
		return types.FormatLabeled, nil
	}
	return types.FormatRaw, nil
}

func headLines(text string, n int) []string {
	all := strings.Split(text, "\n")
	if len(all) > n {
		all = all[:n]
	}
	out := make([]string, len(all))
	for i, l := range all {
		out[i] = strings.TrimSpace(l)
	}
	return out
}

// isSRT looks for a numeric cue index followed (within a few lines) by an
// arrow timestamp. Both must be present: a numbered list alone is not SRT.
func isSRT(lines []string) bool {
	sawIndex := false
	for i, l := range lines {
		if i < 5 && srtIndexRe.MatchString(l) {
			sawIndex = true
		}
		if sawIndex && i < 10 && arrowStampRe.MatchString(l) {
			return true
		}
	}
	return false
}

func isYouTube(lines []string) bool {
	for i, l := range lines {
		if i >= 10 {
			break
		}
		if youtubeRe.MatchString(l) {
			return true
		}
	}
	return false
}

// isLabeled requires the Name: pattern on several lines across at least two
// distinct leading tokens, so a lone "Note:" paragraph does not qualify.
func isLabeled(lines []string) bool {
	names := map[string]bool{}
	hits := 0
	for _, l := range lines {
		if m := labelRe.FindString(l); m != "" {
			name := strings.TrimSpace(strings.SplitN(m, ":", 2)[0])
			names[strings.ToLower(name)] = true
			hits++
		}
	}
	return hits >= 2 && len(names) >= 2
}
