// Package usecases contains application business rules.
// Usecases orchestrate entities and depend on port interfaces only -
// no framework code, no I/O beyond what the ports provide.
package usecases

import "strings"

// sentence terminators recognized by the boundary heuristic, including
// CJK full-width forms.
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true, '\n': true,
	'。': true, '！': true, '？': true,
}

// Chunk splits text into overlapping, sentence-bounded segments of roughly
// targetSize characters. Segments never lose content: every input token
// appears in at least one output segment. Out-of-range parameters are
// clamped to the documented limits.
func Chunk(text string, targetSize, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if targetSize < 64 {
		targetSize = 64
	}
	if targetSize > 2048 {
		targetSize = 2048
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap > 512 {
		overlap = 512
	}
	if overlap >= targetSize {
		overlap = targetSize / 4
	}

	if len([]rune(text)) <= targetSize {
		return []string{text}
	}

	units := splitUnits(text, targetSize)

	var segments []string
	var current []rune
	seedOnly := false // current holds nothing but the overlap seed
	for _, unit := range units {
		u := []rune(unit)
		if len(current) > 0 && !seedOnly && len(current)+1+len(u) > targetSize {
			seg := strings.TrimSpace(string(current))
			if seg != "" {
				segments = append(segments, seg)
			}
			// Seed the next segment with the tail of the one just closed.
			current = tail(current, overlap)
			seedOnly = len(current) > 0
		}
		if len(current) > 0 {
			current = append(current, ' ')
		}
		current = append(current, u...)
		seedOnly = false
	}
	if seg := strings.TrimSpace(string(current)); seg != "" {
		segments = append(segments, seg)
	}
	return segments
}

// splitUnits breaks text into sentence-like units. If no sentence boundary
// exists it falls back to whitespace splitting, and as a last resort to raw
// rune runs, so chunking always terminates and always makes progress.
func splitUnits(text string, targetSize int) []string {
	var units []string
	var current []rune
	for _, r := range text {
		current = append(current, r)
		if sentenceTerminators[r] {
			if u := strings.TrimSpace(string(current)); u != "" {
				units = append(units, u)
			}
			current = current[:0]
		}
	}
	if u := strings.TrimSpace(string(current)); u != "" {
		units = append(units, u)
	}

	if len(units) <= 1 && len(units) != 0 && len([]rune(units[0])) > targetSize {
		units = strings.Fields(text)
	}

	// A single run longer than targetSize would stall accumulation; cut it
	// into fixed-size rune runs.
	var out []string
	for _, u := range units {
		runes := []rune(u)
		for len(runes) > targetSize {
			out = append(out, string(runes[:targetSize]))
			runes = runes[targetSize:]
		}
		if len(runes) > 0 {
			out = append(out, string(runes))
		}
	}
	return out
}

// tail returns the last n runes of s, trimmed to a clean copy.
func tail(s []rune, n int) []rune {
	if n <= 0 || len(s) == 0 {
		return nil
	}
	if n > len(s) {
		n = len(s)
	}
	t := strings.TrimSpace(string(s[len(s)-n:]))
	return []rune(t)
}
