package bubble

import "strings"

// Sanitize strips control characters the glyph renderer cannot draw.
// Newlines survive because they delimit body lines.
func Sanitize(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r == '\n' || r == '\t' {
			b.WriteRune(r)
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HardWrap splits text on explicit newlines and slices any line longer than
// width at exactly width runes. Character-count wrap, not word-aware: the
// concatenation of the produced lines equals the input lines exactly.
func HardWrap(text string, width int) []string {
	var wrapped []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		runes := []rune(line)
		for len(runes) > width {
			wrapped = append(wrapped, string(runes[:width]))
			runes = runes[width:]
		}
		if len(runes) > 0 {
			wrapped = append(wrapped, string(runes))
		}
	}
	if len(wrapped) == 0 {
		wrapped = []string{" "}
	}
	return wrapped
}

// WordWrap wraps text at width runes without ever splitting a word. A single
// word longer than width stands alone on its own line.
func WordWrap(text string, width int) []string {
	words := strings.Fields(text)
	var lines []string
	var line string
	for _, word := range words {
		candidate := word
		if line != "" {
			candidate = line + " " + word
		}
		if len([]rune(candidate)) > width {
			if line != "" {
				lines = append(lines, line)
			}
			line = word
		} else {
			line = candidate
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		lines = []string{" "}
	}
	return lines
}

func longestLine(lines []string) int {
	max := 0
	for _, l := range lines {
		if n := len([]rune(l)); n > max {
			max = n
		}
	}
	return max
}
