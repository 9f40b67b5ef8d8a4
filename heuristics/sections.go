package heuristics

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited block of an input document.
type Section struct {
	Heading   string
	StartLine int
	Lines     []string
}

var trailingColonPattern = regexp.MustCompile(`:\s*$`)

// isHeading decides whether a line reads as a section heading: an
// ALL-CAPS line, a Title Case line, or a short trailing-colon label line
// (spec §4.3.4: <=8 words, <=64 chars).
func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || len(trimmed) > 64 {
		return false
	}
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 8 {
		return false
	}

	if trailingColonPattern.MatchString(trimmed) {
		return true
	}
	if isUppercased(trimmed) {
		return true
	}
	if isTitleCase(words) {
		return true
	}
	return false
}

func isUppercased(s string) bool {
	hasLetter := false
	for _, r := range s {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func isTitleCase(words []string) bool {
	for _, w := range words {
		letters := []rune(strings.TrimFunc(w, func(r rune) bool {
			return r < 'A' || (r > 'Z' && r < 'a') || r > 'z'
		}))
		if len(letters) == 0 {
			continue
		}
		first := letters[0]
		if !(first >= 'A' && first <= 'Z') {
			return false
		}
	}
	return true
}

// SegmentStructuredText splits input into ordered sections keyed by
// detected headings (spec §4.3.4). The implicit root section (any content
// before the first heading) is dropped if blank.
func SegmentStructuredText(input string) []Section {
	lines := strings.Split(input, "\n")
	var sections []Section
	current := Section{Heading: "", StartLine: 0}

	flush := func() {
		if isBlank(current.Lines) && current.Heading == "" {
			return
		}
		sections = append(sections, current)
	}

	for i, line := range lines {
		if isHeading(line) {
			flush()
			current = Section{Heading: strings.TrimSuffix(strings.TrimSpace(line), ":"), StartLine: i}
			continue
		}
		current.Lines = append(current.Lines, line)
	}
	flush()

	return sections
}

func isBlank(lines []string) bool {
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			return false
		}
	}
	return true
}
