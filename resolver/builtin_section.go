package resolver

import (
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/heuristics"
)

const sectionResolverStateKey = "resolver.section.segments"

// SectionResolver scores heading-delimited blocks of semi-structured text
// against a step's target key/description and extracts a label-colon-value
// line from the best-scoring section. Grounded on gomind's
// orchestration/contextual_re_resolver.go re-scoring-by-context idiom.
type SectionResolver struct{}

// NewSectionResolver constructs the built-in section resolver.
func NewSectionResolver() *SectionResolver { return &SectionResolver{} }

func (r *SectionResolver) Name() string { return "section-scan" }

func (r *SectionResolver) Supports(_ core.SearchStep, rc *Context) bool {
	return len(segments(rc)) > 0
}

func (r *SectionResolver) Resolve(rc *Context) (*Result, []core.ParseDiagnostic, error) {
	secs := segments(rc)
	if len(secs) == 0 {
		return nil, nil, nil
	}

	needle := strings.ToLower(rc.Step.TargetKey + " " + rc.Step.Description)
	needleTokens := strings.Fields(needle)

	best := -1
	bestScore := 0
	for i, sec := range secs {
		score := scoreSection(sec.Heading, needleTokens)
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	candidates := secs
	if best >= 0 {
		candidates = []heuristics.Section{secs[best]}
	}

	for _, sec := range candidates {
		if value, ok := extractLabelled(sec.Lines, rc.Step.TargetKey); ok {
			confidence := 0.55
			if best >= 0 {
				confidence = 0.7
			}
			return &Result{Value: value, Confidence: confidence}, nil, nil
		}
	}

	return nil, nil, nil
}

func segments(rc *Context) []heuristics.Section {
	if cached, ok := rc.Shared.Get(sectionResolverStateKey); ok {
		return cached.([]heuristics.Section)
	}
	secs := heuristics.SegmentStructuredText(rc.InputData)
	rc.Shared.Set(sectionResolverStateKey, secs)
	return secs
}

func scoreSection(heading string, needleTokens []string) int {
	lower := strings.ToLower(heading)
	score := 0
	for _, tok := range needleTokens {
		if tok != "" && strings.Contains(lower, tok) {
			score++
		}
	}
	return score
}

// extractLabelled finds a "Label: value" or "Label - value" line whose
// label resembles targetKey (token overlap, case/underscore-insensitive).
func extractLabelled(lines []string, targetKey string) (string, bool) {
	wantTokens := keyTokens(targetKey)

	for _, line := range lines {
		label, value, ok := splitLabelLine(line)
		if !ok {
			continue
		}
		if tokensOverlap(keyTokens(label), wantTokens) {
			return strings.TrimSpace(value), true
		}
	}
	return "", false
}

func splitLabelLine(line string) (label, value string, ok bool) {
	for _, sep := range []string{":", " - ", "="} {
		if idx := strings.Index(line, sep); idx > 0 && idx < len(line)-len(sep) {
			return line[:idx], line[idx+len(sep):], true
		}
	}
	return "", "", false
}

func keyTokens(s string) map[string]struct{} {
	out := make(map[string]struct{})
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out[strings.ToLower(b.String())] = struct{}{}
			b.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			flush()
			b.WriteRune(r)
		case r == '_' || r == ' ' || r == '-':
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

func tokensOverlap(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
