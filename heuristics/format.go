package heuristics

import (
	"regexp"
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

var htmlTagPattern = regexp.MustCompile(`(?s)<[a-zA-Z][\s\S]*>`)

// DetectFormat classifies raw input as unknown/json/html/csv-like/text
// (spec §4.3.2). Order matters: json and html are structural signals
// checked before the looser csv-like comma check.
func DetectFormat(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "unknown"
	}
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "json"
	}
	if htmlTagPattern.MatchString(trimmed) {
		return "html"
	}
	if strings.Contains(trimmed, ",") {
		return "csv-like"
	}
	return "text"
}

// EstimateComplexity classifies a schema/input pair into a coarse cost
// tier (spec §4.3.3).
func EstimateComplexity(fieldCount, inputLen int) core.PlanComplexity {
	switch {
	case fieldCount <= 3 && inputLen <= 2000:
		return core.ComplexityLow
	case fieldCount <= 10 && inputLen <= 20000:
		return core.ComplexityMedium
	default:
		return core.ComplexityHigh
	}
}

// EstimateTokenCost gives a coarse token estimate for planning purposes,
// mirroring the Architect's own formula: min(2000, ceil(inputLen/4) +
// 32*fieldCount).
func EstimateTokenCost(inputLen, fieldCount int) int {
	estimate := ceilDiv(inputLen, 4) + 32*fieldCount
	if estimate > 2000 {
		return 2000
	}
	return estimate
}

func ceilDiv(a, b int) int {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}
