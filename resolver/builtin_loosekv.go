package resolver

import (
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// LooseKVResolver is the extra first-position resolver registered by the
// "vibe-coder" profile (spec §4.6): it tolerates casual separators
// ("->" , "is", "="), fuzzy singular/plural and punctuation-insensitive key
// matching, and returns a deliberately low confidence since it trades
// precision for recall.
type LooseKVResolver struct{}

// NewLooseKVResolver constructs the loose key/value resolver.
func NewLooseKVResolver() *LooseKVResolver { return &LooseKVResolver{} }

func (r *LooseKVResolver) Name() string { return "loose-kv" }

func (r *LooseKVResolver) Supports(core.SearchStep, *Context) bool { return true }

var looseSeparators = []string{"->", ":=", "=>", " is ", "=", ":", " - "}

func (r *LooseKVResolver) Resolve(rc *Context) (*Result, []core.ParseDiagnostic, error) {
	want := looseTokens(rc.Step.TargetKey)

	for _, line := range strings.Split(rc.InputData, "\n") {
		label, value, ok := splitLoose(line)
		if !ok {
			continue
		}
		if looseOverlap(looseTokens(label), want) {
			trimmed := strings.TrimSpace(value)
			if trimmed != "" {
				return &Result{Value: trimmed, Confidence: 0.35}, nil, nil
			}
		}
	}
	return nil, nil, nil
}

func splitLoose(line string) (label, value string, ok bool) {
	lower := strings.ToLower(line)
	for _, sep := range looseSeparators {
		if idx := strings.Index(lower, sep); idx > 0 {
			return line[:idx], line[idx+len(sep):], true
		}
	}
	return "", "", false
}

// looseTokens is keyTokens plus a trailing-"s" plural fold, since casual
// input frequently pluralizes a label the schema key does not ("emails:"
// vs. "email").
func looseTokens(s string) map[string]struct{} {
	raw := keyTokens(s)
	out := make(map[string]struct{}, len(raw))
	for tok := range raw {
		out[strings.TrimSuffix(tok, "s")] = struct{}{}
	}
	return out
}

func looseOverlap(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}
