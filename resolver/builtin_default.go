package resolver

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// DefaultResolver is the last-resort, always-supported resolver: it runs a
// type-directed regex over the raw input, optionally anchored near a
// label line matching the target key. Grounded on gomind's
// orchestration/micro_resolver.go single-purpose extraction functions, one
// per validation type.
type DefaultResolver struct{}

// NewDefaultResolver constructs the built-in regex/type resolver.
func NewDefaultResolver() *DefaultResolver { return &DefaultResolver{} }

func (r *DefaultResolver) Name() string { return "default-regex" }

func (r *DefaultResolver) Supports(core.SearchStep, *Context) bool { return true }

var (
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern      = regexp.MustCompile(`\+?\d[\d\-. ()]{7,}\d`)
	urlPattern        = regexp.MustCompile(`https?://[^\s<>"']+`)
	isoDatePattern    = regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(:\d{2})?(Z|[+\-]\d{2}:?\d{2})?)?`)
	datePattern       = regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`)
	currencyPattern   = regexp.MustCompile(`[$€£¥]\s?-?\d[\d,]*(\.\d+)?`)
	percentagePattern = regexp.MustCompile(`-?\d+(\.\d+)?\s?%`)
	numberPattern     = regexp.MustCompile(`-?\d[\d,]*(\.\d+)?`)
	boolPattern       = regexp.MustCompile(`(?i)\b(true|false|yes|no)\b`)
	namePattern       = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2}\b`)
)

func (r *DefaultResolver) Resolve(rc *Context) (*Result, []core.ParseDiagnostic, error) {
	window := labelledWindow(rc.InputData, rc.Step.TargetKey)

	switch rc.Step.ValidationType {
	case core.TypeEmail:
		return matchOne(window, rc.InputData, emailPattern, identity, 0.8)
	case core.TypePhone:
		return matchOne(window, rc.InputData, phonePattern, identity, 0.65)
	case core.TypeURL:
		return matchOne(window, rc.InputData, urlPattern, identity, 0.8)
	case core.TypeISODate:
		return matchOne(window, rc.InputData, isoDatePattern, identity, 0.75)
	case core.TypeDate:
		return matchOneFallback(window, rc.InputData, []*regexp.Regexp{isoDatePattern, datePattern}, identity, 0.6)
	case core.TypeCurrency:
		return matchOne(window, rc.InputData, currencyPattern, toNumberString, 0.7)
	case core.TypePercentage:
		return matchOne(window, rc.InputData, percentagePattern, toNumberString, 0.7)
	case core.TypeNumber, core.TypeNumberArray:
		return matchOne(window, rc.InputData, numberPattern, toNumber, 0.55)
	case core.TypeBoolean:
		return matchOne(window, rc.InputData, boolPattern, toBool, 0.6)
	case core.TypeName:
		return matchOne(window, rc.InputData, namePattern, identity, 0.5)
	case core.TypeStringArray:
		return resolveStringArray(window, rc.Step.TargetKey)
	default:
		return resolveLabelledString(window, rc.Step.TargetKey)
	}
}

// labelledWindow narrows the search to the line containing a label that
// resembles targetKey, if one exists; otherwise it falls back to the whole
// input so the regex still has something to search.
func labelledWindow(input, targetKey string) string {
	want := keyTokens(targetKey)
	for _, line := range strings.Split(input, "\n") {
		label, _, ok := splitLabelLine(line)
		if ok && tokensOverlap(keyTokens(label), want) {
			return line
		}
	}
	return input
}

func identity(s string) interface{} { return s }

func toNumberString(s string) interface{} {
	return strings.TrimSpace(regexp.MustCompile(`[^\d.\-]`).ReplaceAllString(s, ""))
}

func toNumber(s string) interface{} {
	clean := strings.ReplaceAll(s, ",", "")
	if f, err := strconv.ParseFloat(clean, 64); err == nil {
		return f
	}
	return s
}

func toBool(s string) interface{} {
	switch strings.ToLower(s) {
	case "true", "yes":
		return true
	default:
		return false
	}
}

func matchOne(window, fullInput string, pattern *regexp.Regexp, convert func(string) interface{}, confidence float64) (*Result, []core.ParseDiagnostic, error) {
	if m := pattern.FindString(window); m != "" {
		return &Result{Value: convert(m), Confidence: confidence}, nil, nil
	}
	if window != fullInput {
		if m := pattern.FindString(fullInput); m != "" {
			return &Result{Value: convert(m), Confidence: confidence * 0.7}, nil, nil
		}
	}
	return nil, nil, nil
}

func matchOneFallback(window, fullInput string, patterns []*regexp.Regexp, convert func(string) interface{}, confidence float64) (*Result, []core.ParseDiagnostic, error) {
	for _, p := range patterns {
		if result, diags, err := matchOne(window, fullInput, p, convert, confidence); result != nil {
			return result, diags, err
		}
	}
	return nil, nil, nil
}

func resolveLabelledString(window, targetKey string) (*Result, []core.ParseDiagnostic, error) {
	if label, value, ok := splitLabelLine(window); ok {
		want := keyTokens(targetKey)
		if tokensOverlap(keyTokens(label), want) {
			return &Result{Value: strings.TrimSpace(value), Confidence: 0.55}, nil, nil
		}
	}
	return nil, nil, nil
}

func resolveStringArray(window, targetKey string) (*Result, []core.ParseDiagnostic, error) {
	if _, value, ok := splitLabelLine(window); ok {
		parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return &Result{Value: out, Confidence: 0.5}, nil, nil
		}
	}
	return nil, nil, nil
}
