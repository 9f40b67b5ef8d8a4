// Package processors implements the Pre/Post Processor pipeline (spec
// §4.10): pluggable request normalizers that run after validation, and
// output normalizers that run after extraction, each contributing stage
// diagnostics and a confidence floor. Grounded on gomind's
// orchestration/task_worker.go pre/post hook pattern.
package processors

import (
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// PreOutcome is what a Preprocessor returns.
type PreOutcome struct {
	Request     *core.ParseRequest
	Diagnostics []core.ParseDiagnostic
}

// Preprocessor normalizes a request. Session.Parse runs preprocessors after
// the request has passed ValidateRequest, so a request that fails
// validation never reaches them.
type Preprocessor interface {
	Name() string
	Run(req *core.ParseRequest) PreOutcome
}

// PostOutcome is what a Postprocessor returns.
type PostOutcome struct {
	ParsedData  map[string]interface{}
	Diagnostics []core.ParseDiagnostic
}

// Postprocessor normalizes parsed data after extraction.
type Postprocessor interface {
	Name() string
	Run(data map[string]interface{}) PostOutcome
}

// StageMetrics records how many processors ran. The runners in this package
// fill it; stage timing is measured by the caller (Session) around the
// whole chain invocation.
type StageMetrics struct {
	Runs int
}

// RunPreprocessors executes pre in order, threading the (possibly
// replaced) request through each stage and accumulating diagnostics.
func RunPreprocessors(pre []Preprocessor, req *core.ParseRequest) (*core.ParseRequest, []core.ParseDiagnostic, StageMetrics) {
	current := req
	var diags []core.ParseDiagnostic
	for _, p := range pre {
		outcome := p.Run(current)
		if outcome.Request != nil {
			current = outcome.Request
		}
		diags = append(diags, outcome.Diagnostics...)
	}
	return current, diags, StageMetrics{Runs: len(pre)}
}

// RunPostprocessors executes post in order and derives the confidence
// floor from the diagnostics produced: any error diagnostic forces
// confidence to 0; any warning caps it at 0.75 (spec §4.10).
func RunPostprocessors(post []Postprocessor, data map[string]interface{}) (map[string]interface{}, []core.ParseDiagnostic, float64, StageMetrics) {
	current := data
	var diags []core.ParseDiagnostic
	floor := 1.0

	for _, p := range post {
		outcome := p.Run(current)
		if outcome.ParsedData != nil {
			current = outcome.ParsedData
		}
		diags = append(diags, outcome.Diagnostics...)
	}

	for _, d := range diags {
		switch d.Severity {
		case core.SeverityError:
			floor = 0
		case core.SeverityWarning:
			if floor > 0.75 {
				floor = 0.75
			}
		}
	}

	return current, diags, floor, StageMetrics{Runs: len(post)}
}

// WhitespaceNormalizer trims leading/trailing whitespace and collapses
// internal runs of whitespace in every string value.
type WhitespaceNormalizer struct{}

func NewWhitespaceNormalizer() *WhitespaceNormalizer { return &WhitespaceNormalizer{} }

func (p *WhitespaceNormalizer) Name() string { return "whitespace-normalizer" }

func (p *WhitespaceNormalizer) Run(data map[string]interface{}) PostOutcome {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok {
			out[k] = strings.Join(strings.Fields(s), " ")
			continue
		}
		out[k] = v
	}
	return PostOutcome{ParsedData: out}
}

// EmptyValuePruner removes fields whose value is an empty string, empty
// slice, or nil.
type EmptyValuePruner struct{}

func NewEmptyValuePruner() *EmptyValuePruner { return &EmptyValuePruner{} }

func (p *EmptyValuePruner) Name() string { return "empty-value-pruner" }

func (p *EmptyValuePruner) Run(data map[string]interface{}) PostOutcome {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if isEmpty(v) {
			continue
		}
		out[k] = v
	}
	return PostOutcome{ParsedData: out}
}

func isEmpty(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []interface{}:
		return len(val) == 0
	default:
		return false
	}
}

// nullTokens are case-insensitive string values treated as "no value" and
// rewritten to nil so downstream consumers see a consistent absence marker.
var nullTokens = map[string]bool{
	"null": true, "none": true, "n/a": true, "na": true, "nil": true, "undefined": true, "-": true,
}

// NullTokenNormalizer rewrites common null-ish string tokens to nil.
type NullTokenNormalizer struct{}

func NewNullTokenNormalizer() *NullTokenNormalizer { return &NullTokenNormalizer{} }

func (p *NullTokenNormalizer) Name() string { return "null-token-normalizer" }

func (p *NullTokenNormalizer) Run(data map[string]interface{}) PostOutcome {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if s, ok := v.(string); ok && nullTokens[strings.ToLower(strings.TrimSpace(s))] {
			out[k] = nil
			continue
		}
		out[k] = v
	}
	return PostOutcome{ParsedData: out}
}
