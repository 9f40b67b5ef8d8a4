// Package extractor implements the Extractor (spec §4.9): it walks a
// SearchPlan's steps through a resolver.Registry, aggregates per-step
// confidence, and reports overall success. Grounded on gomind's
// orchestration/executor.go step-iteration-plus-aggregation shape.
package extractor

import (
	"context"
	"fmt"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/resolver"
)

// Request is everything one extraction run needs.
type Request struct {
	InputData    string
	Plan         *core.SearchPlan
	Instructions string
	Schema       core.OutputSchema
	RequestID    string
	SessionID    string
	Profile      string
	Options      core.ParseOptions
}

// Result is what Execute returns.
type Result struct {
	ParsedData  map[string]interface{}
	Confidence  float64
	Success     bool
	Diagnostics []core.ParseDiagnostic
	MissingKeys []string
	Fallback    *core.LeanLLMFallbackUsageSummary
	Shared      *core.SharedState
}

// Extractor executes a plan through a resolver chain.
type Extractor struct {
	registry *resolver.Registry
}

// New constructs an Extractor bound to registry. A fresh SharedState is
// created per Execute call; the registry itself is reused across parses.
func New(registry *resolver.Registry) *Extractor {
	return &Extractor{registry: registry}
}

// Execute runs req.Plan's steps against the resolver chain in order
// (spec §4.9: strategy is metadata only here — execution is always
// sequential).
func (e *Extractor) Execute(ctx context.Context, req Request) Result {
	shared := core.NewSharedState()
	shared.Set(core.SharedKeyPlan, req.Plan)
	shared.Set(core.SharedKeyInstructions, req.Instructions)
	shared.Set(core.SharedKeySchema, req.Schema)
	shared.Set(core.SharedKeyRequestID, req.RequestID)
	shared.Set(core.SharedKeySessionID, req.SessionID)
	shared.Set(core.SharedKeyProfile, req.Profile)
	if req.Options.LeanLLM != nil {
		shared.Set(core.SharedKeyLeanLLMOptions, req.Options.LeanLLM)
	}

	parsed := make(map[string]interface{})
	var diagnostics []core.ParseDiagnostic
	var missing []string
	var stepConfidences []float64
	requiredCount := 0
	resolvedRequired := 0

	for _, step := range req.Plan.Steps {
		if step.IsRequired {
			requiredCount++
		}

		rc := &resolver.Context{
			Ctx:       ctx,
			InputData: req.InputData,
			Step:      step,
			Shared:    shared,
			Options:   req.Options,
		}

		outcome := e.registry.Resolve(rc)
		diagnostics = append(diagnostics, outcome.Diagnostics...)

		hasValue := outcome.Value != nil
		var stepConfidence float64
		if hasValue {
			parsed[step.TargetKey] = outcome.Value
			shared.MarkField(step.TargetKey)
			if step.IsRequired {
				resolvedRequired++
			}
			floor := 0.5
			if step.IsRequired {
				floor = 0.7
			}
			stepConfidence = clamp(max(outcome.Confidence, floor), 0, 1)
		} else {
			if step.IsRequired {
				stepConfidence = clamp(outcome.Confidence, 0, 1)
				missing = append(missing, step.TargetKey)
			} else {
				stepConfidence = clamp(max(outcome.Confidence, 0.2), 0, 1)
			}
			diagnostics = append(diagnostics, core.ParseDiagnostic{
				Field: step.TargetKey, Stage: core.StageExtractor, Severity: severityFor(step.IsRequired),
				Message: fmt.Sprintf("no value resolved for %q", step.TargetKey),
			})
		}
		stepConfidences = append(stepConfidences, stepConfidence)
	}

	success := requiredCount == 0 || resolvedRequired == requiredCount

	confidence := 0.0
	if len(stepConfidences) > 0 {
		sum := 0.0
		for _, c := range stepConfidences {
			sum += c
		}
		confidence = clamp(sum/float64(len(stepConfidences)), 0, 1)
	}

	var fallback *core.LeanLLMFallbackUsageSummary
	if v, ok := shared.Get(core.SharedKeyLLMUsage); ok {
		fallback, _ = v.(*core.LeanLLMFallbackUsageSummary)
	}

	return Result{
		ParsedData:  parsed,
		Confidence:  confidence,
		Success:     success,
		Diagnostics: diagnostics,
		MissingKeys: missing,
		Fallback:    fallback,
		Shared:      shared,
	}
}

func severityFor(required bool) core.Severity {
	if required {
		return core.SeverityError
	}
	return core.SeverityWarning
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
