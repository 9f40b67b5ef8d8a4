// Package architect implements the Architect (spec §4.8): the heuristic
// plan builder, and an optional hybrid wrapper that escalates to an LLM
// plan rewrite when heuristic confidence is low. Grounded on gomind's
// pkg/routing (intent/domain inference feeding a routing decision) and
// orchestration/hybrid_resolver.go's confidence-gated escalation shape.
package architect

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/heuristics"
)

// Request is the input to Build: everything the Architect needs to turn a
// schema into a SearchPlan.
type Request struct {
	InputData    string
	Schema       core.OutputSchema
	SchemaOrder  []string
	Instructions string
}

// Result is what Build returns: the plan plus diagnostics collected while
// building it.
type Result struct {
	Plan        *core.SearchPlan
	Diagnostics []core.ParseDiagnostic
}

// Heuristic is the always-available, deterministic Architect
// implementation (spec §4.8 "Heuristic Architect").
type Heuristic struct{}

// NewHeuristic constructs the heuristic Architect.
func NewHeuristic() *Heuristic { return &Heuristic{} }

// Build produces a SearchPlan from req with no external calls. ctx and
// confidenceThreshold are accepted (and ignored) so Heuristic satisfies the
// same Build signature as Hybrid, letting session treat either
// interchangeably as a PlanBuilder.
func (h *Heuristic) Build(_ context.Context, req Request, _ float64) Result {
	order := req.SchemaOrder
	if len(order) == 0 {
		for k := range req.Schema {
			order = append(order, k)
		}
	}

	context := heuristics.DetectSystemContext(req.Schema, req.Instructions)

	steps := make([]core.SearchStep, 0, len(order))
	var diags []core.ParseDiagnostic
	for _, key := range order {
		descriptor := req.Schema[key]
		validationType := heuristics.DetectValidationType(key, descriptor)
		isOptional := heuristics.IsOptional(descriptor)

		steps = append(steps, core.SearchStep{
			TargetKey:         key,
			Description:       humanize(key),
			SearchInstruction: buildInstruction(key, validationType, context, req.Instructions),
			ValidationType:    validationType,
			IsRequired:        !isOptional,
		})
	}

	if len(steps) == 0 {
		diags = append(diags, core.ParseDiagnostic{
			Stage: core.StageArchitect, Severity: core.SeverityWarning,
			Message: "schema produced no steps",
		})
	}

	fieldCount := len(steps)
	confidence := clamp(0.68+0.01*float64(fieldCount), 0, 0.92)
	if fieldCount == 0 {
		confidence = 0.65
	}

	plan := &core.SearchPlan{
		Steps:               steps,
		Strategy:            core.StrategySequential,
		ConfidenceThreshold: confidence,
		Metadata: core.PlanMetadata{
			DetectedFormat:    heuristics.DetectFormat(req.InputData),
			Complexity:        heuristics.EstimateComplexity(fieldCount, len(req.InputData)),
			EstimatedTokens:   heuristics.EstimateTokenCost(len(req.InputData), fieldCount),
			Origin:            core.OriginHeuristic,
			PlannerConfidence: confidence,
			Context:           context,
		},
	}

	return Result{Plan: plan, Diagnostics: diags}
}

// humanize turns a camelCase/snake_case key into a human-readable label,
// e.g. "firstName" -> "first name".
func humanize(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case r == '_' || r == '-':
			b.WriteByte(' ')
		case r >= 'A' && r <= 'Z' && i > 0:
			b.WriteByte(' ')
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func buildInstruction(key string, typ core.ValidationType, ctx *core.DetectedSystemContext, instructions string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find the value for %q.", key)
	fmt.Fprintf(&b, " Expect a %s.", typeGuidance(typ))
	if ctx != nil {
		fmt.Fprintf(&b, " This document looks like a %s record.", ctx.Label)
	}
	if instructions != "" {
		b.WriteString(" ")
		b.WriteString(instructions)
	}
	return b.String()
}

func typeGuidance(typ core.ValidationType) string {
	switch typ {
	case core.TypeEmail:
		return "well-formed email address"
	case core.TypePhone:
		return "phone number, digits with optional separators"
	case core.TypeDate, core.TypeISODate:
		return "date, preferring ISO 8601 if present"
	case core.TypeURL:
		return "URL"
	case core.TypeNumber:
		return "numeric value"
	case core.TypeBoolean:
		return "boolean value (true/false/yes/no)"
	case core.TypeNumberArray:
		return "list of numbers"
	case core.TypeStringArray:
		return "list of strings"
	case core.TypeCurrency:
		return "monetary amount, with currency symbol if present"
	case core.TypePercentage:
		return "percentage value"
	case core.TypeAddress:
		return "postal address"
	case core.TypeName:
		return "person or entity name"
	default:
		return "string value"
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
