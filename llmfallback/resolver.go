package llmfallback

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/resolver"
)

// truncationMarker is appended to input trimmed to MaxInputCharacters
// before it is sent to the client (spec §4.7 step 7).
const truncationMarker = "\n... [truncated]"

// budget is the per-parse invocation/token counter. It is stored in shared
// state under sharedKeyBudget so every step of one parse shares the same
// counters (spec §4.7 step 6).
type budget struct {
	mu           sync.Mutex
	invocations  int
	tokens       int
	lastAttempt  time.Time
	hasAttempted bool
}

const sharedKeyBudget = "llmFallbackBudget"

// Resolver is the LLM Fallback Resolver (C7). It is registered last in a
// resolver.Registry chain so the cheap built-ins always get first crack.
type Resolver struct {
	config Config
	queue  *core.AsyncTaskQueue
}

// New constructs the fallback resolver. queue is the AsyncTaskQueue every
// escalation call is routed through (spec §4.7 step 7, "through C1").
func New(config Config, queue *core.AsyncTaskQueue) *Resolver {
	return &Resolver{config: config.WithDefaults(), queue: queue}
}

func (r *Resolver) Name() string { return "llm-fallback" }

func (r *Resolver) Supports(step core.SearchStep, rc *resolver.Context) bool {
	if r.config.Client == nil {
		return false
	}
	if !step.IsRequired && !r.config.AllowOptionalFields {
		return false
	}
	return true
}

func (r *Resolver) Resolve(rc *resolver.Context) (*resolver.Result, []core.ParseDiagnostic, error) {
	step := rc.Step
	field := step.TargetKey

	plan, _ := rc.Shared.Get(core.SharedKeyPlan)
	searchPlan, _ := plan.(*core.SearchPlan)

	if gate := r.config.PlanConfidenceGate; gate != nil && searchPlan != nil && searchPlan.Metadata.PlannerConfidence >= *gate {
		return nil, r.skip(rc, field, "plan-confidence-gate", map[string]interface{}{
			"plannerConfidence": searchPlan.Metadata.PlannerConfidence,
			"gate":              *gate,
		}), nil
	}

	if resolved, ok := r.resolvedMap(rc)[field]; ok {
		r.recordUsage(rc, core.LeanLLMFallbackFieldStatus{
			Field: field, Action: "reused", Resolved: true,
			Confidence: resolved.Confidence,
		}, 0, false)
		return &resolver.Result{Value: resolved.Value, Confidence: resolved.Confidence}, nil, nil
	}

	if inFlight, ok := rc.Shared.Get(core.SharedKeyLLMInFlight); ok {
		ch := inFlight.(<-chan struct{})
		<-ch
		if resolved, ok := r.resolvedMap(rc)[field]; ok {
			r.recordUsage(rc, core.LeanLLMFallbackFieldStatus{
				Field: field, Action: "reused", Resolved: true, Confidence: resolved.Confidence,
			}, 0, false)
			return &resolver.Result{Value: resolved.Value, Confidence: resolved.Confidence}, nil, nil
		}
		return nil, r.skip(rc, field, "no-pending-fields", nil), nil
	}

	b := r.budgetFor(rc)

	b.mu.Lock()
	if b.hasAttempted && time.Since(b.lastAttempt) < time.Duration(r.config.CooldownMs)*time.Millisecond {
		b.mu.Unlock()
		return nil, r.skip(rc, field, "cooldown", nil), nil
	}
	if r.config.MaxInvocationsPerParse > 0 && b.invocations >= r.config.MaxInvocationsPerParse {
		b.mu.Unlock()
		return nil, r.skip(rc, field, "invocation-limit", map[string]interface{}{
			"limitType": "invocations", "limit": r.config.MaxInvocationsPerParse, "current": b.invocations,
		}), nil
	}
	if r.config.MaxTokensPerParse > 0 && b.tokens >= r.config.MaxTokensPerParse {
		b.mu.Unlock()
		return nil, r.skip(rc, field, "token-budget", map[string]interface{}{
			"limitType": "tokens", "limit": r.config.MaxTokensPerParse, "current": b.tokens,
		}), nil
	}
	b.hasAttempted = true
	b.lastAttempt = time.Now()
	b.invocations++
	b.mu.Unlock()

	targets := r.targetFields(step, searchPlan, rc)

	done := make(chan struct{})
	rc.Shared.Set(core.SharedKeyLLMInFlight, (<-chan struct{})(done))

	input := rc.InputData
	if r.config.MaxInputCharacters > 0 && len(input) > r.config.MaxInputCharacters {
		input = input[:r.config.MaxInputCharacters] + truncationMarker
	}

	result := r.queue.Enqueue(rc.Ctx, func(ctx context.Context) (interface{}, error) {
		return r.config.Client.ResolveFields(ctx, ClientRequest{
			InputData:    input,
			Instructions: instructionsOf(rc),
			Primary:      toFieldRequest(step),
			Fields:       targets,
		})
	})

	taskResult := <-result
	close(done)
	rc.Shared.Delete(core.SharedKeyLLMInFlight)

	if taskResult.Err != nil {
		r.recordUsage(rc, core.LeanLLMFallbackFieldStatus{
			Field: field, Action: "invoked", Resolved: false, Error: taskResult.Err.Error(),
		}, 0, false)
		return nil, []core.ParseDiagnostic{{
			Field: field, Stage: core.StageFallback, Severity: core.SeverityWarning,
			Message: fmt.Sprintf("llm fallback failed: %v", taskResult.Err),
		}}, nil
	}

	resp, _ := taskResult.Value.(*ClientResponse)
	if resp == nil {
		return nil, r.skip(rc, field, "no-pending-fields", nil), nil
	}

	resolvedMap := r.resolvedMap(rc)
	for k, v := range resp.Values {
		resolvedMap[k] = v
	}
	for k, v := range resp.SharedExtractions {
		if _, exists := resolvedMap[k]; !exists {
			resolvedMap[k] = v
		}
	}
	rc.Shared.Set(core.SharedKeyLLMResolved, resolvedMap)

	b.mu.Lock()
	b.tokens += resp.TokensUsed
	b.mu.Unlock()

	primary, ok := resolvedMap[field]
	if !ok {
		r.recordUsage(rc, core.LeanLLMFallbackFieldStatus{
			Field: field, Action: "invoked", Resolved: false, TokensUsed: resp.TokensUsed,
			Reason: "not returned by client",
		}, resp.TokensUsed, true)
		return nil, nil, nil
	}

	confidence := primary.Confidence
	if confidence <= 0 {
		confidence = r.config.ConfidenceFloor
	}
	if confidence > 1 {
		confidence = 1
	}

	r.recordUsage(rc, core.LeanLLMFallbackFieldStatus{
		Field: field, Action: "invoked", Resolved: true, Confidence: confidence,
		TokensUsed: resp.TokensUsed, Reason: primary.Rationale,
	}, resp.TokensUsed, true)

	for k := range resp.SharedExtractions {
		if k == field {
			continue
		}
		r.recordUsage(rc, core.LeanLLMFallbackFieldStatus{
			Field: k, Action: "reused", Resolved: true, SourceField: field,
		}, 0, false)
	}

	return &resolver.Result{Value: primary.Value, Confidence: confidence}, nil, nil
}

func (r *Resolver) resolvedMap(rc *resolver.Context) map[string]FieldValue {
	v, _ := rc.Shared.GetOrSet(core.SharedKeyLLMResolved, map[string]FieldValue{})
	return v.(map[string]FieldValue)
}

func (r *Resolver) budgetFor(rc *resolver.Context) *budget {
	v, _ := rc.Shared.GetOrSet(sharedKeyBudget, &budget{})
	return v.(*budget)
}

func instructionsOf(rc *resolver.Context) string {
	v, _ := rc.Shared.Get(core.SharedKeyInstructions)
	s, _ := v.(string)
	return s
}

func toFieldRequest(step core.SearchStep) FieldRequest {
	return FieldRequest{
		TargetKey:         step.TargetKey,
		Description:       step.Description,
		SearchInstruction: step.SearchInstruction,
		ValidationType:    string(step.ValidationType),
		IsRequired:        step.IsRequired,
	}
}

// targetFields computes the escalation call's field list per
// config.RequestStrategy (spec §4.7 step 5).
func (r *Resolver) targetFields(step core.SearchStep, plan *core.SearchPlan, rc *resolver.Context) []FieldRequest {
	if r.config.RequestStrategy == StrategySingleField || plan == nil {
		return []FieldRequest{toFieldRequest(step)}
	}

	seen := map[string]bool{step.TargetKey: true}
	out := []FieldRequest{toFieldRequest(step)}
	for _, s := range plan.Steps {
		if !s.IsRequired || seen[s.TargetKey] || rc.Shared.FieldMarked(s.TargetKey) {
			continue
		}
		seen[s.TargetKey] = true
		out = append(out, toFieldRequest(s))
	}
	return out
}

// skip records a skipped usage entry and returns the corresponding
// diagnostic (spec §4.7 "state machine ... pending -> skipped").
func (r *Resolver) skip(rc *resolver.Context, field, reason string, detail map[string]interface{}) []core.ParseDiagnostic {
	status := core.LeanLLMFallbackFieldStatus{Field: field, Action: "skipped", Reason: reason}
	if detail != nil {
		if v, ok := detail["plannerConfidence"].(float64); ok {
			status.PlannerConfidence = v
		}
		if v, ok := detail["gate"].(float64); ok {
			status.Gate = v
		}
		if v, ok := detail["limitType"].(string); ok {
			status.LimitType = v
		}
		if v, ok := detail["limit"].(int); ok {
			status.Limit = v
		}
		if v, ok := detail["current"].(int); ok {
			if status.LimitType == "invocations" {
				status.CurrentInvocations = v
			} else {
				status.CurrentTokens = v
			}
		}
	}
	r.recordUsage(rc, status, 0, false)
	return []core.ParseDiagnostic{{
		Field: field, Stage: core.StageFallback, Severity: core.SeverityInfo,
		Message: fmt.Sprintf("llm fallback skipped for %q: %s", field, reason),
	}}
}

func (r *Resolver) recordUsage(rc *resolver.Context, status core.LeanLLMFallbackFieldStatus, tokens int, invoked bool) {
	v, _ := rc.Shared.GetOrSet(core.SharedKeyLLMUsage, &core.LeanLLMFallbackUsageSummary{})
	summary := v.(*core.LeanLLMFallbackUsageSummary)

	switch status.Action {
	case "invoked":
		if invoked {
			summary.TotalInvocations++
		}
		if status.Resolved {
			summary.ResolvedFields++
		}
	case "reused":
		summary.ReusedResolutions++
		if status.SourceField != "" {
			summary.SharedExtractions++
		}
	case "skipped":
		switch status.Reason {
		case "plan-confidence-gate":
			summary.SkippedByPlanConfidence++
		case "invocation-limit", "token-budget":
			summary.SkippedByLimits++
		}
	}
	summary.TotalTokens += tokens
	if r.config.PlanConfidenceGate != nil {
		summary.PlanConfidenceGate = *r.config.PlanConfidenceGate
	}
	summary.MaxInvocationsPerParse = r.config.MaxInvocationsPerParse
	summary.MaxTokensPerParse = r.config.MaxTokensPerParse
	summary.Fields = append(summary.Fields, status)

	rc.Shared.Set(core.SharedKeyLLMUsage, summary)
}
