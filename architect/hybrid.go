package architect

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/telemetry"
)

// PlanRewriteRequest is what a Hybrid asks a PlanClient to rewrite.
type PlanRewriteRequest struct {
	InputData    string
	Instructions string
	Heuristic    *core.SearchPlan
}

// PlanRewriteResponse is what a PlanClient returns.
type PlanRewriteResponse struct {
	Plan        *core.SearchPlan
	Confidence  float64
	Diagnostics []core.ParseDiagnostic
	TokensUsed  int
}

// PlanClient is the external collaborator a Hybrid escalates to when
// heuristic confidence is too low (spec §4.8 "LeanLLMPlanClient").
type PlanClient interface {
	RewritePlan(ctx context.Context, req PlanRewriteRequest) (*PlanRewriteResponse, error)
}

// RewriteState is the observable state of the hybrid escalation path
// (spec §4.8 "exposes rewrite state").
type RewriteState struct {
	Enabled         bool
	Concurrency     int
	CooldownMs      int64
	PendingCooldown bool
	LastAttemptAt   time.Time
	LastSuccessAt   time.Time
	LastFailureAt   time.Time
	LastError       string
	LastUsageTokens int
	Queue           int
}

// HybridConfig tunes the hybrid escalation path.
type HybridConfig struct {
	Client               PlanClient
	MinHeuristicConfidence float64
	CooldownMs           int64
}

// Hybrid wraps a Heuristic architect: it returns the heuristic plan
// unchanged when confidence already clears the bar, and otherwise
// escalates to an LLM plan rewrite through the shared AsyncTaskQueue
// (spec §4.8 "Hybrid Architect").
type Hybrid struct {
	heuristic *Heuristic
	config    HybridConfig
	queue     *core.AsyncTaskQueue
	hub       *telemetry.Hub

	mu            sync.Mutex
	lastAttempt   time.Time
	lastSuccess   time.Time
	lastFailure   time.Time
	lastError     string
	lastUsage     int
}

// NewHybrid constructs the hybrid Architect.
func NewHybrid(heuristic *Heuristic, config HybridConfig, queue *core.AsyncTaskQueue, hub *telemetry.Hub) *Hybrid {
	return &Hybrid{heuristic: heuristic, config: config, queue: queue, hub: hub}
}

// Build runs the heuristic architect, then escalates to the configured
// PlanClient if confidence falls short of the gate.
func (h *Hybrid) Build(ctx context.Context, req Request, confidenceThreshold float64) Result {
	heuristicResult := h.heuristic.Build(ctx, req, confidenceThreshold)

	gate := h.config.MinHeuristicConfidence
	if confidenceThreshold > gate {
		gate = confidenceThreshold
	}

	if h.config.Client == nil || heuristicResult.Plan.Metadata.PlannerConfidence >= gate {
		return heuristicResult
	}

	h.mu.Lock()
	if !h.lastAttempt.IsZero() && time.Since(h.lastAttempt) < time.Duration(h.config.CooldownMs)*time.Millisecond {
		h.mu.Unlock()
		h.emit("skipped", req)
		return heuristicResult
	}
	h.lastAttempt = time.Now()
	h.mu.Unlock()

	h.emit("queued", req)

	resultCh := h.queue.Enqueue(ctx, func(ctx context.Context) (interface{}, error) {
		h.emit("started", req)
		return h.config.Client.RewritePlan(ctx, PlanRewriteRequest{
			InputData:    req.InputData,
			Instructions: req.Instructions,
			Heuristic:    heuristicResult.Plan,
		})
	})

	taskResult := <-resultCh

	h.mu.Lock()
	if taskResult.Err != nil {
		h.lastFailure = time.Now()
		h.lastError = taskResult.Err.Error()
	}
	h.mu.Unlock()

	if taskResult.Err != nil {
		h.emit("failed", req)
		heuristicResult.Diagnostics = append(heuristicResult.Diagnostics, core.ParseDiagnostic{
			Stage: core.StageArchitect, Severity: core.SeverityWarning,
			Message: "plan rewrite failed, keeping heuristic plan: " + taskResult.Err.Error(),
		})
		return heuristicResult
	}

	rewrite, _ := taskResult.Value.(*PlanRewriteResponse)
	if rewrite == nil || rewrite.Plan == nil || len(rewrite.Plan.Steps) == 0 {
		h.emit("skipped", req)
		heuristicResult.Diagnostics = append(heuristicResult.Diagnostics, core.ParseDiagnostic{
			Stage: core.StageArchitect, Severity: core.SeverityInfo,
			Message: "plan rewrite returned no usable plan, keeping heuristic plan",
		})
		return heuristicResult
	}

	h.mu.Lock()
	h.lastSuccess = time.Now()
	h.lastUsage = rewrite.TokensUsed
	h.mu.Unlock()

	plan := rewrite.Plan
	plan.Metadata.Origin = core.OriginModel
	if plan.Metadata.DetectedFormat == "" {
		plan.Metadata.DetectedFormat = heuristicResult.Plan.Metadata.DetectedFormat
	}
	if plan.Metadata.Complexity == "" {
		plan.Metadata.Complexity = heuristicResult.Plan.Metadata.Complexity
	}
	if plan.Metadata.Context == nil {
		plan.Metadata.Context = heuristicResult.Plan.Metadata.Context
	}

	confidence := rewrite.Confidence
	if confidence <= 0 {
		confidence = confidenceThreshold
	}
	if confidence < heuristicResult.Plan.Metadata.PlannerConfidence {
		confidence = heuristicResult.Plan.Metadata.PlannerConfidence
	}
	plan.Metadata.PlannerConfidence = confidence
	plan.ConfidenceThreshold = confidence

	h.emit("applied", req)

	diags := append(heuristicResult.Diagnostics, rewrite.Diagnostics...)
	diags = append(diags,
		core.ParseDiagnostic{
			Stage: core.StageArchitect, Severity: core.SeverityInfo,
			Message: "Lean LLM rewrite applied",
		},
		core.ParseDiagnostic{
			Stage: core.StageArchitect, Severity: core.SeverityInfo,
			Message: fmt.Sprintf("Lean LLM rewrite usage: %d tokens", rewrite.TokensUsed),
		},
	)
	return Result{Plan: plan, Diagnostics: diags}
}

// State returns a snapshot of the rewrite escalation path.
func (h *Hybrid) State() RewriteState {
	h.mu.Lock()
	defer h.mu.Unlock()
	pending := !h.lastAttempt.IsZero() && time.Since(h.lastAttempt) < time.Duration(h.config.CooldownMs)*time.Millisecond
	return RewriteState{
		Enabled:         h.config.Client != nil,
		CooldownMs:      h.config.CooldownMs,
		PendingCooldown: pending,
		LastAttemptAt:   h.lastAttempt,
		LastSuccessAt:   h.lastSuccess,
		LastFailureAt:   h.lastFailure,
		LastError:       h.lastError,
		LastUsageTokens: h.lastUsage,
		Queue:           h.queue.Size(),
	}
}

func (h *Hybrid) emit(phase string, req Request) {
	if h.hub == nil {
		return
	}
	h.hub.Emit(telemetry.Event{
		Type:    telemetry.EventPlanRewrite,
		Source:  telemetry.SourceCore,
		Payload: map[string]interface{}{"phase": phase, "instructions": req.Instructions},
	})
}
