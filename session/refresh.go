package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/architect"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// RefreshRequest parameterizes RefreshPlan (spec §4.11 "refreshPlan").
type RefreshRequest struct {
	Force        bool
	SeedInput    *string
	Instructions *string
	Options      *core.ParseOptions
	IncludePlan  bool
}

// RefreshOutcome is what RefreshPlan returns.
type RefreshOutcome struct {
	Success bool
	Skipped bool
	State   PlanState
	Failure string
}

// RefreshPlan re-runs the Architect against (possibly overridden) seed
// input/instructions/options. On failure it atomically restores the
// previous plan/options/instructions/seed (spec §4.11).
func (s *Session) RefreshPlan(ctx context.Context, req RefreshRequest) RefreshOutcome {
	if !req.Force && req.SeedInput == nil && req.Instructions == nil && req.Options == nil {
		s.mu.Lock()
		hasPlan := s.plan != nil
		s.mu.Unlock()
		if hasPlan {
			return RefreshOutcome{Success: true, Skipped: true, State: s.GetPlanState(false)}
		}
	}

	seedInput := s.init.SeedInput
	if req.SeedInput != nil {
		seedInput = *req.SeedInput
	}
	instructions := s.init.Instructions
	if req.Instructions != nil {
		instructions = *req.Instructions
	}
	options := s.init.Options
	if req.Options != nil {
		options = *req.Options
	}

	s.mu.Lock()
	prevPlan := s.plan
	prevConfidence := s.planConfidence
	prevDiagnostics := s.planDiagnostics
	prevInstructions := s.init.Instructions
	prevOptions := s.init.Options
	prevSeedInput := s.init.SeedInput
	s.mu.Unlock()

	start := time.Now()
	result := s.deps.Architect.Build(ctx, architect.Request{
		InputData:    seedInput,
		Schema:       s.init.Schema,
		SchemaOrder:  s.init.SchemaOrder,
		Instructions: instructions,
	}, s.confidenceThreshold())
	elapsed := time.Since(start).Milliseconds()

	if result.Plan == nil || len(result.Plan.Steps) == 0 {
		s.mu.Lock()
		s.plan = prevPlan
		s.planConfidence = prevConfidence
		s.planDiagnostics = prevDiagnostics
		s.init.Instructions = prevInstructions
		s.init.Options = prevOptions
		s.init.SeedInput = prevSeedInput
		s.mu.Unlock()
		return RefreshOutcome{Success: false, Failure: "architect failed to produce a usable plan", State: s.GetPlanState(false)}
	}

	if result.Plan.ID == "" {
		result.Plan.ID = uuid.NewString()
	}
	result.Plan.Version = prevVersion(prevPlan) + 1

	s.mu.Lock()
	s.init.SeedInput = seedInput
	s.init.Instructions = instructions
	s.init.Options = options
	s.mu.Unlock()

	s.storePlan(result.Plan, result.Plan.Metadata.PlannerConfidence, result.Diagnostics, result.Plan.Metadata.EstimatedTokens, elapsed)
	s.persistPlan("refresh")
	s.emitPlanReady(result.Plan)

	return RefreshOutcome{Success: true, State: s.GetPlanState(req.IncludePlan)}
}

func prevVersion(plan *core.SearchPlan) int {
	if plan == nil {
		return 0
	}
	return plan.Version
}

// PlanState is the read-only view returned by GetPlanState (spec §4.11).
type PlanState struct {
	Ready            bool
	Plan             *core.SearchPlan
	Version          int
	Strategy         core.PlanStrategy
	Confidence       float64
	Diagnostics      []core.ParseDiagnostic
	TokensUsed       int
	ProcessingTimeMs int64
	Origin           core.PlanOrigin
	UpdatedAt        time.Time
	SeedInput        string
}

// GetPlanState reports the session's current plan lifecycle state.
func (s *Session) GetPlanState(includePlan bool) PlanState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := PlanState{
		Ready:            s.plan != nil,
		Confidence:       s.planConfidence,
		Diagnostics:      s.planDiagnostics,
		TokensUsed:       s.planTokens,
		ProcessingTimeMs: s.planProcessingTimeMs,
		UpdatedAt:        s.planUpdatedAt,
		SeedInput:        s.init.SeedInput,
	}
	if s.plan != nil {
		state.Version = s.plan.Version
		state.Strategy = s.plan.Strategy
		state.Origin = s.plan.Metadata.Origin
	}
	if includePlan && s.plan != nil {
		state.Plan = s.plan.Clone()
	}
	return state
}
