// Package session implements the Session (spec §4.11): a stateful binding
// of schema+options that amortizes Architect cost across many parses,
// tracks auto-refresh, and serializes plan-cache persistence through the
// shared AsyncTaskQueue. Grounded on gomind's orchestration/orchestrator.go
// StandardOrchestrator (the stateful wrapper around a stateless plan+
// execute pipeline) and orchestration/cache.go's single-writer persistence
// idiom.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/architect"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/extractor"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/plancache"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/processors"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/telemetry"
)

// PlanBuilder is satisfied by both architect.Heuristic and architect.Hybrid.
type PlanBuilder interface {
	Build(ctx context.Context, req architect.Request, confidenceThreshold float64) architect.Result
}

// AutoRefreshConfig enables and tunes the post-parse auto-refresh policy
// (spec §4.11 "Auto-refresh state machine").
type AutoRefreshConfig struct {
	Enabled           bool
	MaxParses         int
	MinConfidence     float64
	LowConfidenceGrace int
	MinIntervalMs     int64
}

// Init is everything a Session is constructed from (spec §4.11 "binds").
type Init struct {
	Schema       core.OutputSchema
	SchemaOrder  []string
	Instructions string
	Options      core.ParseOptions
	SeedInput    string
	AutoRefresh  *AutoRefreshConfig
	Profile      string

	// Plan, if set, rehydrates the session with a pre-existing plan
	// (spec §6 "exportInit ... origin is coerced to cached on rehydration").
	Plan             *core.SearchPlan
	PlanConfidence   float64
	PlanDiagnostics  []core.ParseDiagnostic
}

// Deps are the collaborators a Session needs; all are shared with sibling
// sessions and the facade, never owned exclusively by one Session.
type Deps struct {
	Architect  PlanBuilder
	Extractor  *extractor.Extractor
	Cache      plancache.Cache
	CacheQueue *core.AsyncTaskQueue
	Hub        *telemetry.Hub
	Logger     core.Logger
	Config     *core.Config
	Pre        []processors.Preprocessor
	Post       []processors.Postprocessor
}

type autoRefreshState struct {
	parsesSinceRefresh int
	lowConfidenceRuns  int
	pending            bool
	lastAttemptAt      time.Time
	lastTrigger        string
	inFlight           int
}

type backgroundCacheState struct {
	pendingWrites     int
	lastAttemptAt     time.Time
	lastPersistAt     time.Time
	lastPersistReason string
	lastPersistError  string
}

// Session binds a schema/options pair and amortizes Architect cost across
// repeated parses of inputs sharing that shape.
type Session struct {
	id          string
	createdAt   time.Time
	init        Init
	deps        Deps

	mu                   sync.Mutex
	plan                 *core.SearchPlan
	planDiagnostics      []core.ParseDiagnostic
	planConfidence       float64
	planTokens           int
	planProcessingTimeMs int64
	planUpdatedAt        time.Time

	totalArchitectTokens int64
	totalExtractorTokens int64
	parseCount           int64
	lastSeedInput        string
	lastRequestID        string
	lastConfidence       float64
	lastDiagnostics      []core.ParseDiagnostic

	autoRefresh autoRefreshState
	cacheState  backgroundCacheState
}

// New constructs a Session. If init.Plan is set, the session starts
// pre-seeded (rehydration); otherwise the first Parse call materializes a
// plan.
func New(init Init, deps Deps) *Session {
	s := &Session{
		id:        uuid.NewString(),
		createdAt: time.Now().UTC(),
		init:      init,
		deps:      deps,
	}
	if init.Plan != nil {
		plan := init.Plan.Clone()
		plan.Metadata.Origin = core.OriginCached
		s.plan = plan
		s.planConfidence = init.PlanConfidence
		s.planDiagnostics = append([]core.ParseDiagnostic(nil), init.PlanDiagnostics...)
		s.planUpdatedAt = time.Now().UTC()
	}
	return s
}

// ID returns the session's stable identifier.
func (s *Session) ID() string { return s.id }

func (s *Session) confidenceThreshold() float64 {
	if s.init.Options.ConfidenceThreshold != nil {
		return *s.init.Options.ConfidenceThreshold
	}
	return s.deps.Config.MinConfidence
}

// ensurePlan returns the session's current plan, building one via the
// Architect on first use or on a cache miss (spec §4.11 "ensures a plan").
func (s *Session) ensurePlan(ctx context.Context, input string) (plan *core.SearchPlan, architectTokens int, architectMs int64, fromCache bool) {
	s.mu.Lock()
	if s.plan != nil {
		p := s.plan.Clone()
		p.Metadata.Origin = core.OriginCached
		s.mu.Unlock()
		return p, 0, 0, true
	}
	s.mu.Unlock()

	key := ""
	if s.deps.Cache != nil {
		key = plancache.DeriveKey(plancache.KeyInput{
			Profile:      s.init.Profile,
			Schema:       s.init.Schema,
			Instructions: s.init.Instructions,
			Options:      s.init.Options,
		})
		if entry, err := s.deps.Cache.Get(ctx, key); err == nil && entry != nil {
			s.emitPlanCache("hit", key, "")
			s.storePlan(entry.Plan, entry.Confidence, entry.Diagnostics, 0, entry.ProcessingTimeMs)
			s.persistPlan("reuse")
			p := entry.Plan.Clone()
			p.Metadata.Origin = core.OriginCached
			return p, 0, 0, true
		} else if err != nil {
			s.emitPlanCache("miss", key, err.Error())
		} else {
			s.emitPlanCache("miss", key, "")
		}
	}

	start := time.Now()
	result := s.deps.Architect.Build(ctx, architect.Request{
		InputData:    input,
		Schema:       s.init.Schema,
		SchemaOrder:  s.init.SchemaOrder,
		Instructions: s.init.Instructions,
	}, s.confidenceThreshold())
	elapsed := time.Since(start).Milliseconds()

	if result.Plan != nil && result.Plan.ID == "" {
		result.Plan.ID = uuid.NewString()
		result.Plan.Version = 1
	}

	tokens := 0
	if result.Plan != nil {
		tokens = result.Plan.Metadata.EstimatedTokens
	}

	s.storePlan(result.Plan, result.Plan.Metadata.PlannerConfidence, result.Diagnostics, tokens, elapsed)

	if s.deps.Cache != nil && key != "" {
		s.persistPlan("create")
	}

	s.emitPlanReady(result.Plan)

	return result.Plan, tokens, elapsed, false
}

func (s *Session) storePlan(plan *core.SearchPlan, confidence float64, diagnostics []core.ParseDiagnostic, tokens int, processingMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plan = plan
	s.planConfidence = confidence
	s.planDiagnostics = diagnostics
	s.planTokens = tokens
	s.planProcessingTimeMs = processingMs
	s.planUpdatedAt = time.Now().UTC()
}

// persistPlan enqueues a single-writer cache persist through the shared
// AsyncTaskQueue (spec §4.11 "Plan-cache persistence").
func (s *Session) persistPlan(reason string) {
	if s.deps.Cache == nil || s.deps.CacheQueue == nil {
		return
	}

	s.mu.Lock()
	plan := s.plan.Clone()
	confidence := s.planConfidence
	diagnostics := append([]core.ParseDiagnostic(nil), s.planDiagnostics...)
	tokens := s.planTokens
	processingMs := s.planProcessingTimeMs
	s.cacheState.pendingWrites++
	s.cacheState.lastAttemptAt = time.Now().UTC()
	s.mu.Unlock()

	key := plancache.DeriveKey(plancache.KeyInput{
		Profile:      s.init.Profile,
		Schema:       s.init.Schema,
		Instructions: s.init.Instructions,
		Options:      s.init.Options,
	})

	entry := &core.ParseratorPlanCacheEntry{
		Plan:             plan,
		Confidence:       confidence,
		Diagnostics:      diagnostics,
		TokensUsed:       tokens,
		ProcessingTimeMs: processingMs,
		UpdatedAt:        time.Now().UTC(),
		Profile:          s.init.Profile,
	}

	s.deps.CacheQueue.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		err := s.deps.Cache.Set(ctx, key, entry)

		s.mu.Lock()
		s.cacheState.pendingWrites--
		if err != nil {
			s.cacheState.lastPersistError = err.Error()
		} else {
			s.cacheState.lastPersistAt = time.Now().UTC()
			s.cacheState.lastPersistReason = reason
			s.cacheState.lastPersistError = ""
		}
		s.mu.Unlock()

		s.emitPlanCache("store", key, errString(err))
		return nil, err
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Session) emitPlanCache(phase, key, errMsg string) {
	if s.deps.Hub == nil {
		return
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type:      telemetry.EventPlanCache,
		Source:    telemetry.SourceSession,
		SessionID: s.id,
		Profile:   s.init.Profile,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]interface{}{"phase": phase, "key": key, "error": errMsg},
	})
}

func (s *Session) emitPlanReady(plan *core.SearchPlan) {
	if s.deps.Hub == nil || plan == nil {
		return
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type:      telemetry.EventPlanReady,
		Source:    telemetry.SourceSession,
		SessionID: s.id,
		Profile:   s.init.Profile,
		Timestamp: time.Now().UTC(),
		Payload:   map[string]interface{}{"planId": plan.ID, "origin": string(plan.Metadata.Origin)},
	})
}
