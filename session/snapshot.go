package session

import "time"

// Snapshot aggregates session counters, the last parse's outcome, and
// auto-refresh state (spec §4.11 "snapshot").
type Snapshot struct {
	ID                   string
	CreatedAt            time.Time
	ParseCount           int64
	TotalArchitectTokens int64
	TotalExtractorTokens int64
	LastRequestID        string
	LastConfidence       float64
	PlanState            PlanState
	AutoRefresh          *AutoRefreshSnapshot
}

// AutoRefreshSnapshot is the auto-refresh portion of Snapshot/background
// task state.
type AutoRefreshSnapshot struct {
	ParsesSinceRefresh int
	LowConfidenceRuns  int
	Pending            bool
	InFlight           int
	LastAttemptAt      time.Time
	LastTrigger        string
}

// Snapshot returns an aggregate view of the session's lifetime counters.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		ID:                   s.id,
		CreatedAt:            s.createdAt,
		ParseCount:           s.parseCount,
		TotalArchitectTokens: s.totalArchitectTokens,
		TotalExtractorTokens: s.totalExtractorTokens,
		LastRequestID:        s.lastRequestID,
		LastConfidence:       s.lastConfidence,
	}
	if s.init.AutoRefresh != nil {
		snap.AutoRefresh = &AutoRefreshSnapshot{
			ParsesSinceRefresh: s.autoRefresh.parsesSinceRefresh,
			LowConfidenceRuns:  s.autoRefresh.lowConfidenceRuns,
			Pending:            s.autoRefresh.pending,
			InFlight:           s.autoRefresh.inFlight,
			LastAttemptAt:      s.autoRefresh.lastAttemptAt,
			LastTrigger:        s.autoRefresh.lastTrigger,
		}
	}
	s.mu.Unlock()

	snap.PlanState = s.GetPlanState(false)
	return snap
}
