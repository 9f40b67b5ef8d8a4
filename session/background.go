package session

import (
	"context"
	"time"
)

// BackgroundCacheState is the plan-cache portion of getBackgroundTaskState
// (spec §4.11).
type BackgroundCacheState struct {
	PendingWrites     int
	Idle              bool
	LastAttemptAt     time.Time
	LastPersistAt     time.Time
	LastPersistReason string
	LastPersistError  string
}

// BackgroundTaskState is the aggregate background-work visibility surface
// (spec §4.11 "getBackgroundTaskState").
type BackgroundTaskState struct {
	PlanCache   BackgroundCacheState
	AutoRefresh *AutoRefreshSnapshot
}

// GetBackgroundTaskState reports the state of the session's plan-cache
// writer queue and, if enabled, its auto-refresh in-flight count.
func (s *Session) GetBackgroundTaskState() BackgroundTaskState {
	s.mu.Lock()
	defer s.mu.Unlock()

	idle := s.cacheState.pendingWrites == 0
	if s.deps.CacheQueue != nil {
		idle = idle && s.deps.CacheQueue.Size() == 0
	}

	state := BackgroundTaskState{
		PlanCache: BackgroundCacheState{
			PendingWrites:     s.cacheState.pendingWrites,
			Idle:              idle,
			LastAttemptAt:     s.cacheState.lastAttemptAt,
			LastPersistAt:     s.cacheState.lastPersistAt,
			LastPersistReason: s.cacheState.lastPersistReason,
			LastPersistError:  s.cacheState.lastPersistError,
		},
	}
	if s.init.AutoRefresh != nil {
		state.AutoRefresh = &AutoRefreshSnapshot{
			ParsesSinceRefresh: s.autoRefresh.parsesSinceRefresh,
			LowConfidenceRuns:  s.autoRefresh.lowConfidenceRuns,
			Pending:            s.autoRefresh.pending,
			InFlight:           s.autoRefresh.inFlight,
			LastAttemptAt:      s.autoRefresh.lastAttemptAt,
			LastTrigger:        s.autoRefresh.lastTrigger,
		}
	}
	return state
}

// WaitForIdleTasks blocks until the cache-writer queue (which also carries
// auto-refresh tasks) reaches idle, or ctx is cancelled (spec §4.11
// "waitForIdleTasks").
func (s *Session) WaitForIdleTasks(ctx context.Context) error {
	if s.deps.CacheQueue == nil {
		return nil
	}
	select {
	case <-s.deps.CacheQueue.OnIdle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
