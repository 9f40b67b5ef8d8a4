package session

import (
	"context"
	"time"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/telemetry"
)

// evaluateAutoRefresh runs the post-parse auto-refresh state machine (spec
// §4.11 "Auto-refresh state machine"). Precedence is explicit per spec §9
// Open Question #3: the confidence trigger is evaluated, and wins, before
// the usage trigger in the same post-parse pass.
func (s *Session) evaluateAutoRefresh(ctx context.Context, confidence float64) {
	cfg := s.init.AutoRefresh
	if cfg == nil || !cfg.Enabled {
		return
	}

	s.mu.Lock()
	s.autoRefresh.parsesSinceRefresh++

	if confidence < cfg.MinConfidence {
		s.autoRefresh.lowConfidenceRuns++
	} else {
		s.autoRefresh.lowConfidenceRuns = 0
	}

	trigger := ""
	if s.autoRefresh.lowConfidenceRuns > cfg.LowConfidenceGrace {
		trigger = "confidence"
	} else if cfg.MaxParses > 0 && s.autoRefresh.parsesSinceRefresh >= cfg.MaxParses {
		trigger = "usage"
	}

	if trigger == "" {
		s.mu.Unlock()
		return
	}

	if s.autoRefresh.pending {
		s.mu.Unlock()
		s.emitAutoRefresh("skipped", "pending", trigger)
		return
	}

	if !s.autoRefresh.lastAttemptAt.IsZero() && time.Since(s.autoRefresh.lastAttemptAt) < time.Duration(cfg.MinIntervalMs)*time.Millisecond {
		s.mu.Unlock()
		s.emitAutoRefresh("skipped", "cooldown", trigger)
		return
	}

	s.autoRefresh.pending = true
	s.autoRefresh.inFlight++
	s.autoRefresh.lastAttemptAt = time.Now().UTC()
	s.autoRefresh.lastTrigger = trigger
	s.mu.Unlock()

	s.emitAutoRefresh("queued", "", trigger)

	s.deps.CacheQueue.Enqueue(context.Background(), func(ctx context.Context) (interface{}, error) {
		s.emitAutoRefresh("triggered", "", trigger)
		outcome := s.RefreshPlan(ctx, RefreshRequest{Force: true})

		s.mu.Lock()
		s.autoRefresh.pending = false
		s.autoRefresh.inFlight--
		if outcome.Success {
			s.autoRefresh.parsesSinceRefresh = 0
			s.autoRefresh.lowConfidenceRuns = 0
		}
		s.mu.Unlock()

		if outcome.Success {
			s.emitAutoRefresh("completed", "", trigger)
		} else {
			s.emitAutoRefresh("failed", outcome.Failure, trigger)
		}
		return outcome, nil
	})
}

func (s *Session) emitAutoRefresh(phase, reason, trigger string) {
	if s.deps.Hub == nil {
		return
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type:      telemetry.EventPlanAutoRefresh,
		Source:    telemetry.SourceSession,
		SessionID: s.id,
		Profile:   s.init.Profile,
		Timestamp: time.Now().UTC(),
		Payload: map[string]interface{}{
			"phase": phase, "reason": reason, "trigger": trigger,
		},
	})
}
