package session

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/extractor"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/processors"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/telemetry"
)

// ParseOverrides lets one call override the session's bound instructions/
// options without mutating the session itself.
type ParseOverrides struct {
	Instructions *string
	Options      *core.ParseOptions
}

// Parse runs one input through the session's plan (materializing it on
// first use) and the Extractor, then postprocessors and confidence gating
// (spec §4.11 "parse").
func (s *Session) Parse(ctx context.Context, input string, overrides *ParseOverrides) core.ParseResponse {
	requestID := uuid.NewString()
	start := time.Now()

	instructions := s.init.Instructions
	options := s.init.Options
	if overrides != nil {
		if overrides.Instructions != nil {
			instructions = *overrides.Instructions
		}
		if overrides.Options != nil {
			options = *overrides.Options
		}
	}

	req := core.ParseRequest{
		InputData:    input,
		OutputSchema: s.init.Schema,
		SchemaOrder:  s.init.SchemaOrder,
		Instructions: instructions,
		Options:      options,
	}

	s.emitParseStart(requestID)

	if ferr := ValidateRequest(req, s.deps.Config); ferr != nil {
		return core.ParseResponse{Success: false, ParsedData: map[string]interface{}{}, Error: ferr}
	}

	preStart := time.Now()
	preReq, preDiags, preMetrics := processors.RunPreprocessors(s.deps.Pre, &req)
	preMs := time.Since(preStart).Milliseconds()
	s.emitStage(requestID, "preprocess", preMs, 0, 1, preMetrics.Runs, preDiags)

	plan, architectTokens, architectMs, _ := s.ensurePlan(ctx, preReq.InputData)
	if plan == nil {
		return core.ParseResponse{
			Success:    false,
			ParsedData: map[string]interface{}{},
			Error: core.NewParseError(core.ErrArchitectFailed, core.StageArchitect,
				"architect failed to produce a plan", "", ""),
		}
	}
	s.emitStage(requestID, "architect", architectMs, architectTokens, plan.Metadata.PlannerConfidence, 1, nil)

	extractStart := time.Now()
	result := s.deps.Extractor.Execute(ctx, extractor.Request{
		InputData:    preReq.InputData,
		Plan:         plan,
		Instructions: preReq.Instructions,
		Schema:       s.init.Schema,
		RequestID:    requestID,
		SessionID:    s.id,
		Profile:      s.init.Profile,
		Options:      preReq.Options,
	})
	extractMs := time.Since(extractStart).Milliseconds()
	s.emitStage(requestID, "extractor", extractMs, 0, result.Confidence, 1, result.Diagnostics)

	postStart := time.Now()
	finalData, postDiags, postFloor, postMetrics := processors.RunPostprocessors(s.deps.Post, result.ParsedData)
	postMs := time.Since(postStart).Milliseconds()
	s.emitStage(requestID, "postprocess", postMs, 0, postFloor, postMetrics.Runs, postDiags)

	confidence := result.Confidence
	if postFloor < confidence {
		confidence = postFloor
	}

	diagnostics := append([]core.ParseDiagnostic{}, preDiags...)
	diagnostics = append(diagnostics, result.Diagnostics...)
	diagnostics = append(diagnostics, postDiags...)

	extractorTokens := 0
	if result.Fallback != nil {
		extractorTokens += result.Fallback.TotalTokens
	}

	var responseErr *core.ParseError
	success := result.Success

	if !result.Success {
		responseErr = core.NewParseError(core.ErrMissingRequiredFields, core.StageExtractor,
			"required fields could not be resolved", strings.Join(result.MissingKeys, ", "), "")
	} else if !s.deps.Config.EnableFieldFallbacks && confidence < s.confidenceThreshold() {
		success = false
		responseErr = core.NewParseError(core.ErrLowConfidence, core.StageExtractor,
			"aggregated confidence below threshold", "", "")
	}

	s.mu.Lock()
	s.parseCount++
	s.lastSeedInput = input
	s.lastRequestID = requestID
	s.lastConfidence = confidence
	s.lastDiagnostics = diagnostics
	s.totalArchitectTokens += int64(architectTokens)
	s.totalExtractorTokens += int64(extractorTokens)
	s.mu.Unlock()

	if success {
		s.emitParseSuccess(requestID, confidence)
	} else {
		s.emitParseFailure(requestID, responseErr)
	}

	if s.init.AutoRefresh != nil {
		s.evaluateAutoRefresh(ctx, confidence)
	}

	return core.ParseResponse{
		Success:    success,
		ParsedData: finalData,
		Metadata: core.ParseMetadata{
			ArchitectPlan:    plan,
			Confidence:       confidence,
			TokensUsed:       architectTokens + extractorTokens,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			ArchitectTokens:  architectTokens,
			ExtractorTokens:  extractorTokens,
			RequestID:        requestID,
			Timestamp:        time.Now().UTC(),
			Diagnostics:      diagnostics,
			StageBreakdown: core.StageBreakdown{
				Preprocess:  preMs,
				Architect:   architectMs,
				Extractor:   extractMs,
				Postprocess: postMs,
			},
			Fallback: result.Fallback,
		},
		Error: responseErr,
	}
}

func (s *Session) emitParseStart(requestID string) {
	if s.deps.Hub == nil {
		return
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type: telemetry.EventParseStart, Source: telemetry.SourceSession,
		RequestID: requestID, SessionID: s.id, Profile: s.init.Profile, Timestamp: time.Now().UTC(),
	})
}

func (s *Session) emitStage(requestID, stage string, ms int64, tokens int, confidence float64, runs int, diags []core.ParseDiagnostic) {
	if s.deps.Hub == nil {
		return
	}
	boxed := make([]interface{}, len(diags))
	for i, d := range diags {
		boxed[i] = d
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type: telemetry.EventParseStage, Source: telemetry.SourceSession,
		RequestID: requestID, SessionID: s.id, Profile: s.init.Profile, Timestamp: time.Now().UTC(),
		Stage:       stage,
		Metrics:     &telemetry.StageMetrics{TimeMs: ms, Tokens: tokens, Confidence: confidence, Runs: runs},
		Diagnostics: boxed,
	})
}

func (s *Session) emitParseSuccess(requestID string, confidence float64) {
	if s.deps.Hub == nil {
		return
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type: telemetry.EventParseSuccess, Source: telemetry.SourceSession,
		RequestID: requestID, SessionID: s.id, Profile: s.init.Profile, Timestamp: time.Now().UTC(),
		Payload: map[string]interface{}{"confidence": confidence},
	})
}

func (s *Session) emitParseFailure(requestID string, err *core.ParseError) {
	if s.deps.Hub == nil {
		return
	}
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	s.deps.Hub.Emit(telemetry.Event{
		Type: telemetry.EventParseFailure, Source: telemetry.SourceSession,
		RequestID: requestID, SessionID: s.id, Profile: s.init.Profile, Timestamp: time.Now().UTC(),
		Payload: map[string]interface{}{"error": msg},
	})
}
