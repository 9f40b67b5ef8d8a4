package session

import (
	"context"
	"testing"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/architect"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/extractor"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/plancache"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/processors"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/resolver"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/telemetry"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	reg := resolver.NewRegistry(resolver.NewJSONResolver(), resolver.NewDefaultResolver())
	return Deps{
		Architect:  architect.NewHeuristic(),
		Extractor:  extractor.New(reg),
		Cache:      plancache.NewInMemory(50),
		CacheQueue: core.NewAsyncTaskQueue(1, nil),
		Hub:        telemetry.NewHub(nil),
		Config:     core.NewConfig(),
	}
}

func basicInit() Init {
	return Init{
		Schema:      core.OutputSchema{"name": "name", "email": "email"},
		SchemaOrder: []string{"name", "email"},
		Profile:     "lean-agent",
	}
}

func TestSessionEnsurePlanIsFreeOnReuse(t *testing.T) {
	deps := testDeps(t)
	s := New(basicInit(), deps)

	_, tokens1, _, fromCache1 := s.ensurePlan(context.Background(), `{"name":"Jane","email":"jane@x.com"}`)
	if fromCache1 {
		t.Fatal("expected the first call to build a fresh plan, not reuse one")
	}
	if tokens1 == 0 {
		t.Error("expected the first architect build to report nonzero estimated tokens for a nonempty schema")
	}

	_, tokens2, ms2, fromCache2 := s.ensurePlan(context.Background(), `{"name":"Bob","email":"bob@x.com"}`)
	if !fromCache2 {
		t.Error("expected the second call to reuse the in-memory plan")
	}
	if tokens2 != 0 || ms2 != 0 {
		t.Errorf("expected zero architect cost on reuse, got tokens=%d ms=%d", tokens2, ms2)
	}
}

func TestSessionPlanIDStableAcrossParses(t *testing.T) {
	deps := testDeps(t)
	s := New(basicInit(), deps)

	resp1 := s.Parse(context.Background(), `{"name":"Jane","email":"jane@x.com"}`, nil)
	resp2 := s.Parse(context.Background(), `{"name":"Bob","email":"bob@x.com"}`, nil)

	if resp1.Metadata.ArchitectPlan.ID == "" {
		t.Fatal("expected a non-empty plan id")
	}
	if resp1.Metadata.ArchitectPlan.ID != resp2.Metadata.ArchitectPlan.ID {
		t.Errorf("expected the same session to keep the same plan id across parses: %s != %s",
			resp1.Metadata.ArchitectPlan.ID, resp2.Metadata.ArchitectPlan.ID)
	}
	if resp2.Metadata.ArchitectTokens != 0 {
		t.Errorf("expected zero architect tokens on the second parse, got %d", resp2.Metadata.ArchitectTokens)
	}
	if resp2.Metadata.ArchitectPlan.Metadata.Origin != core.OriginCached {
		t.Errorf("expected a reused plan's origin to be coerced to cached, got %v", resp2.Metadata.ArchitectPlan.Metadata.Origin)
	}
}

func TestSessionTokensUsedIsSumOfArchitectAndExtractor(t *testing.T) {
	deps := testDeps(t)
	s := New(basicInit(), deps)
	resp := s.Parse(context.Background(), `{"name":"Jane","email":"jane@x.com"}`, nil)
	if resp.Metadata.TokensUsed != resp.Metadata.ArchitectTokens+resp.Metadata.ExtractorTokens {
		t.Errorf("expected tokensUsed to equal the sum of its parts: %d != %d + %d",
			resp.Metadata.TokensUsed, resp.Metadata.ArchitectTokens, resp.Metadata.ExtractorTokens)
	}
}

func TestSessionExportInitRoundTripsPlanAndConfidence(t *testing.T) {
	deps := testDeps(t)
	s := New(basicInit(), deps)
	s.Parse(context.Background(), `{"name":"Jane","email":"jane@x.com"}`, nil)

	exported := s.ExportInit(nil)
	if exported.Plan == nil {
		t.Fatal("expected ExportInit to carry a plan once one has been built")
	}

	rehydrated := New(exported, deps)
	if rehydrated.plan.ID != s.plan.ID {
		t.Errorf("expected the rehydrated session to keep the same plan id: %s != %s", rehydrated.plan.ID, s.plan.ID)
	}
	if rehydrated.plan.Metadata.Origin != core.OriginCached {
		t.Errorf("expected a rehydrated plan's origin to be coerced to cached, got %v", rehydrated.plan.Metadata.Origin)
	}
}

func TestValidateRequestRejectsEmptyInput(t *testing.T) {
	cfg := core.NewConfig()
	err := ValidateRequest(core.ParseRequest{InputData: "   ", OutputSchema: core.OutputSchema{"a": "string"}}, cfg)
	if err == nil {
		t.Fatal("expected an error for blank inputData")
	}
	if err.Code != "INVALID_REQUEST" {
		t.Errorf("expected INVALID_REQUEST, got %s", err.Code)
	}
}

func TestValidateRequestRejectsEmptySchema(t *testing.T) {
	cfg := core.NewConfig()
	err := ValidateRequest(core.ParseRequest{InputData: "hello"}, cfg)
	if err == nil {
		t.Fatal("expected an error for an empty schema")
	}
}

func TestSessionParseLowConfidenceWithoutFallbacksFails(t *testing.T) {
	deps := testDeps(t)
	deps.Config = core.NewConfig(core.WithFieldFallbacks(false), core.WithMinConfidence(0.99))
	s := New(Init{
		Schema:      core.OutputSchema{"mystery": "string"},
		SchemaOrder: []string{"mystery"},
		Profile:     "lean-agent",
	}, deps)

	resp := s.Parse(context.Background(), "Mystery: something found here", nil)
	if resp.Success {
		t.Fatal("expected low aggregated confidence with fallbacks disabled to fail the parse")
	}
	if resp.Error == nil || resp.Error.Code != "LOW_CONFIDENCE" {
		t.Errorf("expected a LOW_CONFIDENCE error, got %+v", resp.Error)
	}
}

func TestSessionParseRunsPostprocessors(t *testing.T) {
	deps := testDeps(t)
	deps.Post = []processors.Postprocessor{processors.NewEmptyValuePruner()}
	s := New(basicInit(), deps)
	resp := s.Parse(context.Background(), `{"name":"Jane","email":""}`, nil)
	if _, ok := resp.ParsedData["email"]; ok {
		t.Error("expected the empty-value pruner to remove the empty email field")
	}
}
