package extractor

import (
	"context"
	"testing"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/resolver"
)

func plan(steps ...core.SearchStep) *core.SearchPlan {
	return &core.SearchPlan{Steps: steps}
}

func TestExtractorAllRequiredResolvedSucceeds(t *testing.T) {
	reg := resolver.NewRegistry(resolver.NewJSONResolver())
	e := New(reg)

	result := e.Execute(context.Background(), Request{
		InputData: `{"name": "Jane", "email": "jane@example.com"}`,
		Plan: plan(
			core.SearchStep{TargetKey: "name", IsRequired: true},
			core.SearchStep{TargetKey: "email", IsRequired: true},
		),
	})

	if !result.Success {
		t.Fatalf("expected success, got diagnostics: %+v", result.Diagnostics)
	}
	if result.ParsedData["name"] != "Jane" || result.ParsedData["email"] != "jane@example.com" {
		t.Errorf("unexpected parsed data: %+v", result.ParsedData)
	}
	if len(result.MissingKeys) != 0 {
		t.Errorf("expected no missing keys, got %v", result.MissingKeys)
	}
}

func TestExtractorMissingRequiredFieldFails(t *testing.T) {
	reg := resolver.NewRegistry(resolver.NewJSONResolver())
	e := New(reg)

	result := e.Execute(context.Background(), Request{
		InputData: `{"name": "Jane"}`,
		Plan: plan(
			core.SearchStep{TargetKey: "name", IsRequired: true},
			core.SearchStep{TargetKey: "email", IsRequired: true},
		),
	})

	if result.Success {
		t.Fatal("expected failure when a required field cannot be resolved")
	}
	if len(result.MissingKeys) != 1 || result.MissingKeys[0] != "email" {
		t.Errorf("expected missing key 'email', got %v", result.MissingKeys)
	}
}

func TestExtractorMissingOptionalFieldStillSucceeds(t *testing.T) {
	reg := resolver.NewRegistry(resolver.NewJSONResolver())
	e := New(reg)

	result := e.Execute(context.Background(), Request{
		InputData: `{"name": "Jane"}`,
		Plan: plan(
			core.SearchStep{TargetKey: "name", IsRequired: true},
			core.SearchStep{TargetKey: "nickname", IsRequired: false},
		),
	})

	if !result.Success {
		t.Fatalf("expected success when only an optional field is missing, diagnostics: %+v", result.Diagnostics)
	}
}

func TestExtractorEmptyPlanSucceedsTrivially(t *testing.T) {
	reg := resolver.NewRegistry()
	e := New(reg)
	result := e.Execute(context.Background(), Request{InputData: "anything", Plan: plan()})
	if !result.Success {
		t.Error("expected a plan with zero required fields to trivially succeed")
	}
	if result.Confidence != 0 {
		t.Errorf("expected zero confidence for zero steps, got %v", result.Confidence)
	}
}

func TestExtractorSharesStateAcrossSteps(t *testing.T) {
	reg := resolver.NewRegistry(resolver.NewJSONResolver())
	e := New(reg)

	result := e.Execute(context.Background(), Request{
		InputData: `{"a": 1, "b": 2, "c": 3}`,
		Plan: plan(
			core.SearchStep{TargetKey: "a", IsRequired: true},
			core.SearchStep{TargetKey: "b", IsRequired: true},
			core.SearchStep{TargetKey: "c", IsRequired: true},
		),
	})

	if !result.Success {
		t.Fatalf("expected all three fields resolved, diagnostics: %+v", result.Diagnostics)
	}
	if _, ok := result.Shared.Get("resolver.json.decoded"); !ok {
		t.Error("expected the JSON decode to be memoized once in shared state across all three steps")
	}
}

func TestExtractorRequiredStepConfidenceFloorAppliesWhenResolved(t *testing.T) {
	reg := resolver.NewRegistry(&lowConfidenceResolver{})
	e := New(reg)

	result := e.Execute(context.Background(), Request{
		InputData: "x",
		Plan:      plan(core.SearchStep{TargetKey: "field", IsRequired: true}),
	})

	if !result.Success {
		t.Fatal("expected success")
	}
	if result.Confidence < 0.7 {
		t.Errorf("expected a resolved required field's confidence floor of 0.7, got %v", result.Confidence)
	}
}

type lowConfidenceResolver struct{}

func (lowConfidenceResolver) Name() string { return "low-confidence" }
func (lowConfidenceResolver) Supports(core.SearchStep, *resolver.Context) bool { return true }
func (lowConfidenceResolver) Resolve(*resolver.Context) (*resolver.Result, []core.ParseDiagnostic, error) {
	return &resolver.Result{Value: "found", Confidence: 0.1}, nil, nil
}
