package resolver

import (
	"context"
	"testing"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

type stubResolver struct {
	name      string
	supports  bool
	value     interface{}
	confidence float64
	err       error
	panics    bool
}

func (s *stubResolver) Name() string { return s.name }
func (s *stubResolver) Supports(core.SearchStep, *Context) bool {
	if s.panics {
		panic("boom in Supports")
	}
	return s.supports
}
func (s *stubResolver) Resolve(*Context) (*Result, []core.ParseDiagnostic, error) {
	if s.panics {
		panic("boom in Resolve")
	}
	if s.err != nil {
		return nil, nil, s.err
	}
	if s.value == nil {
		return nil, nil, nil
	}
	return &Result{Value: s.value, Confidence: s.confidence}, nil, nil
}

func newCtx() *Context {
	return &Context{Ctx: context.Background(), Shared: core.NewSharedState(), Step: core.SearchStep{TargetKey: "name"}}
}

func TestRegistryFirstValueWins(t *testing.T) {
	first := &stubResolver{name: "first", supports: true, value: "alice", confidence: 0.9}
	second := &stubResolver{name: "second", supports: true, value: "bob", confidence: 0.5}
	reg := NewRegistry(first, second)

	outcome := reg.Resolve(newCtx())
	if outcome.Value != "alice" {
		t.Errorf("expected first resolver's value to win, got %v", outcome.Value)
	}
	if outcome.ResolverName != "first" {
		t.Errorf("expected ResolverName %q, got %q", "first", outcome.ResolverName)
	}
}

func TestRegistrySkipsUnsupportedResolvers(t *testing.T) {
	unsupported := &stubResolver{name: "unsupported", supports: false, value: "ignored", confidence: 0.9}
	supported := &stubResolver{name: "supported", supports: true, value: "found", confidence: 0.6}
	reg := NewRegistry(unsupported, supported)

	outcome := reg.Resolve(newCtx())
	if outcome.Value != "found" {
		t.Errorf("expected the supported resolver to win, got %v", outcome.Value)
	}
}

func TestRegistryContinuesPastErrorsAndPanics(t *testing.T) {
	panicky := &stubResolver{name: "panicky", supports: true, panics: true}
	erroring := &stubResolver{name: "erroring", supports: true, err: errTest}
	fallback := &stubResolver{name: "fallback", supports: true, value: "recovered", confidence: 0.4}
	reg := NewRegistry(panicky, erroring, fallback)

	outcome := reg.Resolve(newCtx())
	if outcome.Value != "recovered" {
		t.Errorf("expected chain to recover past a panicking/erroring resolver, got %v", outcome.Value)
	}
	if len(outcome.Diagnostics) == 0 {
		t.Error("expected a warning diagnostic for the erroring resolver")
	}
}

func TestRegistryNoResolverMatchesReturnsEmptyOutcome(t *testing.T) {
	reg := NewRegistry(&stubResolver{name: "none", supports: false})
	outcome := reg.Resolve(newCtx())
	if outcome.Value != nil {
		t.Errorf("expected no value, got %v", outcome.Value)
	}
}

func TestRegistryRegisterAtPosition(t *testing.T) {
	a := &stubResolver{name: "a"}
	b := &stubResolver{name: "b"}
	reg := NewRegistry(a)
	reg.Register(b, 0)

	list := reg.List()
	if len(list) != 2 || list[0].Name() != "b" || list[1].Name() != "a" {
		t.Errorf("expected [b, a], got %v", names(list))
	}
}

func names(resolvers []FieldResolver) []string {
	out := make([]string, len(resolvers))
	for i, r := range resolvers {
		out[i] = r.Name()
	}
	return out
}

var errTest = testError("resolver failed")

type testError string

func (e testError) Error() string { return string(e) }
