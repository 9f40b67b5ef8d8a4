package plancache

import (
	"context"
	"testing"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

func samplePlan(id string) *core.SearchPlan {
	return &core.SearchPlan{
		ID:    id,
		Steps: []core.SearchStep{{TargetKey: "name", ValidationType: core.TypeName, IsRequired: true}},
		Metadata: core.PlanMetadata{Origin: core.OriginHeuristic},
	}
}

func TestInMemorySetThenGetRoundTrips(t *testing.T) {
	cache := NewInMemory(10)
	ctx := context.Background()
	entry := &core.ParseratorPlanCacheEntry{Plan: samplePlan("plan-1"), Confidence: 0.8}

	if err := cache.Set(ctx, "key-1", entry); err != nil {
		t.Fatalf("unexpected Set error: %v", err)
	}

	got, err := cache.Get(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected Get error: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.Plan.ID != "plan-1" || got.Confidence != 0.8 {
		t.Errorf("round-tripped entry does not match what was stored: %+v", got)
	}
}

func TestInMemoryGetReturnsClonedEntry(t *testing.T) {
	cache := NewInMemory(10)
	ctx := context.Background()
	entry := &core.ParseratorPlanCacheEntry{Plan: samplePlan("plan-1")}
	_ = cache.Set(ctx, "key-1", entry)

	got, _ := cache.Get(ctx, "key-1")
	got.Plan.Steps[0].TargetKey = "mutated"

	again, _ := cache.Get(ctx, "key-1")
	if again.Plan.Steps[0].TargetKey == "mutated" {
		t.Error("expected Get to hand out a clone; mutating the returned entry corrupted the cache")
	}
}

func TestInMemoryMissReturnsNilNil(t *testing.T) {
	cache := NewInMemory(10)
	got, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("unexpected error on miss: %v", err)
	}
	if got != nil {
		t.Error("expected nil entry on a cache miss")
	}
}

func TestInMemoryEvictsOldestWhenFull(t *testing.T) {
	cache := NewInMemory(2)
	ctx := context.Background()
	_ = cache.Set(ctx, "k1", &core.ParseratorPlanCacheEntry{Plan: samplePlan("p1")})
	_ = cache.Set(ctx, "k2", &core.ParseratorPlanCacheEntry{Plan: samplePlan("p2")})
	_ = cache.Set(ctx, "k3", &core.ParseratorPlanCacheEntry{Plan: samplePlan("p3")})

	stats := cache.Stats()
	if stats.Size != 2 {
		t.Errorf("expected bounded size 2, got %d", stats.Size)
	}
	if stats.Evictions != 1 {
		t.Errorf("expected exactly one eviction, got %d", stats.Evictions)
	}
}

func TestInMemoryClearByProfile(t *testing.T) {
	cache := NewInMemory(10)
	ctx := context.Background()
	_ = cache.Set(ctx, "k1", &core.ParseratorPlanCacheEntry{Plan: samplePlan("p1"), Profile: "lean-agent"})
	_ = cache.Set(ctx, "k2", &core.ParseratorPlanCacheEntry{Plan: samplePlan("p2"), Profile: "vibe-coder"})

	if err := cache.Clear(ctx, "lean-agent"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := cache.Get(ctx, "k1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got1, _ := cache.Get(ctx, "k1")
	if got1 != nil {
		t.Error("expected lean-agent entry to be cleared")
	}
	got2, _ := cache.Get(ctx, "k2")
	if got2 == nil {
		t.Error("expected vibe-coder entry to survive a profile-scoped clear")
	}
}
