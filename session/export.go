package session

import "github.com/Domusgpt/Parserator-8b-alpha-sub000/core"

// ExportInit returns a snapshot of this session's binding suitable for
// hydrating a new Session elsewhere (spec §4.11 "exportInit"; spec §6
// "rehydrated via a new session with init.plan set"). If overrides is
// non-nil, its non-empty Schema, SchemaOrder, Instructions, SeedInput,
// AutoRefresh and Profile replace those in the exported Init; its Options,
// Plan, PlanConfidence and PlanDiagnostics are not applied.
func (s *Session) ExportInit(overrides *Init) Init {
	s.mu.Lock()
	exported := Init{
		Schema:          s.init.Schema,
		SchemaOrder:     s.init.SchemaOrder,
		Instructions:    s.init.Instructions,
		Options:         s.init.Options,
		SeedInput:       s.init.SeedInput,
		AutoRefresh:     s.init.AutoRefresh,
		Profile:         s.init.Profile,
		PlanConfidence:  s.planConfidence,
		PlanDiagnostics: append([]core.ParseDiagnostic(nil), s.planDiagnostics...),
	}
	if s.plan != nil {
		exported.Plan = s.plan.Clone()
	}
	s.mu.Unlock()

	if overrides == nil {
		return exported
	}
	if overrides.Schema != nil {
		exported.Schema = overrides.Schema
	}
	if overrides.SchemaOrder != nil {
		exported.SchemaOrder = overrides.SchemaOrder
	}
	if overrides.Instructions != "" {
		exported.Instructions = overrides.Instructions
	}
	if overrides.SeedInput != "" {
		exported.SeedInput = overrides.SeedInput
	}
	if overrides.AutoRefresh != nil {
		exported.AutoRefresh = overrides.AutoRefresh
	}
	if overrides.Profile != "" {
		exported.Profile = overrides.Profile
	}
	return exported
}
