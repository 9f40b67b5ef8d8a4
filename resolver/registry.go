// Package resolver implements the Resolver Registry (spec §4.5) and the
// built-in default resolvers (spec §4.6): an ordered chain of
// format-specific, section-scoring, and regex/type resolvers sharing a
// per-parse state map. Grounded on gomind's orchestration/hybrid_resolver.go
// "cheap path first" structure.
package resolver

import (
	"context"
	"fmt"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// Context is everything one resolver needs to resolve one step. The
// Extractor builds one Context per step and reuses the same Shared map
// across all steps of a parse (spec §4.5).
type Context struct {
	Ctx       context.Context
	InputData string
	Step      core.SearchStep
	Config    map[string]interface{}
	Logger    core.Logger
	Shared    *core.SharedState
	Options   core.ParseOptions
}

// Result is what a resolver returns when it produces a value.
type Result struct {
	Value      interface{}
	Confidence float64
}

// FieldResolver is a pluggable strategy for resolving one field.
type FieldResolver interface {
	Name() string
	Supports(step core.SearchStep, rc *Context) bool
	Resolve(rc *Context) (*Result, []core.ParseDiagnostic, error)
}

// Registry is the ordered chain of resolvers. It does not own the
// resolvers it holds — callers control their lifetime (spec §4.5
// "Ownership").
type Registry struct {
	resolvers []FieldResolver
}

// NewRegistry creates a registry with the given resolvers, in order.
func NewRegistry(resolvers ...FieldResolver) *Registry {
	return &Registry{resolvers: append([]FieldResolver(nil), resolvers...)}
}

// List returns the resolvers in execution order.
func (r *Registry) List() []FieldResolver {
	return append([]FieldResolver(nil), r.resolvers...)
}

// Register inserts resolver at position when 0 <= position <= len; a
// negative or larger position appends to the end.
func (r *Registry) Register(resolver FieldResolver, position int) {
	if position < 0 || position > len(r.resolvers) {
		r.resolvers = append(r.resolvers, resolver)
		return
	}
	r.resolvers = append(r.resolvers, nil)
	copy(r.resolvers[position+1:], r.resolvers[position:])
	r.resolvers[position] = resolver
}

// Replace swaps the entire resolver chain.
func (r *Registry) Replace(resolvers []FieldResolver) {
	r.resolvers = append([]FieldResolver(nil), resolvers...)
}

// ResolveOutcome is the accumulated result of walking the chain for one
// step.
type ResolveOutcome struct {
	Value        interface{}
	Confidence   float64
	ResolverName string
	Diagnostics  []core.ParseDiagnostic
}

// Resolve walks resolvers in order (spec §4.5): skip resolvers whose
// Supports returns false; invoke Resolve and accumulate diagnostics; stop
// and return on the first defined value; on an error (a panic in Resolve is
// recovered and treated as one), record a warning diagnostic and keep going, remembering the last failure as a
// tentative (valueless) outcome in case nothing else succeeds.
func (r *Registry) Resolve(rc *Context) ResolveOutcome {
	var outcome ResolveOutcome
	var tentative *ResolveOutcome

	for _, res := range r.resolvers {
		if !safeSupports(res, rc) {
			continue
		}

		result, diags, err := safeResolve(res, rc)
		outcome.Diagnostics = append(outcome.Diagnostics, diags...)

		if err != nil {
			outcome.Diagnostics = append(outcome.Diagnostics, core.ParseDiagnostic{
				Field:    rc.Step.TargetKey,
				Stage:    core.StageExtractor,
				Message:  fmt.Sprintf("resolver %q failed: %v", res.Name(), err),
				Severity: core.SeverityWarning,
			})
			failed := ResolveOutcome{ResolverName: res.Name(), Diagnostics: outcome.Diagnostics}
			tentative = &failed
			continue
		}

		if result != nil && result.Value != nil {
			outcome.Value = result.Value
			outcome.Confidence = result.Confidence
			outcome.ResolverName = res.Name()
			return outcome
		}
	}

	if tentative != nil {
		outcome.ResolverName = tentative.ResolverName
	}
	return outcome
}

// safeSupports guards against a resolver's Supports implementation
// panicking (a programmer error in a plugged-in resolver must not take
// down the whole parse).
func safeSupports(res FieldResolver, rc *Context) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return res.Supports(rc.Step, rc)
}

func safeResolve(res FieldResolver, rc *Context) (result *Result, diags []core.ParseDiagnostic, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return res.Resolve(rc)
}
