// Package parserator implements the Core Facade (spec §4.12): validates
// and merges configuration, resolves a profile, wires the resolver
// registry/Architect/Extractor, and exposes one-shot parse plus session
// creation. Grounded on gomind's core/agent.go constructor-plus-registration
// surface (the facade that wires every subsystem together behind one entry
// point).
package parserator

import (
	"context"
	"errors"
	"sync"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/architect"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/extractor"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/llmfallback"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/plancache"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/processors"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/resolver"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/session"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/telemetry"
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("parserator: apiKey is required")

// Facade is the top-level, mostly-stateless entry point (spec §4.12). It
// never caches beyond configuration: each Parse call is independent unless
// the caller explicitly works through a Session.
type Facade struct {
	config *core.Config
	profile Profile

	mu        sync.RWMutex
	registry  *resolver.Registry
	heuristic *architect.Heuristic
	hybrid    *architect.Hybrid
	extractor *extractor.Extractor
	cache     plancache.Cache
	cacheQueue *core.AsyncTaskQueue
	hub       *telemetry.Hub
	pre       []processors.Preprocessor
	post      []processors.Postprocessor
}

// New validates apiKey and constructs a Facade wired for profile (empty
// string resolves to "lean-agent"). Additional tuning is layered on via
// ConfigOption the same way core.NewConfig works.
func New(apiKey string, profileName string, opts ...core.ConfigOption) (*Facade, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	profile := ResolveProfile(profileName)
	allOpts := append([]core.ConfigOption{core.WithAPIKey(apiKey), core.WithProfile(profile.Name)}, opts...)
	cfg := core.NewConfig(allOpts...)
	if profile.ConfigOverride != nil {
		profile.ConfigOverride(cfg)
	}

	registry := resolver.NewRegistry(profile.Resolvers()...)
	hub := telemetry.NewHub(nil)
	cacheQueue := core.NewAsyncTaskQueue(1, nil)
	cache := plancache.NewInMemory(profile.CacheMaxSize)

	f := &Facade{
		config:     cfg,
		profile:    profile,
		registry:   registry,
		heuristic:  architect.NewHeuristic(),
		extractor:  extractor.New(registry),
		cache:      cache,
		cacheQueue: cacheQueue,
		hub:        hub,
		pre:        []processors.Preprocessor{},
		post: []processors.Postprocessor{
			processors.NewWhitespaceNormalizer(),
			processors.NewNullTokenNormalizer(),
			processors.NewEmptyValuePruner(),
		},
	}
	return f, nil
}

// Config returns the facade's effective configuration.
func (f *Facade) Config() *core.Config {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.config
}

// ConfigureLLMPlanRewrite wraps the heuristic architect in a Hybrid that
// escalates to client when heuristic confidence is too low.
func (f *Facade) ConfigureLLMPlanRewrite(config architect.HybridConfig) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hybrid = architect.NewHybrid(f.heuristic, config, f.cacheQueue, f.hub)
}

// ConfigureLLMFallback registers the LLM Fallback Resolver as the last
// entry in the resolver chain (spec §4.12 "configureLLMFallback").
func (f *Facade) ConfigureLLMFallback(config llmfallback.Config) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resolvers := f.registry.List()
	resolvers = append(resolvers, llmfallback.New(config, f.cacheQueue))
	f.registry.Replace(resolvers)
}

// RegisterResolver inserts resolver at position in the shared chain (spec
// §6 "registerResolver").
func (f *Facade) RegisterResolver(r resolver.FieldResolver, position int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry.Register(r, position)
}

// ReplaceResolvers swaps the entire resolver chain.
func (f *Facade) ReplaceResolvers(resolvers []resolver.FieldResolver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.registry.Replace(resolvers)
}

// ListResolvers returns the resolver chain in execution order.
func (f *Facade) ListResolvers() []resolver.FieldResolver {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.registry.List()
}

// AddTelemetryListener registers a listener on the shared telemetry hub.
func (f *Facade) AddTelemetryListener(l telemetry.Listener) *telemetry.ListenerHandle {
	return f.hub.AddListener(l)
}

// RegisterPlanCache swaps the backing plan-cache store.
func (f *Facade) RegisterPlanCache(cache plancache.Cache) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cache = cache
}

// SetPreprocessors replaces the preprocessor chain.
func (f *Facade) SetPreprocessors(pre []processors.Preprocessor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pre = pre
}

// SetPostprocessors replaces the postprocessor chain.
func (f *Facade) SetPostprocessors(post []processors.Postprocessor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.post = post
}

// UpdateConfig applies additional options on top of the current config.
func (f *Facade) UpdateConfig(opts ...core.ConfigOption) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, opt := range opts {
		opt(f.config)
	}
}

func (f *Facade) deps() session.Deps {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return session.Deps{
		Architect:  f.activeArchitectLocked(),
		Extractor:  f.extractor,
		Cache:      f.cache,
		CacheQueue: f.cacheQueue,
		Hub:        f.hub,
		Logger:     f.config.Logger,
		Config:     f.config,
		Pre:        f.pre,
		Post:       f.post,
	}
}

func (f *Facade) activeArchitectLocked() session.PlanBuilder {
	if f.hybrid != nil {
		return f.hybrid
	}
	return f.heuristic
}

// Parse runs one request through an ephemeral, single-use Session (spec
// §4.12 "parse(request) which delegates to an ephemeral session").
func (f *Facade) Parse(ctx context.Context, req core.ParseRequest) core.ParseResponse {
	if ferr := session.ValidateRequest(req, f.Config()); ferr != nil {
		return core.ParseResponse{Success: false, ParsedData: map[string]interface{}{}, Error: ferr}
	}

	s := session.New(session.Init{
		Schema:       req.OutputSchema,
		SchemaOrder:  req.SchemaOrder,
		Instructions: req.Instructions,
		Options:      req.Options,
		Profile:      f.profile.Name,
	}, f.deps())

	return s.Parse(ctx, req.InputData, nil)
}

// CreateSession constructs a long-lived Session sharing this facade's
// registry, architect, cache, and telemetry hub (spec §4.12
// "createSession(init)").
func (f *Facade) CreateSession(init session.Init) *session.Session {
	if init.Profile == "" {
		init.Profile = f.profile.Name
	}
	return session.New(init, f.deps())
}
