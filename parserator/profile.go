package parserator

import (
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
	"github.com/Domusgpt/Parserator-8b-alpha-sub000/resolver"
)

// Profile bundles a named resolver set, config overrides, and plan-cache
// sizing policy (spec §4.12 "resolve a profile if requested").
type Profile struct {
	Name           string
	Resolvers      func() []resolver.FieldResolver
	ConfigOverride func(*core.Config)
	CacheMaxSize   int
}

// leanAgentProfile runs the built-in deterministic chain (JSON, section,
// default) with EnableFieldFallbacks on — the default, general-purpose
// shape. It registers no LLM fallback resolver; that is added only by
// Facade.ConfigureLLMFallback.
func leanAgentProfile() Profile {
	return Profile{
		Name: "lean-agent",
		Resolvers: func() []resolver.FieldResolver {
			return []resolver.FieldResolver{
				resolver.NewJSONResolver(),
				resolver.NewSectionResolver(),
				resolver.NewDefaultResolver(),
			}
		},
		ConfigOverride: func(c *core.Config) { c.EnableFieldFallbacks = true },
		CacheMaxSize:   500,
	}
}

// vibeCoder is the lenient profile for casual, inconsistently-labelled
// input: it registers the loose key/value resolver first (spec §4.6) and
// tolerates lower confidence.
func vibeCoderProfile() Profile {
	return Profile{
		Name: "vibe-coder",
		Resolvers: func() []resolver.FieldResolver {
			return []resolver.FieldResolver{
				resolver.NewLooseKVResolver(),
				resolver.NewJSONResolver(),
				resolver.NewSectionResolver(),
				resolver.NewDefaultResolver(),
			}
		},
		ConfigOverride: func(c *core.Config) { c.MinConfidence = 0.4 },
		CacheMaxSize:   200,
	}
}

// sensorGrid targets dense, highly-structured telemetry payloads (large
// schemas, JSON-first, no LLM budget): only the structural resolvers run,
// and the cache is sized for many distinct device/shape combinations.
func sensorGridProfile() Profile {
	return Profile{
		Name: "sensor-grid",
		Resolvers: func() []resolver.FieldResolver {
			return []resolver.FieldResolver{
				resolver.NewJSONResolver(),
				resolver.NewDefaultResolver(),
			}
		},
		ConfigOverride: func(c *core.Config) {
			c.MaxSchemaFields = 256
			c.EnableFieldFallbacks = false
		},
		CacheMaxSize: 2000,
	}
}

// ResolveProfile looks up a profile by name. The empty string and unknown
// names both resolve to the lean-agent default.
func ResolveProfile(name string) Profile {
	switch name {
	case "vibe-coder":
		return vibeCoderProfile()
	case "sensor-grid":
		return sensorGridProfile()
	default:
		return leanAgentProfile()
	}
}
