// Package plancache implements the Plan Cache (spec §4.4): key derivation
// plus get/set/delete/clear over an injected store, and a built-in
// in-memory reference implementation. Grounded on gomind's
// orchestration/cache.go SimpleCache/LRUCache pair, rekeyed on the
// canonical {profile, schema, instructions, options} serialization instead
// of a raw prompt hash.
package plancache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// Cache is the injected collaborator contract (spec §6 "Injected
// collaborator contracts: ParseratorPlanCache"). Implementations may be
// synchronous or asynchronous; any error is logged and treated as a miss
// by the session (spec §7 "Plan-cache failures").
type Cache interface {
	Get(ctx context.Context, key string) (*core.ParseratorPlanCacheEntry, error)
	Set(ctx context.Context, key string, entry *core.ParseratorPlanCacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context, profile string) error
}

// KeyInput is the material the cache key is derived from.
type KeyInput struct {
	Profile      string
	Schema       core.OutputSchema
	Instructions string
	Options      core.ParseOptions
}

// DeriveKey produces the deterministic cache key for input: recursively
// sort object keys, stringify the canonical form of
// {profile ?? "default", schema, instructions ?? "", options}
// (spec §3, §4.4). Treated as conservative per spec §9 Open Question #2:
// ConfidenceThreshold is part of the key, since different thresholds can
// produce the same plan but a different acceptance decision.
func DeriveKey(input KeyInput) string {
	profile := input.Profile
	if profile == "" {
		profile = "default"
	}

	canonical := map[string]interface{}{
		"profile":      profile,
		"schema":       canonicalizeSchema(input.Schema),
		"instructions": input.Instructions,
		"options":      canonicalizeOptions(input.Options),
	}

	encoded, _ := json.Marshal(sortedJSON(canonical))
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

func canonicalizeSchema(schema core.OutputSchema) map[string]interface{} {
	out := make(map[string]interface{}, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	return out
}

func canonicalizeOptions(opts core.ParseOptions) map[string]interface{} {
	out := map[string]interface{}{
		"timeout":         opts.Timeout,
		"retries":         opts.Retries,
		"validateOutput":  opts.ValidateOutput,
		"includeMetadata": opts.IncludeMetadata,
	}
	if opts.ConfidenceThreshold != nil {
		out["confidenceThreshold"] = *opts.ConfidenceThreshold
	}
	if opts.LeanLLM != nil {
		out["leanLLM"] = opts.LeanLLM
	}
	return out
}

// sortedJSON recursively converts maps into a structure whose key order is
// stable across encodings: encoding/json already sorts map[string]X keys
// alphabetically, so this mainly exists to recurse into nested
// map[string]interface{} values that might themselves be unordered, and to
// make the "deep-sorted keys" requirement explicit and testable.
func sortedJSON(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(map[string]interface{}, len(val))
		for _, k := range keys {
			out[k] = sortedJSON(val[k])
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = sortedJSON(item)
		}
		return out
	default:
		return val
	}
}
