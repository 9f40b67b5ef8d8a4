package resolver

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// jsonResolverStateKey is the SharedState slot this resolver memoizes its
// one-time decode of InputData under, so every step in a parse pays the
// json.Unmarshal cost once (spec §4.6.1).
const jsonResolverStateKey = "resolver.json.decoded"

type jsonDecodeOutcome struct {
	ok    bool
	value interface{}
}

// JSONResolver resolves a step by walking a dot-path (TargetKey, with "_"
// also tried as a word-boundary-normalised alias) into a decoded JSON
// document, then falling back to a breadth-first scan of the whole
// document for a normalized key match. Grounded on gomind's
// orchestration/hybrid_resolver.go "structured-first" phase: try the
// cheap, deterministic path before anything fuzzier.
type JSONResolver struct{}

// NewJSONResolver constructs the built-in JSON-path resolver.
func NewJSONResolver() *JSONResolver { return &JSONResolver{} }

func (r *JSONResolver) Name() string { return "json-path" }

func (r *JSONResolver) Supports(_ core.SearchStep, rc *Context) bool {
	_, ok := decodeJSON(rc)
	return ok
}

func (r *JSONResolver) Resolve(rc *Context) (*Result, []core.ParseDiagnostic, error) {
	doc, ok := decodeJSON(rc)
	if !ok {
		return nil, nil, nil
	}

	targetKey := rc.Step.TargetKey

	if value, found := lookup(doc, targetKey); found {
		return r.hit(targetKey, value, 0.92, rc.Step.ValidationType)
	}

	for _, alias := range aliases(targetKey) {
		if value, found := lookup(doc, alias); found {
			return r.hit(alias, value, 0.75, rc.Step.ValidationType)
		}
	}

	if path, value, found := breadthFirstLookup(doc, targetKey); found {
		return r.hit(path, value, 0.7, rc.Step.ValidationType)
	}

	return nil, nil, nil
}

// hit builds the resolved Result plus the trace diagnostic every successful
// JSON resolution carries (spec §8 scenario 1: diagnostics "include a
// JSON-path trace"), coercing the decoded value to the step's
// ValidationType since a JSON string like "3" must still satisfy a number
// field.
func (r *JSONResolver) hit(path string, value interface{}, confidence float64, vt core.ValidationType) (*Result, []core.ParseDiagnostic, error) {
	coerced := coerceJSONValue(value, vt)
	diag := core.ParseDiagnostic{
		Stage:    core.StageExtractor,
		Severity: core.SeverityInfo,
		Message:  fmt.Sprintf("json-path: resolved via %q", path),
	}
	return &Result{Value: coerced, Confidence: confidence}, []core.ParseDiagnostic{diag}, nil
}

func decodeJSON(rc *Context) (interface{}, bool) {
	if cached, ok := rc.Shared.Get(jsonResolverStateKey); ok {
		outcome := cached.(jsonDecodeOutcome)
		return outcome.value, outcome.ok
	}

	trimmed := strings.TrimSpace(rc.InputData)
	var doc interface{}
	err := json.Unmarshal([]byte(trimmed), &doc)
	outcome := jsonDecodeOutcome{ok: err == nil, value: doc}
	rc.Shared.Set(jsonResolverStateKey, outcome)
	return outcome.value, outcome.ok
}

// lookup walks a dotted path ("address.city") through nested
// map[string]interface{} values.
func lookup(doc interface{}, path string) (interface{}, bool) {
	current := doc
	for _, part := range strings.Split(path, ".") {
		obj, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		value, exists := obj[part]
		if !exists {
			return nil, false
		}
		current = value
	}
	return current, true
}

// aliases tries the snake_case/camelCase variants of a target key so a
// schema key of "firstName" can still match a document field "first_name".
func aliases(key string) []string {
	var snake strings.Builder
	for i, r := range key {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				snake.WriteByte('_')
			}
			snake.WriteRune(r - 'A' + 'a')
		} else {
			snake.WriteRune(r)
		}
	}

	parts := strings.Split(key, "_")
	var camel strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			camel.WriteString(p)
			continue
		}
		camel.WriteString(strings.ToUpper(p[:1]))
		camel.WriteString(p[1:])
	}

	out := []string{snake.String(), camel.String()}
	return out
}

// words splits a key on camelCase boundaries, underscores, spaces and
// hyphens, preserving order — the shared keyTokens helper returns an
// unordered set, which can't rebuild a joined/underscored variant.
func words(key string) []string {
	var out []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			out = append(out, strings.ToLower(b.String()))
			b.Reset()
		}
	}
	runes := []rune(key)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ' || r == '-' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && !unicode.IsUpper(runes[i-1]):
			flush()
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return out
}

// normalizedForms returns the {collapsed, underscored} variants spec §4.6.1
// requires a breadth-first key search to try, alongside the
// normalized/joined forms folded into "collapsed" (no separators at all).
func normalizedForms(key string) (collapsed, underscored string) {
	w := words(key)
	return strings.Join(w, ""), strings.Join(w, "_")
}

// breadthFirstLookup scans doc level by level (so a shallower match always
// wins over a deeper one) for any object key whose normalized form matches
// targetKey's, returning the dotted path it found for diagnostics.
func breadthFirstLookup(doc interface{}, targetKey string) (string, interface{}, bool) {
	targetCollapsed, targetUnderscored := normalizedForms(targetKey)

	type queued struct {
		path string
		node interface{}
	}
	queue := []queued{{path: "", node: doc}}

	for len(queue) > 0 {
		var next []queued
		for _, item := range queue {
			switch v := item.node.(type) {
			case map[string]interface{}:
				for k, val := range v {
					kc, ku := normalizedForms(k)
					if kc == targetCollapsed || ku == targetUnderscored {
						path := k
						if item.path != "" {
							path = item.path + "." + k
						}
						return path, val, true
					}
				}
				for k, val := range v {
					path := k
					if item.path != "" {
						path = item.path + "." + k
					}
					next = append(next, queued{path: path, node: val})
				}
			case []interface{}:
				for i, val := range v {
					next = append(next, queued{path: fmt.Sprintf("%s[%d]", item.path, i), node: val})
				}
			}
		}
		queue = next
	}
	return "", nil, false
}

// coerceJSONValue converts a decoded JSON value to match the step's
// ValidationType when JSON's own type doesn't already satisfy it — e.g. a
// JSON string "3" requested as a number must become a numeric 3.
func coerceJSONValue(value interface{}, vt core.ValidationType) interface{} {
	switch vt {
	case core.TypeNumber, core.TypeNumberArray, core.TypeCurrency, core.TypePercentage:
		if s, ok := value.(string); ok {
			clean := strings.TrimFunc(s, func(r rune) bool {
				return !unicode.IsDigit(r) && r != '.' && r != '-'
			})
			if f, err := strconv.ParseFloat(clean, 64); err == nil {
				return f
			}
		}
		return value
	case core.TypeBoolean:
		if s, ok := value.(string); ok {
			switch strings.ToLower(s) {
			case "true", "yes":
				return true
			case "false", "no":
				return false
			}
		}
		return value
	case core.TypeStringArray:
		if arr, ok := value.([]interface{}); ok {
			out := make([]string, 0, len(arr))
			for _, v := range arr {
				out = append(out, fmt.Sprintf("%v", v))
			}
			return out
		}
		return value
	default:
		return value
	}
}
