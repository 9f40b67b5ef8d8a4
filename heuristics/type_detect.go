// Package heuristics implements the pure-function surfaces the Architect
// and resolvers rely on: type inference, format detection, section
// segmentation, and domain detection (spec §4.3). Grounded on gomind's
// pkg/routing package (which infers intent/domain from free text the same
// way) and orchestration/contextual_re_resolver.go's confidence scoring
// idiom.
package heuristics

import (
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// keyTokenRules is applied in order; the first matching token wins. Order
// matters: more specific tokens (email, phone) are checked before broad
// ones (name) so "contact_email" resolves to email, not name.
var keyTokenRules = []struct {
	tokens []string
	typ    core.ValidationType
}{
	{[]string{"email"}, core.TypeEmail},
	{[]string{"phone"}, core.TypePhone},
	{[]string{"date", "iso"}, core.TypeDate},
	{[]string{"url", "link"}, core.TypeURL},
	{[]string{"count", "number", "total"}, core.TypeNumber},
	{[]string{"flag", "is_", "has_"}, core.TypeBoolean},
	{[]string{"ids", "numbers"}, core.TypeNumberArray},
	{[]string{"list", "tags"}, core.TypeStringArray},
	{[]string{"amount", "price", "cost"}, core.TypeCurrency},
	{[]string{"percent", "ratio"}, core.TypePercentage},
	{[]string{"address", "location"}, core.TypeAddress},
	{[]string{"name", "contact"}, core.TypeName},
}

// descriptorHints maps lower-cased descriptor substrings straight to a
// ValidationType, for callers who pass an explicit string hint like
// "email" or "iso_date" as the schema descriptor.
var descriptorHints = []struct {
	substr string
	typ    core.ValidationType
}{
	{"email", core.TypeEmail},
	{"phone", core.TypePhone},
	{"iso_date", core.TypeISODate},
	{"iso date", core.TypeISODate},
	{"date", core.TypeDate},
	{"url", core.TypeURL},
	{"link", core.TypeURL},
	{"string_array", core.TypeStringArray},
	{"number_array", core.TypeNumberArray},
	{"boolean", core.TypeBoolean},
	{"bool", core.TypeBoolean},
	{"number", core.TypeNumber},
	{"currency", core.TypeCurrency},
	{"percentage", core.TypePercentage},
	{"percent", core.TypePercentage},
	{"address", core.TypeAddress},
	{"name", core.TypeName},
	{"object", core.TypeObject},
	{"custom", core.TypeCustom},
}

// DetectValidationType infers a field's ValidationType from its schema
// descriptor, falling back to key-token matching, then "string" (spec
// §4.3.1). Precedence: explicit descriptor string → key tokens → default.
func DetectValidationType(key string, descriptor core.SchemaDescriptor) core.ValidationType {
	if s, ok := descriptor.(string); ok {
		lower := strings.ToLower(s)
		for _, hint := range descriptorHints {
			if strings.Contains(lower, hint.substr) {
				return hint.typ
			}
		}
	}
	if obj, ok := descriptor.(map[string]interface{}); ok {
		if t, ok := obj["type"].(string); ok {
			lower := strings.ToLower(t)
			for _, hint := range descriptorHints {
				if strings.Contains(lower, hint.substr) {
					return hint.typ
				}
			}
		}
	}

	lowerKey := strings.ToLower(key)
	for _, rule := range keyTokenRules {
		for _, token := range rule.tokens {
			if strings.Contains(lowerKey, token) {
				return rule.typ
			}
		}
	}
	return core.TypeString
}

// IsOptional reports whether a descriptor explicitly marks the field
// optional ({optional: true}); everything else defaults to required, since
// SearchStep.IsRequired is the positive assertion the Extractor checks.
func IsOptional(descriptor core.SchemaDescriptor) bool {
	if obj, ok := descriptor.(map[string]interface{}); ok {
		if opt, ok := obj["optional"].(bool); ok {
			return opt
		}
	}
	return false
}
