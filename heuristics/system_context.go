package heuristics

import (
	"math"
	"sort"
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// contextRule is one row of the fixed domain-detection table (spec
// §4.3.5). FieldTokens/InstructionTokens are matched as substrings against
// lower-cased schema keys/descriptor text and instruction text,
// respectively.
type contextRule struct {
	id               string
	label            string
	fieldTokens      []string
	instructionTokens []string
}

var contextRules = []contextRule{
	{
		id: "ecommerce", label: "E-commerce",
		fieldTokens:       []string{"sku", "price", "product", "order", "cart", "quantity", "shipping"},
		instructionTokens: []string{"order", "purchase", "checkout", "product", "inventory"},
	},
	{
		id: "crm", label: "CRM",
		fieldTokens:       []string{"lead", "contact", "deal", "pipeline", "account", "opportunity"},
		instructionTokens: []string{"customer", "lead", "sales", "pipeline", "crm"},
	},
	{
		id: "finance", label: "Finance",
		fieldTokens:       []string{"invoice", "amount", "currency", "tax", "balance", "account_number", "iban"},
		instructionTokens: []string{"invoice", "payment", "billing", "ledger", "finance"},
	},
	{
		id: "healthcare", label: "Healthcare",
		fieldTokens:       []string{"patient", "diagnosis", "prescription", "provider", "insurance", "dob"},
		instructionTokens: []string{"patient", "clinical", "medical", "diagnosis", "healthcare"},
	},
	{
		id: "support", label: "Support",
		fieldTokens:       []string{"ticket", "priority", "issue", "resolution", "severity", "assignee"},
		instructionTokens: []string{"ticket", "support", "helpdesk", "escalation"},
	},
}

const contextConfidenceFloor = 0.45

// DetectSystemContext scans schema keys/descriptor tokens and instruction
// tokens against the fixed rule table and returns the best match, or nil
// if nothing clears the 0.45 floor (spec §4.3.5).
func DetectSystemContext(schema core.OutputSchema, instructions string) *core.DetectedSystemContext {
	lowerInstructions := strings.ToLower(instructions)
	instructionWords := wordSet(lowerInstructions)

	var best *core.DetectedSystemContext
	var bestMatchedFields int

	for _, rule := range contextRules {
		var matchedFields []string
		for key, descriptor := range schema {
			haystack := strings.ToLower(key)
			if s, ok := descriptor.(string); ok {
				haystack += " " + strings.ToLower(s)
			}
			for _, token := range rule.fieldTokens {
				if strings.Contains(haystack, token) {
					matchedFields = append(matchedFields, key)
					break
				}
			}
		}

		var matchedTerms []string
		for _, token := range rule.instructionTokens {
			if _, ok := instructionWords[token]; ok || strings.Contains(lowerInstructions, token) {
				matchedTerms = append(matchedTerms, token)
			}
		}

		if len(matchedFields) == 0 && len(matchedTerms) == 0 {
			continue
		}

		coverage := 0.0
		if len(schema) > 0 {
			coverage = float64(len(matchedFields)) / float64(len(schema))
		}

		confidence := 0.15 +
			0.14*math.Min(float64(len(matchedFields)), 5) +
			0.10*math.Min(float64(len(matchedTerms)), 4) +
			0.22*coverage
		if confidence > 0.95 {
			confidence = 0.95
		}
		if confidence < contextConfidenceFloor {
			continue
		}

		candidate := &core.DetectedSystemContext{
			ID:                      rule.id,
			Label:                   rule.label,
			Confidence:              confidence,
			MatchedFields:           sortedCopy(matchedFields),
			MatchedInstructionTerms: sortedCopy(matchedTerms),
			Rationale:               rationale(rule.label, matchedFields, matchedTerms),
		}

		if best == nil ||
			candidate.Confidence > best.Confidence ||
			(candidate.Confidence == best.Confidence && len(matchedFields) > bestMatchedFields) {
			best = candidate
			bestMatchedFields = len(matchedFields)
		}
	}

	return best
}

func rationale(label string, fields, terms []string) string {
	var b strings.Builder
	b.WriteString("matched ")
	b.WriteString(label)
	b.WriteString(" signals")
	if len(fields) > 0 {
		b.WriteString(" in fields [")
		b.WriteString(strings.Join(fields, ", "))
		b.WriteString("]")
	}
	if len(terms) > 0 {
		b.WriteString(" and instruction terms [")
		b.WriteString(strings.Join(terms, ", "))
		b.WriteString("]")
	}
	return b.String()
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[strings.Trim(w, ".,;:!?()[]{}\"'")] = struct{}{}
	}
	return out
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
