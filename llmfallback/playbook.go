package llmfallback

import (
	"fmt"
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// RenderPlaybook formats a usage summary as an operator-readable report:
// budgets, one line per field action, and a closing "spawn:" line naming the
// fields the fallback invoked (spec §4.7 "playbook").
func RenderPlaybook(summary *core.LeanLLMFallbackUsageSummary) string {
	if summary == nil {
		return "llm fallback: not invoked"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "llm fallback budget: %d/%d invocations, %d/%d tokens\n",
		summary.TotalInvocations, summary.MaxInvocationsPerParse,
		summary.TotalTokens, summary.MaxTokensPerParse)
	if summary.PlanConfidenceGate > 0 {
		fmt.Fprintf(&b, "plan confidence gate: %.2f\n", summary.PlanConfidenceGate)
	}
	fmt.Fprintf(&b, "resolved=%d reused=%d shared=%d skipped-by-plan=%d skipped-by-limits=%d\n",
		summary.ResolvedFields, summary.ReusedResolutions, summary.SharedExtractions,
		summary.SkippedByPlanConfidence, summary.SkippedByLimits)

	for _, f := range summary.Fields {
		fmt.Fprintf(&b, "  [%s] %s", f.Action, f.Field)
		if f.Reason != "" {
			fmt.Fprintf(&b, " reason=%s", f.Reason)
		}
		if f.SourceField != "" {
			fmt.Fprintf(&b, " source=%s", f.SourceField)
		}
		if f.TokensUsed > 0 {
			fmt.Fprintf(&b, " tokens=%d", f.TokensUsed)
		}
		if f.Error != "" {
			fmt.Fprintf(&b, " error=%q", f.Error)
		}
		b.WriteString("\n")
	}

	b.WriteString(spawnCommand(summary))
	return b.String()
}

// spawnCommand renders a one-line, command-shaped summary listing the fields
// the fallback invoked. It is text only: no program in this module, the
// cmd/example program included, reads these flags.
func spawnCommand(summary *core.LeanLLMFallbackUsageSummary) string {
	fields := make([]string, 0, len(summary.Fields))
	for _, f := range summary.Fields {
		if f.Action == "invoked" {
			fields = append(fields, f.Field)
		}
	}
	if len(fields) == 0 {
		return "spawn: (no invocations to replay)"
	}
	return fmt.Sprintf("spawn: parserator-example --fallback-only --fields=%s", strings.Join(fields, ","))
}
