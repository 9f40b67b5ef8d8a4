package heuristics

import (
	"testing"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

func TestDetectValidationTypeExplicitDescriptorWins(t *testing.T) {
	if got := DetectValidationType("contact_name", "email address"); got != core.TypeEmail {
		t.Errorf("expected an explicit 'email' descriptor to win over the 'name' key token, got %v", got)
	}
}

func TestDetectValidationTypeKeyTokenFallback(t *testing.T) {
	if got := DetectValidationType("contact_email", "string"); got != core.TypeEmail {
		t.Errorf("expected the more specific 'email' token to win over 'contact', got %v", got)
	}
}

func TestDetectValidationTypeDefaultsToString(t *testing.T) {
	if got := DetectValidationType("widget_id", "string"); got != core.TypeString {
		t.Errorf("expected an unrecognized key/descriptor to default to string, got %v", got)
	}
}

func TestDetectValidationTypeObjectDescriptor(t *testing.T) {
	desc := map[string]interface{}{"type": "currency"}
	if got := DetectValidationType("total", desc); got != core.TypeCurrency {
		t.Errorf("expected an object descriptor's 'type' field to be honored, got %v", got)
	}
}

func TestIsOptionalDefaultsFalse(t *testing.T) {
	if IsOptional("string") {
		t.Error("expected a plain string descriptor to default to required")
	}
}

func TestIsOptionalHonorsExplicitFlag(t *testing.T) {
	desc := map[string]interface{}{"type": "string", "optional": true}
	if !IsOptional(desc) {
		t.Error("expected an explicit optional:true descriptor to be honored")
	}
}

func TestDetectFormatJSON(t *testing.T) {
	if got := DetectFormat(`  {"a": 1}`); got != "json" {
		t.Errorf("expected json, got %q", got)
	}
}

func TestDetectFormatHTML(t *testing.T) {
	if got := DetectFormat("<div><span>hi</span></div>"); got != "html" {
		t.Errorf("expected html, got %q", got)
	}
}

func TestDetectFormatCSVLike(t *testing.T) {
	if got := DetectFormat("name,email,phone\nJane,jane@x.com,555"); got != "csv-like" {
		t.Errorf("expected csv-like, got %q", got)
	}
}

func TestDetectFormatText(t *testing.T) {
	if got := DetectFormat("Just a plain sentence with no structure"); got != "text" {
		t.Errorf("expected text, got %q", got)
	}
}

func TestDetectFormatUnknownForBlank(t *testing.T) {
	if got := DetectFormat("   "); got != "unknown" {
		t.Errorf("expected unknown for blank input, got %q", got)
	}
}

func TestEstimateComplexityTiers(t *testing.T) {
	if got := EstimateComplexity(2, 500); got != core.ComplexityLow {
		t.Errorf("expected low complexity, got %v", got)
	}
	if got := EstimateComplexity(8, 10000); got != core.ComplexityMedium {
		t.Errorf("expected medium complexity, got %v", got)
	}
	if got := EstimateComplexity(20, 50000); got != core.ComplexityHigh {
		t.Errorf("expected high complexity, got %v", got)
	}
}

func TestEstimateTokenCostCapsAt2000(t *testing.T) {
	if got := EstimateTokenCost(100000, 200); got != 2000 {
		t.Errorf("expected the token estimate to cap at 2000, got %d", got)
	}
}

func TestIsHeadingRecognizesTrailingColonLabel(t *testing.T) {
	if !isHeading("Contact Info:") {
		t.Error("expected a short trailing-colon line to be recognized as a heading")
	}
}

func TestIsHeadingRejectsLongLine(t *testing.T) {
	long := "This line has way more than eight words in it and should not count:"
	if isHeading(long) {
		t.Error("expected a line with more than 8 words to be rejected as a heading")
	}
}

func TestIsHeadingRecognizesAllCaps(t *testing.T) {
	if !isHeading("BILLING ADDRESS") {
		t.Error("expected an all-caps line to be recognized as a heading")
	}
}

func TestSegmentStructuredTextSplitsOnHeadings(t *testing.T) {
	input := "Header junk\nCONTACT INFO\nname is jane\nemail is jane@x.com\nBILLING\ncard ends in 4111"
	sections := SegmentStructuredText(input)

	if len(sections) != 3 {
		t.Fatalf("expected 3 sections (implicit root + two headings), got %d: %+v", len(sections), sections)
	}
	if sections[1].Heading != "CONTACT INFO" {
		t.Errorf("expected second section heading 'CONTACT INFO', got %q", sections[1].Heading)
	}
	if sections[2].Heading != "BILLING" {
		t.Errorf("expected third section heading 'BILLING', got %q", sections[2].Heading)
	}
}

func TestSegmentStructuredTextDropsBlankRoot(t *testing.T) {
	input := "HEADING\nbody line"
	sections := SegmentStructuredText(input)
	if len(sections) != 1 {
		t.Fatalf("expected the blank implicit root section to be dropped, got %d sections: %+v", len(sections), sections)
	}
}

func TestDetectSystemContextMatchesFieldsAndInstructions(t *testing.T) {
	schema := core.OutputSchema{"lead_name": "string", "contact_email": "email"}
	ctx := DetectSystemContext(schema, "track this sales lead through the pipeline")
	if ctx == nil {
		t.Fatal("expected a detected context for CRM-flavored schema and instructions")
	}
	if ctx.ID != "crm" {
		t.Errorf("expected crm context, got %q", ctx.ID)
	}
	if ctx.Confidence < contextConfidenceFloor {
		t.Errorf("expected confidence to clear the floor, got %v", ctx.Confidence)
	}
}

func TestDetectSystemContextReturnsNilBelowFloor(t *testing.T) {
	schema := core.OutputSchema{"widget_id": "string"}
	ctx := DetectSystemContext(schema, "")
	if ctx != nil {
		t.Errorf("expected no context match for unrelated schema/instructions, got %+v", ctx)
	}
}

func TestDetectSystemContextPicksHighestConfidenceAmongMultipleMatches(t *testing.T) {
	schema := core.OutputSchema{
		"invoice_amount": "currency",
		"tax":            "currency",
		"account_number": "string",
		"lead":           "string",
	}
	ctx := DetectSystemContext(schema, "generate the invoice and record the payment in the ledger")
	if ctx == nil {
		t.Fatal("expected a match")
	}
	if ctx.ID != "finance" {
		t.Errorf("expected finance to outscore crm given three matched finance fields vs two crm fields, got %q", ctx.ID)
	}
}
