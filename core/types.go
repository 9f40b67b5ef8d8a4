package core

import "time"

// ValidationType is the closed set of field types the Architect and
// Extractor understand.
type ValidationType string

const (
	TypeString         ValidationType = "string"
	TypeNumber         ValidationType = "number"
	TypeBoolean        ValidationType = "boolean"
	TypeEmail          ValidationType = "email"
	TypePhone          ValidationType = "phone"
	TypeDate           ValidationType = "date"
	TypeISODate        ValidationType = "iso_date"
	TypeURL            ValidationType = "url"
	TypeStringArray    ValidationType = "string_array"
	TypeNumberArray    ValidationType = "number_array"
	TypeCurrency       ValidationType = "currency"
	TypePercentage     ValidationType = "percentage"
	TypeAddress        ValidationType = "address"
	TypeName           ValidationType = "name"
	TypeObject         ValidationType = "object"
	TypeCustom         ValidationType = "custom"
)

// SearchStep is one field's worth of instructions emitted by the Architect.
// Immutable once emitted: the Extractor reads it but never mutates it.
type SearchStep struct {
	TargetKey         string         `json:"targetKey"`
	Description       string         `json:"description"`
	SearchInstruction string         `json:"searchInstruction"`
	ValidationType    ValidationType `json:"validationType"`
	IsRequired        bool           `json:"isRequired"`
}

// PlanStrategy is metadata only in this implementation (spec §9 Open
// Question #1, resolved in DESIGN.md): the Extractor always executes
// sequentially regardless of the value stored here.
type PlanStrategy string

const (
	StrategySequential PlanStrategy = "sequential"
	StrategyParallel    PlanStrategy = "parallel"
	StrategyAdaptive    PlanStrategy = "adaptive"
)

// PlanComplexity is a coarse cost tier estimated by the heuristics package.
type PlanComplexity string

const (
	ComplexityLow    PlanComplexity = "low"
	ComplexityMedium PlanComplexity = "medium"
	ComplexityHigh   PlanComplexity = "high"
)

// PlanOrigin records which stage produced the plan currently attached to a
// session or response.
type PlanOrigin string

const (
	OriginHeuristic PlanOrigin = "heuristic"
	OriginModel     PlanOrigin = "model"
	OriginCached    PlanOrigin = "cached"
)

// DetectedSystemContext is heuristics' guess at the business domain the
// input/schema/instructions belong to (ecommerce, crm, finance, ...). It
// colours Architect prompts and resolver validation hints.
type DetectedSystemContext struct {
	ID                     string   `json:"id"`
	Label                  string   `json:"label"`
	Confidence             float64  `json:"confidence"`
	MatchedFields          []string `json:"matchedFields"`
	MatchedInstructionTerms []string `json:"matchedInstructionTerms"`
	Rationale              string   `json:"rationale"`
}

// PlanMetadata carries everything about a plan besides its steps.
type PlanMetadata struct {
	DetectedFormat    string                 `json:"detectedFormat"`
	Complexity        PlanComplexity         `json:"complexity"`
	EstimatedTokens   int                    `json:"estimatedTokens"`
	Origin            PlanOrigin             `json:"origin"`
	PlannerConfidence float64                `json:"plannerConfidence,omitempty"`
	Context           *DetectedSystemContext `json:"context,omitempty"`
}

// SearchPlan is the declarative instruction set the Extractor executes.
type SearchPlan struct {
	ID                  string         `json:"id"`
	Version             int            `json:"version"`
	Steps               []SearchStep   `json:"steps"`
	Strategy            PlanStrategy   `json:"strategy"`
	ConfidenceThreshold float64        `json:"confidenceThreshold"`
	Metadata            PlanMetadata   `json:"metadata"`
}

// Clone returns a deep copy of the plan. Used whenever a plan crosses a
// cache or session boundary so no consumer can mutate a shared plan in
// place (spec §5 shared-resource policy).
func (p *SearchPlan) Clone() *SearchPlan {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Steps = make([]SearchStep, len(p.Steps))
	copy(cp.Steps, p.Steps)
	if p.Metadata.Context != nil {
		ctx := *p.Metadata.Context
		ctx.MatchedFields = append([]string(nil), p.Metadata.Context.MatchedFields...)
		ctx.MatchedInstructionTerms = append([]string(nil), p.Metadata.Context.MatchedInstructionTerms...)
		cp.Metadata.Context = &ctx
	}
	return &cp
}

// SchemaDescriptor is intentionally permissive: a string hint ("email"), an
// explicit object ({type, optional}), or an arbitrary nested example shape.
// Heuristics is the only package that introspects it.
type SchemaDescriptor = interface{}

// OutputSchema maps a field name to its descriptor. Go maps do not preserve
// insertion order, so callers that need order-preserving iteration pass the
// field order alongside this map (see ParseRequest.SchemaOrder).
type OutputSchema map[string]SchemaDescriptor

// LeanLLMRuntimeOptions tunes the optional LLM fallback/rewrite path for a
// single request, overriding session/facade defaults.
type LeanLLMRuntimeOptions struct {
	MaxInvocationsPerParse int     `json:"maxInvocationsPerParse,omitempty"`
	MaxTokensPerParse      int     `json:"maxTokensPerParse,omitempty"`
	MaxInputCharacters     int     `json:"maxInputCharacters,omitempty"`
	ConfidenceFloor        float64 `json:"confidenceFloor,omitempty"`
}

// ParseOptions are the per-request overrides a caller may supply.
type ParseOptions struct {
	Timeout             time.Duration          `json:"timeout,omitempty"`
	Retries             int                    `json:"retries,omitempty"`
	ValidateOutput      bool                   `json:"validateOutput,omitempty"`
	IncludeMetadata     bool                   `json:"includeMetadata,omitempty"`
	ConfidenceThreshold *float64               `json:"confidenceThreshold,omitempty"`
	LeanLLM             *LeanLLMRuntimeOptions `json:"leanLLM,omitempty"`
}

// ParseRequest is the immutable caller input to one parse. SchemaOrder
// preserves the insertion order of OutputSchema's keys, since Go maps do
// not, and the invariant in spec §8 ("one step per schema key, preserving
// insertion order") depends on it.
type ParseRequest struct {
	InputData    string       `json:"inputData"`
	OutputSchema OutputSchema `json:"outputSchema"`
	SchemaOrder  []string     `json:"-"`
	Instructions string       `json:"instructions,omitempty"`
	Options      ParseOptions `json:"options,omitempty"`
}

// ParseMetadata is the envelope of everything about how a parse ran.
type ParseMetadata struct {
	ArchitectPlan      *SearchPlan                `json:"architectPlan"`
	Confidence         float64                    `json:"confidence"`
	TokensUsed         int                        `json:"tokensUsed"`
	ProcessingTimeMs   int64                      `json:"processingTimeMs"`
	ArchitectTokens    int                        `json:"architectTokens"`
	ExtractorTokens    int                        `json:"extractorTokens"`
	RequestID          string                     `json:"requestId"`
	Timestamp          time.Time                  `json:"timestamp"`
	Diagnostics        []ParseDiagnostic          `json:"diagnostics"`
	StageBreakdown     StageBreakdown             `json:"stageBreakdown"`
	Fallback           *LeanLLMFallbackUsageSummary `json:"fallback,omitempty"`
}

// StageBreakdown times each pipeline stage in milliseconds.
type StageBreakdown struct {
	Preprocess  int64 `json:"preprocess,omitempty"`
	Architect   int64 `json:"architect"`
	Extractor   int64 `json:"extractor"`
	Postprocess int64 `json:"postprocess,omitempty"`
}

// ParseResponse is the top-level result of a parse.
type ParseResponse struct {
	Success    bool                   `json:"success"`
	ParsedData map[string]interface{} `json:"parsedData"`
	Metadata   ParseMetadata          `json:"metadata"`
	Error      *ParseError            `json:"error,omitempty"`
}

// ParseratorPlanCacheEntry is the canonical persisted shape of a cached plan.
type ParseratorPlanCacheEntry struct {
	Plan             *SearchPlan       `json:"plan"`
	Confidence       float64           `json:"confidence"`
	Diagnostics      []ParseDiagnostic `json:"diagnostics"`
	TokensUsed       int               `json:"tokensUsed"`
	ProcessingTimeMs int64             `json:"processingTimeMs"`
	UpdatedAt        time.Time         `json:"updatedAt"`
	Profile          string            `json:"profile,omitempty"`
}

// Clone deep-copies the entry so cache implementations can safely hand out
// copies on get/set without a consumer mutating shared state (spec §4.4).
func (e *ParseratorPlanCacheEntry) Clone() *ParseratorPlanCacheEntry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Plan = e.Plan.Clone()
	cp.Diagnostics = append([]ParseDiagnostic(nil), e.Diagnostics...)
	return &cp
}

// LeanLLMFallbackFieldStatus is one field's entry in a fallback usage summary.
type LeanLLMFallbackFieldStatus struct {
	Field              string  `json:"field"`
	Action             string  `json:"action"` // invoked, reused, skipped
	Resolved           bool    `json:"resolved,omitempty"`
	Confidence         float64 `json:"confidence,omitempty"`
	TokensUsed         int     `json:"tokensUsed,omitempty"`
	Reason             string  `json:"reason,omitempty"`
	SourceField        string  `json:"sourceField,omitempty"`
	SharedKeys         []string `json:"sharedKeys,omitempty"`
	PlannerConfidence  float64 `json:"plannerConfidence,omitempty"`
	Gate               float64 `json:"gate,omitempty"`
	Error              string  `json:"error,omitempty"`
	LimitType          string  `json:"limitType,omitempty"`
	Limit              int     `json:"limit,omitempty"`
	CurrentInvocations int     `json:"currentInvocations,omitempty"`
	CurrentTokens      int     `json:"currentTokens,omitempty"`
}

// LeanLLMFallbackUsageSummary is the per-parse bookkeeping for the optional
// LLM field-fallback resolver, published into ParseMetadata.Fallback.
type LeanLLMFallbackUsageSummary struct {
	TotalInvocations       int                          `json:"totalInvocations"`
	ResolvedFields         int                          `json:"resolvedFields"`
	ReusedResolutions      int                          `json:"reusedResolutions"`
	SkippedByPlanConfidence int                         `json:"skippedByPlanConfidence"`
	SkippedByLimits        int                          `json:"skippedByLimits"`
	SharedExtractions      int                          `json:"sharedExtractions"`
	TotalTokens            int                          `json:"totalTokens"`
	PlanConfidenceGate     float64                      `json:"planConfidenceGate,omitempty"`
	MaxInvocationsPerParse int                           `json:"maxInvocationsPerParse,omitempty"`
	MaxTokensPerParse      int                           `json:"maxTokensPerParse,omitempty"`
	Fields                 []LeanLLMFallbackFieldStatus `json:"fields"`
}
