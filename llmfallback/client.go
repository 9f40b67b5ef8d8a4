// Package llmfallback implements the LLM Fallback Resolver (spec §4.7): a
// budgeted, cooldown-gated, cache-memoized escalation path that asks an
// external model to resolve fields the heuristic resolver chain could not.
// Grounded on gomind's orchestration/hybrid_resolver.go two-phase
// cheap-then-expensive structure and orchestration/task_worker.go budget
// accounting.
package llmfallback

import "context"

// FieldRequest describes one field the client is being asked to resolve.
type FieldRequest struct {
	TargetKey         string
	Description       string
	SearchInstruction string
	ValidationType    string
	IsRequired        bool
}

// ClientRequest is the payload sent to a LeanLLMClient for one escalation
// call. Fields beyond Primary are the sibling "missing-required" targets a
// single call may resolve together.
type ClientRequest struct {
	InputData    string
	Instructions string
	Primary      FieldRequest
	Fields       []FieldRequest
}

// FieldValue is one resolved (or partially resolved) field in a client
// response.
type FieldValue struct {
	Value      interface{}
	Confidence float64
	Rationale  string
}

// ClientResponse is what a LeanLLMClient returns for one escalation call.
// Values holds resolutions for the requested Fields; SharedExtractions
// holds extra fields the model happened to resolve while it was at it
// (spec §4.7 "sharedExtractions").
type ClientResponse struct {
	Values            map[string]FieldValue
	SharedExtractions map[string]FieldValue
	TokensUsed        int
}

// Client is the external collaborator contract this resolver escalates to.
// A real implementation wraps an LLM API call; tests use a stub.
type Client interface {
	ResolveFields(ctx context.Context, req ClientRequest) (*ClientResponse, error)
}
