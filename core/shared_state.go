package core

import "sync"

// Well-known keys used in the per-parse SharedState map (spec §3 "Shared
// resolver state"). Resolvers may stash additional keys. The built-in JSON
// and section resolvers memoize under their own keys
// ("resolver.json.decoded", "resolver.section.segments"); SharedKeyParsedJSON,
// SharedKeyParsedJSONFailed, SharedKeySections and SharedKeyLLMLastAttempt
// are not written by any package in this module.
const (
	SharedKeyPlan             = "plan"
	SharedKeyParsedJSON       = "parsedJSON"
	SharedKeyParsedJSONFailed = "parsedJSONFailed"
	SharedKeySections         = "sections"
	SharedKeyInstructions     = "instructions"
	SharedKeySchema           = "schema"
	SharedKeyRequestID        = "requestId"
	SharedKeySessionID        = "sessionId"
	SharedKeyProfile          = "profile"
	SharedKeyLeanLLMOptions   = "leanLLMRuntimeOptions"
	SharedKeyLLMResolved      = "llmFallbackResolved"  // map[string]llmfallback.FieldValue
	SharedKeyLLMUsage         = "llmFallbackUsage"      // *LeanLLMFallbackUsageSummary
	SharedKeyLLMInFlight      = "llmFallbackInFlight"   // <-chan struct{}
	SharedKeyLLMLastAttempt   = "llmFallbackLastAttempt" // time.Time
)

// FieldMarkerPrefix namespaces the per-field "was this resolved" markers
// the Extractor records for each step, so the LLM fallback resolver can
// tell which required fields are still outstanding.
const FieldMarkerPrefix = "field:"

// SharedState is the mutable, per-parse key/value map threaded through the
// resolver chain for one Extractor.Execute call. It is owned by that one
// call; under this module's cooperative scheduling model at most one
// resolver is ever actively mutating it, but the mutex keeps it safe if a
// future caller parallelizes step execution (spec §9 Open Question #1).
type SharedState struct {
	mu   sync.Mutex
	data map[string]interface{}
}

// NewSharedState creates an empty shared state map.
func NewSharedState() *SharedState {
	return &SharedState{data: make(map[string]interface{})}
}

func (s *SharedState) Get(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

func (s *SharedState) Set(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
}

func (s *SharedState) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
}

// GetOrSet returns the existing value for key, or stores and returns value
// if absent. Used for idempotent memoization (parsed-JSON cache, section
// segmentation cache).
func (s *SharedState) GetOrSet(key string, value interface{}) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.data[key]; ok {
		return v, true
	}
	s.data[key] = value
	return value, false
}

// MarkField records that targetKey has a resolved-field marker, so later
// resolvers (notably the LLM fallback) can see which required fields are
// still pending without rescanning parsedData.
func (s *SharedState) MarkField(targetKey string) {
	s.Set(FieldMarkerPrefix+targetKey, true)
}

func (s *SharedState) FieldMarked(targetKey string) bool {
	v, ok := s.Get(FieldMarkerPrefix + targetKey)
	if !ok {
		return false
	}
	marked, _ := v.(bool)
	return marked
}
