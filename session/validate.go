package session

import (
	"strings"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

// ValidateRequest enforces the request constraints from spec §6: non-empty
// trimmed inputData within maxInputLength, 1..maxSchemaFields schema keys,
// and an in-range confidenceThreshold if present. Shared by Session.Parse
// and the one-shot facade so both paths fail the same way.
func ValidateRequest(req core.ParseRequest, cfg *core.Config) *core.ParseError {
	if strings.TrimSpace(req.InputData) == "" {
		return core.NewParseError(core.ErrInvalidRequest, core.StageValidation,
			"inputData must be a non-empty string", "", "provide a non-empty inputData")
	}
	if len(req.InputData) > cfg.MaxInputLength {
		return core.NewParseError(core.ErrInvalidRequest, core.StageValidation,
			"inputData exceeds maxInputLength", "", "shorten inputData or raise maxInputLength")
	}
	if len(req.OutputSchema) == 0 {
		return core.NewParseError(core.ErrInvalidRequest, core.StageValidation,
			"outputSchema must have at least one field", "", "provide at least one schema field")
	}
	if len(req.OutputSchema) > cfg.MaxSchemaFields {
		return core.NewParseError(core.ErrInvalidRequest, core.StageValidation,
			"outputSchema exceeds maxSchemaFields", "", "reduce schema fields or raise maxSchemaFields")
	}
	if t := req.Options.ConfidenceThreshold; t != nil && (*t < 0 || *t > 1) {
		return core.NewParseError(core.ErrInvalidRequest, core.StageValidation,
			"options.confidenceThreshold must be in [0,1]", "", "")
	}
	return nil
}
