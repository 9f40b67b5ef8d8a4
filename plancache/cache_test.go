package plancache

import (
	"testing"

	"github.com/Domusgpt/Parserator-8b-alpha-sub000/core"
)

func TestDeriveKeyIsOrderIndependent(t *testing.T) {
	a := DeriveKey(KeyInput{
		Profile: "lean-agent",
		Schema:  core.OutputSchema{"name": "name", "email": "email"},
	})
	b := DeriveKey(KeyInput{
		Profile: "lean-agent",
		Schema:  core.OutputSchema{"email": "email", "name": "name"},
	})
	if a != b {
		t.Errorf("expected map-key order to not affect the derived cache key: %s != %s", a, b)
	}
}

func TestDeriveKeyDiffersOnConfidenceThreshold(t *testing.T) {
	low := 0.3
	high := 0.9
	schema := core.OutputSchema{"name": "name"}

	a := DeriveKey(KeyInput{Profile: "lean-agent", Schema: schema, Options: core.ParseOptions{ConfidenceThreshold: &low}})
	b := DeriveKey(KeyInput{Profile: "lean-agent", Schema: schema, Options: core.ParseOptions{ConfidenceThreshold: &high}})
	if a == b {
		t.Error("expected different confidenceThreshold values to derive different cache keys")
	}
}

func TestDeriveKeyDefaultsEmptyProfile(t *testing.T) {
	schema := core.OutputSchema{"name": "name"}
	a := DeriveKey(KeyInput{Profile: "", Schema: schema})
	b := DeriveKey(KeyInput{Profile: "default", Schema: schema})
	if a != b {
		t.Error("expected an empty profile to canonicalize to \"default\"")
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	input := KeyInput{
		Profile:      "vibe-coder",
		Schema:       core.OutputSchema{"a": "string", "b": "number"},
		Instructions: "extract carefully",
	}
	if DeriveKey(input) != DeriveKey(input) {
		t.Error("expected DeriveKey to be a pure function of its input")
	}
}
