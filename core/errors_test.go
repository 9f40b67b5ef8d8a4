package core

import (
	"errors"
	"testing"
)

func TestNewParseErrorDerivesCode(t *testing.T) {
	cases := []struct {
		sentinel error
		code     string
	}{
		{ErrInvalidRequest, "INVALID_REQUEST"},
		{ErrArchitectFailed, "ARCHITECT_FAILED"},
		{ErrMissingRequiredFields, "MISSING_REQUIRED_FIELDS"},
		{ErrLowConfidence, "LOW_CONFIDENCE"},
		{errors.New("something else"), "UNKNOWN_FAILURE"},
	}
	for _, tc := range cases {
		perr := NewParseError(tc.sentinel, StageValidation, "message", "", "")
		if perr.Code != tc.code {
			t.Errorf("sentinel %v: expected code %s, got %s", tc.sentinel, tc.code, perr.Code)
		}
		if !errors.Is(perr, tc.sentinel) {
			t.Errorf("expected errors.Is(perr, %v) to hold via Unwrap", tc.sentinel)
		}
	}
}

func TestParseErrorMessageIncludesDetails(t *testing.T) {
	perr := NewParseError(ErrInvalidRequest, StageValidation, "bad input", "field X missing", "")
	msg := perr.Error()
	if msg == "" {
		t.Fatal("expected non-empty error message")
	}
	if !errors.Is(perr, ErrInvalidRequest) {
		t.Error("expected wrapped sentinel to be preserved")
	}
}

func TestRecoverable(t *testing.T) {
	if !Recoverable(ErrMissingRequiredFields) {
		t.Error("expected ErrMissingRequiredFields to be recoverable")
	}
	if !Recoverable(ErrLowConfidence) {
		t.Error("expected ErrLowConfidence to be recoverable")
	}
	if Recoverable(ErrArchitectFailed) {
		t.Error("expected ErrArchitectFailed to not be recoverable")
	}
}

func TestFrameworkErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	fe := &FrameworkError{Op: "queue.run", Err: inner}
	if !errors.Is(fe, inner) {
		t.Error("expected FrameworkError to unwrap to inner error")
	}
	if fe.Error() == "" {
		t.Error("expected non-empty message")
	}
}
