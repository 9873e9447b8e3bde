package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	err := New("TEST_001", "test error")

	if err.Code != "TEST_001" {
		t.Errorf("expected code TEST_001, got %s", err.Code)
	}
	if err.Message != "test error" {
		t.Errorf("expected message 'test error', got %s", err.Message)
	}
}

func TestAppErrorWithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := New("TEST_001", "test error", cause)

	if err.Cause != cause {
		t.Errorf("expected cause to be set")
	}
	if !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected error string to contain cause, got %s", err.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := New("TEST_001", "test error", cause)

	if err.Unwrap() != cause {
		t.Errorf("expected unwrap to return cause")
	}
}

func TestSentinelMatchesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("save token: %w", ErrStorageUnavailable.WithCause(fmt.Errorf("permission denied")))

	if !stderrors.Is(err, ErrStorageUnavailable) {
		t.Error("expected wrapped storage error to match sentinel")
	}
	if stderrors.Is(err, ErrNetwork) {
		t.Error("storage error must not match network sentinel")
	}
}

func TestIsAppError(t *testing.T) {
	appErr := New("TEST_001", "test error")
	stdErr := fmt.Errorf("standard error")

	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if !IsAppError(fmt.Errorf("outer: %w", appErr)) {
		t.Error("expected IsAppError to see through wrapping")
	}
	if IsAppError(stdErr) {
		t.Error("expected IsAppError to return false for standard error")
	}
}

func TestGetCode(t *testing.T) {
	if GetCode(ErrCircuitOpen) != "API_004" {
		t.Errorf("expected code API_004, got %s", GetCode(ErrCircuitOpen))
	}
	if GetCode(fmt.Errorf("standard error")) != "UNKNOWN" {
		t.Error("expected code UNKNOWN for standard error")
	}
}

func TestWrap(t *testing.T) {
	cause := fmt.Errorf("underlying error")
	err := Wrap(cause, "WRAP_001", "wrapped error")

	if err.Code != "WRAP_001" {
		t.Errorf("expected code WRAP_001, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := ErrRequestRejected.WithMessage("Appointment slot taken")

	if err.Code != ErrRequestRejected.Code {
		t.Errorf("expected code %s, got %s", ErrRequestRejected.Code, err.Code)
	}
	if ErrRequestRejected.Message != "request failed" {
		t.Error("sentinel must not be mutated")
	}
}
