package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestDatabaseError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDatabaseError("write", "failed to save dashboard", cause)

	if !errors.Is(err, cause) {
		t.Fatal("expected errors.Is to reach the cause")
	}
	if err.Error() != "failed to save dashboard: connection reset" {
		t.Errorf("unexpected message: %q", err.Error())
	}
	if err.Operation != "write" {
		t.Errorf("unexpected operation: %q", err.Operation)
	}
}

func TestExternalServiceError_As(t *testing.T) {
	wrapped := fmt.Errorf("refresh: %w", NewExternalServiceError("finnhub", "rate limited", true, nil))

	var ee *ExternalServiceError
	if !errors.As(wrapped, &ee) {
		t.Fatalf("expected ExternalServiceError, got %T", wrapped)
	}
	if !ee.Transient || ee.Service != "finnhub" || ee.Message != "rate limited" {
		t.Errorf("unexpected error: %+v", ee)
	}
}

func TestCode(t *testing.T) {
	cases := map[string]error{
		"not_found":           NewNotFoundError("widget not found"),
		"invalid_input":       fmt.Errorf("wrapped: %w", NewValidationError("bad")),
		"service_unavailable": NewExternalServiceError("alphaVantage", "down", false, nil),
		"internal_error":      NewDatabaseError("write", "save failed", nil),
	}
	for want, err := range cases {
		if got := Code(err); got != want {
			t.Errorf("Code(%T) = %q, want %q", err, got, want)
		}
	}
	if got := Code(errors.New("boom")); got != "internal_error" {
		t.Errorf("Code(plain) = %q", got)
	}
}
