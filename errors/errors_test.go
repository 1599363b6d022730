package errors

import (
	"fmt"
	"testing"
)

func TestError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeNotFound, "project not found")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeStorageWrite, "write failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeStorageWrite) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Is sees through fmt wrapping
	outer := fmt.Errorf("save: %w", wrapped)
	if !Is(outer, ErrCodeStorageWrite) {
		t.Error("Is should unwrap fmt.Errorf chains")
	}

	// Test WithDetail
	detailed := err.WithDetail("kind", "project").WithDetail("id", "p1")
	if detailed.Details["kind"] != "project" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := NotFound("workflow", "w1")
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Details["id"] != "w1" {
		t.Error("NotFound should include id detail")
	}

	err = StateMigration("app", 1, 3, fmt.Errorf("bad step"))
	if err.Code != ErrCodeStateMigration {
		t.Errorf("expected code %s, got %s", ErrCodeStateMigration, err.Code)
	}
	if err.Details["from"] != 1 || err.Details["to"] != 3 {
		t.Error("StateMigration should include version details")
	}

	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("GetCode should be empty for plain errors")
	}
}
