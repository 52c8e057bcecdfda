package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestAppErrorFormatting(t *testing.T) {
	err := New(ErrValidation, "name is required")

	if !strings.Contains(err.Error(), "VALIDATION_ERROR") {
		t.Errorf("Expected code in message, got %q", err.Error())
	}
	if !strings.Contains(err.Error(), "name is required") {
		t.Errorf("Expected message text, got %q", err.Error())
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	cause := stderrors.New("disk I/O error")
	err := Wrap(ErrLocalStore, "insert failed", cause)

	if !stderrors.Is(err, cause) {
		t.Error("Expected wrapped cause to be reachable via errors.Is")
	}
	if !strings.Contains(err.Error(), "disk I/O error") {
		t.Errorf("Expected cause in message, got %q", err.Error())
	}
}

func TestIsMatchesCode(t *testing.T) {
	err := New(ErrRemoteUnavailable, "mongo unreachable")

	if !Is(err, ErrRemoteUnavailable) {
		t.Error("Expected Is to match REMOTE_UNAVAILABLE")
	}
	if Is(err, ErrDuplicate) {
		t.Error("Expected Is to reject a different code")
	}
	if Is(stderrors.New("plain"), ErrDuplicate) {
		t.Error("Expected Is to reject non-AppError")
	}
}

func TestDuplicateCarriesConflictIdentity(t *testing.T) {
	err := Duplicate("clients", "name", 42)

	if !Is(err, ErrDuplicate) {
		t.Fatal("Expected DUPLICATE_RECORD code")
	}
	if got := ConflictID(err); got != 42 {
		t.Errorf("Expected conflict id 42, got %d", got)
	}
	if err.Meta["entity_type"] != "clients" {
		t.Errorf("Expected entity_type meta, got %v", err.Meta["entity_type"])
	}
}

func TestConflictIDOnForeignError(t *testing.T) {
	if got := ConflictID(stderrors.New("nope")); got != 0 {
		t.Errorf("Expected 0 for non-AppError, got %d", got)
	}
}
