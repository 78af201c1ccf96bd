package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := ErrInvalidTransition.WithInternal(inner)

	if !errors.Is(err, inner) {
		t.Fatal("expected errors.Is to match the wrapped error")
	}
	if err.Code != ErrInvalidTransition.Code {
		t.Fatalf("expected code %q got %q", ErrInvalidTransition.Code, err.Code)
	}
}

func TestFromErrorWithAppError(t *testing.T) {
	err := FromError(ErrForbidden)
	if err != ErrForbidden {
		t.Fatal("expected sentinel to survive FromError")
	}
}

func TestFromErrorWithGenericError(t *testing.T) {
	err := FromError(errors.New("database down"))
	if err.Code != ErrInternalServer.Code {
		t.Fatalf("expected internal server code got %q", err.Code)
	}
	if err.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", err.StatusCode)
	}
}

func TestNewValidation(t *testing.T) {
	err := NewValidation("rejection reason must be at least 10 characters")
	if err.Code != "VALIDATION_ERROR" {
		t.Fatalf("unexpected code %q", err.Code)
	}
	if err.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", err.StatusCode)
	}
}

func TestWithMessageKeepsCode(t *testing.T) {
	err := ErrInvalidAssignee.WithMessage("user u-2 is not a local authority")
	if err.Code != ErrInvalidAssignee.Code {
		t.Fatalf("unexpected code %q", err.Code)
	}
	if err.Message == ErrInvalidAssignee.Message {
		t.Fatal("expected message override")
	}
}
