package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapKeepsSentinelAndInternal(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrInternalServer, cause)

	if err.Code != ErrInternalServer.Code {
		t.Errorf("code = %q, want %q", err.Code, ErrInternalServer.Code)
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped error to unwrap to its cause")
	}
	if ErrInternalServer.Internal != nil {
		t.Error("sentinel must not be mutated")
	}
}

func TestWithMessage(t *testing.T) {
	err := WithMessage(ErrExpenseNotFound, "El gasto ya no existe")
	if err.Message != "El gasto ya no existe" {
		t.Errorf("message = %q", err.Message)
	}
	if err.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", err.StatusCode)
	}
}

func TestNewValidation(t *testing.T) {
	if err := NewValidation(nil); err != nil {
		t.Fatalf("expected nil for no fields, got %v", err)
	}

	err := NewValidation([]FieldError{{Field: "amount", Message: "must be greater than 0"}})
	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T", err)
	}
	if appErr.Code != "VALIDATION_FAILED" {
		t.Errorf("code = %q", appErr.Code)
	}
	if len(appErr.Fields) != 1 || appErr.Fields[0].Field != "amount" {
		t.Errorf("fields = %+v", appErr.Fields)
	}
	if appErr.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("status = %d", appErr.StatusCode)
	}
}
