package errors

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors(t *testing.T) {
	cause := fmt.Errorf("boom")

	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad input", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"fetch", NewFetchError("failed to fetch image", cause), ErrorTypeFetch, http.StatusInternalServerError},
		{"decode", NewDecodeError("failed to decode image", cause), ErrorTypeDecode, http.StatusInternalServerError},
		{"write", NewWriteError("failed to write file", cause), ErrorTypeWrite, http.StatusInternalServerError},
		{"send", NewSendError("failed to send file", cause), ErrorTypeSend, http.StatusInternalServerError},
		{"internal", NewInternalError("unexpected", cause), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, tt.err.StatusCode)
			}
			if GetStatusCode(tt.err) != tt.wantStatus {
				t.Errorf("GetStatusCode returned %d, want %d", GetStatusCode(tt.err), tt.wantStatus)
			}
		})
	}
}

func TestAppError_ErrorIncludesCause(t *testing.T) {
	err := NewFetchError("failed to fetch image", fmt.Errorf("connection refused"))

	msg := err.Error()
	if !strings.Contains(msg, "failed to fetch image") || !strings.Contains(msg, "connection refused") {
		t.Errorf("Expected message and cause in error text, got %q", msg)
	}

	plain := NewValidationError("URL cannot be empty", nil)
	if plain.Error() != "validation: URL cannot be empty" {
		t.Errorf("Unexpected error text: %q", plain.Error())
	}
}

func TestIsType_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("filter: %w", NewDecodeError("failed to decode image", nil))

	if !IsType(wrapped, ErrorTypeDecode) {
		t.Error("Expected wrapped decode error to be classified as decode")
	}
	if IsType(wrapped, ErrorTypeFetch) {
		t.Error("Did not expect wrapped decode error to be classified as fetch")
	}
	if IsType(context.Canceled, ErrorTypeFetch) {
		t.Error("Plain errors must not match any type")
	}
}

func TestGetStatusCode_PlainError(t *testing.T) {
	if code := GetStatusCode(fmt.Errorf("plain")); code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for plain errors, got %d", code)
	}
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := NewWriteError("failed to write file", cause)
	if err.Unwrap() != cause {
		t.Error("Expected Unwrap to return the cause")
	}
}
