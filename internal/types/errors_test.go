package types

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_ErrorFormat(t *testing.T) {
	appErr := &AppError{
		Code:    ErrCodeValidationMissingField,
		Message: "Missing required fields",
	}

	want := "validation_missing_required_field: Missing required fields"
	if appErr.Error() != want {
		t.Errorf("Error() = %q, want %q", appErr.Error(), want)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("unexpected EOF")
	appErr := NewAppError(ErrCodeValidationInvalidJSON, "Invalid request body", underlying)

	if !errors.Is(appErr, underlying) {
		t.Error("errors.Is should find the underlying error")
	}
	if NewAppError(ErrCodeInternalUnexpected, "x", nil).Unwrap() != nil {
		t.Error("Unwrap() should be nil without an underlying error")
	}
}

func TestAppError_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("decoding: %w", NewAppError(ErrCodeValidationInvalidJSON, "Invalid request body", nil))

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError through wrapping")
	}
	if appErr.Code != ErrCodeValidationInvalidJSON {
		t.Errorf("Code = %q, want %q", appErr.Code, ErrCodeValidationInvalidJSON)
	}
}

func TestErrorCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationMissingField, http.StatusBadRequest},
		{ErrCodeValidationInvalidJSON, http.StatusBadRequest},
		{ErrCodeInternalUnexpected, http.StatusInternalServerError},
		{ErrorCode("something_else"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := tt.code.HTTPStatus(); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
			if got := (&AppError{Code: tt.code}).HTTPStatus(); got != tt.want {
				t.Errorf("AppError.HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}
