package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shegymz/internal/types"
)

func TestJSON_Success(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(rec, req, http.StatusOK, map[string]string{"redirectUrl": "https://example.com/?a=1&b=2"})

	if rec.Code != http.StatusOK {
		t.Errorf("status: got %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["redirectUrl"] != "https://example.com/?a=1&b=2" {
		t.Errorf("redirectUrl: got %q", body["redirectUrl"])
	}
}

func TestJSON_MarshalFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	JSON(rec, req, http.StatusOK, map[string]any{"bad": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("fallback body is not JSON: %v", err)
	}
	if resp.Code != string(types.ErrCodeInternalUnexpected) {
		t.Errorf("code: got %q", resp.Code)
	}
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		name       string
		code       types.ErrorCode
		message    string
		wantStatus int
	}{
		{"missing field", types.ErrCodeValidationMissingField, "Missing required fields", http.StatusBadRequest},
		{"invalid json", types.ErrCodeValidationInvalidJSON, "Invalid request body", http.StatusBadRequest},
		{"internal", types.ErrCodeInternalUnexpected, "Failed to initiate subscription", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req = req.WithContext(types.WithRequestID(req.Context(), "req_1"))

			Error(rec, req, types.NewAppError(tt.code, tt.message, errors.New("internal detail")))

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
			var resp APIErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if resp.Error != tt.message {
				t.Errorf("error: got %q, want %q", resp.Error, tt.message)
			}
			if resp.Code != string(tt.code) {
				t.Errorf("code: got %q, want %q", resp.Code, tt.code)
			}
			if resp.RequestID != "req_1" {
				t.Errorf("request_id: got %q", resp.RequestID)
			}
			if strings.Contains(rec.Body.String(), "internal detail") {
				t.Error("wrapped error leaked to client")
			}
		})
	}
}

func TestError_WrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	appErr := types.NewAppError(types.ErrCodeValidationMissingField, "Missing required fields", nil)
	Error(rec, req, fmt.Errorf("handler: %w", appErr))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rec.Code)
	}
}

func TestError_GenericError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", nil)

	Error(rec, req, errors.New("db password is hunter2"))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Error("generic error message leaked to client")
	}
	var resp APIErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp.Error != "an unexpected error occurred" {
		t.Errorf("error: got %q", resp.Error)
	}
}

type decodeTarget struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func decodeBody(t *testing.T, body string) (decodeTarget, error) {
	t.Helper()
	var dst decodeTarget
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	err := DecodeJSON(httptest.NewRecorder(), req, &dst)
	return dst, err
}

func assertInvalidJSON(t *testing.T, err error) {
	t.Helper()
	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T (%v)", err, err)
	}
	if appErr.Code != types.ErrCodeValidationInvalidJSON {
		t.Errorf("code: got %q, want %q", appErr.Code, types.ErrCodeValidationInvalidJSON)
	}
}

func TestDecodeJSON_Success(t *testing.T) {
	dst, err := decodeBody(t, `{"name":"Jane Doe","email":"jane@example.com"}`)
	if err != nil {
		t.Fatalf("DecodeJSON returned error: %v", err)
	}
	if dst.Name != "Jane Doe" || dst.Email != "jane@example.com" {
		t.Errorf("decoded: %+v", dst)
	}
}

func TestDecodeJSON_UnknownFieldIgnored(t *testing.T) {
	dst, err := decodeBody(t, `{"name":"Jane","newsletter":true}`)
	if err != nil {
		t.Fatalf("unknown fields should be tolerated, got %v", err)
	}
	if dst.Name != "Jane" {
		t.Errorf("name: got %q", dst.Name)
	}
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax error", `{"name":`},
		{"not json", `name=Jane`},
		{"empty body", ``},
		{"whitespace body", "   \n"},
		{"type mismatch", `{"name":42}`},
		{"array body", `[{"name":"Jane"}]`},
		{"multiple values", `{"name":"a"}{"name":"b"}`},
		{"too large", `{"name":"` + strings.Repeat("x", maxRequestBodySize) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeBody(t, tt.body)
			assertInvalidJSON(t, err)
		})
	}
}

func TestDecodeJSON_TypeMismatchDetails(t *testing.T) {
	_, err := decodeBody(t, `{"email":["a","b"]}`)

	var appErr *types.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *types.AppError, got %T", err)
	}
	if appErr.Details["field"] != "email" {
		t.Errorf("details.field: got %v", appErr.Details["field"])
	}
}

func TestDecodeJSON_NilBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Body = nil

	var dst decodeTarget
	assertInvalidJSON(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
}
