package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAppError_New_Retryable(t *testing.T) {
	err := New(ErrCodeTimeout, "timed out", http.StatusGatewayTimeout)
	if !err.Retryable {
		t.Error("TIMEOUT should be retryable")
	}
	if err.HTTPStatus != http.StatusGatewayTimeout {
		t.Errorf("expected status %d, got %d", http.StatusGatewayTimeout, err.HTTPStatus)
	}
}

func TestAppError_New_NotRetryable(t *testing.T) {
	err := New(ErrCodeWork, "boom", http.StatusInternalServerError)
	if err.Retryable {
		t.Error("WORK_ERROR should not be retryable")
	}
}

func TestStoreError(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := StoreError("find", cause)
	if err.Code != ErrCodeStore {
		t.Errorf("expected STORE_ERROR, got %s", err.Code)
	}
	if !err.Retryable {
		t.Error("store errors should be retryable")
	}
	if err.Details["operation"] != "find" {
		t.Errorf("expected operation=find, got %v", err.Details["operation"])
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to reach the cause")
	}
	if !strings.Contains(err.Error(), "connection reset") {
		t.Errorf("expected cause in message, got %q", err.Error())
	}
}

func TestWorkError(t *testing.T) {
	err := WorkError(7, fmt.Errorf("bad record"))
	if err.Code != ErrCodeWork {
		t.Errorf("expected WORK_ERROR, got %s", err.Code)
	}
	if err.Details["item"] != 7 {
		t.Errorf("expected item=7, got %v", err.Details["item"])
	}
}

func TestIsStoreError_IsWorkError(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		store bool
		work  bool
	}{
		{"nil", nil, false, false},
		{"plain", fmt.Errorf("x"), false, false},
		{"store", StoreError("count", nil), true, false},
		{"work", WorkError(1, nil), false, true},
		{"wrapped store", fmt.Errorf("ctx: %w", StoreError("find", nil)), true, false},
		{"work caused by store", WorkError(1, StoreError("find", nil)), true, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsStoreError(tc.err); got != tc.store {
				t.Errorf("IsStoreError = %v, want %v", got, tc.store)
			}
			if got := IsWorkError(tc.err); got != tc.work {
				t.Errorf("IsWorkError = %v, want %v", got, tc.work)
			}
		})
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(StoreError("count", nil)) {
		t.Error("expected store error to be retryable")
	}
	if IsRetryable(InvalidInput("batch_size", "must be positive")) {
		t.Error("expected invalid input to not be retryable")
	}
	if IsRetryable(fmt.Errorf("plain")) {
		t.Error("plain errors are not retryable")
	}
}

func TestAppError_WithDetail(t *testing.T) {
	err := Internal(nil).WithDetail("run_id", "abc")
	if err.Details["run_id"] != "abc" {
		t.Errorf("expected run_id detail, got %v", err.Details)
	}
}

func TestInvalidInput_EmptyField(t *testing.T) {
	err := InvalidInput("", "bad")
	if _, ok := err.Details["field"]; ok {
		t.Error("expected no field key when field is empty")
	}
	if err.HTTPStatus != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.HTTPStatus)
	}
}

func TestToResponse(t *testing.T) {
	resp := StoreError("count", nil).ToResponse()
	if resp.Error.Code != ErrCodeStore {
		t.Errorf("expected STORE_ERROR, got %s", resp.Error.Code)
	}
	if !resp.Error.Retryable {
		t.Error("expected retryable in response")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil) != nil {
		t.Error("expected nil for nil error")
	}
	work := WorkError(2, nil)
	if got := FromError(fmt.Errorf("wrap: %w", work)); got != work {
		t.Error("expected wrapped AppError to be returned as is")
	}
	if got := FromError(fmt.Errorf("plain")); got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
}
