package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/pageiter/errors"
)

type pagingConfig struct {
	BatchSize      int    `mapstructure:"batch_size" validate:"gt=0"`
	MaxQueueLength int    `mapstructure:"max_queue_length" validate:"gt=0"`
	Mode           string `json:"mode" validate:"omitempty,oneof=sync async"`
	RetryLimit     int    `validate:"gte=0"`
}

func TestValidateStructValid(t *testing.T) {
	if err := Validate(pagingConfig{BatchSize: 100, MaxQueueLength: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateStructFieldNames(t *testing.T) {
	err := Validate(pagingConfig{BatchSize: 0, MaxQueueLength: -1, Mode: "batch", RetryLimit: -2})
	if err == nil {
		t.Fatal("expected error")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT AppError, got %v", err)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 4 {
		t.Fatalf("expected 4 field errors, got %v", appErr.Details["fields"])
	}

	want := []string{"batch_size", "max_queue_length", "mode", "retry_limit"}
	for i, f := range fields {
		if f.Field != want[i] {
			t.Errorf("field %d = %q, want %q", i, f.Field, want[i])
		}
	}
	if fields[0].Message != "must be greater than 0" {
		t.Errorf("unexpected message %q", fields[0].Message)
	}
	if !strings.Contains(appErr.Message, "mode: must be one of: sync async") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestValidatorChain(t *testing.T) {
	tests := []struct {
		name   string
		build  func() *Validator
		fields []string
	}{
		{"all pass", func() *Validator { return New().Min("skip", 0, 0).Positive("limit", 5) }, nil},
		{"negative skip", func() *Validator { return New().Min("skip", -1, 0) }, []string{"skip"}},
		{"zero batch", func() *Validator { return New().Positive("batch_size", 0) }, []string{"batch_size"}},
		{"one of", func() *Validator { return New().OneOf("format", "xml", []string{"json", "ndjson"}) }, []string{"format"}},
		{"empty one of passes", func() *Validator { return New().OneOf("format", "", []string{"json"}) }, nil},
		{"custom", func() *Validator { return New().Custom(false, "order", "unknown column") }, []string{"order"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := tc.build()
			if len(v.Errors()) != len(tc.fields) {
				t.Fatalf("got errors %v, want fields %v", v.Errors(), tc.fields)
			}
			for i, f := range tc.fields {
				if v.Errors()[i].Field != f {
					t.Errorf("field %d = %q, want %q", i, v.Errors()[i].Field, f)
				}
			}
			if (v.Err() != nil) != (len(tc.fields) > 0) {
				t.Errorf("Err() = %v", v.Err())
			}
		})
	}
}

func TestValidatorErrIsNilInterface(t *testing.T) {
	var err error = New().Err()
	if err != nil {
		t.Fatalf("expected untyped nil, got %#v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	for in, want := range map[string]string{
		"BatchSize":  "batch_size",
		"Limit":      "limit",
		"itemsTotal": "items_total",
	} {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
