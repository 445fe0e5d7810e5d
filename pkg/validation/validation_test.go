package validation

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidatorCollectsAllErrors(t *testing.T) {
	err := NewConfigValidator("sink").
		Required("label", "").
		Positive("batch_size", 0).
		NonNegative("rank_index", -2).
		NonNegativeDuration("batch_interval", -time.Second).
		MinLen("jwt_secret", "short", 32).
		Identifier("label", "bad label", ValidateLabel).
		Validate()

	if err == nil {
		t.Fatal("expected validation error")
	}

	msg := err.Error()
	for _, want := range []string{
		"sink.label: required field is empty",
		"sink.batch_size: value 0 must be positive",
		"sink.rank_index: value -2 must be non-negative",
		"sink.batch_interval: duration -1s must be non-negative",
		"sink.jwt_secret: must be at least 32 characters",
		"sink.label: ",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("missing %q in %q", want, msg)
		}
	}
}

func TestConfigValidatorWhen(t *testing.T) {
	cv := NewConfigValidator("edge")
	cv.When(false, func(cv *ConfigValidator) { cv.Required("src", "") })
	if err := cv.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cv.When(true, func(cv *ConfigValidator) { cv.MaxInt("fields", 3, 2) })
	if len(cv.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %v", cv.Errors())
	}
}

func TestValidateIdentifiers(t *testing.T) {
	valid := []string{"player", "_follow", "serve2", "A_b_C"}
	for _, v := range valid {
		if err := ValidateLabel(v); err != nil {
			t.Errorf("ValidateLabel(%q) = %v", v, err)
		}
	}

	invalid := []string{"", "2player", "player name", "p;DROP", `x"`, strings.Repeat("a", 65)}
	for _, v := range invalid {
		if err := ValidateFieldName(v); err == nil {
			t.Errorf("ValidateFieldName(%q) should fail", v)
		}
	}

	if err := ValidateSpace("basketball"); err != nil {
		t.Errorf("ValidateSpace: %v", err)
	}
}

func TestStruct(t *testing.T) {
	type target struct {
		Label     string `validate:"required"`
		BatchSize int    `validate:"min=1,max=10"`
		Mode      string `validate:"oneof=insert update delete"`
	}

	if err := Struct(target{Label: "player", BatchSize: 5, Mode: "insert"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := Struct(target{Label: "player", BatchSize: 20, Mode: "insert"})
	if err == nil || !strings.Contains(err.Error(), "BatchSize: must not exceed 10") {
		t.Errorf("got %v", err)
	}

	err = Struct(target{BatchSize: 1, Mode: "insert"})
	if err == nil || !strings.Contains(err.Error(), "Label: field is required") {
		t.Errorf("got %v", err)
	}

	err = Struct(target{Label: "x", BatchSize: 1, Mode: "upsert"})
	if err == nil || !strings.Contains(err.Error(), "Mode: must be one of [insert update delete]") {
		t.Errorf("got %v", err)
	}

	if DefaultOr(0, 2000) != 2000 || DefaultOr("nng", "http") != "nng" {
		t.Error("DefaultOr returned wrong value")
	}
}
