package utils

import (
	"strings"
	"testing"
)

type sample struct {
	Name string   `validate:"required,max=5"`
	Kind string   `validate:"omitempty,oneof=A B"`
	Link string   `validate:"omitempty,http_url"`
	Tags []string `validate:"max=2"`
}

func TestFormatValidationErrors(t *testing.T) {
	err := ValidateStruct(sample{Kind: "C", Link: "ftp://x", Tags: []string{"a", "b", "c"}})
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := FormatValidationErrors(err)
	for _, want := range []string{"Name is required", "Kind must be one of: A B", "Link must be an absolute http(s) URL", "Tags must be at most 2"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidateStructOK(t *testing.T) {
	if err := ValidateStruct(sample{Name: "ok", Link: "https://example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
