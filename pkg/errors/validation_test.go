package errors

import (
	"strings"
	"testing"
)

func TestValidateParameter(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		maxLen  int
		wantErr bool
	}{
		{"empty is allowed", "", MaxParameterLength, false},
		{"simple", "DS918+", MaxParameterLength, false},
		{"exactly max", strings.Repeat("a", MaxParameterLength), MaxParameterLength, false},
		{"keyword with spaces", "video station", MaxKeywordLength, false},
		{"unicode", "überwachung", MaxKeywordLength, false},

		{"too long", strings.Repeat("a", MaxParameterLength+1), MaxParameterLength, true},
		{"keyword too long", strings.Repeat("k", MaxKeywordLength+1), MaxKeywordLength, true},
		{"null byte", "foo\x00bar", MaxParameterLength, true},
		{"newline", "foo\nbar", MaxParameterLength, true},
		{"control char", "foo\x01bar", MaxParameterLength, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateParameter("model", tt.value, tt.maxLen)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateParameter(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidateParameter(%q) code = %v, want %v", tt.value, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateParameterNamesField(t *testing.T) {
	err := ValidateParameter("keyword", strings.Repeat("x", 301), MaxKeywordLength)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(UserMessage(err), "keyword") {
		t.Errorf("message %q should name the parameter", UserMessage(err))
	}
}

func TestValidateSourceName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "synocommunity", false},
		{"valid with dash", "cphub-beta", false},

		{"empty", "", true},
		{"traversal", "../etc", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"too long", strings.Repeat("s", 101), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSourceName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSourceName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://packages.synocommunity.com/", false},
		{"http://spk.example.org", false},
		{"", true},
		{"ftp://example.org", true},
		{"packages.example.org", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
