package utils

import (
	"strings"
	"testing"
)

func TestValidateComment(t *testing.T) {
	cases := []struct {
		name    string
		comment string
		ok      bool
	}{
		{"minimum length", "ten chars!", true},
		{"trimmed below minimum", "   short    ", false},
		{"empty", "", false},
		{"maximum length", strings.Repeat("x", 2000), true},
		{"over maximum", strings.Repeat("x", 2001), false},
		// 5 characters but 15 bytes; byte counting would wrongly accept it.
		{"short multibyte comment", "ดีมาก", false},
		// 10 characters, 30 bytes.
		{"multibyte comment at minimum", strings.Repeat("ด", 10), true},
		{"multibyte comment over maximum", strings.Repeat("ด", 2001), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			message, ok := ValidateComment(tc.comment)
			if ok != tc.ok {
				t.Fatalf("ValidateComment(%q) ok = %v, want %v (%s)", tc.comment, ok, tc.ok, message)
			}
			if !ok && message == "" {
				t.Fatalf("rejected comment must carry a message")
			}
		})
	}
}
