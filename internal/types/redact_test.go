package types

import "testing"

func TestRedactEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"jane@example.com", "j***@example.com"},
		{"a@b.co", "a***@b.co"},
		{"@example.com", "***@example.com"},
		{"not-an-email", "***"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := RedactEmail(tt.in); got != tt.want {
				t.Errorf("RedactEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
