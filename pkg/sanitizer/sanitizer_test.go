package sanitizer

import "testing"

func TestSanitizePlate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already normalized",
			input: "AB-123-CD",
			want:  "AB-123-CD",
		},
		{
			name:  "lowercase with padding",
			input: "  ab-123-cd ",
			want:  "AB-123-CD",
		},
		{
			name:  "spaces become dashes",
			input: "ab 123 cd",
			want:  "AB-123-CD",
		},
		{
			name:  "repeated separators collapse",
			input: "ab--123..cd",
			want:  "AB-123-CD",
		},
		{
			name:  "leading and trailing separators stripped",
			input: "-ab123-",
			want:  "AB123",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "idempotent",
			input: SanitizePlate("ab 123 cd"),
			want:  "AB-123-CD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePlate(tt.input)
			if got != tt.want {
				t.Errorf("SanitizePlate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizePhone(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "already E.164",
			input: "+14155552671",
			want:  "+14155552671",
		},
		{
			name:  "national US format",
			input: "(415) 555-2671",
			want:  "+14155552671",
		},
		{
			name:  "israeli national format",
			input: "054-123-4567",
			want:  "+972541234567",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
		{
			name:  "garbage input",
			input: "not-a-phone",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePhone(tt.input)
			if got != tt.want {
				t.Errorf("SanitizePhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTrimAndNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "basic trim",
			input: "  hello  ",
			want:  "hello",
		},
		{
			name:  "multiple spaces",
			input: "Transit    Custom",
			want:  "Transit Custom",
		},
		{
			name:  "tabs and newlines",
			input: "Transit\t\nCustom",
			want:  "Transit Custom",
		},
		{
			name:  "only whitespace",
			input: "   \t\n  ",
			want:  "",
		},
		{
			name:  "preserve case and special characters",
			input: " Caddy® Maxi ",
			want:  "Caddy® Maxi",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TrimAndNormalize(tt.input)
			if got != tt.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
