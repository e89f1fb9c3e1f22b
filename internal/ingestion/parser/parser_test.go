package parser

import "testing"

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"companyName":"Acme"}`, `{"companyName":"Acme"}`},
		{"json fence", "```json\n{\"companyName\":\"Acme\"}\n```", `{"companyName":"Acme"}`},
		{"bare fence", "```\n{\"companyName\":\"Acme\"}\n```", `{"companyName":"Acme"}`},
	}
	for _, tt := range tests {
		if got := stripFences(tt.in); got != tt.want {
			t.Errorf("%s: stripFences = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Reason: "no company name identified in note"}
	want := "note parsing failed: no company name identified in note"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
