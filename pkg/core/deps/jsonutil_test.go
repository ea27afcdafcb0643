package deps

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTrimJSON(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"[1]", "[1]"},
		{"warning: x\n  {\"a\":1}\n", "  {\"a\":1}\n"},
		{"no json here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := string(TrimJSON([]byte(tt.in))); got != tt.want {
			t.Errorf("TrimJSON(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJSONLines(t *testing.T) {
	in := "yarn licenses v1.22\n{\"type\":\"info\"}\nnot json\n  {\"type\":\"table\"}  \n"
	var got []string
	for _, l := range JSONLines([]byte(in)) {
		got = append(got, string(l))
	}
	want := []string{`{"type":"info"}`, `{"type":"table"}`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("JSONLines() mismatch (-want +got):\n%s", diff)
	}
}
