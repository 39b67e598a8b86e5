package testutil

import (
	"testing"
)

func TestStripANSI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no ansi codes",
			input: "hello world",
			want:  "hello world",
		},
		{
			name:  "with color codes",
			input: "\x1b[31mred\x1b[0m text",
			want:  "red text",
		},
		{
			name:  "with truecolor codes",
			input: "\x1b[38;2;167;139;250mytm\x1b[0m",
			want:  "ytm",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StripANSI(tt.input)
			if got != tt.want {
				t.Errorf("StripANSI(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	if got := NormalizeWhitespace("  a \t b\n\nc  "); got != "a b c" {
		t.Errorf("NormalizeWhitespace() = %q", got)
	}
}

func TestMeasureWidth(t *testing.T) {
	if got := MeasureWidth("\x1b[1m日本\x1b[0m"); got != 4 {
		t.Errorf("MeasureWidth() = %d, want 4", got)
	}
}

func TestFindLine(t *testing.T) {
	out := "first\n\x1b[32msecond match\x1b[0m\nthird"
	if got := FindLine(out, "match"); got != "second match" {
		t.Errorf("FindLine() = %q", got)
	}
	if ContainsLine(out, "missing") {
		t.Error("ContainsLine() found a missing line")
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\nb\n\n  \n")
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("SplitLines() = %q", got)
	}
}
