package types

import "testing"

func TestSpanContains(t *testing.T) {
	outer := Span{StartLine: 1, StartCol: 0, EndLine: 10, EndCol: 5}
	inner := Span{StartLine: 2, StartCol: 0, EndLine: 9, EndCol: 0}
	outside := Span{StartLine: 1, StartCol: 0, EndLine: 11, EndCol: 0}

	if !outer.Contains(inner) {
		t.Fatal("expected outer to contain inner")
	}
	if outer.Contains(outside) {
		t.Fatal("expected outer to not contain a span extending past it")
	}
	if !outer.Contains(outer) {
		t.Fatal("a span should contain itself")
	}
}

func TestSpanValidWithinFile(t *testing.T) {
	tests := []struct {
		name      string
		span      Span
		lineCount int
		want      bool
	}{
		{"valid single line", Span{1, 0, 1, 5}, 10, true},
		{"valid multi line", Span{2, 0, 9, 3}, 10, true},
		{"zero start line invalid", Span{0, 0, 1, 0}, 10, false},
		{"end beyond file invalid", Span{1, 0, 11, 0}, 10, false},
		{"start after end invalid", Span{5, 0, 3, 0}, 10, false},
		{"same line reversed columns invalid", Span{3, 10, 3, 2}, 10, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.span.ValidWithinFile(tt.lineCount); got != tt.want {
				t.Errorf("ValidWithinFile() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpanEquality(t *testing.T) {
	a := Span{1, 2, 3, 4}
	b := Span{1, 2, 3, 4}
	c := Span{1, 2, 3, 5}
	if a != b {
		t.Fatal("identical spans must compare equal (invariant #6)")
	}
	if a == c {
		t.Fatal("differing spans must not compare equal")
	}
}
