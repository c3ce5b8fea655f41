package util

import (
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "report.png", want: "report.png", wantOK: true},
		{in: " scans/blood test.jpg ", want: "blood test.jpg", wantOK: true},
		{in: `C:\tmp\lab.png`, want: "lab.png", wantOK: true},
		{in: "../../etc/passwd", want: "passwd", wantOK: true},
		{in: "lab\x00\n.png", want: "lab.png", wantOK: true},
		{in: "..", want: "upload"},
		{in: "   ", want: "upload"},
	}
	for _, tt := range tests {
		got, ok := SanitizeFileName(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Fatalf("SanitizeFileName(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	got, ok := SanitizeFileName(strings.Repeat("é", 300) + ".png")
	if !ok || len([]rune(got)) != maxFileNameRunes {
		t.Fatalf("expected %d runes, got %d", maxFileNameRunes, len([]rune(got)))
	}
}
