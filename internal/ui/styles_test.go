package ui

import (
	"strings"
	"testing"
)

func plain(t *testing.T) {
	t.Helper()
	prev := IsTTY
	IsTTY = false
	t.Cleanup(func() { IsTTY = prev })
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is far too long", 10, "this is..."},
		{"héllo wörld", 8, "héllo..."},
		{"abc", 2, "ab"},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestWrapText(t *testing.T) {
	got := WrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("WrapText = %q, want %q", got, want)
	}
	if WrapText("   ", 10) != nil {
		t.Error("expected nil for blank text")
	}
}

func TestPlainBadges(t *testing.T) {
	plain(t)

	tests := map[string]string{
		"persona":  "[PERSONA]",
		"pattern":  "[PATTERN]",
		"workflow": "[WORKFLOW]",
		"other":    "[OTHER]",
	}
	for kind, want := range tests {
		if got := KindBadge(kind); got != want {
			t.Errorf("KindBadge(%q) = %q, want %q", kind, got, want)
		}
	}
	if got := TaskBadge(); got != "[TASK]" {
		t.Errorf("TaskBadge() = %q", got)
	}
}

func TestPlainSectionHeader(t *testing.T) {
	plain(t)

	if got := SectionHeader("Personas"); got != "=== Personas ===" {
		t.Errorf("SectionHeader = %q", got)
	}
}

func TestPlainTableContainsCells(t *testing.T) {
	plain(t)

	out := Table([]string{"ID", "Name"}, [][]string{{"1", "Add login"}, {"2", "Wire cache"}})
	for _, want := range []string{"ID", "Name", "Add login", "Wire cache"} {
		if !strings.Contains(out, want) {
			t.Errorf("table output missing %q:\n%s", want, out)
		}
	}
}

func TestPlainStatusBadges(t *testing.T) {
	plain(t)
	for got, want := range map[string]string{
		StatusOK():    "[OK]",
		StatusWarn():  "[!]",
		StatusError(): "[ERR]",
		StatusSkip():  "[SKIP]",
	} {
		if got != want {
			t.Errorf("status badge = %q, want %q", got, want)
		}
	}
}

func TestSkipLine(t *testing.T) {
	plain(t)
	if got := SkipLine("Commit disabled"); got != "  SKIP: Commit disabled" {
		t.Errorf("SkipLine = %q", got)
	}

	IsTTY = true
	if got := SkipLine("Commit disabled"); !strings.Contains(got, "Commit disabled") {
		t.Errorf("SkipLine with a terminal = %q", got)
	}
}
