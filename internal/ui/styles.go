package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/x/term"
)

// IsTTY indicates whether stdout is an interactive terminal.
// When false, UI functions produce plain text without colors or decorations.
var IsTTY = term.IsTerminal(os.Stdout.Fd())

// IsInputTTY indicates whether stdin is an interactive terminal. Prompts are
// only shown when it is.
var IsInputTTY = term.IsTerminal(os.Stdin.Fd())

// ═══════════════════════════════════════════════════════════════════════════════
// COLOR PALETTE
// ═══════════════════════════════════════════════════════════════════════════════

var (
	Teal     = lipgloss.Color("#1ABC9C")
	Indigo   = lipgloss.Color("#5C6BC0")
	Amber    = lipgloss.Color("#E59866")
	Copper   = lipgloss.Color("#DC7633")
	Purple   = lipgloss.Color("#9B59B6")
	Blue     = lipgloss.Color("#5DADE2")
	Cyan     = lipgloss.Color("#76D7C4")
	Green    = lipgloss.Color("#58D68D")
	Emerald  = lipgloss.Color("#27AE60")
	Pink     = lipgloss.Color("#FF6B9D")
	White    = lipgloss.Color("#FDFEFE")
	Gray     = lipgloss.Color("#AAB7B8")
	DarkGray = lipgloss.Color("#5D6D7E")
	Black    = lipgloss.Color("#1C2833")
	Gold     = lipgloss.Color("#F4D03F")
)

// ═══════════════════════════════════════════════════════════════════════════════
// TEXT STYLES
// ═══════════════════════════════════════════════════════════════════════════════

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	Subtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Amber)

	Success = lipgloss.NewStyle().
		Foreground(Green)

	Error = lipgloss.NewStyle().
		Foreground(Pink).
		Bold(true)

	Warning = lipgloss.NewStyle().
		Foreground(Copper)

	Info = lipgloss.NewStyle().
		Foreground(Blue)

	Muted = lipgloss.NewStyle().
		Foreground(Gray)

	Dim = lipgloss.NewStyle().
		Foreground(DarkGray)

	Highlight = lipgloss.NewStyle().
			Foreground(Gold).
			Bold(true)

	Code = lipgloss.NewStyle().
		Foreground(Cyan)
)

// ═══════════════════════════════════════════════════════════════════════════════
// BADGES
// ═══════════════════════════════════════════════════════════════════════════════

var baseBadge = lipgloss.NewStyle().
	Padding(0, 1).
	Bold(true)

func badge(plain, fancy string, bg, fg lipgloss.Color) string {
	if !IsTTY {
		return "[" + plain + "]"
	}
	return baseBadge.Background(bg).Foreground(fg).Render(fancy)
}

// PersonaBadge returns the persona kind badge
func PersonaBadge() string { return badge("PERSONA", "◉ PERSONA", Purple, White) }

// PatternBadge returns the pattern kind badge
func PatternBadge() string { return badge("PATTERN", "◇ PATTERN", Blue, White) }

// WorkflowBadge returns the workflow kind badge
func WorkflowBadge() string { return badge("WORKFLOW", "⇢ WORKFLOW", Emerald, White) }

// TaskBadge returns the task badge
func TaskBadge() string { return badge("TASK", "✎ TASK", Copper, White) }

// KindBadge returns the badge for an asset kind name.
func KindBadge(kind string) string {
	switch kind {
	case "persona":
		return PersonaBadge()
	case "pattern":
		return PatternBadge()
	case "workflow":
		return WorkflowBadge()
	}
	return badge(strings.ToUpper(kind), strings.ToUpper(kind), DarkGray, White)
}

// StatusOK returns the success status badge
func StatusOK() string { return badge("OK", "✓", Green, White) }

// StatusWarn returns the warning status badge
func StatusWarn() string { return badge("!", "!", Copper, White) }

// StatusError returns the error status badge
func StatusError() string { return badge("ERR", "✗", Pink, White) }

// StatusSkip returns the skipped status badge
func StatusSkip() string { return badge("SKIP", "–", DarkGray, White) }

// ═══════════════════════════════════════════════════════════════════════════════
// LOGO
// ═══════════════════════════════════════════════════════════════════════════════

// Logo returns the banner shown in the root help
func Logo() string {
	if !IsTTY {
		return "\n  PERSONA KIT - personas, patterns and workflows for your project\n"
	}

	lines := []struct {
		text  string
		color lipgloss.Color
	}{
		{"", Black},
		{"    ┌─────────────────────────────────┐", DarkGray},
		{"    │  ◉ ◇ ⇢   P E R S O N A   K I T  │", Teal},
		{"    │  personas · patterns · workflows │", Indigo},
		{"    └─────────────────────────────────┘", DarkGray},
		{"", Black},
	}

	var result strings.Builder
	for _, line := range lines {
		result.WriteString(lipgloss.NewStyle().Foreground(line.color).Render(line.text))
		result.WriteString("\n")
	}
	return result.String()
}

// ═══════════════════════════════════════════════════════════════════════════════
// DECORATIVE ELEMENTS
// ═══════════════════════════════════════════════════════════════════════════════

// Divider returns a horizontal divider
func Divider(width int) string {
	if !IsTTY {
		return strings.Repeat("-", width)
	}
	return lipgloss.NewStyle().
		Foreground(DarkGray).
		Render(strings.Repeat("─", width))
}

// SectionHeader creates a decorated section header
func SectionHeader(title string) string {
	if !IsTTY {
		return fmt.Sprintf("=== %s ===", title)
	}

	width := TerminalWidth()
	if width > 80 {
		width = 80
	}

	titleStyled := Title.Render(title)

	titleLen := lipgloss.Width(title)
	padLeft := (width - titleLen - 6) / 2
	if padLeft < 2 {
		padLeft = 2
	}
	padRight := width - titleLen - 6 - padLeft
	if padRight < 2 {
		padRight = 2
	}

	left := lipgloss.NewStyle().Foreground(DarkGray).Render(strings.Repeat("─", padLeft) + "┤ ")
	right := lipgloss.NewStyle().Foreground(DarkGray).Render(" ├" + strings.Repeat("─", padRight))

	return left + titleStyled + right
}

// PageFooter creates a footer matching the section header width
func PageFooter() string {
	if !IsTTY {
		return ""
	}

	width := TerminalWidth()
	if width > 80 {
		width = 80
	}
	padSide := (width - 5) / 2
	left := strings.Repeat("─", padSide)
	right := strings.Repeat("─", width-padSide-5)
	return lipgloss.NewStyle().Foreground(DarkGray).Render(left + " ◉ " + right)
}

// ═══════════════════════════════════════════════════════════════════════════════
// TABLES
// ═══════════════════════════════════════════════════════════════════════════════

// Table renders rows under headers. Terminals get a rounded border with a
// highlighted header row; other outputs get an ASCII border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...)

	if !IsTTY {
		return t.Border(lipgloss.ASCIIBorder()).String()
	}

	header := lipgloss.NewStyle().Foreground(Teal).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(White).Padding(0, 1)
	return t.
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(DarkGray)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col > 0 {
				return cell.Foreground(Gray)
			}
			return cell
		}).
		String()
}

// ═══════════════════════════════════════════════════════════════════════════════
// STATUS LINES
// ═══════════════════════════════════════════════════════════════════════════════

// StatusLine creates a status line with icon and message
func StatusLine(icon, message string, color lipgloss.Color) string {
	if !IsTTY {
		return fmt.Sprintf("  %s %s", icon, message)
	}
	iconStyled := lipgloss.NewStyle().Foreground(color).Render(icon)
	msgStyled := lipgloss.NewStyle().Foreground(color).Render(message)
	return fmt.Sprintf("  %s %s", iconStyled, msgStyled)
}

// SuccessLine creates a success status line
func SuccessLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  OK: %s", message)
	}
	return StatusLine("✓", message, Green)
}

// ErrorLine creates an error status line
func ErrorLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  ERROR: %s", message)
	}
	return StatusLine("✗", message, Pink)
}

// WarningLine creates a warning status line
func WarningLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  WARN: %s", message)
	}
	return StatusLine("!", message, Copper)
}

// InfoLine creates an info status line
func InfoLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  %s", message)
	}
	return StatusLine("→", message, Blue)
}

// SkipLine creates a status line for a stage that did not run
func SkipLine(message string) string {
	if !IsTTY {
		return fmt.Sprintf("  SKIP: %s", message)
	}
	return fmt.Sprintf("  %s %s", StatusSkip(), Dim.Render(message))
}

// ═══════════════════════════════════════════════════════════════════════════════
// EMPTY STATES
// ═══════════════════════════════════════════════════════════════════════════════

// EmptyKind returns the empty state for a kind with nothing recorded yet
func EmptyKind(plural, createCmd string) string {
	if !IsTTY {
		return fmt.Sprintf("  No %s found.\n  Use `%s` to add one.", plural, createCmd)
	}
	message := Muted.Render(fmt.Sprintf("No %s found.", plural))
	hint := Code.Render(createCmd)
	return fmt.Sprintf("  %s\n  Use %s to add one.", message, hint)
}

// ═══════════════════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════════════════

// Truncate truncates text to max runes with an ellipsis
func Truncate(text string, max int) string {
	r := []rune(text)
	if len(r) <= max {
		return text
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// WrapText wraps text to fit within maxWidth, returning multiple lines.
func WrapText(text string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{text}
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	var currentLine strings.Builder

	for _, word := range words {
		if currentLine.Len() == 0 {
			currentLine.WriteString(word)
		} else if currentLine.Len()+1+len(word) <= maxWidth {
			currentLine.WriteString(" ")
			currentLine.WriteString(word)
		} else {
			lines = append(lines, currentLine.String())
			currentLine.Reset()
			currentLine.WriteString(word)
		}
	}

	if currentLine.Len() > 0 {
		lines = append(lines, currentLine.String())
	}

	return lines
}

// Render applies a lipgloss style to text, returning plain text in non-TTY environments.
func Render(style lipgloss.Style, text string) string {
	if !IsTTY {
		return text
	}
	return style.Render(text)
}

// RenderMuted renders text in muted style (TTY-aware)
func RenderMuted(text string) string {
	return Render(Muted, text)
}

// RenderHighlight renders text in highlight style (TTY-aware)
func RenderHighlight(text string) string {
	return Render(Highlight, text)
}

// RenderCode renders a command or path (TTY-aware)
func RenderCode(text string) string {
	return Render(Code, text)
}

// TerminalWidth returns the current terminal width, defaulting to 80 if unknown
func TerminalWidth() int {
	w, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
