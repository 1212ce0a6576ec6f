// Package display provides terminal formatting for mailsheets output.
package display

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/daviddao/mailsheets/internal/types"
)

var (
	// Styles
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	Warn     = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
)

// TimeAgo formats an ISO date string as a relative time.
func TimeAgo(isoDate string) string {
	if isoDate == "" {
		return ""
	}

	var t time.Time
	var err error
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05", time.RFC3339Nano} {
		t, err = time.Parse(layout, isoDate)
		if err == nil {
			break
		}
	}
	if err != nil {
		return isoDate[:min(10, len(isoDate))]
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}

// Truncate shortens a string to maxLen runes, adding ellipsis if needed.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, Success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg prints a red X + message.
func ErrorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Header prints a section header.
func Header(w io.Writer, title string) {
	fmt.Fprintln(w, Bold.Render(title))
}

// Progress prints one processed-message line: "[2/5] sender · subject".
func Progress(w io.Writer, i, n int, e types.Email) {
	subject := e.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	fmt.Fprintf(w, "  %s %s  %s  %s\n",
		Muted.Render(fmt.Sprintf("[%d/%d]", i, n)),
		Bold.Render(Truncate(e.From, 40)),
		Muted.Render("·"),
		Truncate(subject, 60),
	)
}

// Email prints a parsed email with its body indented under the headers.
// maxLines <= 0 prints the whole body.
func Email(w io.Writer, id string, e types.Email, maxLines int) {
	fmt.Fprintf(w, "%s %s\n", Muted.Render("ID:"), id)
	fmt.Fprintf(w, "%s %s\n", Muted.Render("From:"), Bold.Render(e.From))
	fmt.Fprintf(w, "%s %s\n", Muted.Render("Subject:"), e.Subject)
	fmt.Fprintf(w, "%s %s\n", Muted.Render("Date:"), e.Date)
	if e.Content == "" {
		fmt.Fprintf(w, "  %s\n\n", Dim.Render("(empty body)"))
		return
	}
	lines := strings.Split(e.Content, "\n")
	for i, line := range lines {
		if maxLines > 0 && i >= maxLines {
			fmt.Fprintf(w, "  %s %s\n", Muted.Render("│"), Dim.Render(fmt.Sprintf("... (%d more lines)", len(lines)-maxLines)))
			break
		}
		fmt.Fprintf(w, "  %s %s\n", Muted.Render("│"), strings.TrimRight(line, " \r\t"))
	}
	fmt.Fprintln(w)
}
