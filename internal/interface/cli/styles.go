package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("120"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("246")) // Light gray, readable on dark terminals

	headingStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("cyan"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("9"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("green"))
)

// formatTimestamp shows recent times relative and older ones as a date
func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	if time.Since(t) < 30*24*time.Hour {
		return humanize.Time(t)
	}
	if t.Year() == time.Now().Year() {
		return t.Format("Jan 2")
	}
	return t.Format("Jan 2, 2006")
}

// truncate collapses whitespace and cuts s at a word boundary
func truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if i := strings.LastIndex(cut, " "); i > maxLen-20 {
		cut = cut[:i]
	}
	return cut + "..."
}
