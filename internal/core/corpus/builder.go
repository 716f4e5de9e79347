// Package corpus assembles the grounding text handed to the model.
// Context is the full concatenation of transcripts; nothing is truncated.
package corpus

import (
	"strings"
	"time"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/models"
)

// BuildClassContext concatenates every session of class in the order given
// (newest first as returned by the store).
func BuildClassContext(class *models.Class) (string, error) {
	if class == nil {
		return "", errs.E(errs.NotFound, "build context", errs.ErrClassNotFound)
	}
	if len(class.Sessions) == 0 {
		return "", errs.E(errs.NothingToSearch, "build context", errs.ErrNothingToSearch, class.ClassID)
	}

	var b strings.Builder
	b.WriteString("Class: ")
	b.WriteString(class.Name)
	b.WriteString(" (")
	b.WriteString(class.ClassID)
	b.WriteString(")\n\n")
	writeSessions(&b, class.Sessions)
	return strings.TrimRight(b.String(), "\n"), nil
}

// BuildCrossClassContext nests session blocks under a header per class.
// Classes without sessions are skipped.
func BuildCrossClassContext(classes []models.Class) (string, error) {
	var b strings.Builder
	b.WriteString("Available Class Information:\n\n")

	included := 0
	for i := range classes {
		c := &classes[i]
		if len(c.Sessions) == 0 {
			continue
		}
		included++
		b.WriteString("--- ")
		b.WriteString(c.Name)
		b.WriteString(" (ID: ")
		b.WriteString(c.ClassID)
		b.WriteString(") ---\n")
		writeSessions(&b, c.Sessions)
	}

	if included == 0 {
		return "", errs.E(errs.NothingToSearch, "build context", errs.ErrNothingToSearch)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func writeSessions(b *strings.Builder, sessions []models.Session) {
	for _, s := range sessions {
		b.WriteString("=== ")
		b.WriteString(s.Title)
		b.WriteString(" (")
		b.WriteString(s.SessionID)
		if !s.CreatedAt.IsZero() {
			b.WriteString(", ")
			b.WriteString(s.CreatedAt.Format(time.RFC3339))
		}
		b.WriteString(") ===\n")
		if s.HasSummary() {
			b.WriteString("Summary: ")
			b.WriteString(strings.TrimSpace(*s.Summary))
			b.WriteString("\n")
		}
		b.WriteString("Transcript:\n")
		b.WriteString(s.Content)
		b.WriteString("\n\n")
	}
}
