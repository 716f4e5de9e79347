package models

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// DefaultColor is the UI color tag assigned when none is given
const DefaultColor = "bg-emerald-500"

// Class is a named course holding zero or more sessions
type Class struct {
	ClassID       string
	Name          string
	Code          string
	Color         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	SessionsCount int
	LastSessionAt *time.Time

	// Sessions is only populated by GetClass, newest first
	Sessions []Session
}

// Validate checks if the class has required fields
func (c *Class) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}

// Slugify lower-cases name and collapses every run of non-alphanumeric
// characters into a single dash. An empty result becomes "class".
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "class"
	}
	return slug
}
