package models

import (
	"errors"
	"strings"
	"time"
)

// Session is one lecture or document ingested into a class
type Session struct {
	ID        int64 // Row ID, internal
	ClassID   string
	SessionID string // Random token, unique within the class
	Title     string
	Content   string // Raw transcript or extracted text, write-once
	Summary   *string
	Insights  *Insights
	Metadata  Metadata
	CreatedAt time.Time
}

// Insights is the structured extraction generated for a session.
// Every field is markdown text.
type Insights struct {
	MostImportant string `json:"most_important"`
	SmallDetails  string `json:"small_details"`
	ActionItems   string `json:"action_items"`
	Questions     string `json:"questions"`
}

// Empty reports whether no field carries any text
func (i Insights) Empty() bool {
	return strings.TrimSpace(i.MostImportant) == "" &&
		strings.TrimSpace(i.SmallDetails) == "" &&
		strings.TrimSpace(i.ActionItems) == "" &&
		strings.TrimSpace(i.Questions) == ""
}

// Metadata is free-form ingestion metadata (source file, ASR mode, page count)
type Metadata map[string]string

// HasSummary reports whether a non-empty summary has been stored
func (s *Session) HasSummary() bool {
	return s.Summary != nil && *s.Summary != ""
}

// SummaryText returns the summary or "" when absent
func (s *Session) SummaryText() string {
	if s.Summary == nil {
		return ""
	}
	return *s.Summary
}

// Validate checks if the session has required fields
func (s *Session) Validate() error {
	if s.ClassID == "" {
		return errors.New("class_id is required")
	}
	if strings.TrimSpace(s.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}
