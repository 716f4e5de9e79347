package models

import (
	"testing"
	"time"
)

func TestSessionValidation(t *testing.T) {
	tests := []struct {
		name    string
		session Session
		wantErr bool
	}{
		{
			name: "valid session",
			session: Session{
				ClassID:   "intro-bio-a1b2c3",
				SessionID: "0123456789",
				Content:   "Mitochondria are the powerhouse of the cell.",
				CreatedAt: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "missing class ID",
			session: Session{
				Content: "text",
			},
			wantErr: true,
		},
		{
			name: "whitespace content",
			session: Session{
				ClassID: "intro-bio-a1b2c3",
				Content: "  \n\t",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSummaryText(t *testing.T) {
	s := Session{}
	if s.HasSummary() || s.SummaryText() != "" {
		t.Fatalf("expected no summary on zero session")
	}
	text := "Cells make ATP."
	s.Summary = &text
	if !s.HasSummary() || s.SummaryText() != text {
		t.Errorf("SummaryText() = %q, want %q", s.SummaryText(), text)
	}
}

func TestInsightsEmpty(t *testing.T) {
	if !(Insights{}).Empty() {
		t.Error("zero Insights should be empty")
	}
	if (Insights{Questions: "- why?"}).Empty() {
		t.Error("Insights with questions should not be empty")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Intro Bio", "intro-bio"},
		{"  CS 101: Data Structures!! ", "cs-101-data-structures"},
		{"intro-bio", "intro-bio"},
		{"***", "class"},
		{"", "class"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestClassValidation(t *testing.T) {
	tests := []struct {
		name    string
		class   Class
		wantErr bool
	}{
		{"valid", Class{Name: "Intro Bio"}, false},
		{"empty name", Class{}, true},
		{"whitespace name", Class{Name: " \t"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.class.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
