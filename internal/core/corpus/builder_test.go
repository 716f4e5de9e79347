package corpus

import (
	"strings"
	"testing"
	"time"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/models"
)

func strPtr(s string) *string { return &s }

func sampleClass() *models.Class {
	base := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
	return &models.Class{
		ClassID: "intro-bio-a1b2c3",
		Name:    "Intro Bio",
		Sessions: []models.Session{
			{SessionID: "bbbbbbbbbb", Title: "Week 2", Content: "Y", CreatedAt: base.Add(48 * time.Hour), Summary: strPtr("Photosynthesis overview.")},
			{SessionID: "aaaaaaaaaa", Title: "Week 1", Content: "X", CreatedAt: base},
		},
	}
}

func TestBuildClassContext(t *testing.T) {
	ctx, err := BuildClassContext(sampleClass())
	if err != nil {
		t.Fatalf("BuildClassContext() error = %v", err)
	}

	for _, want := range []string{
		"Class: Intro Bio (intro-bio-a1b2c3)",
		"=== Week 2 (bbbbbbbbbb, 2025-09-03T09:00:00Z) ===",
		"Summary: Photosynthesis overview.",
		"Transcript:\nY",
		"Transcript:\nX",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q:\n%s", want, ctx)
		}
	}

	// Store order (newest first) is preserved
	if strings.Index(ctx, "Week 2") > strings.Index(ctx, "Week 1") {
		t.Errorf("sessions out of order:\n%s", ctx)
	}
	// No summary line for the unsummarized session
	if strings.Count(ctx, "Summary:") != 1 {
		t.Errorf("expected exactly one summary line:\n%s", ctx)
	}
}

func TestBuildClassContext_Empty(t *testing.T) {
	tests := []struct {
		name  string
		class *models.Class
		kind  errs.Kind
	}{
		{"nil class", nil, errs.NotFound},
		{"no sessions", &models.Class{ClassID: "x-000000", Name: "X"}, errs.NothingToSearch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildClassContext(tt.class)
			if !errs.Is(err, tt.kind) {
				t.Errorf("expected %v, got %v", tt.kind, err)
			}
		})
	}
}

func TestBuildCrossClassContext(t *testing.T) {
	bio := sampleClass()
	chem := models.Class{
		ClassID: "chem-d4e5f6",
		Name:    "Chemistry",
		Sessions: []models.Session{
			{SessionID: "cccccccccc", Title: "Bonds", Content: "Covalent bonds share electrons."},
		},
	}
	empty := models.Class{ClassID: "empty-000000", Name: "Empty"}

	ctx, err := BuildCrossClassContext([]models.Class{*bio, empty, chem})
	if err != nil {
		t.Fatalf("BuildCrossClassContext() error = %v", err)
	}

	for _, want := range []string{
		"Available Class Information:",
		"--- Intro Bio (ID: intro-bio-a1b2c3) ---",
		"--- Chemistry (ID: chem-d4e5f6) ---",
		"Covalent bonds share electrons.",
		"Transcript:\nX",
	} {
		if !strings.Contains(ctx, want) {
			t.Errorf("context missing %q", want)
		}
	}
	if strings.Contains(ctx, "Empty") {
		t.Error("class without sessions should be skipped")
	}
	if strings.Contains(ctx, "(bbbbbbbbbb, 0001") || strings.Contains(ctx, "(cccccccccc, ") {
		t.Error("zero timestamps must not be rendered")
	}
}

func TestBuildCrossClassContext_NothingToSearch(t *testing.T) {
	for _, classes := range [][]models.Class{nil, {{ClassID: "a-000000", Name: "A"}}} {
		_, err := BuildCrossClassContext(classes)
		if !errs.Is(err, errs.NothingToSearch) {
			t.Errorf("expected NothingToSearch for %d classes, got %v", len(classes), err)
		}
	}
}
