package importer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// ProgressCallback receives import progress
type ProgressCallback interface {
	Start(total int)
	Update(path string, status Status)
	Finish(res *Result)
}

// ProgressReporter draws a one-line progress bar
type ProgressReporter struct {
	writer    io.Writer
	total     int
	current   int
	startTime time.Time
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter(w io.Writer) *ProgressReporter {
	return &ProgressReporter{writer: w}
}

// Start implements ProgressCallback
func (p *ProgressReporter) Start(total int) {
	p.total = total
	p.current = 0
	p.startTime = time.Now()
	_, _ = fmt.Fprintf(p.writer, "Found %d lecture file(s)\n", total)
}

// Update implements ProgressCallback
func (p *ProgressReporter) Update(path string, status Status) {
	p.current++
	if p.total == 0 {
		return
	}

	pct := float64(p.current) / float64(p.total) * 100

	barWidth := 30
	filled := barWidth * p.current / p.total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	name := filepath.Base(path)
	if len(name) > 40 {
		name = name[:37] + "..."
	}

	var eta time.Duration
	if elapsed := time.Since(p.startTime); p.current > 0 {
		perFile := elapsed / time.Duration(p.current)
		eta = perFile * time.Duration(p.total-p.current)
	}

	_, _ = fmt.Fprintf(p.writer, "\r[%s] %3.0f%% (%d/%d) ETA: %s | %-8s %s",
		bar, pct, p.current, p.total, eta.Round(time.Second), status, name)
}

// Finish implements ProgressCallback
func (p *ProgressReporter) Finish(res *Result) {
	elapsed := time.Since(p.startTime)
	_, _ = fmt.Fprintf(p.writer, "\nCompleted in %s: %d imported, %d skipped, %d failed\n",
		elapsed.Round(time.Millisecond), res.Imported, res.Skipped, res.Failed)
}
