// Package search finds sessions by keyword across titles, transcripts and
// summaries. It is a plain scan; there is no index and no ranking.
package search

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/errs"
)

// DefaultLimit caps results when Filters.Limit is unset
const DefaultLimit = 20

// Filters narrows a search
type Filters struct {
	Query   string
	ClassID string
	// Since drops sessions created before it; zero means no bound
	Since time.Time
	Limit int
}

// Result is one matching session
type Result struct {
	ClassID   string
	ClassName string
	SessionID string
	Title     string
	Snippet   string
	CreatedAt time.Time
}

// Search returns sessions containing every query term, newest first.
// Matching is case-insensitive. A query wrapped in double quotes is matched
// as one phrase.
func Search(database *db.DB, f Filters) ([]Result, error) {
	query := strings.TrimSpace(f.Query)
	if query == "" {
		return nil, errs.Validationf("search", "search query cannot be empty")
	}
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}

	terms := strings.Fields(query)
	if len(query) > 1 && strings.HasPrefix(query, `"`) && strings.HasSuffix(query, `"`) {
		terms = []string{strings.Trim(query, `"`)}
	}

	var clauses []string
	var args []any
	for _, term := range terms {
		clauses = append(clauses, `(instr(lower(s.content), lower(?)) > 0
		    OR instr(lower(s.title), lower(?)) > 0
		    OR instr(lower(COALESCE(s.summary, '')), lower(?)) > 0)`)
		args = append(args, term, term, term)
	}
	if f.ClassID != "" {
		clauses = append(clauses, "s.class_id = ?")
		args = append(args, f.ClassID)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "s.created_at >= ?")
		args = append(args, f.Since.UnixNano())
	}
	args = append(args, f.Limit)

	rows, err := database.Query(`
		SELECT s.class_id, c.name, s.session_id, s.title, s.content, COALESCE(s.summary, ''), s.created_at
		FROM sessions s
		JOIN classes c ON c.class_id = s.class_id
		WHERE `+strings.Join(clauses, " AND ")+`
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("search query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []Result
	for rows.Next() {
		var r Result
		var content, summary string
		var created int64
		if err := rows.Scan(&r.ClassID, &r.ClassName, &r.SessionID, &r.Title, &content, &summary, &created); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		r.Snippet = snippet(content, summary, terms[0])
		r.CreatedAt = time.Unix(0, created)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating results: %w", err)
	}
	return results, nil
}

// snippet prefers the transcript, then the summary, then the transcript head
func snippet(content, summary, term string) string {
	if i, _ := indexFold(content, term); i >= 0 {
		return excerpt(content, term, 80)
	}
	if i, _ := indexFold(summary, term); i >= 0 {
		return excerpt(summary, term, 80)
	}
	return excerpt(content, term, 80)
}

// excerpt returns up to width bytes either side of the first match
func excerpt(content, query string, width int) string {
	i, j := indexFold(content, query)
	if i < 0 {
		return truncateRunes(strings.Join(strings.Fields(content), " "), 2*width)
	}
	start, end := i-width, j+width
	prefix, suffix := "...", "..."
	if start <= 0 {
		start, prefix = 0, ""
	}
	if end >= len(content) {
		end, suffix = len(content), ""
	}
	for start > 0 && !utf8.RuneStart(content[start]) {
		start--
	}
	for end < len(content) && !utf8.RuneStart(content[end]) {
		end++
	}
	return prefix + strings.Join(strings.Fields(content[start:end]), " ") + suffix
}

// indexFold returns the byte span in s of the first case-insensitive match
// of substr, or -1, -1. Offsets always refer to s itself.
func indexFold(s, substr string) (int, int) {
	if substr == "" {
		return -1, -1
	}
	for i := range s {
		if n, ok := hasPrefixFold(s[i:], substr); ok {
			return i, i + n
		}
	}
	return -1, -1
}

// hasPrefixFold reports whether s starts with prefix under Unicode case
// folding and how many bytes of s matched
func hasPrefixFold(s, prefix string) (int, bool) {
	n := 0
	for _, pr := range prefix {
		if n >= len(s) {
			return 0, false
		}
		sr, size := utf8.DecodeRuneInString(s[n:])
		if sr != pr && !strings.EqualFold(string(sr), string(pr)) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
