package extract

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/neilberkman/lectern/internal/core/errs"
)

func pdfText(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, errs.E(errs.Validation, "extract", fmt.Errorf("failed to parse PDF: %w", err))
	}
	defer f.Close()

	n := r.NumPage()
	if n == 0 {
		return nil, errs.E(errs.Validation, "extract", errors.New("PDF has no pages"))
	}

	pages := make([]string, n)
	for i := 1; i <= n; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("[extract] page %d of %s: %v", i, path, err)
			continue
		}
		pages[i-1] = text
	}

	return &Document{Type: TypePDF, Text: joinPages(pages), Pages: n}, nil
}

// joinPages prefixes each non-empty page with a "=== Page N ===" marker
func joinPages(pages []string) string {
	var b strings.Builder
	for i, text := range pages {
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "=== Page %d ===\n%s", i+1, text)
	}
	return b.String()
}
