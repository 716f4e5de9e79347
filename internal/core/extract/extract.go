// Package extract pulls plain text out of lecture documents.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/neilberkman/lectern/internal/core/errs"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Document types
const (
	TypePDF      = "pdf"
	TypeDOCX     = "docx"
	TypeText     = "text"
	TypeMarkdown = "markdown"
)

var docTypes = map[string]string{
	".pdf":  TypePDF,
	".docx": TypeDOCX,
	".txt":  TypeText,
	".md":   TypeMarkdown,
}

// Document is the extracted text of one file
type Document struct {
	Type  string
	Text  string
	Pages int // PDF only
}

// IsDocument reports whether path has a supported document extension
func IsDocument(path string) bool {
	_, ok := docTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}

// File extracts the text of path based on its extension
func File(path string) (*Document, error) {
	typ, ok := docTypes[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, errs.Validationf("extract", "unsupported document type %q", filepath.Ext(path))
	}

	var doc *Document
	var err error
	switch typ {
	case TypePDF:
		doc, err = pdfText(path)
	case TypeDOCX:
		doc, err = docxText(path)
	default:
		doc, err = plainText(path, typ)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.Text) == "" {
		return nil, errs.E(errs.Validation, "extract", errors.New("no text found in "+filepath.Base(path)))
	}
	return doc, nil
}

func plainText(path, typ string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.E(errs.Upstream, "extract", fmt.Errorf("read %s: %w", filepath.Base(path), err))
	}
	if !utf8.Valid(data) {
		return nil, errs.Validationf("extract", "%s is not UTF-8 text", filepath.Base(path))
	}
	return &Document{Type: typ, Text: strings.TrimSpace(string(data))}, nil
}

// TitleFromFilename turns "week_3-cell-respiration.mp4" into
// "Week 3 Cell Respiration"
func TitleFromFilename(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	// a Caser keeps state between calls, so each call gets its own
	return cases.Title(language.English).String(strings.Join(strings.Fields(stem), " "))
}
