package extract

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/neilberkman/lectern/internal/core/errs"
)

// docxText reads word/document.xml and keeps paragraph breaks
func docxText(path string) (*Document, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, errs.E(errs.Validation, "extract", fmt.Errorf("failed to open docx: %w", err))
	}
	defer zr.Close()

	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, errs.E(errs.Upstream, "extract", fmt.Errorf("open document.xml: %w", err))
		}
		defer rc.Close()

		text, err := wordprocessingText(rc)
		if err != nil {
			return nil, errs.E(errs.Validation, "extract", err)
		}
		return &Document{Type: TypeDOCX, Text: text}, nil
	}
	return nil, errs.Validationf("extract", "docx has no word/document.xml")
}

func wordprocessingText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b, para strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteString("\t")
			case "br", "cr":
				para.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if line := strings.TrimSpace(para.String()); line != "" {
					b.WriteString(line)
					b.WriteString("\n")
				}
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	return strings.TrimSpace(b.String()), nil
}
