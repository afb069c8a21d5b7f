// Package docx extracts plain text from Word documents.
package docx

import (
	"bytes"
	"fmt"
	"strings"

	godocx "github.com/fumiama/go-docx"
)

// Extractor pulls plain text from DOCX bytes.
type Extractor struct{}

// New returns a Word document text extractor.
func New() *Extractor {
	return &Extractor{}
}

// ExtractText parses the document and returns the text of its paragraphs
// and tables in document order, one item per line.
func (*Extractor) ExtractText(data []byte) (string, error) {
	doc, err := godocx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch item.(type) {
		case *godocx.Paragraph, *godocx.Table:
			line := strings.TrimSpace(fmt.Sprint(item))
			if line != "" {
				lines = append(lines, line)
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}
