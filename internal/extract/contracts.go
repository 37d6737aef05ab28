package extract

import (
	"context"
	"time"
)

// Document is a caller-supplied PDF: its display name and raw bytes.
type Document struct {
	Name string
	Data []byte
}

// Size is the byte length of the document.
func (d *Document) Size() int64 {
	if d == nil {
		return 0
	}
	return int64(len(d.Data))
}

// TextExtractor turns PDF bytes into page texts, in page order.
type TextExtractor interface {
	ExtractPages(ctx context.Context, data []byte) ([]string, error)
}

// PageCounter reports how many pages a PDF has, failing on structurally broken files.
type PageCounter interface {
	PageCount(data []byte) (int, error)
}

type TextExtractionResult struct {
	Text     string
	Pages    int
	Method   string // "fitz" | "pdftotext"
	Duration time.Duration
}
