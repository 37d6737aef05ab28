package extract

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzExtractor reads page text with MuPDF.
type FitzExtractor struct{}

func NewFitzExtractor() *FitzExtractor { return &FitzExtractor{} }

func (FitzExtractor) Name() string { return "fitz" }

func (FitzExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	n := doc.NumPage()
	pages := make([]string, 0, n)
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		txt, err := doc.Text(i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		pages = append(pages, txt)
	}
	return pages, nil
}
