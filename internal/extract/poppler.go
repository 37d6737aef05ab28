package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// PopplerExtractor shells out to pdftotext. Pages come back separated by form feeds.
type PopplerExtractor struct {
	bin    string
	runner Runner
}

func NewPopplerExtractor(bin string, runner Runner) *PopplerExtractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &PopplerExtractor{bin: bin, runner: runner}
}

func (p *PopplerExtractor) Name() string { return "pdftotext" }

func (p *PopplerExtractor) ExtractPages(ctx context.Context, data []byte) ([]string, error) {
	f, err := os.CreateTemp("", "screen-*.pdf")
	if err != nil {
		return nil, err
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(data); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	// pdftotext -enc UTF-8 -eol unix <path> -
	out, errb, err := p.runner.Run(ctx, p.bin, "-enc", "UTF-8", "-eol", "unix", f.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("pdftotext: %w: %s", err, strings.TrimSpace(string(errb)))
	}
	return splitFormFeed(string(out)), nil
}

// splitFormFeed splits on \f; pdftotext terminates the last page with one too.
func splitFormFeed(s string) []string {
	if s == "" {
		return nil
	}
	pages := strings.Split(s, "\f")
	if len(pages) > 1 && pages[len(pages)-1] == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}
