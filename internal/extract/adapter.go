package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/investor-screening/constants"
	"github.com/joseph-ayodele/investor-screening/internal/common"
)

// Adapter is the extraction stage: it runs the engine, joins pages and
// rejects documents with too little text.
type Adapter struct {
	engine    TextExtractor
	inspector PageCounter
	method    string
	minChars  int
	maxPages  int
	logger    *slog.Logger
}

type AdapterOption func(*Adapter)

// WithInspector runs the page counter before the engine.
func WithInspector(pc PageCounter) AdapterOption {
	return func(a *Adapter) { a.inspector = pc }
}

// WithMaxPages rejects documents longer than n pages. Needs an inspector.
func WithMaxPages(n int) AdapterOption {
	return func(a *Adapter) { a.maxPages = n }
}

func WithMinChars(n int) AdapterOption {
	return func(a *Adapter) {
		if n > 0 {
			a.minChars = n
		}
	}
}

func WithLogger(l *slog.Logger) AdapterOption {
	return func(a *Adapter) { a.logger = l }
}

func NewAdapter(engine TextExtractor, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		engine:   engine,
		minChars: constants.MinTextLength,
		method:   engineName(engine),
	}
	for _, o := range opts {
		o(a)
	}
	a.logger = common.LoggerOr(a.logger)
	return a
}

func engineName(e TextExtractor) string {
	if n, ok := e.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}

// Extract returns the joined text of data. Failures are INSUFFICIENT_CONTENT
// AppErrors, except cancellation and deadline expiry which are UNKNOWN_FAILURE.
func (a *Adapter) Extract(ctx context.Context, data []byte) (TextExtractionResult, error) {
	start := time.Now()
	attrs := common.LogAttrs(ctx)

	if a.inspector != nil {
		n, err := a.inspector.PageCount(data)
		if err != nil {
			a.logger.Warn("extract.inspect.failed", append(attrs, "error", err)...)
			return TextExtractionResult{}, insufficient(err)
		}
		if a.maxPages > 0 && n > a.maxPages {
			err := fmt.Errorf("document has %d pages, limit is %d", n, a.maxPages)
			a.logger.Warn("extract.inspect.too_many_pages", append(attrs, "pages", n, "max_pages", a.maxPages)...)
			return TextExtractionResult{}, insufficient(err)
		}
	}

	pages, err := a.engine.ExtractPages(ctx, data)
	if err != nil {
		a.logger.Warn("extract.engine.failed", append(attrs, "method", a.method, "error", err)...)
		if interrupted(ctx, err) {
			return TextExtractionResult{}, common.NewAppError(common.CodeUnknownFailure, common.MsgUnknownFailure, err)
		}
		return TextExtractionResult{}, insufficient(err)
	}

	text := strings.Join(pages, constants.PageSeparator)
	chars := utf8.RuneCountInString(strings.TrimSpace(text))
	if chars < a.minChars {
		a.logger.Warn("extract.text.insufficient", append(attrs, "chars", chars, "min_chars", a.minChars, "pages", len(pages))...)
		return TextExtractionResult{}, insufficient(fmt.Errorf("%d characters after trimming, need %d", chars, a.minChars))
	}

	res := TextExtractionResult{
		Text:     text,
		Pages:    len(pages),
		Method:   a.method,
		Duration: time.Since(start),
	}
	a.logger.Info("extract.ok", append(attrs,
		"method", res.Method,
		"pages", res.Pages,
		"chars", chars,
		"elapsed_ms", res.Duration.Milliseconds(),
	)...)
	return res, nil
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func insufficient(cause error) error {
	return common.NewAppError(common.CodeInsufficientContent, common.MsgInsufficientContent, cause)
}
