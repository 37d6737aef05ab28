package compliance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/xuri/excelize/v2"
)

// Source loads the raw watchlist entries. Entries are returned as stored;
// the Checker normalizes them.
type Source interface {
	Load(ctx context.Context) ([]string, error)
	Describe() string
}

// Parser turns a fetched watchlist body into entries.
type Parser func(r io.Reader) ([]string, error)

// ParseLines splits on "\n" and drops the first line, which is always a header.
func ParseLines(r io.Reader) ([]string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rows := strings.Split(string(b), "\n")
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}

// XLSXParser reads the first column of sheet (the first sheet when empty),
// skipping the header row.
func XLSXParser(sheet string) Parser {
	return func(r io.Reader) ([]string, error) {
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		defer f.Close()

		name := sheet
		if name == "" {
			sheets := f.GetSheetList()
			if len(sheets) == 0 {
				return nil, fmt.Errorf("workbook has no sheets")
			}
			name = sheets[0]
		}
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		var out []string
		for i, row := range rows {
			if i == 0 || len(row) == 0 {
				continue
			}
			out = append(out, row[0])
		}
		return out, nil
	}
}

// ParserFor picks the parser from the location's extension.
func ParserFor(location, sheet string) Parser {
	loc := strings.ToLower(location)
	if i := strings.IndexAny(loc, "?#"); i >= 0 {
		loc = loc[:i]
	}
	if strings.HasSuffix(loc, ".xlsx") {
		return XLSXParser(sheet)
	}
	return ParseLines
}

type fetchFunc func(ctx context.Context) (io.ReadCloser, error)

// blobSource fetches a whole document and parses it.
type blobSource struct {
	name  string
	fetch fetchFunc
	parse Parser
}

func (s *blobSource) Describe() string { return s.name }

func (s *blobSource) Load(ctx context.Context) ([]string, error) {
	rc, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return s.parse(rc)
}

// NewHTTPSource fetches the watchlist with GET on every Load.
func NewHTTPSource(url string, client *http.Client, parse Parser) Source {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if parse == nil {
		parse = ParseLines
	}
	return &blobSource{
		name:  url,
		parse: parse,
		fetch: func(ctx context.Context) (io.ReadCloser, error) {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Cache-Control", "no-cache")
			resp, err := client.Do(req)
			if err != nil {
				return nil, err
			}
			if resp.StatusCode/100 != 2 {
				resp.Body.Close()
				return nil, fmt.Errorf("could not load watchlist file, status: %d", resp.StatusCode)
			}
			return resp.Body, nil
		},
	}
}

// NewFileSource reads the watchlist from the local filesystem on every Load.
func NewFileSource(path string, parse Parser) Source {
	if parse == nil {
		parse = ParseLines
	}
	return &blobSource{
		name:  path,
		parse: parse,
		fetch: func(context.Context) (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// NewGCSSource reads gs://bucket/object on every Load.
func NewGCSSource(client *storage.Client, bucket, object string, parse Parser) Source {
	if parse == nil {
		parse = ParseLines
	}
	return &blobSource{
		name:  "gs://" + bucket + "/" + object,
		parse: parse,
		fetch: func(ctx context.Context) (io.ReadCloser, error) {
			r, err := client.Bucket(bucket).Object(object).NewReader(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
			}
			return r, nil
		},
	}
}

// NewStaticSource serves a fixed body through parse. Used by the CLI's --entries flag and tests.
func NewStaticSource(name string, body []byte, parse Parser) Source {
	if parse == nil {
		parse = ParseLines
	}
	return &blobSource{
		name:  name,
		parse: parse,
		fetch: func(context.Context) (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		},
	}
}

// ParseGSURL splits gs://bucket/path/to/object.
func ParseGSURL(u string) (bucket, object string, err error) {
	rest, ok := strings.CutPrefix(u, "gs://")
	if !ok {
		return "", "", fmt.Errorf("not a gs:// url: %q", u)
	}
	bucket, object, ok = strings.Cut(rest, "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("gs url needs bucket and object: %q", u)
	}
	return bucket, object, nil
}
