package compliance

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/repository"
)

func TestParseLines(t *testing.T) {
	got, err := ParseLines(bytes.NewBufferString("name\nJane Doe\nJohn"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "John"}, got)

	got, err = ParseLines(bytes.NewBufferString("only header"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestHTTPSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/watchlist.csv" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("name\nJane Doe\n"))
	}))
	defer srv.Close()

	got, err := NewHTTPSource(srv.URL+"/watchlist.csv", srv.Client(), nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", ""}, got)

	_, err = NewHTTPSource(srv.URL+"/missing.csv", srv.Client(), nil).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nJane Doe"), 0o600))

	got, err := NewFileSource(path, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe"}, got)

	_, err = NewFileSource(filepath.Join(t.TempDir(), "nope.csv"), nil).Load(context.Background())
	require.Error(t, err)
}

func writeWorkbook(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	path := filepath.Join(t.TempDir(), "watchlist.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestXLSXSource(t *testing.T) {
	path := writeWorkbook(t, [][]any{
		{"Name", "Reason"},
		{"Jane Doe", "sanctions"},
		{},
		{"ACME Holdings"},
	})

	src := NewFileSource(path, ParserFor(path, ""))
	got, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Jane Doe", "ACME Holdings"}, got)

	_, err = NewFileSource(path, XLSXParser("Missing")).Load(context.Background())
	require.Error(t, err)
}

func TestSQLSource(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := repository.Open(ctx, repository.Config{DSN: "sqlite://:memory:"}, logger)
	require.NoError(t, err)
	defer db.Close()

	repo := repository.NewWatchlistRepository(db, "watchlist", "name", logger)
	require.NoError(t, repo.EnsureTable(ctx))
	require.NoError(t, repo.AddNames(ctx, "Jane Doe", "John Smith"))

	c := NewChecker(NewSQLSource(repo, "sqlite:watchlist"), WithLogger(logger))
	got, err := c.Check(ctx, " JOHN SMITH")
	require.NoError(t, err)
	assert.Equal(t, "Flagged", string(got))
}

func TestOpenSource(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "list.txt")
	require.NoError(t, os.WriteFile(path, []byte("header\nX"), 0o600))

	src, closer, err := OpenSource(ctx, common.WatchlistConfig{Source: "file://" + path}, nil)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, path, src.Describe())

	got, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"X"}, got)

	src, closer, err = OpenSource(ctx, common.WatchlistConfig{Source: "sqlite://:memory:", Table: "w", Column: "n"}, nil)
	require.NoError(t, err)
	defer closer.Close()
	assert.Equal(t, "sqlite3:w", src.Describe())

	_, _, err = OpenSource(ctx, common.WatchlistConfig{Source: "gs://bucket-only"}, nil)
	require.Error(t, err)

	_, _, err = OpenSource(ctx, common.WatchlistConfig{Source: "  "}, nil)
	require.Error(t, err)
}

func TestParseGSURL(t *testing.T) {
	b, o, err := ParseGSURL("gs://compliance/lists/watchlist.csv")
	require.NoError(t, err)
	assert.Equal(t, "compliance", b)
	assert.Equal(t, "lists/watchlist.csv", o)

	_, _, err = ParseGSURL("https://x")
	require.Error(t, err)
}

func TestParserFor(t *testing.T) {
	assert.NotNil(t, ParserFor("https://h/list.XLSX?sig=1", ""))
	// a plain parser for csv/txt
	got, err := ParserFor("/tmp/w.csv", "")(bytes.NewBufferString("h\na"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got)
}
