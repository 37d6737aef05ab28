package compliance

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/joseph-ayodele/investor-screening/internal/common"
	"github.com/joseph-ayodele/investor-screening/internal/repository"
)

// SQLSource serves the watchlist from a database table.
type SQLSource struct {
	repo repository.WatchlistRepository
	name string
}

func NewSQLSource(repo repository.WatchlistRepository, name string) *SQLSource {
	return &SQLSource{repo: repo, name: name}
}

func (s *SQLSource) Load(ctx context.Context) ([]string, error) { return s.repo.ListNames(ctx) }
func (s *SQLSource) Describe() string                            { return s.name }

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

var noopCloser = closerFunc(func() error { return nil })

// OpenSource builds the Source named by cfg.Source. The returned Closer
// releases any client or pool it opened.
func OpenSource(ctx context.Context, cfg common.WatchlistConfig, logger *slog.Logger) (Source, io.Closer, error) {
	logger = common.LoggerOr(logger)
	loc := strings.TrimSpace(cfg.Source)
	parse := ParserFor(loc, cfg.Sheet)

	switch {
	case loc == "":
		return nil, nil, fmt.Errorf("watchlist source is empty")

	case strings.HasPrefix(loc, "http://"), strings.HasPrefix(loc, "https://"):
		return NewHTTPSource(loc, &http.Client{Timeout: cfg.Timeout}, parse), noopCloser, nil

	case strings.HasPrefix(loc, "gs://"):
		bucket, object, err := ParseGSURL(loc)
		if err != nil {
			return nil, nil, err
		}
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("storage.NewClient: %w", err)
		}
		return NewGCSSource(client, bucket, object, parse), client, nil

	case repository.IsSQLDSN(loc):
		db, err := repository.Open(ctx, repository.Config{DSN: loc, MaxConns: 4, DialTimeout: cfg.Timeout}, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := db.HealthCheck(ctx, cfg.Timeout); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("watchlist database health: %w", err)
		}
		repo := repository.NewWatchlistRepository(db, cfg.Table, cfg.Column, logger)
		return NewSQLSource(repo, db.Dialect+":"+cfg.Table), db, nil

	default:
		return NewFileSource(strings.TrimPrefix(loc, "file://"), parse), noopCloser, nil
	}
}
