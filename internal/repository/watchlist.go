package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

type WatchlistRepository interface {
	ListNames(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	EnsureTable(ctx context.Context) error
	AddNames(ctx context.Context, names ...string) error
}

type watchlistRepository struct {
	db     *DB
	table  string
	column string
	logger *slog.Logger
}

func NewWatchlistRepository(db *DB, table, column string, logger *slog.Logger) WatchlistRepository {
	if table == "" {
		table = "watchlist"
	}
	if column == "" {
		column = "name"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &watchlistRepository{db: db, table: table, column: column, logger: logger}
}

func (r *watchlistRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.db.Dialect)
}

// ListNames returns every value of the configured column; NULLs come back empty.
func (r *watchlistRepository) ListNames(ctx context.Context) ([]string, error) {
	start := time.Now()
	query, args := r.builder().
		Select(r.column).
		From(entsql.Table(r.table)).
		Query()

	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var v sql.NullString
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan watchlist row: %w", err)
		}
		names = append(names, v.String)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist: %w", err)
	}

	r.logger.Debug("repository.watchlist.list", "table", r.table, "rows", len(names), "elapsed_ms", time.Since(start).Milliseconds())
	return names, nil
}

func (r *watchlistRepository) Count(ctx context.Context) (int, error) {
	query, args := r.builder().
		Select(entsql.Count("*")).
		From(entsql.Table(r.table)).
		Query()

	rows := &entsql.Rows{}
	if err := r.db.Driver.Query(ctx, query, args, rows); err != nil {
		return 0, fmt.Errorf("count watchlist: %w", err)
	}
	defer rows.Close()

	var n int
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}
	return n, rows.Err()
}

func (r *watchlistRepository) EnsureTable(ctx context.Context) error {
	query := r.builder().String(func(b *entsql.Builder) {
		b.WriteString("CREATE TABLE IF NOT EXISTS ").
			Ident(r.table).
			WriteString(" (").
			Ident(r.column).
			WriteString(" TEXT NOT NULL)")
	})

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, []any{}, &res); err != nil {
		return fmt.Errorf("create watchlist table: %w", err)
	}
	return nil
}

func (r *watchlistRepository) AddNames(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	ins := r.builder().Insert(r.table).Columns(r.column)
	for _, n := range names {
		ins.Values(n)
	}
	query, args := ins.Query()

	var res sql.Result
	if err := r.db.Driver.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("insert watchlist names: %w", err)
	}
	r.logger.Info("repository.watchlist.added", "table", r.table, "count", len(names))
	return nil
}
