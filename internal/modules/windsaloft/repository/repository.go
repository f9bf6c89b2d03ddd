package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"windsaloft-server/internal/modules/windsaloft/types"
)

//go:embed sql/insert-query.sql
var insertQuerySQL string

//go:embed sql/list-queries.sql
var listQueriesSQL string

type QueryRepository interface {
	InsertQuery(ctx context.Context, rec types.QueryRecord) error
	ListQueries(ctx context.Context, limit int) ([]types.QueryRecord, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) QueryRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) InsertQuery(ctx context.Context, rec types.QueryRecord) error {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, insertQuerySQL,
		rec.Region,
		rec.Horizon,
		nullableInt(rec.LowAltitude),
		nullableInt(rec.HighAltitude),
		rec.Status,
		rec.Error,
		rec.Stations,
		rec.Columns,
		rec.DurationMs,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert query: %w", err)
	}
	return nil
}

func (r *repositoryImpl) ListQueries(ctx context.Context, limit int) ([]types.QueryRecord, error) {
	rows, err := r.db.QueryContext(ctx, listQueriesSQL, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Error("close queries rows", "error", err)
		}
	}()
	return scanQueries(rows)
}

func scanQueries(rows *sql.Rows) ([]types.QueryRecord, error) {
	var out []types.QueryRecord
	for rows.Next() {
		var rec types.QueryRecord
		var low, high sql.NullInt64
		var ts string
		if err := rows.Scan(&rec.ID, &rec.Region, &rec.Horizon, &low, &high, &rec.Status, &rec.Error,
			&rec.Stations, &rec.Columns, &rec.DurationMs, &ts); err != nil {
			return nil, err
		}
		rec.LowAltitude = intFromNull(low)
		rec.HighAltitude = intFromNull(high)
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			var err2 error
			t, err2 = time.Parse(time.RFC3339, ts)
			if err2 != nil {
				return nil, fmt.Errorf("parse timestamp %q: RFC3339Nano: %w; RFC3339: %w", ts, err, err2)
			}
		}
		rec.CreatedAt = t
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func intFromNull(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
