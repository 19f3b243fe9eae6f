package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS invoices (
	id              TEXT PRIMARY KEY,
	source_sha256   TEXT NOT NULL UNIQUE,
	source_file     TEXT NOT NULL,
	number          TEXT NOT NULL,
	state_code      TEXT NOT NULL,
	municipality    TEXT NOT NULL,
	provider_name   TEXT NOT NULL,
	client_name     TEXT NOT NULL,
	issue_date      TEXT NOT NULL,
	total_value     TEXT NOT NULL,
	tax_value       TEXT NOT NULL DEFAULT '',
	is_taxed        INTEGER NOT NULL,
	confidence      REAL NOT NULL,
	detected_format TEXT NOT NULL,
	state           TEXT NOT NULL,
	payload         TEXT NOT NULL,
	analyzed_at     TEXT NOT NULL,
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS invoices_state_code_idx ON invoices (state_code);
`

// SQLiteRepository stores invoices in a local SQLite file through the ent
// SQL builder. It is the default store for the CLI tools.
type SQLiteRepository struct {
	db     *sql.DB
	drv    *entsql.Driver
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path. Use ":memory:" for tests.
func OpenSQLite(ctx context.Context, path string, logger *slog.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a second connection to ":memory:" would see an empty database
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	logger.Info("sqlite store ready", "path", path)
	return &SQLiteRepository{db: db, drv: entsql.OpenDB(dialect.SQLite, db), logger: logger}, nil
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) Save(ctx context.Context, inv *entity.Invoice) (uuid.UUID, error) {
	values, err := row(inv)
	if err != nil {
		return uuid.Nil, err
	}
	for i, v := range values {
		if t, ok := v.(time.Time); ok {
			values[i] = formatTime(t)
		}
	}
	now := formatTime(time.Now().UTC())
	id := uuid.New()

	cols := append([]string{"id"}, savedColumns...)
	cols = append(cols, "created_at")
	args := append([]any{id.String()}, values...)
	args = append(args, now)

	query, qargs := entsql.Dialect(dialect.SQLite).
		Insert(invoicesTable).
		Columns(cols...).
		Values(args...).
		OnConflict(
			entsql.ConflictColumns("source_sha256"),
			entsql.ResolveWith(func(u *entsql.UpdateSet) {
				for _, c := range savedColumns {
					u.SetExcluded(c)
				}
			}),
		).
		Query()
	if _, err := r.drv.ExecContext(ctx, query, qargs...); err != nil {
		r.logger.Error("failed to save invoice", "sha256", inv.SourceSHA256, "error", err)
		return uuid.Nil, err
	}

	rec, err := r.GetBySHA256(ctx, inv.SourceSHA256)
	if err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.one(ctx, entsql.EQ("id", id.String()), "invoice "+id.String())
}

func (r *SQLiteRepository) GetBySHA256(ctx context.Context, sum string) (*Record, error) {
	return r.one(ctx, entsql.EQ("source_sha256", sum), "invoice with sha256 "+sum)
}

func (r *SQLiteRepository) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(selectColumns...).
		From(entsql.Table(invoicesTable)).
		OrderBy(entsql.Desc("analyzed_at"))
	if filter.StateCode != "" {
		sel.Where(entsql.EQ("state_code", filter.StateCode))
	}
	if filter.State != "" {
		sel.Where(entsql.EQ("state", string(filter.State)))
	}
	if filter.Limit > 0 {
		sel.Limit(filter.Limit)
	}
	return r.query(ctx, sel)
}

func (r *SQLiteRepository) one(ctx context.Context, p *entsql.Predicate, what string) (*Record, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(selectColumns...).
		From(entsql.Table(invoicesTable)).
		Where(p).
		Limit(1)
	recs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, notFound(what)
	}
	return &recs[0], nil
}

func (r *SQLiteRepository) query(ctx context.Context, sel *entsql.Selector) ([]Record, error) {
	query, args := sel.Query()
	rows, err := r.drv.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query invoices", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var id, payload, created, updated string
		if err := rows.Scan(&id, &payload, &created, &updated); err != nil {
			return nil, err
		}
		rec, err := sqliteRecord(id, payload, created, updated)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func sqliteRecord(id, payload, created, updated string) (Record, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return Record{}, fmt.Errorf("parse id %q: %w", id, err)
	}
	inv, err := decodePayload(payload)
	if err != nil {
		return Record{}, err
	}
	c, err1 := time.Parse(sqliteTime, created)
	u, err2 := time.Parse(sqliteTime, updated)
	if err := errors.Join(err1, err2); err != nil {
		return Record{}, fmt.Errorf("parse timestamps: %w", err)
	}
	return Record{ID: uid, Invoice: inv, CreatedAt: c, UpdatedAt: u}, nil
}

// sqliteTime has a fixed width so stored timestamps sort lexically.
const sqliteTime = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTime)
}
