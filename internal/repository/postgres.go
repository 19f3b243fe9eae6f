package repository

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/nfse-extractor/internal/entity"
)

// PostgresSchema creates the invoices table; applied by EnsureSchema.
const PostgresSchema = `
CREATE TABLE IF NOT EXISTS invoices (
	id              UUID PRIMARY KEY,
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
	is_taxed        BOOLEAN NOT NULL,
	confidence      DOUBLE PRECISION NOT NULL,
	detected_format TEXT NOT NULL,
	state           TEXT NOT NULL,
	payload         TEXT NOT NULL,
	analyzed_at     TIMESTAMPTZ NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS invoices_state_code_idx ON invoices (state_code);
`

type PostgresRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

func NewPostgresRepository(pool *pgxpool.Pool, logger *slog.Logger) *PostgresRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresRepository{pool: pool, logger: logger}
}

func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, PostgresSchema)
	return err
}

func (r *PostgresRepository) Save(ctx context.Context, inv *entity.Invoice) (uuid.UUID, error) {
	values, err := row(inv)
	if err != nil {
		return uuid.Nil, err
	}
	updates := make([]string, len(savedColumns))
	for i, c := range savedColumns {
		updates[i] = c + " = EXCLUDED." + c
	}

	query := squirrel.Insert(invoicesTable).
		Columns(append([]string{"id"}, savedColumns...)...).
		Values(append([]any{uuid.New()}, values...)...).
		Suffix("ON CONFLICT (source_sha256) DO UPDATE SET " + strings.Join(updates, ", ") + " RETURNING id").
		PlaceholderFormat(squirrel.Dollar)

	sql, args, err := query.ToSql()
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	if err := r.pool.QueryRow(ctx, sql, args...).Scan(&id); err != nil {
		r.logger.Error("failed to save invoice", "sha256", inv.SourceSHA256, "error", err)
		return uuid.Nil, err
	}
	return id, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return r.one(ctx, squirrel.Eq{"id": id}, "invoice "+id.String())
}

func (r *PostgresRepository) GetBySHA256(ctx context.Context, sum string) (*Record, error) {
	return r.one(ctx, squirrel.Eq{"source_sha256": sum}, "invoice with sha256 "+sum)
}

func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	query := r.selectRecords().OrderBy("analyzed_at DESC")
	if filter.StateCode != "" {
		query = query.Where(squirrel.Eq{"state_code": filter.StateCode})
	}
	if filter.State != "" {
		query = query.Where(squirrel.Eq{"state": string(filter.State)})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	return r.query(ctx, query)
}

func (r *PostgresRepository) selectRecords() squirrel.SelectBuilder {
	return squirrel.Select("id", "payload", "created_at", "updated_at").
		From(invoicesTable).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *PostgresRepository) one(ctx context.Context, where squirrel.Eq, what string) (*Record, error) {
	recs, err := r.query(ctx, r.selectRecords().Where(where).Limit(1))
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, notFound(what)
	}
	return &recs[0], nil
}

func (r *PostgresRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]Record, error) {
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		r.logger.Error("failed to query invoices", "error", err)
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			payload string
			created time.Time
			updated time.Time
		)
		if err := rows.Scan(&rec.ID, &payload, &created, &updated); err != nil {
			return nil, err
		}
		if rec.Invoice, err = decodePayload(payload); err != nil {
			return nil, err
		}
		rec.CreatedAt, rec.UpdatedAt = created, updated
		out = append(out, rec)
	}
	return out, rows.Err()
}
