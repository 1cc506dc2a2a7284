package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/disha/internal/domain/submission"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("submission not found")

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
	id          UUID PRIMARY KEY,
	session_id  TEXT NOT NULL,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS submissions_session_created_idx ON submissions (session_id, created_at DESC);
`

// PostgresRepository persists submissions in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the submissions table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// Create inserts a new row.
func (r *PostgresRepository) Create(ctx context.Context, rec submission.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO submissions (id, session_id, kind, status, error, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.SessionID, string(rec.Kind), string(rec.Status), rec.Error, rec.CreatedAt, rec.UpdatedAt)
	return err
}

// UpdateStatus settles a row.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status submission.Status, errMsg string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE submissions
		SET status = $2, error = $3, updated_at = $4
		WHERE id = $1
	`, id, string(status), errMsg, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBySession returns a session's rows, newest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]submission.Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, session_id, kind, status, error, created_at, updated_at
		FROM submissions
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]submission.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (submission.Record, error) {
	var (
		rec            submission.Record
		kind, status   string
		created, moved time.Time
	)
	if err := row.Scan(&rec.ID, &rec.SessionID, &kind, &status, &rec.Error, &created, &moved); err != nil {
		return submission.Record{}, err
	}
	rec.Kind = submission.Kind(kind)
	rec.Status = submission.Status(status)
	rec.CreatedAt = created.UTC()
	rec.UpdatedAt = moved.UTC()
	return rec, nil
}

var _ submission.Repository = (*PostgresRepository)(nil)
