package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/jobhunter/internal/types"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

var _ Store = (*DB)(nil)

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() error {
	if db.pool != nil {
		db.pool.Close()
	}
	return nil
}

const pgSchema = `
CREATE TABLE IF NOT EXISTS postings (
	id                 BIGSERIAL PRIMARY KEY,
	platform           TEXT NOT NULL,
	platform_id        TEXT NOT NULL,
	title              TEXT NOT NULL,
	company            TEXT NOT NULL,
	location           TEXT NOT NULL DEFAULT '',
	description        TEXT NOT NULL DEFAULT '',
	url                TEXT NOT NULL DEFAULT '',
	contact_email      TEXT NOT NULL DEFAULT '',
	has_inline_apply   BOOLEAN NOT NULL DEFAULT FALSE,
	posted_at          TIMESTAMPTZ,
	scraped_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	applied            BOOLEAN NOT NULL DEFAULT FALSE,
	applied_at         TIMESTAMPTZ,
	application_method TEXT NOT NULL DEFAULT 'none',
	notes              TEXT,
	CONSTRAINT postings_platform_key UNIQUE (platform, platform_id)
);

CREATE INDEX IF NOT EXISTS idx_postings_applied_at
ON postings (applied_at DESC) WHERE applied;

CREATE TABLE IF NOT EXISTS applications (
	id            UUID PRIMARY KEY,
	platform      TEXT NOT NULL,
	platform_id   TEXT NOT NULL,
	method        TEXT NOT NULL,
	successful    BOOLEAN NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	email_subject TEXT NOT NULL DEFAULT '',
	attempted_at  TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_applications_key
ON applications (platform, platform_id);
`

// Migrate creates the schema if it does not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

const postingColumns = `platform, platform_id, title, company, location, description, url,
	contact_email, has_inline_apply, posted_at, scraped_at, applied, applied_at,
	application_method, notes`

// FindByKey retrieves a posting by its composite key
func (db *DB) FindByKey(ctx context.Context, key types.PostingKey) (*types.Posting, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE platform = $1 AND platform_id = $2`,
		string(key.Platform), key.PlatformID,
	)
	p, err := scanPgPosting(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, &StoreError{Op: "find", Key: key.String(), Cause: err}
	}
	return p, nil
}

// InsertIfAbsent inserts a posting unless its key is already stored
func (db *DB) InsertIfAbsent(ctx context.Context, p *types.Posting) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`INSERT INTO postings (`+postingColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		 ON CONFLICT (platform, platform_id) DO NOTHING`,
		string(p.Platform), p.PlatformID, p.Title, p.Company, p.Location, p.Description, p.URL,
		p.ContactEmail, p.HasInlineApply, nullTime(p.PostedAt), p.ScrapedAt, p.Applied, p.AppliedAt,
		string(methodOrNone(p.ApplicationMethod)), p.Notes,
	)
	if err != nil {
		return false, &StoreError{Op: "insert", Key: p.Key().String(), Cause: err}
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateApplication marks a not-yet-applied posting as applied
func (db *DB) UpdateApplication(ctx context.Context, key types.PostingKey, at time.Time, method types.ApplicationMethod) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE postings SET applied = TRUE, applied_at = $1, application_method = $2
		 WHERE platform = $3 AND platform_id = $4 AND NOT applied`,
		at, string(methodOrNone(method)), string(key.Platform), key.PlatformID,
	)
	if err != nil {
		return false, &StoreError{Op: "mark applied", Key: key.String(), Cause: err}
	}
	return tag.RowsAffected() == 1, nil
}

// UpdateNotes records an error note on a not-yet-applied posting
func (db *DB) UpdateNotes(ctx context.Context, key types.PostingKey, notes string) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE postings SET notes = $1 WHERE platform = $2 AND platform_id = $3 AND NOT applied`,
		notes, string(key.Platform), key.PlatformID,
	)
	if err != nil {
		return false, &StoreError{Op: "update notes", Key: key.String(), Cause: err}
	}
	return tag.RowsAffected() == 1, nil
}

// AppliedKeys lists the keys of every applied posting
func (db *DB) AppliedKeys(ctx context.Context) ([]types.PostingKey, error) {
	rows, err := db.pool.Query(ctx, `SELECT platform, platform_id FROM postings WHERE applied`)
	if err != nil {
		return nil, &StoreError{Op: "list applied", Cause: err}
	}
	defer rows.Close()

	var keys []types.PostingKey
	for rows.Next() {
		var platform, id string
		if err := rows.Scan(&platform, &id); err != nil {
			return nil, &StoreError{Op: "list applied", Cause: err}
		}
		keys = append(keys, types.PostingKey{Platform: types.Platform(platform), PlatformID: id})
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list applied", Cause: err}
	}
	return keys, nil
}

// AppliedSince lists postings applied at or after since, newest first
func (db *DB) AppliedSince(ctx context.Context, since time.Time) ([]types.Posting, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+postingColumns+` FROM postings
		 WHERE applied AND applied_at >= $1
		 ORDER BY applied_at DESC`,
		since,
	)
	if err != nil {
		return nil, &StoreError{Op: "list recent", Cause: err}
	}
	defer rows.Close()

	var out []types.Posting
	for rows.Next() {
		p, err := scanPgPosting(rows)
		if err != nil {
			return nil, &StoreError{Op: "list recent", Cause: err}
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "list recent", Cause: err}
	}
	return out, nil
}

// InsertApplication appends an application record
func (db *DB) InsertApplication(ctx context.Context, rec *types.ApplicationRecord) error {
	id, err := recordID(rec)
	if err != nil {
		return err
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO applications (id, platform, platform_id, method, successful, error_message, email_subject, attempted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(rec.Key.Platform), rec.Key.PlatformID, string(methodOrNone(rec.Method)),
		rec.Successful, rec.ErrorMessage, rec.EmailSubject, rec.AttemptedAt,
	)
	if err != nil {
		return &StoreError{Op: "insert application", Key: rec.Key.String(), Cause: err}
	}
	return nil
}

func scanPgPosting(row pgx.Row) (*types.Posting, error) {
	var p types.Posting
	var platform, method string
	var postedAt *time.Time
	err := row.Scan(&platform, &p.PlatformID, &p.Title, &p.Company, &p.Location, &p.Description,
		&p.URL, &p.ContactEmail, &p.HasInlineApply, &postedAt, &p.ScrapedAt, &p.Applied,
		&p.AppliedAt, &method, &p.Notes)
	if err != nil {
		return nil, err
	}
	p.Platform = types.Platform(platform)
	p.ApplicationMethod, err = types.ParseApplicationMethod(method)
	if err != nil {
		return nil, err
	}
	if postedAt != nil {
		p.PostedAt = *postedAt
	}
	return &p, nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
