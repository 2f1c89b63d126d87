package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jonathan/jobhunter/internal/types"
)

// CurrentSchemaVersion is the latest SQLite schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// SQLite is the file-backed store.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) the database at path and applies
// migrations.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; the process is single-worker.
	db.SetMaxOpenConns(1)

	if err := migrateSQLite(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	_ = os.Chmod(path, 0o600)
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func userVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read user_version: %w", err)
	}
	return v, nil
}

// migrateSQLite applies schema migrations based on user_version.
func migrateSQLite(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS postings (
		  id                 INTEGER PRIMARY KEY AUTOINCREMENT,
		  platform           TEXT NOT NULL,
		  platform_id        TEXT NOT NULL,
		  title              TEXT NOT NULL,
		  company            TEXT NOT NULL,
		  location           TEXT NOT NULL DEFAULT '',
		  description        TEXT NOT NULL DEFAULT '',
		  url                TEXT NOT NULL DEFAULT '',
		  contact_email      TEXT NOT NULL DEFAULT '',
		  has_inline_apply   INTEGER NOT NULL DEFAULT 0,
		  posted_at          INTEGER,
		  scraped_at         INTEGER NOT NULL,
		  applied            INTEGER NOT NULL DEFAULT 0,
		  applied_at         INTEGER,
		  application_method TEXT NOT NULL DEFAULT 'none',
		  notes              TEXT
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_postings_platform_key
		ON postings(platform, platform_id);

		CREATE INDEX IF NOT EXISTS idx_postings_applied_at
		ON postings(applied_at DESC)
		WHERE applied = 1;

		CREATE TABLE IF NOT EXISTS applications (
		  id            TEXT PRIMARY KEY,
		  platform      TEXT NOT NULL,
		  platform_id   TEXT NOT NULL,
		  method        TEXT NOT NULL,
		  successful    INTEGER NOT NULL,
		  error_message TEXT NOT NULL DEFAULT '',
		  email_subject TEXT NOT NULL DEFAULT '',
		  attempted_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_applications_key
		ON applications(platform, platform_id);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", 1)); err != nil {
			return fmt.Errorf("failed to set user_version: %w", err)
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

// FindByKey implements Store.
func (s *SQLite) FindByKey(ctx context.Context, key types.PostingKey) (*types.Posting, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+postingColumns+` FROM postings WHERE platform = ? AND platform_id = ?`,
		string(key.Platform), key.PlatformID,
	)
	p, err := scanSQLitePosting(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, &StoreError{Op: "find", Key: key.String(), Cause: err}
	}
	return p, nil
}

// InsertIfAbsent implements Store.
func (s *SQLite) InsertIfAbsent(ctx context.Context, p *types.Posting) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO postings (`+postingColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(platform, platform_id) DO NOTHING`,
		string(p.Platform), p.PlatformID, p.Title, p.Company, p.Location, p.Description, p.URL,
		p.ContactEmail, p.HasInlineApply, millisOrNull(nullTime(p.PostedAt)), toMillis(p.ScrapedAt),
		p.Applied, millisOrNull(p.AppliedAt), string(methodOrNone(p.ApplicationMethod)), p.Notes,
	)
	if err != nil {
		return false, &StoreError{Op: "insert", Key: p.Key().String(), Cause: err}
	}
	return affectedOne(res)
}

// UpdateApplication implements Store.
func (s *SQLite) UpdateApplication(ctx context.Context, key types.PostingKey, at time.Time, method types.ApplicationMethod) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE postings SET applied = 1, applied_at = ?, application_method = ?
		 WHERE platform = ? AND platform_id = ? AND applied = 0`,
		toMillis(at), string(methodOrNone(method)), string(key.Platform), key.PlatformID,
	)
	if err != nil {
		return false, &StoreError{Op: "mark applied", Key: key.String(), Cause: err}
	}
	return affectedOne(res)
}

// UpdateNotes implements Store.
func (s *SQLite) UpdateNotes(ctx context.Context, key types.PostingKey, notes string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE postings SET notes = ? WHERE platform = ? AND platform_id = ? AND applied = 0`,
		notes, string(key.Platform), key.PlatformID,
	)
	if err != nil {
		return false, &StoreError{Op: "update notes", Key: key.String(), Cause: err}
	}
	return affectedOne(res)
}

// AppliedKeys implements Store.
func (s *SQLite) AppliedKeys(ctx context.Context) ([]types.PostingKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT platform, platform_id FROM postings WHERE applied = 1`)
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

// AppliedSince implements Store.
func (s *SQLite) AppliedSince(ctx context.Context, since time.Time) ([]types.Posting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+postingColumns+` FROM postings
		 WHERE applied = 1 AND applied_at >= ?
		 ORDER BY applied_at DESC`,
		toMillis(since),
	)
	if err != nil {
		return nil, &StoreError{Op: "list recent", Cause: err}
	}
	defer rows.Close()

	var out []types.Posting
	for rows.Next() {
		p, err := scanSQLitePosting(rows)
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

// InsertApplication implements Store.
func (s *SQLite) InsertApplication(ctx context.Context, rec *types.ApplicationRecord) error {
	id, err := recordID(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (id, platform, platform_id, method, successful, error_message, email_subject, attempted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), string(rec.Key.Platform), rec.Key.PlatformID, string(methodOrNone(rec.Method)),
		rec.Successful, rec.ErrorMessage, rec.EmailSubject, toMillis(rec.AttemptedAt),
	)
	if err != nil {
		return &StoreError{Op: "insert application", Key: rec.Key.String(), Cause: err}
	}
	return nil
}

// Applications returns the records stored for key, oldest first.
func (s *SQLite) Applications(ctx context.Context, key types.PostingKey) ([]types.ApplicationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, method, successful, error_message, email_subject, attempted_at
		 FROM applications WHERE platform = ? AND platform_id = ?
		 ORDER BY attempted_at ASC`,
		string(key.Platform), key.PlatformID,
	)
	if err != nil {
		return nil, &StoreError{Op: "list applications", Key: key.String(), Cause: err}
	}
	defer rows.Close()

	var out []types.ApplicationRecord
	for rows.Next() {
		rec := types.ApplicationRecord{Key: key}
		var method string
		var at int64
		if err := rows.Scan(&rec.ID, &method, &rec.Successful, &rec.ErrorMessage, &rec.EmailSubject, &at); err != nil {
			return nil, &StoreError{Op: "list applications", Key: key.String(), Cause: err}
		}
		rec.Method = types.ApplicationMethod(method)
		rec.AttemptedAt = fromMillis(at)
		out = append(out, rec)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSQLitePosting(row scanner) (*types.Posting, error) {
	var p types.Posting
	var platform, method string
	var postedAt, appliedAt sql.NullInt64
	var scrapedAt int64
	var notes sql.NullString
	err := row.Scan(&platform, &p.PlatformID, &p.Title, &p.Company, &p.Location, &p.Description,
		&p.URL, &p.ContactEmail, &p.HasInlineApply, &postedAt, &scrapedAt, &p.Applied,
		&appliedAt, &method, &notes)
	if err != nil {
		return nil, err
	}
	p.Platform = types.Platform(platform)
	p.ApplicationMethod, err = types.ParseApplicationMethod(method)
	if err != nil {
		return nil, err
	}
	p.ScrapedAt = fromMillis(scrapedAt)
	if postedAt.Valid {
		p.PostedAt = fromMillis(postedAt.Int64)
	}
	if appliedAt.Valid {
		t := fromMillis(appliedAt.Int64)
		p.AppliedAt = &t
	}
	if notes.Valid {
		n := notes.String
		p.Notes = &n
	}
	return &p, nil
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func millisOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return toMillis(*t)
}
