package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"github.com/zjy-dev/covtrack/internal/coverage"
)

// schema contains the DDL executed on first open. Using IF NOT EXISTS makes
// it safe to run on every startup. The records table is a log: inserts
// only, no updates or deletes.
const schema = `
CREATE TABLE IF NOT EXISTS records (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    repo        TEXT NOT NULL,
    branch      TEXT NOT NULL,
    commit_id   TEXT NOT NULL,
    team        TEXT NOT NULL DEFAULT '',
    recorded_at INTEGER NOT NULL,
    report      BLOB NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_key ON records (repo, branch, commit_id);
CREATE INDEX IF NOT EXISTS idx_records_team ON records (team);
`

// SQLiteStore implements Store using a local SQLite database in WAL mode.
// SQLite serializes writes, which gives Append the atomicity the log
// contract requires without any locking in this package.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the record log at dbPath, enables WAL mode
// and a busy timeout, and creates the schema idempotently.
func OpenSQLite(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, unavailable("open database", err)
	}

	// One connection: SQLite supports a single writer, and a single pooled
	// connection avoids SQLITE_BUSY contention between connections that
	// each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, unavailable("enable WAL mode", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, unavailable("set busy timeout", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, unavailable("create schema", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append writes a new record. RecordedAt defaults to the current time when
// zero. The log never rejects a duplicate key.
func (s *SQLiteStore) Append(ctx context.Context, rec Record) (int64, error) {
	if rec.Report == nil {
		return 0, errors.New("tracking: append requires a report")
	}
	if rec.RecordedAt.IsZero() {
		rec.RecordedAt = time.Now().UTC()
	}

	report, err := rec.Report.Marshal()
	if err != nil {
		return 0, fmt.Errorf("tracking: serialize report: %w", err)
	}

	const q = `
		INSERT INTO records (repo, branch, commit_id, team, recorded_at, report)
		VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		rec.Repo, rec.Branch, rec.Commit, rec.Team, rec.RecordedAt.UnixNano(), report)
	if err != nil {
		return 0, unavailable(fmt.Sprintf("append record for %s/%s@%s", rec.Repo, rec.Branch, rec.Commit), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, unavailable("resolve record id", err)
	}
	return id, nil
}

// Get returns the most recent record for (repo, branch, commit). Duplicate
// appends for the same key are resolved by recorded_at, then insertion id.
func (s *SQLiteStore) Get(ctx context.Context, repo, branch, commit string) (*Record, error) {
	const q = `
		SELECT id, repo, branch, commit_id, team, recorded_at, report
		FROM records
		WHERE repo = ? AND branch = ? AND commit_id = ?
		ORDER BY recorded_at DESC, id DESC
		LIMIT 1`

	rec, err := scanRecord(s.db.QueryRowContext(ctx, q, repo, branch, commit))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s@%s", ErrNotFound, repo, branch, commit)
	}
	if err != nil {
		return nil, unavailable("get record", err)
	}
	return rec, nil
}

// Iterate enumerates records matching scope in insertion order.
func (s *SQLiteStore) Iterate(ctx context.Context, scope Scope) (Cursor, error) {
	q := `SELECT id, repo, branch, commit_id, team, recorded_at, report FROM records`
	var args []any
	switch {
	case scope.Repo != "":
		q += ` WHERE repo = ?`
		args = append(args, scope.Repo)
	case scope.Team != "":
		q += ` WHERE team = ?`
		args = append(args, scope.Team)
	}
	q += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, unavailable("iterate records", err)
	}
	return &sqliteCursor{rows: rows}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// sqliteCursor decodes rows lazily as the caller advances.
type sqliteCursor struct {
	rows *sql.Rows
	rec  *Record
	err  error
}

func (c *sqliteCursor) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	rec, err := scanRecord(c.rows)
	if err != nil {
		c.err = fmt.Errorf("tracking: decode record: %w", err)
		return false
	}
	c.rec = rec
	return true
}

func (c *sqliteCursor) Record() *Record { return c.rec }

func (c *sqliteCursor) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *sqliteCursor) Close() error { return c.rows.Close() }

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		rec        Record
		recordedAt int64
		report     []byte
	)
	if err := row.Scan(&rec.ID, &rec.Repo, &rec.Branch, &rec.Commit, &rec.Team, &recordedAt, &report); err != nil {
		return nil, err
	}

	rec.RecordedAt = time.Unix(0, recordedAt).UTC()
	parsed, err := coverage.Unmarshal(report)
	if err != nil {
		return nil, err
	}
	rec.Report = parsed
	return &rec, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
