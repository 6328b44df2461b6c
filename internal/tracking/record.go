// Package tracking persists historical coverage records and rebuilds
// aggregate views from them.
//
// The store is an append-only log: a record, once written, is never mutated
// or deleted, and re-running on the same commit appends a new record rather
// than replacing the old one. Every aggregate is a pure function of the
// stored records, so it can always be regenerated by replay.
package tracking

import (
	"context"
	"errors"
	"time"

	"github.com/zjy-dev/covtrack/internal/coverage"
)

// ErrNotFound is returned by Get when no record matches the key.
var ErrNotFound = errors.New("tracking: record not found")

// ErrStoreUnavailable marks failures to reach the underlying storage. It is
// propagated to the caller and never invalidates coverage results already
// computed in memory.
var ErrStoreUnavailable = errors.New("tracking: store unavailable")

// Record is one persisted coverage snapshot for a (repo, branch, commit)
// key. ID and RecordedAt are assigned by the store on append.
type Record struct {
	ID         int64
	Repo       string
	Branch     string
	Commit     string
	Team       string
	RecordedAt time.Time
	Report     *coverage.Report
}

// Scope selects which records Iterate enumerates: all records of one repo,
// or all records carrying one team label. A zero Scope selects everything.
// The store matches Team against the label frozen into each record; callers
// that need current repo/team associations resolve them after loading.
type Scope struct {
	Repo string
	Team string
}

// RepoScope scopes iteration to a single repository.
func RepoScope(repo string) Scope { return Scope{Repo: repo} }

// TeamScope scopes iteration to a team association.
func TeamScope(team string) Scope { return Scope{Team: team} }

// Cursor is a lazy, finite sequence of records in write order. It is
// restartable by calling Store.Iterate again.
type Cursor interface {
	// Next advances to the next record, returning false at the end of the
	// sequence or on error.
	Next() bool
	// Record returns the current record. Only valid after Next returns true.
	Record() *Record
	// Err returns the first error encountered while iterating.
	Err() error
	// Close releases the cursor's resources.
	Close() error
}

// Store is the append-only tracking record log.
type Store interface {
	// Append writes a new record and returns its id. Duplicate keys are
	// always retained; last-write-wins applies only to Get.
	Append(ctx context.Context, rec Record) (int64, error)

	// Get returns the most recent record for the key, or ErrNotFound.
	Get(ctx context.Context, repo, branch, commit string) (*Record, error)

	// Iterate enumerates records matching scope in write order.
	Iterate(ctx context.Context, scope Scope) (Cursor, error)

	Close() error
}

// Collect drains a cursor into a slice, closing it afterwards.
func Collect(cur Cursor) ([]Record, error) {
	defer cur.Close()

	var records []Record
	for cur.Next() {
		records = append(records, *cur.Record())
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
