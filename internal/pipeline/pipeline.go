// Package pipeline wires the parse → diff → persist → report sequence for
// one invocation.
//
// A run is a single linear pipeline. Parsing failures are fatal and abort
// the run with no partial result. Persistence and reporting failures are
// surfaced to the caller but never invalidate the report or delta already
// computed in memory.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zjy-dev/covtrack/internal/coverage"
	"github.com/zjy-dev/covtrack/internal/diff"
	"github.com/zjy-dev/covtrack/internal/lcov"
	"github.com/zjy-dev/covtrack/internal/logger"
	"github.com/zjy-dev/covtrack/internal/report"
	"github.com/zjy-dev/covtrack/internal/tracking"
)

// Pipeline holds the collaborators for a run. Store is optional; a nil
// Store disables persistence and store-backed comparisons.
type Pipeline struct {
	Reporter report.Reporter
	Store    tracking.Store

	// Epsilon is the diff engine's modified/unchanged cutoff.
	Epsilon float64
}

// PushParams configures a push run: report current coverage for one commit,
// optionally persisting it to the tracking store.
type PushParams struct {
	LcovPath     string
	SourcePrefix string

	Repo   string
	Branch string
	Commit string
	Team   string

	// Persist appends the parsed report to the tracking store
	// (push-with-report mode).
	Persist bool
}

// Push parses coverage for a single commit, persists it when requested, and
// publishes the report. On persistence or publish failure the parsed report
// is still returned alongside the error.
func (p *Pipeline) Push(ctx context.Context, params PushParams) (*coverage.Report, error) {
	rep, err := lcov.ParseFile(params.LcovPath, params.SourcePrefix)
	if err != nil {
		return nil, err
	}
	warnUnstrippedPaths(rep, params.SourcePrefix)

	var failures []error

	if params.Persist {
		if p.Store == nil {
			failures = append(failures, errors.New("pipeline: persistence requested but no store configured"))
		} else if _, err := p.Store.Append(ctx, tracking.Record{
			Repo:   params.Repo,
			Branch: params.Branch,
			Commit: params.Commit,
			Team:   params.Team,
			Report: rep,
		}); err != nil {
			logger.Errorf("failed to persist tracking record: %v", err)
			failures = append(failures, err)
		}
	}

	meta := report.Meta{Repo: params.Repo, Branch: params.Branch, Commit: params.Commit}
	if err := p.Reporter.PublishReport(ctx, rep, meta); err != nil {
		logger.Errorf("failed to publish report: %v", err)
		failures = append(failures, err)
	}

	return rep, errors.Join(failures...)
}

// PullRequestParams configures a pull-request run: compare head coverage
// against an optional prior snapshot.
type PullRequestParams struct {
	HeadLcovPath string
	// BaseLcovPath is the prior snapshot's LCOV file. When empty the base
	// is looked up in the tracking store by BaseCommit; when that also
	// yields nothing the run degrades to a plain report on head.
	BaseLcovPath string
	SourcePrefix string

	Repo        string
	Branch      string
	Commit      string
	BaseCommit  string
	PullRequest int
}

// PullRequest parses head coverage, resolves a base snapshot, and publishes
// the delta. Without a base it publishes the head report and returns a nil
// delta ("no comparison available").
func (p *Pipeline) PullRequest(ctx context.Context, params PullRequestParams) (*diff.Delta, error) {
	head, err := lcov.ParseFile(params.HeadLcovPath, params.SourcePrefix)
	if err != nil {
		return nil, err
	}
	warnUnstrippedPaths(head, params.SourcePrefix)

	base, err := p.resolveBase(ctx, params)
	if err != nil {
		return nil, err
	}

	meta := report.Meta{
		Repo:        params.Repo,
		Branch:      params.Branch,
		Commit:      params.Commit,
		PullRequest: params.PullRequest,
	}

	if base == nil {
		logger.Infof("no base snapshot available, reporting head coverage only")
		if err := p.Reporter.PublishReport(ctx, head, meta); err != nil {
			logger.Errorf("failed to publish report: %v", err)
			return nil, err
		}
		return nil, nil
	}

	delta := diff.DiffWithOptions(base, head, diff.Options{Epsilon: p.Epsilon})

	if err := p.Reporter.PublishDelta(ctx, delta, meta); err != nil {
		logger.Errorf("failed to publish delta: %v", err)
		return delta, err
	}
	return delta, nil
}

// resolveBase loads the base report from a file, the tracking store, or
// neither. A missing store record is recoverable, not an error.
func (p *Pipeline) resolveBase(ctx context.Context, params PullRequestParams) (*coverage.Report, error) {
	if params.BaseLcovPath != "" {
		base, err := lcov.ParseFile(params.BaseLcovPath, params.SourcePrefix)
		if err != nil {
			return nil, fmt.Errorf("parse base snapshot: %w", err)
		}
		return base, nil
	}

	if p.Store == nil || params.BaseCommit == "" {
		return nil, nil
	}

	rec, err := p.Store.Get(ctx, params.Repo, params.Branch, params.BaseCommit)
	if errors.Is(err, tracking.ErrNotFound) {
		logger.Warnf("no tracking record for %s/%s@%s", params.Repo, params.Branch, params.BaseCommit)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec.Report, nil
}

// RebuildParams configures a tracking rebuild run.
type RebuildParams struct {
	Scope     tracking.Scope
	OutputDir string

	// Teams maps a repository to its current team association. It overrides
	// the label stored on each record, so a team onboarded after its records
	// were written still claims them on rebuild.
	Teams map[string]string
}

// Rebuild replays the tracking store's history into a fresh aggregate view
// and renders it as markdown under OutputDir.
func (p *Pipeline) Rebuild(ctx context.Context, params RebuildParams) (*tracking.AggregateView, error) {
	if p.Store == nil {
		return nil, errors.New("pipeline: rebuild requires a tracking store")
	}

	// Team scoping is applied after the fold, against the resolved
	// associations rather than the labels frozen into the records.
	scope := params.Scope
	teamFilter := scope.Team
	scope.Team = ""

	cur, err := p.Store.Iterate(ctx, scope)
	if err != nil {
		return nil, err
	}
	records, err := tracking.Collect(cur)
	if err != nil {
		return nil, err
	}

	view := tracking.Rebuild(records, params.Teams)
	if teamFilter != "" {
		for key, trend := range view.Branches {
			if trend.Team != teamFilter {
				delete(view.Branches, key)
			}
		}
	}
	logger.Infof("rebuilt aggregate from %d records across %d branches", len(records), len(view.Branches))

	if params.OutputDir != "" {
		writer := report.NewAggregateWriter(params.OutputDir)
		if err := writer.WriteIndex(view); err != nil {
			return view, err
		}
		latest := latestReports(records)
		for _, key := range view.Keys() {
			if err := writer.WriteBranchReport(view.Branches[key], latest[key]); err != nil {
				return view, err
			}
		}
	}
	return view, nil
}

// latestReports picks each branch's newest record by (RecordedAt, ID).
func latestReports(records []tracking.Record) map[tracking.BranchKey]*coverage.Report {
	newest := make(map[tracking.BranchKey]tracking.Record)
	for _, rec := range records {
		key := tracking.BranchKey{Repo: rec.Repo, Branch: rec.Branch}
		prev, ok := newest[key]
		if !ok || rec.RecordedAt.After(prev.RecordedAt) ||
			(rec.RecordedAt.Equal(prev.RecordedAt) && rec.ID > prev.ID) {
			newest[key] = rec
		}
	}

	reports := make(map[tracking.BranchKey]*coverage.Report, len(newest))
	for key, rec := range newest {
		reports[key] = rec.Report
	}
	return reports
}

// warnUnstrippedPaths surfaces paths the source prefix did not match.
// Mismatches are non-fatal; the reconciler will classify them on its own.
func warnUnstrippedPaths(rep *coverage.Report, sourcePrefix string) {
	if sourcePrefix == "" {
		return
	}
	for _, path := range rep.Paths() {
		if strings.HasPrefix(path, "/") {
			logger.Warnf("path %q did not match source prefix %q", path, sourcePrefix)
		}
	}
}
