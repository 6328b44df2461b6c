// Package report renders coverage results and publishes them through an
// abstract reporter, keeping the core network-agnostic.
package report

import (
	"context"

	"github.com/zjy-dev/covtrack/internal/coverage"
	"github.com/zjy-dev/covtrack/internal/diff"
	"github.com/zjy-dev/covtrack/internal/logger"
)

// Meta carries the context a publisher needs to attach a result to the
// right place (commit comment, PR annotation, check run).
type Meta struct {
	Repo        string
	Branch      string
	Commit      string
	PullRequest int
}

// Reporter publishes coverage results. Implementations render the value
// objects however they like (GitHub comments, check runs, plain logs); the
// pipeline only depends on this interface, so a publish failure can never
// corrupt an already-computed report or delta.
type Reporter interface {
	// PublishReport publishes a single-snapshot result (push scenario).
	PublishReport(ctx context.Context, rep *coverage.Report, meta Meta) error

	// PublishDelta publishes a comparison result (pull-request scenario).
	PublishDelta(ctx context.Context, delta *diff.Delta, meta Meta) error
}

// LogReporter writes human-readable summaries to the log. It is the default
// publisher when no GitHub integration is wired in.
type LogReporter struct {
	// Threshold hides per-file deltas smaller than this ratio from the
	// delta summary. Zero shows everything that changed.
	Threshold float64
}

func (r *LogReporter) PublishReport(_ context.Context, rep *coverage.Report, meta Meta) error {
	logger.Infof("coverage for %s@%s:\n%s", meta.Repo, meta.Commit, Summary(rep))
	return nil
}

func (r *LogReporter) PublishDelta(_ context.Context, delta *diff.Delta, meta Meta) error {
	logger.Infof("coverage delta for %s PR #%d:\n%s", meta.Repo, meta.PullRequest, DeltaSummary(delta, r.Threshold))
	return nil
}
