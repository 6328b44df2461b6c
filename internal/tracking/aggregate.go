package tracking

import (
	"sort"
	"time"
)

// Trend windows mirror the periods the fleet dashboard reports on.
const (
	trendWindow7d  = 7 * 24 * time.Hour
	trendWindow30d = 30 * 24 * time.Hour
	trendWindow90d = 90 * 24 * time.Hour
)

// BranchKey identifies one tracked branch of one repository.
type BranchKey struct {
	Repo   string
	Branch string
}

// BranchTrend is the rebuilt trend for one branch: its latest coverage and
// the deltas over the recent windows. All window deltas are anchored on the
// branch's newest record timestamp, not on wall-clock time, so the trend is
// a pure function of the records.
type BranchTrend struct {
	Repo   string
	Branch string
	Team   string

	LatestRatio float64
	LatestAt    time.Time

	// LastDelta is latest minus previous record; for a branch with a single
	// record it is the latest ratio itself.
	LastDelta float64
	Delta7d   float64
	Delta30d  float64
	Delta90d  float64

	Records int
}

// AggregateView is the rebuilt fleet-wide view. It is derived data: never
// the source of truth, always recomputable by replaying the record log.
type AggregateView struct {
	Branches map[BranchKey]*BranchTrend
}

// Keys returns the branch keys in sorted order.
func (v *AggregateView) Keys() []BranchKey {
	keys := make([]BranchKey, 0, len(v.Branches))
	for k := range v.Branches {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Repo != keys[j].Repo {
			return keys[i].Repo < keys[j].Repo
		}
		return keys[i].Branch < keys[j].Branch
	})
	return keys
}

// ByTeam groups the branch trends by team, each group sorted by key.
func (v *AggregateView) ByTeam() map[string][]*BranchTrend {
	grouped := make(map[string][]*BranchTrend)
	for _, key := range v.Keys() {
		trend := v.Branches[key]
		grouped[trend.Team] = append(grouped[trend.Team], trend)
	}
	return grouped
}

// sample is one (timestamp, ratio) observation for a branch.
type sample struct {
	id    int64
	at    time.Time
	ratio float64
	team  string
}

// Rebuild folds a record sequence into an aggregate view. teams maps a
// repository to its current team association and takes precedence over the
// label stored in each record, so an association declared after records were
// written still applies on replay. The fold is order-independent: records
// are sorted internally by (RecordedAt, ID) before folding, so any
// permutation of the same records yields the same view. This is the store's
// recovery path after corruption, schema change, or retroactive team
// onboarding.
func Rebuild(records []Record, teams map[string]string) *AggregateView {
	byBranch := make(map[BranchKey][]sample)
	for _, rec := range records {
		key := BranchKey{Repo: rec.Repo, Branch: rec.Branch}
		byBranch[key] = append(byBranch[key], sample{
			id:    rec.ID,
			at:    rec.RecordedAt,
			ratio: rec.Report.TotalRatio(),
			team:  rec.Team,
		})
	}

	view := &AggregateView{Branches: make(map[BranchKey]*BranchTrend, len(byBranch))}
	for key, samples := range byBranch {
		sort.Slice(samples, func(i, j int) bool {
			if !samples[i].at.Equal(samples[j].at) {
				return samples[i].at.Before(samples[j].at)
			}
			return samples[i].id < samples[j].id
		})

		latest := samples[len(samples)-1]
		team := teams[key.Repo]
		if team == "" {
			team = latest.team
		}
		trend := &BranchTrend{
			Repo:        key.Repo,
			Branch:      key.Branch,
			Team:        team,
			LatestRatio: latest.ratio,
			LatestAt:    latest.at,
			Records:     len(samples),
		}

		if n := len(samples); n > 1 {
			trend.LastDelta = latest.ratio - samples[n-2].ratio
		} else {
			trend.LastDelta = latest.ratio
		}

		trend.Delta7d = windowDelta(samples, trendWindow7d)
		trend.Delta30d = windowDelta(samples, trendWindow30d)
		trend.Delta90d = windowDelta(samples, trendWindow90d)

		view.Branches[key] = trend
	}
	return view
}

// windowDelta returns newest minus oldest ratio among the samples inside
// the window ending at the newest sample. A window holding a single sample
// yields that sample's ratio.
func windowDelta(samples []sample, window time.Duration) float64 {
	end := samples[len(samples)-1].at
	start := end.Add(-window)

	var inWindow []sample
	for _, s := range samples {
		if !s.at.Before(start) && !s.at.After(end) {
			inWindow = append(inWindow, s)
		}
	}
	if len(inWindow) == 0 {
		return 0
	}
	if len(inWindow) == 1 {
		return inWindow[0].ratio
	}
	return inWindow[len(inWindow)-1].ratio - inWindow[0].ratio
}
