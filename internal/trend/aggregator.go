// Package trend maintains the derived accuracy time series. Trend rows are
// a materialized view over completed runs: recomputation always replaces
// whole buckets, so replays never double-count.
package trend

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/benefitsnav/maive/internal/domain"
	"github.com/benefitsnav/maive/internal/storage"
)

type Aggregator struct {
	runs   storage.RunStore
	trends storage.TrendStore
}

func NewAggregator(runs storage.RunStore, trends storage.TrendStore) *Aggregator {
	return &Aggregator{runs: runs, trends: trends}
}

// Recompute rebuilds the trend rows for one jurisdiction over the UTC days
// from..to inclusive. The empty jurisdiction is its own bucket holding only
// unscoped runs. Bounds are widened to whole days so a bucket is never
// half-replaced.
func (a *Aggregator) Recompute(ctx context.Context, jurisdiction string, from, to time.Time) ([]domain.AccuracyTrend, error) {
	from = domain.TrendDay(from)
	to = domain.TrendDay(to).AddDate(0, 0, 1)

	runs, err := a.runs.ListCompletedRuns(ctx, jurisdiction, from, to)
	if err != nil {
		return nil, fmt.Errorf("load completed runs: %w", err)
	}

	type bucket struct {
		accuracySum float64
		runCount    int
		testCount   int
	}
	buckets := make(map[time.Time]*bucket)
	for _, run := range runs {
		day := domain.TrendDay(*run.CompletedAt)
		b, ok := buckets[day]
		if !ok {
			b = &bucket{}
			buckets[day] = b
		}
		b.accuracySum += run.OverallAccuracy
		b.runCount++
		b.testCount += run.TotalTests
	}

	rows := make([]domain.AccuracyTrend, 0, len(buckets))
	for day, b := range buckets {
		rows = append(rows, domain.AccuracyTrend{
			Date:         day,
			Jurisdiction: jurisdiction,
			AvgAccuracy:  b.accuracySum / float64(b.runCount),
			TestCount:    b.testCount,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	if err := a.trends.ReplaceTrends(ctx, jurisdiction, from, to, rows); err != nil {
		return nil, fmt.Errorf("replace trend rows: %w", err)
	}

	slog.Info("Recomputed accuracy trends",
		"jurisdiction", jurisdiction, "days", len(rows), "runs", len(runs))
	return rows, nil
}

// RecomputeDay rebuilds the single bucket a newly completed run lands in.
func (a *Aggregator) RecomputeDay(ctx context.Context, jurisdiction string, completedAt time.Time) error {
	day := domain.TrendDay(completedAt)
	_, err := a.Recompute(ctx, jurisdiction, day, day)
	return err
}

func (a *Aggregator) List(ctx context.Context, jurisdiction string) ([]domain.AccuracyTrend, error) {
	return a.trends.ListTrends(ctx, jurisdiction)
}
