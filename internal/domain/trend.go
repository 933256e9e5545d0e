package domain

import "time"

// AccuracyTrend is a derived time-series point: mean run accuracy and total
// test volume for one jurisdiction on one UTC calendar day. Rows are always
// rebuildable from completed run history.
type AccuracyTrend struct {
	Date         time.Time
	Jurisdiction string
	AvgAccuracy  float64
	TestCount    int
}

// TrendDay truncates a timestamp to its UTC calendar day bucket.
func TrendDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
