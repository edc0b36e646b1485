// ABOUTME: Baseline and ActivityPattern models for rolling reference state.
// ABOUTME: Rows hold mean/stddev over the currently retained window.
package models

import (
	"fmt"
	"time"
)

// HRBaseline is one row per (user, hour-of-day, day-of-week) holding the
// rolling heart-rate statistics for that time bucket.
type HRBaseline struct {
	UserID      string
	HourOfDay   int
	DayOfWeek   int
	Mean        float64
	Stddev      float64
	SampleCount int
	LastUpdated time.Time
}

// BucketKey returns the canonical bucket key for the row.
func (b *HRBaseline) BucketKey() string {
	return HourDowBucket(b.HourOfDay, b.DayOfWeek)
}

// HourDowBucket builds an (hour-of-day, day-of-week) bucket key.
func HourDowBucket(hour, dow int) string {
	return fmt.Sprintf("h%02d-d%d", hour, dow)
}

// BucketFor returns the hour/day-of-week bucket key for a timestamp.
// Day of week is 0=Monday..6=Sunday.
func BucketFor(ts time.Time) string {
	dow := (int(ts.Weekday()) + 6) % 7
	return HourDowBucket(ts.Hour(), dow)
}

// HRVBaseline is one row per (user, 30-day period) holding rolling HRV
// statistics and the z-score threshold used when it was computed.
type HRVBaseline struct {
	UserID      string
	PeriodStart string
	PeriodEnd   string
	Mean        float64
	Stddev      float64
	SampleCount int
	ZThreshold  float64
	LastUpdated time.Time
}

// ActivityPattern is a frequency counter per (user, day-of-week,
// hour-of-day, motion_type). Used as a lookup table, not a time series.
type ActivityPattern struct {
	UserID         string
	DayOfWeek      int
	HourOfDay      int
	MotionType     MotionType
	FrequencyCount int
	LastUpdated    time.Time
}
