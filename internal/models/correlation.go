// ABOUTME: CorrelationSignal model relating calendar load to physiology.
// ABOUTME: One derived row per (user, date), recomputed deterministically.
package models

import "time"

// CorrelationSignal is the daily derived measure of how meeting load
// moved heart rate away from the day baseline. Strength is bounded to
// [-1, 1].
type CorrelationSignal struct {
	UserID              string
	Date                string
	MeetingCount        int
	MeetingMinutes      int
	AvgHRDuringMeetings float64
	BaselineHR          float64
	StressScoreDelta    float64
	CorrelationStrength float64
	SampleDays          int
	ComputedAt          time.Time
}
