// ABOUTME: Daily calendar-physiology correlation computation.
// ABOUTME: Deterministic recompute per (user, date); inconclusive below the day floor.
package engine

import (
	"context"
	"time"

	"github.com/harperreed/pulse/internal/models"
	"github.com/harperreed/pulse/internal/stats"
)

// correlationWindowDays is the trailing span of days paired into the
// correlation strength estimate.
const correlationWindowDays = 14

// ComputeCorrelation derives the (user, date) correlation signal:
// meeting load, the heart-rate delta during meetings against the day
// average, and the Pearson strength of meeting minutes against daily
// average HR over the trailing window.
//
// Returns ErrInconclusive without persisting anything when fewer
// trailing days with heart-rate data exist than the configured
// minimum. Recompute for the same date overwrites the prior row with
// an identical result given identical inputs.
func (e *Engine) ComputeCorrelation(ctx context.Context, userID string, date time.Time) (*models.CorrelationSignal, error) {
	date = dayOf(date)
	dateKey := date.Format(models.DateFormat)

	events, err := e.repo.CalendarEventsOn(userID, date)
	if err != nil {
		return nil, err
	}
	var meetings []*models.CalendarEvent
	meetingMinutes := 0
	for _, ev := range events {
		if ev.IsMeeting() {
			meetings = append(meetings, ev)
			meetingMinutes += ev.Minutes()
		}
	}

	summary, err := e.repo.GetDailySummary(userID, dateKey)
	if err != nil {
		return nil, err
	}

	sig := &models.CorrelationSignal{
		UserID:         userID,
		Date:           dateKey,
		MeetingCount:   len(meetings),
		MeetingMinutes: meetingMinutes,
	}
	if summary != nil && summary.HasHR() {
		sig.BaselineHR = summary.AvgHR()
	}

	if len(meetings) > 0 && sig.BaselineHR > 0 {
		avg, n, err := e.avgHRDuring(userID, date, meetings)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			sig.AvgHRDuringMeetings = avg
			sig.StressScoreDelta = avg - sig.BaselineHR
		}
	}

	xs, ys, err := e.correlationPairs(userID, date)
	if err != nil {
		return nil, err
	}
	sig.SampleDays = len(xs)
	if sig.SampleDays < e.cfg.GetMinCorrelationDays() {
		return nil, ErrInconclusive
	}
	if r, ok := stats.Pearson(xs, ys); ok {
		sig.CorrelationStrength = r
	}

	// Honor the caller's compute budget: on deadline, discard rather
	// than persist a partial signal.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sig.ComputedAt = time.Now().UTC()
	if err := e.repo.UpsertCorrelationSignal(sig); err != nil {
		return nil, err
	}
	return sig, nil
}

// avgHRDuring averages heart-rate samples recorded inside any of the
// given event intervals on the day.
func (e *Engine) avgHRDuring(userID string, date time.Time, events []*models.CalendarEvent) (float64, int, error) {
	obs, err := e.repo.ObservationsBetween(userID, date, date.AddDate(0, 0, 1),
		[]models.ObservationType{models.ObsHeartRate})
	if err != nil {
		return 0, 0, err
	}

	sum, n := 0.0, 0
	for _, o := range obs {
		for _, ev := range events {
			if ev.Contains(o.RecordedAt) {
				sum += o.Value
				n++
				break
			}
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return sum / float64(n), n, nil
}

// correlationPairs collects (meeting minutes, avg HR) pairs over the
// trailing window ending at date. Days without heart-rate data do not
// count.
func (e *Engine) correlationPairs(userID string, date time.Time) ([]float64, []float64, error) {
	from := date.AddDate(0, 0, -(correlationWindowDays - 1))
	summaries, err := e.repo.SummariesBetween(userID,
		from.Format(models.DateFormat), date.Format(models.DateFormat))
	if err != nil {
		return nil, nil, err
	}

	var xs, ys []float64
	for _, s := range summaries {
		if !s.HasHR() {
			continue
		}
		day, err := time.Parse(models.DateFormat, s.Date)
		if err != nil {
			continue
		}
		events, err := e.repo.CalendarEventsOn(userID, day)
		if err != nil {
			return nil, nil, err
		}
		minutes := 0
		for _, ev := range events {
			if ev.IsMeeting() {
				minutes += ev.Minutes()
			}
		}
		xs = append(xs, float64(minutes))
		ys = append(ys, s.AvgHR())
	}
	return xs, ys, nil
}
