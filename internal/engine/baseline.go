// ABOUTME: Rolling baseline maintenance for HR and HRV metrics.
// ABOUTME: Ingest folds samples online; rollup recomputes the trailing window.
package engine

import (
	"context"
	"time"

	"github.com/harperreed/pulse/internal/models"
	"github.com/harperreed/pulse/internal/stats"
)

// observe folds one accepted observation into the rolling state that
// backs scoring: HR bucket baselines, the HRV period baseline, and
// activity-pattern frequency counters.
func (e *Engine) observe(o *models.Observation) error {
	switch o.Type {
	case models.ObsHeartRate:
		return e.observeHR(o)
	case models.ObsHRV:
		return e.observeHRV(o)
	case models.ObsSteps, models.ObsMotion:
		return e.repo.IncrementActivityPattern(
			o.UserID, dowFor(o.RecordedAt), o.RecordedAt.Hour(), models.ClassifyMotion(o.Value))
	}
	return nil
}

// observeHR folds a heart-rate sample into its (hour, day-of-week)
// bucket. The update resumes running moments from the stored row, so
// each sample costs O(1); window trimming happens at rollup.
func (e *Engine) observeHR(o *models.Observation) error {
	hour, dow := o.RecordedAt.Hour(), dowFor(o.RecordedAt)
	row, err := e.repo.GetHRBaseline(o.UserID, hour, dow)
	if err != nil {
		return err
	}

	w := stats.NewWelford()
	if row != nil {
		w = stats.FromMoments(row.Mean, row.Stddev, row.SampleCount)
	}
	w.Add(o.RecordedAt, o.Value)
	mean, stddev, n := w.Stats()

	return e.repo.UpsertHRBaseline(&models.HRBaseline{
		UserID:      o.UserID,
		HourOfDay:   hour,
		DayOfWeek:   dow,
		Mean:        mean,
		Stddev:      stddev,
		SampleCount: n,
		LastUpdated: time.Now().UTC(),
	})
}

// observeHRV folds an HRV sample into the current period baseline. The
// period keeps extending while its retained samples still overlap the
// trailing window; only a data gap longer than a full window opens a
// fresh period. The nightly recompute re-anchors the period and evicts
// aged samples.
func (e *Engine) observeHRV(o *models.Observation) error {
	row, err := e.repo.LatestHRVBaseline(o.UserID)
	if err != nil {
		return err
	}

	day := o.RecordedAt.Format(models.DateFormat)
	windowDays := int(e.cfg.GetBaselineWindow().Hours() / 24)

	w := stats.NewWelford()
	periodStart, periodEnd := day, dayOffset(day, windowDays)
	if row != nil && day < dayOffset(row.PeriodEnd, windowDays) {
		w = stats.FromMoments(row.Mean, row.Stddev, row.SampleCount)
		periodStart, periodEnd = row.PeriodStart, row.PeriodEnd
		if day > periodEnd {
			periodEnd = day
		}
	}
	w.Add(o.RecordedAt, o.Value)
	mean, stddev, n := w.Stats()

	return e.repo.UpsertHRVBaseline(&models.HRVBaseline{
		UserID:      o.UserID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Mean:        mean,
		Stddev:      stddev,
		SampleCount: n,
		ZThreshold:  e.cfg.ThresholdsFor(models.ObsHRV).Alert,
		LastUpdated: time.Now().UTC(),
	})
}

// dayOffset shifts a date key by n days.
func dayOffset(date string, n int) string {
	t, _ := time.Parse(models.DateFormat, date)
	return t.AddDate(0, 0, n).Format(models.DateFormat)
}

// RecomputeHRBaselines rebuilds every (hour, day-of-week) bucket from
// raw observations in the trailing window ending at asOf. This is the
// windowed counterpart of the online ingest path: it enforces both the
// retention window and the per-bucket sample cap, evicting what the
// incremental updates accumulated beyond them.
func (e *Engine) RecomputeHRBaselines(ctx context.Context, userID string, asOf time.Time) error {
	since := asOf.Add(-e.cfg.GetBaselineWindow())
	obs, err := e.repo.ObservationsBetween(userID, since, asOf,
		[]models.ObservationType{models.ObsHeartRate})
	if err != nil {
		return err
	}

	buckets := make(map[string]*stats.Window)
	for _, o := range obs {
		key := models.BucketFor(o.RecordedAt)
		w, ok := buckets[key]
		if !ok {
			w = stats.NewWindow(e.cfg.GetBaselineSampleCap(), e.cfg.GetBaselineWindow())
			buckets[key] = w
		}
		w.Add(o.RecordedAt, o.Value)
	}

	for hour := 0; hour < 24; hour++ {
		for dow := 0; dow < 7; dow++ {
			w, ok := buckets[models.HourDowBucket(hour, dow)]
			if !ok {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			mean, stddev, n := w.Stats()
			if err := e.repo.UpsertHRBaseline(&models.HRBaseline{
				UserID:      userID,
				HourOfDay:   hour,
				DayOfWeek:   dow,
				Mean:        mean,
				Stddev:      stddev,
				SampleCount: n,
				LastUpdated: time.Now().UTC(),
			}); err != nil {
				return err
			}
		}
	}

	// A stored bucket whose samples all aged out of the window would
	// otherwise keep scoring against stale statistics. Drop it.
	existing, err := e.repo.ListHRBaselines(userID)
	if err != nil {
		return err
	}
	for _, b := range existing {
		if _, ok := buckets[models.HourDowBucket(b.HourOfDay, b.DayOfWeek)]; ok {
			continue
		}
		if err := e.repo.DeleteHRBaseline(userID, b.HourOfDay, b.DayOfWeek); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeHRVBaseline rebuilds the HRV period baseline from raw
// observations in the trailing window ending at asOf.
func (e *Engine) RecomputeHRVBaseline(ctx context.Context, userID string, asOf time.Time) error {
	window := e.cfg.GetBaselineWindow()
	since := asOf.Add(-window)
	obs, err := e.repo.ObservationsBetween(userID, since, asOf,
		[]models.ObservationType{models.ObsHRV})
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return nil
	}

	w := stats.NewWindow(e.cfg.GetBaselineSampleCap(), window)
	for _, o := range obs {
		w.Add(o.RecordedAt, o.Value)
	}
	mean, stddev, n := w.Stats()

	return e.repo.UpsertHRVBaseline(&models.HRVBaseline{
		UserID:      userID,
		PeriodStart: since.Format(models.DateFormat),
		PeriodEnd:   asOf.Format(models.DateFormat),
		Mean:        mean,
		Stddev:      stddev,
		SampleCount: n,
		ZThreshold:  e.cfg.ThresholdsFor(models.ObsHRV).Alert,
		LastUpdated: time.Now().UTC(),
	})
}

// HRBaselineFor returns the baseline stats for the bucket containing
// ts, or ErrBaselineUnavailable below the sample floor.
func (e *Engine) HRBaselineFor(userID string, ts time.Time) (*models.HRBaseline, error) {
	b, err := e.repo.GetHRBaseline(userID, ts.Hour(), dowFor(ts))
	if err != nil {
		return nil, err
	}
	if b == nil || b.SampleCount < e.cfg.GetMinBaselineSamples() {
		return nil, ErrBaselineUnavailable
	}
	return b, nil
}
