// ABOUTME: Daily rollup: resting HR, windowed baseline recompute, correlation.
// ABOUTME: RollupAll fans out across users with bounded parallelism.
package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/harperreed/pulse/internal/models"
	"github.com/harperreed/pulse/internal/stats"
)

// rollupParallelism bounds concurrent per-user rollups. Users never
// share derived state, so they roll up independently.
const rollupParallelism = 4

// Rollup finalizes one user's day: derives resting heart rate as the
// 25th percentile of the day's samples, recomputes the windowed HR and
// HRV baselines, evaluates habit boundaries, and refreshes the day's
// correlation signal. Re-running it for the same day is a no-op beyond
// touched timestamps.
func (e *Engine) Rollup(ctx context.Context, userID string, date time.Time) error {
	date = dayOf(date)
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.rollupRestingHR(userID, date); err != nil {
		return err
	}

	endOfDay := date.AddDate(0, 0, 1)
	if err := e.RecomputeHRBaselines(ctx, userID, endOfDay); err != nil {
		return err
	}
	if err := e.RecomputeHRVBaseline(ctx, userID, endOfDay); err != nil {
		return err
	}
	if _, err := e.EvaluateAllHabits(userID, endOfDay); err != nil {
		return err
	}

	if _, err := e.ComputeCorrelation(ctx, userID, date); err != nil {
		if !errors.Is(err, ErrInconclusive) {
			return err
		}
		e.logger.Debug("correlation inconclusive", "user", userID, "date", date.Format(models.DateFormat))
	}

	e.logger.Info("rollup complete", "user", userID, "date", date.Format(models.DateFormat))
	return nil
}

// rollupRestingHR writes the day's resting heart rate into the summary.
// The 25th percentile does not fold additively, so it is derived here
// from raw samples rather than during ingest.
func (e *Engine) rollupRestingHR(userID string, date time.Time) error {
	obs, err := e.repo.ObservationsBetween(userID, date, date.AddDate(0, 0, 1),
		[]models.ObservationType{models.ObsHeartRate})
	if err != nil {
		return err
	}
	if len(obs) == 0 {
		return nil
	}

	w := stats.NewWindow(len(obs), 0)
	for _, o := range obs {
		w.Add(o.RecordedAt, o.Value)
	}
	resting := w.Percentile(0.25)

	dateKey := date.Format(models.DateFormat)
	summary, err := e.repo.GetDailySummary(userID, dateKey)
	if err != nil {
		return err
	}
	if summary == nil {
		summary = models.NewDailySummary(userID, date)
	}
	summary.RestingHR = &resting
	summary.UpdatedAt = time.Now().UTC()
	return e.repo.UpsertDailySummary(summary)
}

// RollupAll rolls up every known user for the date in parallel. The
// first failing user cancels the rest.
func (e *Engine) RollupAll(ctx context.Context, date time.Time) error {
	users, err := e.repo.ListUsers()
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rollupParallelism)
	for _, u := range users {
		g.Go(func() error {
			return e.Rollup(gctx, u.ID, date)
		})
	}
	return g.Wait()
}
