// ABOUTME: Z-score anomaly classification against rolling baselines.
// ABOUTME: Scoring reads baselines only; it never mutates them.
package engine

import (
	"errors"
	"math"
	"time"

	"github.com/harperreed/pulse/internal/config"
	"github.com/harperreed/pulse/internal/models"
)

// AnomalyLevel classifies how far a sample sits from its baseline.
type AnomalyLevel string

const (
	LevelNormal    AnomalyLevel = "normal"
	LevelElevated  AnomalyLevel = "elevated"
	LevelAnomalous AnomalyLevel = "anomalous"
)

// minStddev guards the z-score division for near-constant baselines.
const minStddev = 1e-6

// AnomalyFlag records one scored deviation. Flags are consumed by the
// suggestion generator within their freshness window.
type AnomalyFlag struct {
	UserID string
	Metric models.ObservationType
	Value  float64
	Mean   float64
	Stddev float64
	Z      float64
	Level  AnomalyLevel
	At     time.Time
}

// flagFreshness bounds how long an emitted flag stays consumable.
const flagFreshness = 24 * time.Hour

// classify computes the z-score of value against (mean, stddev) and
// maps its magnitude onto the threshold bands.
func classify(value, mean, stddev float64, th config.Thresholds) (float64, AnomalyLevel) {
	z := (value - mean) / math.Max(stddev, minStddev)
	switch abs := math.Abs(z); {
	case abs >= th.Alert:
		return z, LevelAnomalous
	case abs >= th.Normal:
		return z, LevelElevated
	default:
		return z, LevelNormal
	}
}

// score classifies one observation against its metric's baseline.
// Returns ErrBaselineUnavailable when the bucket has not yet met the
// sample floor; callers treat that as "skip scoring", not a failure.
func (e *Engine) score(o *models.Observation) (*AnomalyFlag, error) {
	var mean, stddev float64
	var n int

	switch o.Type {
	case models.ObsHeartRate:
		b, err := e.repo.GetHRBaseline(o.UserID, o.RecordedAt.Hour(), dowFor(o.RecordedAt))
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, ErrBaselineUnavailable
		}
		mean, stddev, n = b.Mean, b.Stddev, b.SampleCount
	case models.ObsHRV:
		b, err := e.repo.LatestHRVBaseline(o.UserID)
		if err != nil {
			return nil, err
		}
		if b == nil {
			return nil, ErrBaselineUnavailable
		}
		mean, stddev, n = b.Mean, b.Stddev, b.SampleCount
	default:
		return nil, ErrBaselineUnavailable
	}

	if n < e.cfg.GetMinBaselineSamples() {
		return nil, ErrBaselineUnavailable
	}

	z, level := classify(o.Value, mean, stddev, e.cfg.ThresholdsFor(o.Type))
	return &AnomalyFlag{
		UserID: o.UserID,
		Metric: o.Type,
		Value:  o.Value,
		Mean:   mean,
		Stddev: stddev,
		Z:      z,
		Level:  level,
		At:     o.RecordedAt,
	}, nil
}

// recordFlag buffers a non-normal flag for later suggestion passes.
func (e *Engine) recordFlag(f AnomalyFlag) {
	e.flagMu.Lock()
	defer e.flagMu.Unlock()
	e.flags[f.UserID] = append(e.flags[f.UserID], f)
}

// scoreRecent rebuilds anomaly flags by re-scoring raw observations in
// [since, until] against the current baselines. The in-process flag
// buffer only survives one process; a fresh invocation derives its
// flags from raw rows instead.
func (e *Engine) scoreRecent(userID string, since, until time.Time) ([]AnomalyFlag, error) {
	obs, err := e.repo.ObservationsBetween(userID, since, until,
		[]models.ObservationType{models.ObsHeartRate, models.ObsHRV})
	if err != nil {
		return nil, err
	}

	var flags []AnomalyFlag
	for _, o := range obs {
		f, err := e.score(o)
		if err != nil {
			if errors.Is(err, ErrBaselineUnavailable) {
				continue
			}
			return nil, err
		}
		if f.Level != LevelNormal {
			flags = append(flags, *f)
		}
	}
	return flags, nil
}

// FlagsSince returns buffered flags for a user at or after cutoff,
// pruning anything older.
func (e *Engine) FlagsSince(userID string, cutoff time.Time) []AnomalyFlag {
	e.flagMu.Lock()
	defer e.flagMu.Unlock()

	kept := e.flags[userID][:0]
	var out []AnomalyFlag
	for _, f := range e.flags[userID] {
		if f.At.Before(cutoff) {
			continue
		}
		kept = append(kept, f)
		out = append(out, f)
	}
	e.flags[userID] = kept
	return out
}
