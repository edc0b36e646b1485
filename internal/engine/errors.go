// ABOUTME: Error taxonomy for the inference engine.
// ABOUTME: Local conditions are handled in place and never abort a batch.
package engine

import (
	"errors"
	"fmt"

	"github.com/harperreed/pulse/internal/models"
)

// DataQualityError marks an observation outside its sanity range. The
// record is rejected and logged; it never perturbs baselines or aborts
// the surrounding batch.
type DataQualityError struct {
	Type   models.ObservationType
	Value  float64
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: %s=%v rejected: %s", e.Type, e.Value, e.Reason)
}

// StaleReplayError marks a habit or feedback event addressed to an
// already-finalized period. Handled by ignoring the event.
type StaleReplayError struct {
	Habit string
	What  string
}

func (e *StaleReplayError) Error() string {
	return fmt.Sprintf("stale replay for %s: %s", e.Habit, e.What)
}

var (
	// ErrBaselineUnavailable is not a failure: the bucket has fewer
	// samples than the confidence floor and must not be scored against.
	ErrBaselineUnavailable = errors.New("baseline unavailable")

	// ErrInconclusive is returned by correlation computation when fewer
	// trailing days exist than the configured minimum.
	ErrInconclusive = errors.New("correlation inconclusive")
)

// IsDataQuality reports whether err is a data-quality rejection.
func IsDataQuality(err error) bool {
	var dq *DataQualityError
	return errors.As(err, &dq)
}

// IsStaleReplay reports whether err is a stale replay.
func IsStaleReplay(err error) bool {
	var sr *StaleReplayError
	return errors.As(err, &sr)
}
