// ABOUTME: Engine orchestrates ingest, derived-state updates, and queries.
// ABOUTME: All writes for one user are serialized behind a per-user lock.
package engine

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/harperreed/pulse/internal/config"
	"github.com/harperreed/pulse/internal/models"
	"github.com/harperreed/pulse/internal/storage"
)

// Engine is the inference core. It owns derived state: daily summaries,
// baselines, activity patterns, habit tracking, correlation signals,
// and suggestions. Raw observations flow in through Ingest and are
// never mutated afterwards.
type Engine struct {
	repo   storage.Repository
	cfg    *config.Config
	logger *log.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	flagMu sync.Mutex
	flags  map[string][]AnomalyFlag
}

// New creates an engine over the given repository.
func New(repo storage.Repository, cfg *config.Config) *Engine {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "pulse",
	})
	return &Engine{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
		flags:  make(map[string][]AnomalyFlag),
	}
}

// SetLogger replaces the engine logger.
func (e *Engine) SetLogger(l *log.Logger) { e.logger = l }

// userLock returns the mutex serializing writes for one user. Distinct
// users never contend.
func (e *Engine) userLock(userID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// dowFor maps a timestamp to day of week with 0=Monday..6=Sunday.
func dowFor(ts time.Time) int {
	return (int(ts.Weekday()) + 6) % 7
}

// RejectedObservation reports one batch record that failed validation.
type RejectedObservation struct {
	Index  int
	Type   models.ObservationType
	Value  float64
	Reason string
}

// IngestReport summarizes one ingest call.
type IngestReport struct {
	Accepted int
	Rejected []RejectedObservation
	Flags    []AnomalyFlag
}

// Ingest validates and persists a batch of observations for one user,
// then folds each accepted record into the day's summary, baselines,
// activity patterns, and habit counters. Rejected records are reported
// and skipped; they never abort the batch.
func (e *Engine) Ingest(ctx context.Context, userID string, batch []*models.Observation) (*IngestReport, error) {
	if len(batch) == 0 {
		return &IngestReport{}, nil
	}
	if max := e.cfg.GetMaxBatchSize(); len(batch) > max {
		return nil, fmt.Errorf("batch size %d exceeds limit %d", len(batch), max)
	}

	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.repo.EnsureUser(userID); err != nil {
		return nil, err
	}

	habits, err := e.repo.ListHabitDefinitions(userID)
	if err != nil {
		return nil, err
	}

	report := &IngestReport{}
	summaries := make(map[string]*models.DailySummary)
	var habitEvents []pendingHabitEvent

	for i, o := range batch {
		o.UserID = userID
		if err := e.validate(o); err != nil {
			e.logger.Warn("observation rejected",
				"user", userID, "type", o.Type, "value", o.Value, "err", err)
			report.Rejected = append(report.Rejected, RejectedObservation{
				Index: i, Type: o.Type, Value: o.Value, Reason: err.Error(),
			})
			continue
		}
		o.RecordedAt = o.RecordedAt.UTC()
		if o.Metadata == nil {
			o.Metadata = map[string]any{"v": models.PayloadVersion}
		} else if _, ok := o.Metadata["v"]; !ok {
			o.Metadata["v"] = models.PayloadVersion
		}

		if err := e.repo.CreateObservation(o); err != nil {
			return nil, fmt.Errorf("persist observation: %w", err)
		}
		report.Accepted++

		date := o.RecordedAt.Format(models.DateFormat)
		summary, ok := summaries[date]
		if !ok {
			summary, err = e.repo.GetDailySummary(userID, date)
			if err != nil {
				return nil, err
			}
			if summary == nil {
				summary = models.NewDailySummary(userID, o.RecordedAt)
			}
			summaries[date] = summary
		}
		summary.Apply(o)

		// Score against the baseline as it stood before this sample,
		// then fold the sample in.
		if flag, err := e.score(o); err == nil && flag.Level != LevelNormal {
			report.Flags = append(report.Flags, *flag)
			e.recordFlag(*flag)
		}
		if err := e.observe(o); err != nil {
			return nil, err
		}

		for _, def := range habits {
			if !qualifiesObservation(def, o) {
				continue
			}
			habitEvents = append(habitEvents, pendingHabitEvent{
				def: def, eventID: o.ID.String(), at: o.RecordedAt,
			})
		}
	}

	for _, summary := range summaries {
		summary.UpdatedAt = time.Now().UTC()
		if err := e.repo.UpsertDailySummary(summary); err != nil {
			return nil, err
		}
	}

	if err := e.applyHabitEvents(userID, habitEvents); err != nil {
		return nil, err
	}

	if src := firstSource(batch); src != "" {
		if err := e.repo.RegisterDeviceSource(&models.DeviceSource{
			UserID: userID, DeviceName: src, SourceLabel: src,
		}); err != nil {
			return nil, err
		}
	}

	e.logger.Info("ingested batch",
		"user", userID, "accepted", report.Accepted, "rejected", len(report.Rejected),
		"flags", len(report.Flags))
	return report, ctx.Err()
}

// validate applies structural and sanity checks to one observation.
func (e *Engine) validate(o *models.Observation) error {
	if !models.IsValidObservationType(string(o.Type)) {
		return &DataQualityError{Type: o.Type, Value: o.Value, Reason: "unknown observation type"}
	}
	if o.RecordedAt.IsZero() {
		return &DataQualityError{Type: o.Type, Value: o.Value, Reason: "missing timestamp"}
	}
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return &DataQualityError{Type: o.Type, Value: o.Value, Reason: "value is not finite"}
	}
	if r, ok := e.cfg.SanityRangeFor(o.Type); ok {
		if o.Value < r.Min || o.Value > r.Max {
			return &DataQualityError{
				Type: o.Type, Value: o.Value,
				Reason: fmt.Sprintf("outside sanity range [%v, %v]", r.Min, r.Max),
			}
		}
	}
	return nil
}

func firstSource(batch []*models.Observation) string {
	for _, o := range batch {
		if o.Source != "" {
			return o.Source
		}
	}
	return ""
}

// RecordWorkout persists a workout, folds it into the day's summary,
// and counts it toward matching workout habits.
func (e *Engine) RecordWorkout(ctx context.Context, w *models.Workout) error {
	lock := e.userLock(w.UserID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.repo.EnsureUser(w.UserID); err != nil {
		return err
	}
	if err := e.repo.CreateWorkout(w); err != nil {
		return err
	}

	date := w.StartedAt.UTC().Format(models.DateFormat)
	summary, err := e.repo.GetDailySummary(w.UserID, date)
	if err != nil {
		return err
	}
	if summary == nil {
		summary = models.NewDailySummary(w.UserID, w.StartedAt.UTC())
	}
	summary.ApplyWorkout(w)
	summary.UpdatedAt = time.Now().UTC()
	if err := e.repo.UpsertDailySummary(summary); err != nil {
		return err
	}

	habits, err := e.repo.ListHabitDefinitions(w.UserID)
	if err != nil {
		return err
	}
	var events []pendingHabitEvent
	for _, def := range habits {
		if !qualifiesWorkout(def, w) {
			continue
		}
		events = append(events, pendingHabitEvent{
			def: def, eventID: w.ID.String(), at: w.StartedAt.UTC(),
		})
	}
	return e.applyHabitEvents(w.UserID, events)
}

// VisitLocation resolves a label to the user's location cluster,
// counting the visit. First sight of a label creates the cluster.
func (e *Engine) VisitLocation(userID, label string) (*models.LocationCluster, error) {
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.repo.EnsureUser(userID); err != nil {
		return nil, err
	}

	clusters, err := e.repo.ListLocationClusters(userID)
	if err != nil {
		return nil, err
	}
	for _, c := range clusters {
		if c.Label != label {
			continue
		}
		c.VisitCount++
		c.LastSeenAt = time.Now().UTC()
		if err := e.repo.UpsertLocationCluster(c); err != nil {
			return nil, err
		}
		return c, nil
	}

	c := models.NewLocationCluster(userID, label, 0, 0)
	if err := e.repo.UpsertLocationCluster(c); err != nil {
		return nil, err
	}
	return c, nil
}

// RecordCalendarEvent persists a calendar event for correlation.
func (e *Engine) RecordCalendarEvent(ctx context.Context, ev *models.CalendarEvent) error {
	lock := e.userLock(ev.UserID)
	lock.Lock()
	defer lock.Unlock()

	if err := e.repo.EnsureUser(ev.UserID); err != nil {
		return err
	}
	return e.repo.CreateCalendarEvent(ev)
}

// TimelineDay is one day of the queryable timeline: the summary plus
// any derived correlation signal for that date.
type TimelineDay struct {
	Summary     *models.DailySummary
	Correlation *models.CorrelationSignal
}

// Timeline is the display view for a date range: per-day summaries plus
// the suggestions still active at query time.
type Timeline struct {
	Days        []*TimelineDay
	Suggestions []*models.Suggestion
}

// GetTimeline returns per-day summaries in [from, to], newest last,
// together with the user's currently active suggestions. The limit is
// clamped to the configured maximum.
func (e *Engine) GetTimeline(ctx context.Context, userID string, from, to time.Time, limit int) (*Timeline, error) {
	maxLimit := e.cfg.GetMaxTimelineLimit()
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	summaries, err := e.repo.SummariesBetween(userID,
		from.UTC().Format(models.DateFormat), to.UTC().Format(models.DateFormat))
	if err != nil {
		return nil, err
	}
	if len(summaries) > limit {
		summaries = summaries[len(summaries)-limit:]
	}

	days := make([]*TimelineDay, 0, len(summaries))
	for _, s := range summaries {
		sig, err := e.repo.GetCorrelationSignal(userID, s.Date)
		if err != nil {
			return nil, err
		}
		days = append(days, &TimelineDay{Summary: s, Correlation: sig})
	}

	active, err := e.repo.ActiveSuggestions(userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &Timeline{Days: days, Suggestions: active}, nil
}
