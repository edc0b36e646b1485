// ABOUTME: Suggestion generation with dedup policies and context snapshots.
// ABOUTME: Feedback adjusts per-type confidence weights, bounded to [0, 1].
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/harperreed/pulse/internal/models"
)

// Generate runs every suggestion rule for the user at asOf, applies
// each type's dedup policy against the still-active set, and persists
// the survivors with a context snapshot of the inputs that produced
// them. Returns the newly stored suggestions.
//
// On a context deadline nothing is persisted.
func (e *Engine) Generate(ctx context.Context, userID string, asOf time.Time) ([]*models.Suggestion, error) {
	asOf = asOf.UTC()
	lock := e.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	tracking, err := e.EvaluateAllHabits(userID, asOf)
	if err != nil {
		return nil, err
	}

	var candidates []*models.Suggestion
	add := func(s *models.Suggestion, err error) error {
		if err != nil {
			return err
		}
		if s != nil {
			candidates = append(candidates, s)
		}
		return nil
	}

	if err := add(e.morningBrief(userID, asOf)); err != nil {
		return nil, err
	}
	if err := add(e.recoveryRec(userID, asOf)); err != nil {
		return nil, err
	}
	if err := add(e.breakRec(userID, asOf)); err != nil {
		return nil, err
	}
	if err := add(e.gymPrediction(userID, asOf)); err != nil {
		return nil, err
	}
	for _, tr := range tracking {
		if err := add(e.streakSave(userID, tr, asOf)); err != nil {
			return nil, err
		}
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	active, err := e.repo.ActiveSuggestions(userID, asOf)
	if err != nil {
		return nil, err
	}
	activeByType := make(map[models.SuggestionType][]*models.Suggestion)
	for _, s := range active {
		activeByType[s.Type] = append(activeByType[s.Type], s)
	}

	// Budget check before any write: a timed-out pass persists nothing.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var stored []*models.Suggestion
	for _, cand := range candidates {
		prior := activeByType[cand.Type]
		if len(prior) > 0 {
			if models.DedupPolicies[cand.Type] == models.DedupSuppress {
				e.logger.Debug("suggestion suppressed by active duplicate",
					"user", userID, "type", cand.Type)
				continue
			}
			for _, old := range prior {
				if err := e.repo.SupersedeSuggestion(old.ID); err != nil {
					return nil, err
				}
			}
		}
		if err := e.repo.CreateSuggestion(cand); err != nil {
			return nil, err
		}
		stored = append(stored, cand)
	}

	e.logger.Info("generated suggestions",
		"user", userID, "candidates", len(candidates), "stored", len(stored))
	return stored, nil
}

// newSuggestion builds a candidate with feedback-weighted confidence
// and a JSON snapshot of the rule inputs.
func (e *Engine) newSuggestion(userID string, st models.SuggestionType, base float64, at time.Time, title, body string, snapshot any) (*models.Suggestion, error) {
	conf, err := e.weightedConfidence(userID, st, base)
	if err != nil {
		return nil, err
	}
	s := models.NewSuggestion(userID, st, conf, at, e.cfg.GetSuggestionTTL())
	s.Title = title
	s.Body = body
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("snapshot context: %w", err)
	}
	s.Context = raw
	return s, nil
}

// weightedConfidence blends a rule's base confidence with the user's
// learned weight for the type. The default weight 0.5 is neutral;
// results are clamped to [0, 1].
func (e *Engine) weightedConfidence(userID string, st models.SuggestionType, base float64) (float64, error) {
	weight := 0.5
	w, err := e.repo.GetConfidenceWeight(userID, st)
	if err != nil {
		return 0, err
	}
	if w != nil {
		weight = w.Weight
	}
	return clamp01(base * 2 * weight), nil
}

func clamp01(v float64) float64 { return math.Max(0, math.Min(1, v)) }

// morningBrief summarizes yesterday early in the day.
func (e *Engine) morningBrief(userID string, asOf time.Time) (*models.Suggestion, error) {
	if asOf.Hour() >= 10 {
		return nil, nil
	}
	yesterday := asOf.AddDate(0, 0, -1).Format(models.DateFormat)
	summary, err := e.repo.GetDailySummary(userID, yesterday)
	if err != nil || summary == nil {
		return nil, err
	}

	body := fmt.Sprintf("Yesterday: %.0f steps, %d active minutes", summary.Steps, summary.ActiveMinutes)
	if summary.HasHR() {
		body += fmt.Sprintf(", avg HR %.0f bpm", summary.AvgHR())
	}
	if summary.SleepHours > 0 {
		body += fmt.Sprintf(", %.1f h sleep", summary.SleepHours)
	}
	return e.newSuggestion(userID, models.SuggMorningBrief, 0.5, asOf,
		"Morning brief", body, map[string]any{"date": yesterday, "summary": summary})
}

// recoveryRec reacts to fresh anomalous physiology: depressed HRV or an
// anomalous heart-rate deviation.
func (e *Engine) recoveryRec(userID string, asOf time.Time) (*models.Suggestion, error) {
	flags := e.FlagsSince(userID, asOf.Add(-flagFreshness))
	if len(flags) == 0 {
		// Ingest may have happened in another process.
		var err error
		flags, err = e.scoreRecent(userID, asOf.Add(-flagFreshness), asOf)
		if err != nil {
			return nil, err
		}
	}
	var trigger *AnomalyFlag
	for i := range flags {
		f := &flags[i]
		switch {
		case f.Metric == models.ObsHRV && f.Z < 0:
			trigger = f
		case f.Metric == models.ObsHeartRate && f.Level == LevelAnomalous:
			if trigger == nil {
				trigger = f
			}
		}
	}
	if trigger == nil {
		return nil, nil
	}

	alert := e.cfg.ThresholdsFor(trigger.Metric).Alert
	base := clamp01(0.4 + 0.5*math.Abs(trigger.Z)/alert)
	body := fmt.Sprintf("%s deviated %.1f standard deviations from your baseline. Consider a lighter day.",
		trigger.Metric, math.Abs(trigger.Z))
	return e.newSuggestion(userID, models.SuggRecoveryRec, base, asOf,
		"Prioritize recovery", body, trigger)
}

// breakRec fires when today's meeting load measurably lifted heart rate
// and the trailing correlation supports the link.
func (e *Engine) breakRec(userID string, asOf time.Time) (*models.Suggestion, error) {
	sig, err := e.repo.GetCorrelationSignal(userID, asOf.Format(models.DateFormat))
	if err != nil {
		return nil, err
	}
	if sig == nil {
		sig, err = e.repo.GetCorrelationSignal(userID, asOf.AddDate(0, 0, -1).Format(models.DateFormat))
		if err != nil || sig == nil {
			return nil, err
		}
	}
	if sig.StressScoreDelta < 3 || sig.CorrelationStrength < 0.3 {
		return nil, nil
	}

	base := clamp01(0.4 + sig.CorrelationStrength/2)
	body := fmt.Sprintf("Heart rate runs %.0f bpm above your day average during meetings (%d min scheduled). A short break between blocks should help.",
		sig.StressScoreDelta, sig.MeetingMinutes)
	return e.newSuggestion(userID, models.SuggBreakRec, base, asOf,
		"Take a break between meetings", body, sig)
}

// gymPredFloor is the minimum recurring observations of high activity
// in an (hour, day-of-week) cell before the predictor speaks up.
const gymPredFloor = 3

// gymPrediction uses the activity-pattern lookup table: if this hour on
// this weekday historically shows high activity, nudge ahead of it.
func (e *Engine) gymPrediction(userID string, asOf time.Time) (*models.Suggestion, error) {
	patterns, err := e.repo.ListActivityPatterns(userID)
	if err != nil {
		return nil, err
	}

	dow := dowFor(asOf)
	var match *models.ActivityPattern
	for _, p := range patterns {
		if p.MotionType != models.MotionHighActivity || p.DayOfWeek != dow {
			continue
		}
		// Look one hour ahead so the nudge lands before the session.
		if p.HourOfDay != asOf.Hour() && p.HourOfDay != asOf.Hour()+1 {
			continue
		}
		if p.FrequencyCount >= gymPredFloor && (match == nil || p.FrequencyCount > match.FrequencyCount) {
			match = p
		}
	}
	if match == nil {
		return nil, nil
	}

	base := clamp01(0.3 + 0.05*float64(match.FrequencyCount))
	body := fmt.Sprintf("You are usually highly active around %02d:00 on this day. Good time to get moving.", match.HourOfDay)
	return e.newSuggestion(userID, models.SuggGymPred, base, asOf,
		"Workout window ahead", body, match)
}

// streakSave nudges a habit sitting at risk near its period boundary.
func (e *Engine) streakSave(userID string, tr *models.HabitTracking, asOf time.Time) (*models.Suggestion, error) {
	if tr.State != models.HabitAtRisk {
		return nil, nil
	}
	def, err := e.repo.GetHabitDefinition(userID, tr.HabitName)
	if err != nil {
		return nil, err
	}

	remaining := def.TargetCount - tr.RollingCount
	elapsed := def.Period.Elapsed(asOf)
	base := clamp01(0.4 + elapsed/2)
	body := fmt.Sprintf("%d more to hit your %s target for %q; the period is %.0f%% over. Your %d-day streak is on the line.",
		remaining, def.Period, def.Name, elapsed*100, tr.StreakDays)
	return e.newSuggestion(userID, models.SuggStreakSave, base, asOf,
		"Save your streak", body, map[string]any{"habit": def.Name, "tracking": tr})
}

// RecordFeedback appends a user reaction to a suggestion and nudges the
// per-type confidence weight toward 1 for positive signals and 0 for
// negative ones. Neutral feedback is recorded without moving the
// weight. Returns the updated weight.
func (e *Engine) RecordFeedback(idOrPrefix string, action models.FeedbackAction, reaction models.FeedbackReaction) (*models.ConfidenceWeight, error) {
	s, err := e.repo.GetSuggestion(idOrPrefix)
	if err != nil {
		return nil, err
	}

	lock := e.userLock(s.UserID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now().UTC()
	if err := e.repo.CreateFeedback(models.NewFeedback(s.UserID, s.ID, action, reaction)); err != nil {
		return nil, err
	}
	if s.ShownAt == nil {
		if err := e.repo.MarkSuggestionShown(s.ID, now); err != nil {
			return nil, err
		}
	}

	w, err := e.repo.GetConfidenceWeight(s.UserID, s.Type)
	if err != nil {
		return nil, err
	}
	if w == nil {
		w = &models.ConfidenceWeight{UserID: s.UserID, Type: s.Type, Weight: 0.5}
	}

	var target float64
	switch {
	case models.Positive(action, reaction):
		target = 1
	case models.Negative(action, reaction):
		target = 0
	default:
		w.UpdatedAt = now
		if err := e.repo.UpsertConfidenceWeight(w); err != nil {
			return nil, err
		}
		return w, nil
	}

	rate := e.cfg.GetFeedbackLearningRate()
	w.Weight = clamp01(w.Weight + rate*(target-w.Weight))
	w.UpdatedAt = now
	if err := e.repo.UpsertConfidenceWeight(w); err != nil {
		return nil, err
	}

	e.logger.Info("feedback recorded",
		"user", s.UserID, "suggestion", s.ID.String()[:8], "action", action,
		"reaction", reaction, "weight", w.Weight)
	return w, nil
}
