// ABOUTME: Suggestion, Feedback, and confidence-weight models.
// ABOUTME: Suggestions are append-only audit artifacts with expiry.
package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SuggestionType tags the kind of suggestion generated.
type SuggestionType string

const (
	SuggMorningBrief SuggestionType = "morning_brief"
	SuggBreakRec     SuggestionType = "break_rec"
	SuggGymPred      SuggestionType = "gym_pred"
	SuggRecoveryRec  SuggestionType = "recovery_rec"
	SuggStreakSave   SuggestionType = "streak_save"
)

// AllSuggestionTypes returns all known suggestion types.
var AllSuggestionTypes = []SuggestionType{
	SuggMorningBrief, SuggBreakRec, SuggGymPred, SuggRecoveryRec, SuggStreakSave,
}

// DedupPolicy decides what happens when a new candidate arrives while a
// suggestion of the same type is still active.
type DedupPolicy int

const (
	// DedupSupersede expires the active suggestion and stores the new one.
	DedupSupersede DedupPolicy = iota
	// DedupSuppress drops the new candidate while one is active.
	DedupSuppress
)

// DedupPolicies maps each type to its active-duplicate policy.
// Anomaly-driven types supersede so the freshest signal wins; scheduled
// and predictive types suppress to avoid churn.
var DedupPolicies = map[SuggestionType]DedupPolicy{
	SuggMorningBrief: DedupSuppress,
	SuggBreakRec:     DedupSupersede,
	SuggGymPred:      DedupSuppress,
	SuggRecoveryRec:  DedupSupersede,
	SuggStreakSave:   DedupSupersede,
}

// Suggestion is a generated artifact. Context holds a JSON snapshot of
// the inputs used at generation time and is never mutated afterwards.
type Suggestion struct {
	ID          uuid.UUID
	UserID      string
	Type        SuggestionType
	Title       string
	Body        string
	Confidence  float64
	Context     json.RawMessage
	GeneratedAt time.Time
	ShownAt     *time.Time
	ExpiresAt   time.Time
	Superseded  bool
}

// NewSuggestion creates a suggestion generated at `at` expiring after ttl.
func NewSuggestion(userID string, st SuggestionType, confidence float64, at time.Time, ttl time.Duration) *Suggestion {
	return &Suggestion{
		ID:          uuid.New(),
		UserID:      userID,
		Type:        st,
		Confidence:  confidence,
		GeneratedAt: at,
		ExpiresAt:   at.Add(ttl),
	}
}

// ActiveAt reports whether the suggestion is live at ts: not expired,
// not superseded.
func (s *Suggestion) ActiveAt(ts time.Time) bool {
	return !s.Superseded && ts.Before(s.ExpiresAt)
}

// FeedbackAction is what the user did with a suggestion.
type FeedbackAction string

const (
	ActionAccepted  FeedbackAction = "accepted"
	ActionDismissed FeedbackAction = "dismissed"
	ActionIgnored   FeedbackAction = "ignored"
)

// FeedbackReaction is the user's qualitative reaction.
type FeedbackReaction string

const (
	ReactionHelpful   FeedbackReaction = "helpful"
	ReactionUnhelpful FeedbackReaction = "unhelpful"
	ReactionNeutral   FeedbackReaction = "neutral"
)

// Positive reports whether the action/reaction pair should raise the
// confidence weight for the suggestion's type.
func Positive(action FeedbackAction, reaction FeedbackReaction) bool {
	return action == ActionAccepted || reaction == ReactionHelpful
}

// Negative reports whether the pair should lower the weight.
func Negative(action FeedbackAction, reaction FeedbackReaction) bool {
	if Positive(action, reaction) {
		return false
	}
	return action == ActionDismissed || reaction == ReactionUnhelpful
}

// Feedback is an append-only record of one user reaction to a
// suggestion. Never mutated after insert.
type Feedback struct {
	ID           uuid.UUID
	SuggestionID uuid.UUID
	UserID       string
	Action       FeedbackAction
	Reaction     FeedbackReaction
	CreatedAt    time.Time
}

// NewFeedback creates a feedback row for a suggestion.
func NewFeedback(userID string, suggestionID uuid.UUID, action FeedbackAction, reaction FeedbackReaction) *Feedback {
	return &Feedback{
		ID:           uuid.New(),
		SuggestionID: suggestionID,
		UserID:       userID,
		Action:       action,
		Reaction:     reaction,
		CreatedAt:    time.Now().UTC(),
	}
}

// ConfidenceWeight is the per-(user, suggestion type) prior adjusted by
// feedback, bounded to [0, 1].
type ConfidenceWeight struct {
	UserID    string
	Type      SuggestionType
	Weight    float64
	UpdatedAt time.Time
}
