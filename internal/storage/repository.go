// ABOUTME: Repository interface for pulse raw and derived state.
// ABOUTME: Defines the storage boundary the engine reads and writes.
package storage

import (
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/pulse/internal/models"
)

// Repository defines the storage contract for raw signals and derived
// state. Derived-state writes are upserts keyed by each entity's unique
// key; the engine relies on that for idempotent recompute.
type Repository interface {
	// Users and device sources
	UpsertUser(u *models.User) error
	EnsureUser(userID string) error
	GetUser(userID string) (*models.User, error)
	DeleteUser(userID string) error
	ListUsers() ([]*models.User, error)
	RegisterDeviceSource(ds *models.DeviceSource) error
	ListDeviceSources(userID string) ([]*models.DeviceSource, error)

	// Raw observations
	CreateObservation(o *models.Observation) error
	ObservationsBetween(userID string, since, until time.Time, types []models.ObservationType) ([]*models.Observation, error)
	ListObservations(userID string, limit int) ([]*models.Observation, error)

	// Workouts, calendar, locations
	CreateWorkout(w *models.Workout) error
	GetWorkout(userID, idOrPrefix string) (*models.Workout, error)
	WorkoutsOn(userID string, date time.Time) ([]*models.Workout, error)
	ListWorkouts(userID string, limit int) ([]*models.Workout, error)
	CreateCalendarEvent(e *models.CalendarEvent) error
	CalendarEventsOn(userID string, date time.Time) ([]*models.CalendarEvent, error)
	ListCalendarEvents(userID string, limit int) ([]*models.CalendarEvent, error)
	UpsertLocationCluster(c *models.LocationCluster) error
	ListLocationClusters(userID string) ([]*models.LocationCluster, error)

	// Daily summaries
	UpsertDailySummary(s *models.DailySummary) error
	GetDailySummary(userID, date string) (*models.DailySummary, error)
	SummariesBetween(userID, fromDate, toDate string) ([]*models.DailySummary, error)

	// Baselines and activity patterns
	UpsertHRBaseline(b *models.HRBaseline) error
	GetHRBaseline(userID string, hour, dow int) (*models.HRBaseline, error)
	ListHRBaselines(userID string) ([]*models.HRBaseline, error)
	DeleteHRBaseline(userID string, hour, dow int) error
	UpsertHRVBaseline(b *models.HRVBaseline) error
	LatestHRVBaseline(userID string) (*models.HRVBaseline, error)
	IncrementActivityPattern(userID string, dow, hour int, motion models.MotionType) error
	ListActivityPatterns(userID string) ([]*models.ActivityPattern, error)

	// Habits
	UpsertHabitDefinition(d *models.HabitDefinition) error
	ListHabitDefinitions(userID string) ([]*models.HabitDefinition, error)
	GetHabitDefinition(userID, name string) (*models.HabitDefinition, error)
	UpsertHabitTracking(t *models.HabitTracking) error
	GetHabitTracking(userID, habitName string) (*models.HabitTracking, error)
	ListHabitTracking(userID string) ([]*models.HabitTracking, error)
	// InsertHabitEvent returns false without error when the event
	// identity was already recorded, making replays a no-op.
	InsertHabitEvent(e *models.HabitEvent) (bool, error)
	CountHabitEvents(userID, habitName string, periodStart time.Time) (int, error)

	// Correlation signals
	UpsertCorrelationSignal(s *models.CorrelationSignal) error
	GetCorrelationSignal(userID, date string) (*models.CorrelationSignal, error)

	// Suggestions and feedback
	CreateSuggestion(s *models.Suggestion) error
	GetSuggestion(idOrPrefix string) (*models.Suggestion, error)
	ActiveSuggestions(userID string, asOf time.Time) ([]*models.Suggestion, error)
	ListSuggestions(userID string, limit int) ([]*models.Suggestion, error)
	MarkSuggestionShown(id uuid.UUID, at time.Time) error
	SupersedeSuggestion(id uuid.UUID) error
	CreateFeedback(f *models.Feedback) error
	ListFeedback(userID string, limit int) ([]*models.Feedback, error)
	GetConfidenceWeight(userID string, t models.SuggestionType) (*models.ConfidenceWeight, error)
	UpsertConfidenceWeight(w *models.ConfidenceWeight) error

	// Lifecycle
	Close() error
}

// compile-time check that DB satisfies Repository.
var _ Repository = (*DB)(nil)
