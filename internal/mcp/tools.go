// ABOUTME: MCP tool implementations for the pulse engine.
// ABOUTME: Exposes ingest, timeline, suggestions, feedback, habits, baselines.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/pulse/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerTools() {
	// ingest_observations
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "ingest_observations",
		Description: "Ingest a batch of raw observations (heart rate, HRV, steps, sleep, ...)",
	}, s.handleIngest)

	// record_workout
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_workout",
		Description: "Record a workout session",
	}, s.handleRecordWorkout)

	// record_calendar_event
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_calendar_event",
		Description: "Record a calendar event for meeting-load correlation",
	}, s.handleRecordCalendarEvent)

	// get_timeline
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_timeline",
		Description: "Get per-day summaries with correlation signals for a date range",
	}, s.handleGetTimeline)

	// generate_suggestions
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "generate_suggestions",
		Description: "Run the suggestion rules and return newly stored suggestions",
	}, s.handleGenerate)

	// list_suggestions
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_suggestions",
		Description: "List currently active suggestions",
	}, s.handleListSuggestions)

	// submit_feedback
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "submit_feedback",
		Description: "Record a reaction to a suggestion; adjusts future confidence",
	}, s.handleFeedback)

	// habit_status
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "habit_status",
		Description: "Get streak state for all tracked habits",
	}, s.handleHabitStatus)

	// get_baseline
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_baseline",
		Description: "Get the heart-rate baseline for an hour and day of week",
	}, s.handleGetBaseline)
}

// Tool input/output types

type observationInput struct {
	Type       string  `json:"type" jsonschema:"Observation type (heart_rate, resting_hr, hrv, respiratory_rate, steps, active_energy, motion, sleep_hours)"`
	Value      float64 `json:"value" jsonschema:"The measured value"`
	RecordedAt string  `json:"recorded_at" jsonschema:"Timestamp (ISO 8601)"`
	Source     string  `json:"source,omitempty" jsonschema:"Device or app name"`
}

type ingestInput struct {
	User         string             `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
	Observations []observationInput `json:"observations" jsonschema:"Batch of observations"`
}

type ingestOutput struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Reasons  []string `json:"reasons,omitempty"`
	Flags    int      `json:"flags"`
	Message  string   `json:"message"`
}

type recordWorkoutInput struct {
	User            string `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
	Category        string `json:"category" jsonschema:"Workout category (gym, run, cycle, ...)"`
	StartedAt       string `json:"started_at,omitempty" jsonschema:"Start timestamp (ISO 8601), defaults to now"`
	DurationMinutes int    `json:"duration_minutes,omitempty" jsonschema:"Duration in minutes"`
	Notes           string `json:"notes,omitempty" jsonschema:"Workout notes"`
}

type recordCalendarInput struct {
	User     string `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
	Title    string `json:"title" jsonschema:"Event title"`
	Category string `json:"category" jsonschema:"Event category (meeting, call, focus, ...)"`
	StartsAt string `json:"starts_at" jsonschema:"Start timestamp (ISO 8601)"`
	EndsAt   string `json:"ends_at" jsonschema:"End timestamp (ISO 8601)"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

type timelineInput struct {
	User  string `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
	From  string `json:"from" jsonschema:"Start date (YYYY-MM-DD)"`
	To    string `json:"to" jsonschema:"End date (YYYY-MM-DD)"`
	Limit int    `json:"limit,omitempty" jsonschema:"Max days (clamped by the server)"`
}

type generateInput struct {
	User string `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
}

type feedbackInput struct {
	SuggestionID string `json:"suggestion_id" jsonschema:"Suggestion ID or prefix"`
	Action       string `json:"action" jsonschema:"What happened (accepted, dismissed, ignored)"`
	Reaction     string `json:"reaction,omitempty" jsonschema:"How it landed (helpful, unhelpful, neutral)"`
}

type feedbackOutput struct {
	Weight  float64 `json:"weight"`
	Message string  `json:"message"`
}

type habitStatusInput struct {
	User string `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
}

type baselineInput struct {
	User      string `json:"user,omitempty" jsonschema:"User id, defaults to the configured user"`
	HourOfDay int    `json:"hour_of_day" jsonschema:"Hour 0-23"`
	DayOfWeek int    `json:"day_of_week" jsonschema:"Day of week 0=Monday..6=Sunday"`
}

// Tool handlers

func (s *Server) handleIngest(ctx context.Context, req *mcp.CallToolRequest, input ingestInput) (*mcp.CallToolResult, ingestOutput, error) {
	user := s.userOr(input.User)

	batch := make([]*models.Observation, 0, len(input.Observations))
	for _, in := range input.Observations {
		o := models.NewObservation(user, models.ObservationType(in.Type), in.Value)
		if ts, err := time.Parse(time.RFC3339, in.RecordedAt); err == nil {
			o.WithRecordedAt(ts)
		} else {
			o.RecordedAt = time.Time{} // rejected with a reason by the engine
		}
		if in.Source != "" {
			o.WithSource(in.Source)
		}
		batch = append(batch, o)
	}

	report, err := s.engine.Ingest(ctx, user, batch)
	if err != nil {
		return nil, ingestOutput{}, fmt.Errorf("ingest failed: %w", err)
	}

	out := ingestOutput{
		Accepted: report.Accepted,
		Rejected: len(report.Rejected),
		Flags:    len(report.Flags),
		Message:  fmt.Sprintf("Ingested %d of %d observations", report.Accepted, len(batch)),
	}
	for _, r := range report.Rejected {
		out.Reasons = append(out.Reasons, fmt.Sprintf("%s=%v: %s", r.Type, r.Value, r.Reason))
	}
	return nil, out, nil
}

func (s *Server) handleRecordWorkout(ctx context.Context, req *mcp.CallToolRequest, input recordWorkoutInput) (*mcp.CallToolResult, simpleOutput, error) {
	user := s.userOr(input.User)

	w := models.NewWorkout(user, input.Category)
	if input.StartedAt != "" {
		if ts, err := time.Parse(time.RFC3339, input.StartedAt); err == nil {
			w.StartedAt = ts.UTC()
		}
	}
	if input.DurationMinutes > 0 {
		w.WithDuration(input.DurationMinutes)
	}
	if input.Notes != "" {
		w.WithNotes(input.Notes)
	}

	if err := s.engine.RecordWorkout(ctx, w); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to record workout: %w", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Recorded %s workout (ID: %s)", input.Category, w.ID.String()[:8]),
	}, nil
}

func (s *Server) handleRecordCalendarEvent(ctx context.Context, req *mcp.CallToolRequest, input recordCalendarInput) (*mcp.CallToolResult, simpleOutput, error) {
	user := s.userOr(input.User)

	start, err := time.Parse(time.RFC3339, input.StartsAt)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("invalid starts_at: %w", err)
	}
	end, err := time.Parse(time.RFC3339, input.EndsAt)
	if err != nil {
		return nil, simpleOutput{}, fmt.Errorf("invalid ends_at: %w", err)
	}

	ev := models.NewCalendarEvent(user, input.Title, input.Category, start.UTC(), end.UTC())
	if err := s.engine.RecordCalendarEvent(ctx, ev); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to record calendar event: %w", err)
	}
	return nil, simpleOutput{
		Message: fmt.Sprintf("Recorded %q (%d min)", input.Title, ev.Minutes()),
	}, nil
}

func (s *Server) handleGetTimeline(ctx context.Context, req *mcp.CallToolRequest, input timelineInput) (*mcp.CallToolResult, any, error) {
	user := s.userOr(input.User)

	from, err := time.Parse(models.DateFormat, input.From)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid from date: %w", err)
	}
	to, err := time.Parse(models.DateFormat, input.To)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid to date: %w", err)
	}

	tl, err := s.engine.GetTimeline(ctx, user, from, to, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get timeline: %w", err)
	}
	if len(tl.Days) == 0 && len(tl.Suggestions) == 0 {
		return nil, map[string]interface{}{"message": "No data in range."}, nil
	}
	return nil, tl, nil
}

func (s *Server) handleGenerate(ctx context.Context, req *mcp.CallToolRequest, input generateInput) (*mcp.CallToolResult, any, error) {
	user := s.userOr(input.User)

	stored, err := s.engine.Generate(ctx, user, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("generation failed: %w", err)
	}
	if len(stored) == 0 {
		return nil, map[string]interface{}{"message": "No new suggestions."}, nil
	}
	return nil, stored, nil
}

func (s *Server) handleListSuggestions(ctx context.Context, req *mcp.CallToolRequest, input generateInput) (*mcp.CallToolResult, any, error) {
	user := s.userOr(input.User)

	active, err := s.repo.ActiveSuggestions(user, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	if len(active) == 0 {
		return nil, map[string]interface{}{"message": "No active suggestions."}, nil
	}
	return nil, active, nil
}

func (s *Server) handleFeedback(ctx context.Context, req *mcp.CallToolRequest, input feedbackInput) (*mcp.CallToolResult, feedbackOutput, error) {
	reaction := models.FeedbackReaction(input.Reaction)
	if input.Reaction == "" {
		reaction = models.ReactionNeutral
	}

	w, err := s.engine.RecordFeedback(input.SuggestionID, models.FeedbackAction(input.Action), reaction)
	if err != nil {
		return nil, feedbackOutput{}, fmt.Errorf("failed to record feedback: %w", err)
	}
	return nil, feedbackOutput{
		Weight:  w.Weight,
		Message: fmt.Sprintf("Feedback recorded; %s confidence weight is now %.2f", w.Type, w.Weight),
	}, nil
}

func (s *Server) handleHabitStatus(ctx context.Context, req *mcp.CallToolRequest, input habitStatusInput) (*mcp.CallToolResult, any, error) {
	user := s.userOr(input.User)

	tracking, err := s.engine.EvaluateAllHabits(user, time.Now().UTC())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to evaluate habits: %w", err)
	}
	if len(tracking) == 0 {
		return nil, map[string]interface{}{"message": "No habits tracked yet."}, nil
	}
	return nil, tracking, nil
}

func (s *Server) handleGetBaseline(ctx context.Context, req *mcp.CallToolRequest, input baselineInput) (*mcp.CallToolResult, any, error) {
	user := s.userOr(input.User)

	if input.HourOfDay < 0 || input.HourOfDay > 23 || input.DayOfWeek < 0 || input.DayOfWeek > 6 {
		return nil, nil, errors.New("hour_of_day must be 0-23 and day_of_week 0-6")
	}

	b, err := s.repo.GetHRBaseline(user, input.HourOfDay, input.DayOfWeek)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get baseline: %w", err)
	}
	if b == nil {
		return nil, map[string]interface{}{"message": "No baseline for that bucket yet."}, nil
	}
	return nil, b, nil
}
