// ABOUTME: CalendarEvent model for meeting-load context.
// ABOUTME: Interval entity consumed by the correlation engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEvent is a scheduled interval with a category tag.
type CalendarEvent struct {
	ID                uuid.UUID
	UserID            string
	Title             string
	Category          string
	StartsAt          time.Time
	EndsAt            time.Time
	LocationClusterID *uuid.UUID
	CreatedAt         time.Time
}

// NewCalendarEvent creates a calendar event for the given interval.
func NewCalendarEvent(userID, title, category string, start, end time.Time) *CalendarEvent {
	return &CalendarEvent{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Category:  category,
		StartsAt:  start,
		EndsAt:    end,
		CreatedAt: time.Now().UTC(),
	}
}

// Minutes returns the event duration in whole minutes.
func (e *CalendarEvent) Minutes() int {
	return int(e.EndsAt.Sub(e.StartsAt).Minutes())
}

// IsMeeting reports whether the event counts toward meeting load.
func (e *CalendarEvent) IsMeeting() bool {
	switch e.Category {
	case "meeting", "call", "interview", "standup":
		return true
	}
	return false
}

// Contains reports whether ts falls inside the event interval.
func (e *CalendarEvent) Contains(ts time.Time) bool {
	return !ts.Before(e.StartsAt) && ts.Before(e.EndsAt)
}
