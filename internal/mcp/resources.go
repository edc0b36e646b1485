// ABOUTME: MCP resource implementations for the pulse engine.
// ABOUTME: Provides pulse://today, pulse://suggestions, and pulse://habits.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/harperreed/pulse/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (s *Server) registerResources() {
	// pulse://today - today's summary and correlation signal
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "pulse://today",
		Name:        "Today",
		Description: "Today's daily summary and correlation signal",
		MIMEType:    "application/json",
	}, s.handleTodayResource)

	// pulse://suggestions - currently active suggestions
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "pulse://suggestions",
		Name:        "Active Suggestions",
		Description: "Suggestions that are live right now",
		MIMEType:    "application/json",
	}, s.handleSuggestionsResource)

	// pulse://habits - streak state for every habit
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         "pulse://habits",
		Name:        "Habit Streaks",
		Description: "Current streak state for all tracked habits",
		MIMEType:    "application/json",
	}, s.handleHabitsResource)
}

// jsonResource marshals v into a single-content resource result.
func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// Resource handlers

func (s *Server) handleTodayResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	today := time.Now().UTC().Format(models.DateFormat)

	summary, err := s.repo.GetDailySummary(s.defaultUser, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	signal, err := s.repo.GetCorrelationSignal(s.defaultUser, today)
	if err != nil {
		return nil, fmt.Errorf("failed to get correlation signal: %w", err)
	}

	return jsonResource("pulse://today", map[string]interface{}{
		"date":        today,
		"summary":     summary,
		"correlation": signal,
	})
}

func (s *Server) handleSuggestionsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	active, err := s.repo.ActiveSuggestions(s.defaultUser, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}
	return jsonResource("pulse://suggestions", active)
}

func (s *Server) handleHabitsResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	tracking, err := s.repo.ListHabitTracking(s.defaultUser)
	if err != nil {
		return nil, fmt.Errorf("failed to list habit tracking: %w", err)
	}
	return jsonResource("pulse://habits", tracking)
}
