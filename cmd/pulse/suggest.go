// ABOUTME: CLI commands for generating and listing suggestions.
// ABOUTME: Active suggestions show id prefixes for feedback targeting.
package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

var suggestAll bool

var suggestCmd = &cobra.Command{
	Use:     "suggest",
	Aliases: []string{"s"},
	Short:   "Generate and show suggestions",
	Long: `Run the suggestion rules against current state and show what is
active. Confidence reflects feedback history: accepting or marking a
suggestion helpful raises future confidence for its type, dismissing
lowers it.

Examples:
  pulse suggest
  pulse suggest --history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if suggestAll {
			return showSuggestionHistory()
		}

		generated, err := eng.Generate(cmd.Context(), currentUser(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to generate: %w", err)
		}
		if len(generated) > 0 {
			color.Green("✓ Generated %d new suggestion(s)", len(generated))
		}

		active, err := repo.ActiveSuggestions(currentUser(), time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to list: %w", err)
		}
		if len(active) == 0 {
			fmt.Println("Nothing active right now.")
			return nil
		}
		for _, s := range active {
			printSuggestion(s)
		}
		fmt.Println(color.New(color.Faint).Sprint("Give feedback with: pulse feedback <id> accepted"))
		return nil
	},
}

func showSuggestionHistory() error {
	all, err := repo.ListSuggestions(currentUser(), 50)
	if err != nil {
		return fmt.Errorf("failed to list: %w", err)
	}
	if len(all) == 0 {
		fmt.Println("No suggestions yet.")
		return nil
	}
	now := time.Now().UTC()
	for _, s := range all {
		printSuggestion(s)
		if s.Superseded {
			color.New(color.Faint).Println("   superseded")
		} else if !now.Before(s.ExpiresAt) {
			color.New(color.Faint).Println("   expired")
		}
	}
	return nil
}

func printSuggestion(s *models.Suggestion) {
	bar := confidenceBar(s.Confidence)
	fmt.Printf("%s %s %s\n",
		color.New(color.Faint).Sprint(s.ID.String()[:8]),
		color.New(color.Bold).Sprint(s.Title),
		bar)
	if s.Body != "" {
		fmt.Printf("   %s\n", s.Body)
	}
}

func confidenceBar(c float64) string {
	filled := int(c*10 + 0.5)
	if filled > 10 {
		filled = 10
	}
	bar := ""
	for i := 0; i < 10; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return color.CyanString("%s %.0f%%", bar, c*100)
}

func init() {
	suggestCmd.Flags().BoolVar(&suggestAll, "history", false, "Show past suggestions including expired ones")
	rootCmd.AddCommand(suggestCmd)
}
