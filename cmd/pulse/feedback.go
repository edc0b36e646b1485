// ABOUTME: CLI command recording feedback on a suggestion.
// ABOUTME: Feedback nudges the per-type confidence weight.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/pulse/internal/models"
	"github.com/spf13/cobra"
)

var feedbackReaction string

var feedbackCmd = &cobra.Command{
	Use:   "feedback <id> <action>",
	Short: "Record feedback on a suggestion",
	Long: `Record what you did with a suggestion. The id may be a prefix (the
first 8 characters shown by 'pulse suggest' are enough). Action is one
of: accepted, dismissed, ignored.

Feedback adjusts future confidence for that suggestion type: positive
feedback raises it, negative lowers it, neutral leaves it alone.

Examples:
  pulse feedback 3f2a91bc accepted
  pulse feedback 3f2a91bc dismissed --reaction unhelpful`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		action := models.FeedbackAction(args[1])
		switch action {
		case models.ActionAccepted, models.ActionDismissed, models.ActionIgnored:
		default:
			return fmt.Errorf("unknown action: %s (want accepted, dismissed, or ignored)", args[1])
		}

		reaction := models.FeedbackReaction(feedbackReaction)
		switch reaction {
		case models.ReactionHelpful, models.ReactionUnhelpful, models.ReactionNeutral:
		default:
			return fmt.Errorf("unknown reaction: %s (want helpful, unhelpful, or neutral)", feedbackReaction)
		}

		w, err := eng.RecordFeedback(args[0], action, reaction)
		if err != nil {
			return fmt.Errorf("failed to record feedback: %w", err)
		}

		color.Green("✓ Recorded %s", action)
		fmt.Printf("  %s confidence weight now %.2f\n", w.Type, w.Weight)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().StringVar(&feedbackReaction, "reaction", "neutral", "Qualitative reaction: helpful, unhelpful, neutral")
	rootCmd.AddCommand(feedbackCmd)
}
