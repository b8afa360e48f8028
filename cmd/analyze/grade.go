package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/trade-analytics-api/internal/grading"
)

func gradeCmd() *cobra.Command {
	var checklist grading.ChecklistInput

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Grade a trade against the LTP checklist",
		Long: `Grade a discretionary trade against the four-item checklist.

Each flag marks one checklist item as satisfied; omitted items count
against the trade.

Examples:
  # A trade with level and trend but no patience candle
  analyze grade --level --trend --rules`,
		Run: func(cmd *cobra.Command, args []string) {
			result := grading.Grade(checklist)

			fmt.Printf("Score: %d\n", result.Score)
			fmt.Printf("Grade: %s\n", result.Grade)

			if len(result.Feedback) > 0 {
				fmt.Println("\nImprovements:")
				for _, msg := range result.Feedback {
					fmt.Printf("  - %s\n", msg)
				}
			}
		},
	}

	cmd.Flags().BoolVar(&checklist.HadLevel, "level", false, "entry was at a key level")
	cmd.Flags().BoolVar(&checklist.HadTrend, "trend", false, "trade was with the trend")
	cmd.Flags().BoolVar(&checklist.HadPatienceCandle, "patience", false, "waited for a patience candle")
	cmd.Flags().BoolVar(&checklist.FollowedRules, "rules", false, "followed the trading rules")

	return cmd
}
