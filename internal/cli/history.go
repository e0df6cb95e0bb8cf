package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var historyUser string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show a user's stored conversation turns",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().StringVarP(&historyUser, "user", "u", "", "user identifier (required)")
	historyCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	hist, closeHist, err := newHistoryStore()
	if err != nil {
		return err
	}
	defer closeHist()

	turns, err := hist.LoadHistory(context.Background(), historyUser)
	if err != nil {
		return err
	}

	if len(turns) == 0 {
		fmt.Printf("No history for user %s\n", historyUser)
		return nil
	}

	for _, turn := range turns {
		fmt.Printf("[%s] %s: %s\n", turn.Timestamp.Format("2006-01-02 15:04:05"), turn.Role, turn.Content)
	}
	return nil
}
