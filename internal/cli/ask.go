package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askUser     string
	askQuestion string
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a single question",
	Long: `Ask one question for a user. The answer is grounded in the indexed
corpus and the user's conversation history; the exchange is persisted.

Example:
  ragchat ask -u U1 -q "What is attention?"`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askUser, "user", "u", "", "user identifier (required)")
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "question text (required)")
	askCmd.MarkFlagRequired("user")
	askCmd.MarkFlagRequired("question")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	svc, err := newAskService()
	if err != nil {
		return err
	}
	defer svc.close()

	answer, err := svc.ask.Ask(context.Background(), askUser, askQuestion)
	if err != nil {
		return err
	}

	fmt.Println(answer)
	return nil
}
