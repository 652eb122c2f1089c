package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/core/ports/driving"
)

var (
	askBudget      int
	askTopK        int
	askDocTypes    []string
	askDocuments   []string
	askSession     string
	askContextOnly bool
	askJSON        bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over the indexed corpus",
	Long: `Assembles a token-budgeted retrieval context from the vector index and
generates an answer grounded in the retrieved segments. With
--context-only the retrieval context is printed without generation,
which also works when no generator is configured.`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVar(&askBudget, "budget", 0, "token budget for the context (0 = configured default)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "target number of context segments (0 = configured default)")
	askCmd.Flags().StringSliceVar(&askDocTypes, "type", nil, "restrict to document types (decision, statute, other)")
	askCmd.Flags().StringSliceVar(&askDocuments, "document", nil, "restrict to document IDs")
	askCmd.Flags().StringVar(&askSession, "session", "", "session ID for multi-turn repetition decay")
	askCmd.Flags().BoolVar(&askContextOnly, "context-only", false, "print the retrieval context without generating an answer")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if questionService == nil {
		return errors.New("question service not configured")
	}

	req := driving.ContextRequest{
		Query:       args[0],
		TokenBudget: askBudget,
		TopK:        askTopK,
		SessionID:   askSession,
	}
	if len(askDocTypes) > 0 || len(askDocuments) > 0 {
		filter := &domain.QueryFilter{DocumentIDs: askDocuments}
		for _, t := range askDocTypes {
			filter.DocTypes = append(filter.DocTypes, domain.DocType(t))
		}
		req.Filter = filter
	}

	ctx := cmd.Context()

	if askContextOnly {
		retrieval, err := questionService.BuildContext(ctx, req)
		if err != nil {
			return fmt.Errorf("building context: %w", err)
		}
		if askJSON {
			return printJSON(cmd, retrieval)
		}
		printContext(cmd, retrieval)
		return nil
	}

	answer, err := questionService.Ask(ctx, req)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	if askJSON {
		return printJSON(cmd, answer)
	}

	cmd.Println(answer.Text)
	cmd.Println()
	printContext(cmd, answer.Context)
	return nil
}

// printContext renders the retrieval context as a numbered source list.
func printContext(cmd *cobra.Command, retrieval *domain.RetrievalContext) {
	if len(retrieval.Items) == 0 {
		cmd.Println("No relevant segments found.")
		return
	}

	cmd.Printf("Context (%d/%d tokens, query %s):\n\n",
		retrieval.TokensUsed, retrieval.TokenBudget, retrieval.QueryID)
	for i, item := range retrieval.Items {
		cmd.Printf("  [%d] %s (%s, %s, score %.3f, %d tokens)\n",
			i+1, item.DocumentID, item.DocType, item.Segment.Type, item.Score, item.Tokens)
		cmd.Printf("      %s\n", item.Segment.Text)
	}
}

// printJSON renders any value as indented JSON.
func printJSON(cmd *cobra.Command, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
