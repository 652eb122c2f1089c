package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/lexica-labs/lexica/internal/core/domain"
	"github.com/lexica-labs/lexica/internal/masking"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active PII detector rules",
	Long: `Prints the masking rule set in priority order. Rules come from the
configuration file; without configured rules the built-in defaults
apply.`,
	Args: cobra.NoArgs,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, _ []string) error {
	if appConfig == nil {
		return errors.New("configuration not loaded")
	}

	engine, err := masking.NewEngine(appConfig.PipelineConfig().Rules)
	if err != nil {
		return err
	}

	for _, rule := range engine.Rules() {
		cmd.Printf("  %s (priority %d, %s -> [REDACTED:%s])\n",
			rule.ID, rule.Priority, rule.Kind, rule.Category)
		switch rule.Kind {
		case domain.RulePattern:
			cmd.Printf("    Pattern: %s\n", rule.Pattern)
		case domain.RuleLookup:
			cmd.Printf("    Terms:   %d entries\n", len(rule.Terms))
		}
	}
	return nil
}
