package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// AskFlags holds the flags for the ask command.
type AskFlags struct {
	Provider string
	Model    string
	Results  int
}

// NewAskCommand creates the ask command.
func NewAskCommand(fs afero.Fs, globals *GlobalFlags, logger *log.Logger) *cobra.Command {
	flags := &AskFlags{}

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a one-off question about ingested media",
		Long: `Ask a single question against the index.

The question is embedded, the most similar transcript chunks are retrieved
and an LLM answers using only that context. The provider API key is read
from the environment (OPENAI_API_KEY or ANTHROPIC_API_KEY).`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), fs, globals, flags, logger)
		},
	}

	askCmd.Flags().StringVar(&flags.Provider, "provider", "", "LLM provider: openai or anthropic (default anthropic)")
	askCmd.Flags().StringVar(&flags.Model, "model", "", "Provider model name (default per provider)")
	askCmd.Flags().IntVar(&flags.Results, "results", 5, "Number of chunks to retrieve as context")

	return askCmd
}

func runAsk(cmd *cobra.Command, question string, fs afero.Fs, globals *GlobalFlags, flags *AskFlags, logger *log.Logger) error {
	cfg, err := loadConfig(fs, globals)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	asker, err := newAsker(cfg, store, logger, flags.Provider, flags.Model)
	if err != nil {
		return err
	}

	answer, err := asker.Ask(cmd.Context(), question, flags.Results, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer.Text)
	if len(answer.Sources) > 0 {
		fmt.Fprintf(out, "\nSources (%d chunks): %s\n", answer.ContextChunks, strings.Join(answer.Sources, ", "))
	}
	return nil
}
