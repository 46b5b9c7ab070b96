package cli

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"cvector/internal/service"
	"cvector/internal/tui"
)

// NewChatCommand creates the chat command.
func NewChatCommand(fs afero.Fs, globals *GlobalFlags, logger *log.Logger) *cobra.Command {
	flags := &AskFlags{}

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat over ingested media",
		Long: `Open an interactive chat session. Each answer is grounded in retrieved
transcript chunks and earlier turns carry into follow-up questions.
Type "exit" or press Esc to leave.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			session := service.NewSession()
			model := tui.New(asker, session, flags.Results)
			_, err = tea.NewProgram(model, tea.WithAltScreen()).Run()
			return err
		},
	}

	chatCmd.Flags().StringVar(&flags.Provider, "provider", "", "LLM provider: openai or anthropic (default anthropic)")
	chatCmd.Flags().StringVar(&flags.Model, "model", "", "Provider model name (default per provider)")
	chatCmd.Flags().IntVar(&flags.Results, "results", 5, "Number of chunks retrieved per question")

	return chatCmd
}
