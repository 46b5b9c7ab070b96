// Package cli provides the cvector command-line interface.
package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// GlobalFlags are the persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	DBPath     string
}

// NewRootCommand returns the root command with all subcommands attached.
func NewRootCommand(fs afero.Fs, logger *log.Logger) *cobra.Command {
	cobra.EnableCommandSorting = false
	globals := &GlobalFlags{}

	rootCmd := &cobra.Command{
		Use:   "cvector",
		Short: "Ask questions about your video and audio library.",
		Long: `cvector turns spoken-word media into a searchable knowledge base.

Ingestion extracts audio, transcribes it locally with whisper.cpp, splits the
transcript into overlapping chunks and stores their embeddings in a local
index. Questions are answered by an LLM grounded in the most relevant chunks.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&globals.ConfigPath, "config", "",
		"Config file path (default ./cvector.yaml, then ~/.config/cvector/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&globals.DBPath, "db-path", "",
		"Index directory (default .cvector_db)")

	rootCmd.AddCommand(NewIngestCommand(fs, globals, logger))
	rootCmd.AddCommand(NewAskCommand(fs, globals, logger))
	rootCmd.AddCommand(NewChatCommand(fs, globals, logger))
	rootCmd.AddCommand(NewStatsCommand(fs, globals, logger))
	rootCmd.AddCommand(NewClearCommand(fs, globals, logger))

	return rootCmd
}
