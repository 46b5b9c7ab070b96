package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewClearCommand creates the clear command.
func NewClearCommand(fs afero.Fs, globals *GlobalFlags, logger *log.Logger) *cobra.Command {
	var yes bool

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete everything from the index",
		Long: `Delete every chunk from the index. The index stays usable afterwards;
the next ingest may use a different embedding model.`,
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

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !yes {
				fmt.Fprintf(out, "Delete %d chunks from %s? [y/N] ", stats.TotalChunks, cfg.Store.DBPath)
				line, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				answer := strings.ToLower(strings.TrimSpace(line))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			logger.Info("index cleared", "path", cfg.Store.DBPath, "chunks", stats.TotalChunks)
			fmt.Fprintf(out, "Cleared %d chunks.\n", stats.TotalChunks)
			return nil
		},
	}

	clearCmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	return clearCmd
}
