package cli

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(fs afero.Fs, globals *GlobalFlags, logger *log.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show what the index contains",
		Args:  cobra.NoArgs,
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
			fmt.Fprintf(out, "Index: %s\n", cfg.Store.DBPath)
			fmt.Fprintf(out, "Chunks: %d\n", stats.TotalChunks)
			fmt.Fprintf(out, "Source files: %d\n", stats.TotalSourceFiles)
			fmt.Fprintf(out, "Storage: %s\n", humanBytes(stats.StorageBytes))
			for _, f := range stats.Files {
				fmt.Fprintf(out, "  %s\n", f)
			}
			return nil
		},
	}
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
