package commands

import (
	"fmt"

	"github.com/ZaguanLabs/mocache"
	"github.com/spf13/cobra"
)

func (c *CLI) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the application version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmdo := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(cmdo, "%s version %s (commit: %s, date: %s)\n", mocache.Name, mocache.Version, mocache.GitCommit, mocache.BuildDate)
			_, _ = fmt.Fprintf(cmdo, "cache format %s\n", mocache.CacheFormatVersion)
		},
	}
}
