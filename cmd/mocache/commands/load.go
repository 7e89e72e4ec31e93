package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) newLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <domain> <file.mo>...",
		Short: "Load catalogs through the cache",
		Long:  "Load catalogs through the cache. Cached catalogs are served from the store; others are parsed and cached.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a Application) error {
				res, err := a.Load(cmd.Context(), args[0], args[1:])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "%s: %d entries\n", args[0], res.Entries)
				if res.Locale != "" {
					_, _ = fmt.Fprintf(out, "  language: %s (%s, %s)\n", res.Language, res.Locale, res.Direction)
				}
				return nil
			})
		},
	}
}
