package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func report(w io.Writer, flushed bool, what string) {
	if flushed {
		_, _ = fmt.Fprintf(w, "invalidated %s\n", what)
		return
	}
	_, _ = fmt.Fprintf(w, "nothing cached for %s\n", what)
}

func (c *CLI) newFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Delete every cached catalog and the domain index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(a Application) error {
				if err := a.Flush(cmd.Context()); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "cache flushed")
				return nil
			})
		},
	}
}

func (c *CLI) newInvalidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "invalidate <domain>...",
		Short: "Delete the cached catalogs of one or more text domains",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a Application) error {
				flushed, err := a.Invalidate(cmd.Context(), args)
				if err != nil {
					return err
				}
				report(cmd.OutOrStdout(), flushed, fmt.Sprintf("%v", args))
				return nil
			})
		},
	}
}

func (c *CLI) newThemeSwitchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "theme-switch <old-domain> <new-domain>",
		Short: "Invalidate the catalogs of the previous and the new theme",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a Application) error {
				flushed, err := a.ThemeSwitch(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				report(cmd.OutOrStdout(), flushed, args[0]+", "+args[1])
				return nil
			})
		},
	}
}

func (c *CLI) newPluginToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugin-toggle <plugin-file>",
		Short: "Invalidate the catalogs of an activated or deactivated plugin",
		Long:  "Invalidate the catalogs of an activated or deactivated plugin. The text domain is read from the plugin header.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(a Application) error {
				flushed, err := a.PluginToggle(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				report(cmd.OutOrStdout(), flushed, args[0])
				return nil
			})
		},
	}
}
