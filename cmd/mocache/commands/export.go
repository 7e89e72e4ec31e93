package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func (c *CLI) newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every indexed catalog as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")
			pairs, _ := cmd.Flags().GetStringSlice("meta")

			metadata := make(map[string]string, len(pairs))
			for _, p := range pairs {
				k, v, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("invalid --meta %q, expected key=value", p)
				}
				metadata[k] = v
			}

			return c.withApp(cmd, func(a Application) error {
				if output == "" {
					_, err := a.Export(cmd.Context(), cmd.OutOrStdout(), metadata)
					return err
				}

				n, err := exportToFile(cmd, a, output, metadata)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "exported %d catalogs to %s\n", n, output)
				return nil
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringSlice("meta", nil, "Metadata key=value pairs to embed in the export")

	return cmd
}

var createFile = func(path string) (io.WriteCloser, error) {
	return os.Create(path) // #nosec G304 - CLI tool writes user-specified files
}

// exportToFile writes the export to path. A failed close is reported, since
// the file may be truncated.
func exportToFile(cmd *cobra.Command, a Application, path string, metadata map[string]string) (n int, err error) {
	f, err := createFile(path)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing file: %w", cerr)
		}
	}()

	return a.Export(cmd.Context(), f, metadata)
}

func (c *CLI) newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import catalogs exported by the export command",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0]) // #nosec G304 - CLI tool reads user-specified files
				if err != nil {
					return fmt.Errorf("opening file: %w", err)
				}
				defer f.Close()
				r = f
			}

			return c.withApp(cmd, func(a Application) error {
				result, err := a.Import(cmd.Context(), r)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d catalogs (%d failed)\n", result.Imported, result.Failed)
				return nil
			})
		},
	}
}
