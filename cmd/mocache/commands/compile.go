package commands

import (
	"fmt"
	"os"

	"github.com/ZaguanLabs/mocache"
	"github.com/ZaguanLabs/mocache/loader"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// catalogSource is the YAML form accepted by the compile command.
type catalogSource struct {
	Headers  map[string]string `yaml:"headers"`
	Messages []mocache.Entry   `yaml:"messages"`
}

// Compile converts a YAML catalog source into MO data.
func Compile(data []byte) ([]byte, error) {
	var src catalogSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		return nil, fmt.Errorf("parsing catalog source: %w", err)
	}

	cat := mocache.NewCatalog()
	for k, v := range src.Headers {
		cat.Headers[k] = v
	}
	for i, m := range src.Messages {
		if m.Singular == "" {
			return nil, fmt.Errorf("message %d: singular is required", i)
		}
		cat.Add(m)
	}
	return loader.Marshal(cat), nil
}

func (c *CLI) newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <source.yaml> <output.mo>",
		Short: "Compile a YAML catalog source into an MO file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0]) // #nosec G304 - CLI tool reads user-specified files
			if err != nil {
				return fmt.Errorf("reading file: %w", err)
			}

			mo, err := Compile(data)
			if err != nil {
				return err
			}

			if err := os.WriteFile(args[1], mo, 0o644); err != nil { // #nosec G306 - MO files are world readable
				return fmt.Errorf("writing file: %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", args[1], len(mo))
			return nil
		},
	}
}
