// Package commands implements the CLI commands for the mocache tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/ZaguanLabs/mocache"
	"github.com/spf13/cobra"
)

// Application is the cache administration surface driven by the CLI.
type Application interface {
	// Load makes the catalogs at paths available for domain.
	Load(ctx context.Context, domain string, paths []string) (*LoadResult, error)
	Flush(ctx context.Context) error
	Invalidate(ctx context.Context, domains []string) (bool, error)
	ThemeSwitch(ctx context.Context, oldDomain, newDomain string) (bool, error)
	PluginToggle(ctx context.Context, unit string) (bool, error)
	Export(ctx context.Context, w io.Writer, metadata map[string]string) (int, error)
	Import(ctx context.Context, r io.Reader) (*mocache.ImportResult, error)
	Close() error
}

// LoadResult describes a domain after its catalogs were loaded.
type LoadResult struct {
	Entries   int
	Locale    string
	Language  string
	Direction string
}

// Opener builds the Application from the configuration file at path.
type Opener func(ctx context.Context, path string) (Application, error)

// CLI represents the command line interface for mocache.
type CLI struct {
	open       Opener
	configPath string
	rootCmd    *cobra.Command
}

// New creates a new CLI that opens its Application with open.
func New(open Opener) *CLI {
	rootCmd := &cobra.Command{
		Use:           "mocache",
		Short:         "Manage the translation catalog cache",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       mocache.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		mocache.GitCommit,
		mocache.BuildDate,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		open:    open,
		rootCmd: rootCmd,
	}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "mocache.yaml", "Configuration file")

	rootCmd.AddCommand(c.newLoadCmd())
	rootCmd.AddCommand(c.newFlushCmd())
	rootCmd.AddCommand(c.newInvalidateCmd())
	rootCmd.AddCommand(c.newThemeSwitchCmd())
	rootCmd.AddCommand(c.newPluginToggleCmd())
	rootCmd.AddCommand(c.newExportCmd())
	rootCmd.AddCommand(c.newImportCmd())
	rootCmd.AddCommand(c.newCompileCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}

// withApp opens the Application for the duration of fn.
func (c *CLI) withApp(cmd *cobra.Command, fn func(Application) error) (err error) {
	a, err := c.open(cmd.Context(), c.configPath)
	if err != nil {
		return fmt.Errorf("opening cache: %w", err)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(a)
}
