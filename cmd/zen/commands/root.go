// Package commands implements the CLI commands for the zen build tool.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.trai.ch/zen/internal/app"
	"go.trai.ch/zen/internal/build"
)

// CLI represents the command line interface for zen.
type CLI struct {
	app     Application
	rootCmd *cobra.Command
}

// Application represents the application logic interface.
type Application interface {
	Build(ctx context.Context, targets []string, opts app.Options) error
	Plan(ctx context.Context, targets []string, opts app.Options) error
	Clean(ctx context.Context, opts app.Options, clean app.CleanOptions) error
	Watch(ctx context.Context, targets []string, opts app.Options) error
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "zen",
		Short:         "An incremental build tool for C-family projects",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	// -v belongs to --verbose.
	rootCmd.Flags().Bool("version", false, "Print the application version")

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	flags := rootCmd.PersistentFlags()
	flags.StringP("dir", "C", "", "Run as if zen was started in this directory")
	flags.IntP("jobs", "j", 0, "Maximum number of targets and processes running at once (default: number of CPUs)")
	flags.BoolP("force", "f", false, "Rebuild every target regardless of staleness")
	flags.BoolP("verbose", "v", false, "Log every command line before it runs")
	flags.String("build-dir", "", "Root directory for build outputs (default: build)")
	flags.String("cache-file", "", "Path of the staleness ledger (default: .zencache)")
	flags.String("log-format", "", "Log format: pretty or json (default: pretty)")
	flags.StringP("output", "o", "auto", "Output mode: auto, tty, plain or ci")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}

	rootCmd.AddCommand(c.newBuildCmd())
	rootCmd.AddCommand(c.newPlanCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newWatchCmd())
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

// options collects the flags shared by every command.
func options(cmd *cobra.Command) app.Options {
	dir, _ := cmd.Flags().GetString("dir")
	output, _ := cmd.Flags().GetString("output")
	return app.Options{
		Dir:        dir,
		Flags:      cmd.Flags(),
		OutputMode: output,
	}
}
