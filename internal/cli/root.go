// Package cli implements the taskflow command line client.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fastygo/taskflow/internal/config"
)

type cli struct {
	factory Factory
	stderr  io.Writer

	output  string
	verbose bool

	app     *App
	printer *Printer
}

// NewRootCmd builds the command tree. factory is called once per invocation
// after flags are parsed.
func NewRootCmd(factory Factory) (*cobra.Command, func() error) {
	c := &cli{factory: factory}

	root := &cobra.Command{
		Use:   "taskflow",
		Short: "TaskFlow - a personal task list in your terminal",
		Long: `TaskFlow keeps a personal list of tasks with optional deadlines.

Sign in once with "taskflow login"; the session is kept between runs.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVarP(&c.output, "output", "o", "", "Output format: text, json or yaml")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		c.signupCmd(),
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.renameCmd(),
		c.listCmd(),
		c.addCmd(),
		c.toggleCmd(),
		c.editCmd(),
		c.removeCmd(),
		c.statsCmd(),
		c.watchCmd(),
	)
	return root, c.close
}

// Execute runs the CLI with process arguments.
func Execute(version string) error {
	root, closeApp := NewRootCmd(defaultFactory)
	root.Version = version
	err := root.Execute()
	if cerr := closeApp(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.output != "" {
		cfg.Client.Output = c.output
	}
	if c.verbose {
		cfg.Logger.Level = "debug"
	} else if cfg.Logger.Level == "info" {
		cfg.Logger.Level = "warn"
	}
	if err := cfg.ValidateClient(); err != nil {
		return err
	}

	app, err := c.factory(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c.app = app

	c.printer, err = NewPrinter(cmd.OutOrStdout(), cfg.Client.Output, app.Location)
	if err != nil {
		return err
	}

	app.Start(ctxOf(cmd))
	return nil
}

func (c *cli) close() error {
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

// readSecret takes the flag value, then TASKFLOW_PASSWORD, then a line of stdin.
func readSecret(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv("TASKFLOW_PASSWORD"); env != "" {
		return env, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func ctxOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
