package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
)

// cli carries state shared by every command of one invocation.
type cli struct {
	out    io.Writer
	errOut io.Writer

	configPath string
	logLevel   string
	logFormat  string
	backend    string
	dataPath   string

	cfg    Config
	logger *slog.Logger
}

// newRootCmd builds the command tree writing results to out and logs to
// errOut.
func newRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "geoobject",
		Short:         "Inspect, validate and store typed geoscience objects",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.configure(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "Path to an HCL config file")
	flags.StringVar(&c.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flags.StringVar(&c.logFormat, "log-format", "text", "Log format (text, json)")
	flags.StringVar(&c.backend, "backend", backendMemory, "Object store backend (memory, dynamodb)")
	flags.StringVarP(&c.dataPath, "data", "d", "", "Path to the SQLite bulk data store")

	root.AddCommand(
		newValidateCmd(c),
		newInspectCmd(c),
		newImportCmd(c),
		newCreatePointSetCmd(c),
		newStatsCmd(c),
	)
	return root
}

// configure loads the config file and applies flags set on the command line
// over it.
func (c *cli) configure(cmd *cobra.Command) error {
	cfg, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = c.logFormat
	}
	if flags.Changed("backend") {
		cfg.Backend = c.backend
	}
	if flags.Changed("data") {
		cfg.Data.Path = c.dataPath
	}
	if err := cfg.validate(); err != nil {
		return err
	}
	c.cfg = cfg
	c.logger = newLogger(cfg.LogLevel, cfg.LogFormat, c.errOut)
	return nil
}

// withEnv opens the stores for the duration of fn.
func (c *cli) withEnv(ctx context.Context, fn func(e *env) error) error {
	e, err := openEnv(ctx, c.cfg, c.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			c.logger.Warn("failed to close blob store", "error", err)
		}
	}()
	return fn(e)
}
