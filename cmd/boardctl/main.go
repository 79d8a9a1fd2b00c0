package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/boardcalc/internal/api"
	"github.com/example/boardcalc/internal/config"
	"github.com/example/boardcalc/internal/formula"
	"github.com/example/boardcalc/internal/store"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the settings shared by every subcommand. The service is
// opened on first use so that commands like eval never touch the data
// directory.
type app struct {
	configPath string
	dataDir    string
	logLevel   string

	out    io.Writer
	errOut io.Writer

	cfg    config.Config
	logger *slog.Logger
	eval   *formula.Evaluator
	svc    *api.Service
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{out: out, errOut: errOut}
	root := &cobra.Command{
		Use:           "boardctl",
		Short:         "Board table and formula control utility",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.dataDir, "data-dir", "", "directory holding view documents (overrides config)")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		a.evalCmd(),
		a.newCmd(),
		a.listCmd(),
		a.removeCmd(),
		a.applyCmd(),
		a.resyncCmd(),
		a.cleanupCmd(),
		a.addColumnCmd(),
		a.deleteColumnCmd(),
		a.addRowCmd(),
		a.deleteRowCmd(),
		a.duplicateRowCmd(),
		a.renameColumnCmd(),
		a.addGroupCmd(),
		a.renameGroupCmd(),
		a.deleteGroupCmd(),
		a.duplicateGroupCmd(),
		a.setCmd(),
		a.dumpCmd(),
		a.metaCmd(),
		a.exportCmd(),
		a.importCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = a.dataDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(a.errOut, &slog.HandlerOptions{Level: level}))
	a.eval = formula.New(formula.WithMaxDepth(cfg.MaxExpressionDepth), formula.WithLogger(a.logger))
	return nil
}

func (a *app) service() (*api.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	st, err := store.Open(a.cfg.DataDir,
		store.WithLockTimeout(a.cfg.LockTimeout),
		store.WithLogger(a.logger),
	)
	if err != nil {
		return nil, err
	}
	a.svc = api.New(st, api.WithEvaluator(a.eval), api.WithLogger(a.logger))
	return a.svc, nil
}
