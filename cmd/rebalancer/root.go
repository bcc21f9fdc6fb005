package main

import (
	"os"

	"github.com/aristath/rebalancer/internal/config"
	"github.com/aristath/rebalancer/internal/di"
	"github.com/aristath/rebalancer/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs. The container is wired lazily
// so --help works without touching the store.
type app struct {
	cfg       *config.Config
	log       zerolog.Logger
	container *di.Container
	owned     bool // container was wired by setup and is closed after the command
	logLevel  string
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rebalancer",
		Short:         "Keep a portfolio close to its target allocation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.close()
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		initCmd(a),
		rebalanceCmd(a),
		assetsCmd(a),
		allocationsCmd(a),
		actionsCmd(a),
		maintenanceCmd(a),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.container != nil {
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	} else if os.Getenv("LOG_LEVEL") == "" {
		cfg.LogLevel = "warn"
	}

	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
		Output: os.Stderr,
	})

	container, _, err := di.Wire(cmd.Context(), cfg, a.log)
	if err != nil {
		return err
	}
	a.container = container
	a.owned = true
	return nil
}

func (a *app) close() error {
	if a.container == nil || !a.owned {
		return nil
	}
	err := a.container.Close()
	a.container = nil
	a.owned = false
	return err
}
