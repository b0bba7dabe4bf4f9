package main

import (
	"github.com/illuscio-dev/spanrespond-go/config"
	"github.com/illuscio-dev/spanrespond-go/encoding"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Loaded by the root command before any subcommand runs.
type environment struct {
	configPath string
	config     *config.Config
	logger     *zap.Logger
	engine     *encoding.SpanEngine
}

func newRootCommand() *cobra.Command {
	env := &environment{}

	root := &cobra.Command{
		Use:           "spanrespond",
		Short:         "Inspect HTTP content negotiation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return env.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVarP(
		&env.configPath, "config", "c", "", "config file (yaml, json or toml)",
	)

	root.AddCommand(
		newNegotiateCommand(env),
		newFormatsCommand(env),
	)

	return root
}

func (env *environment) load() error {
	cfg, err := config.Load(env.configPath)
	if err != nil {
		return err
	}

	logger, err := cfg.Logger()
	if err != nil {
		return err
	}

	engine, err := encoding.NewContentEngine(cfg.SniffDecode)
	if err != nil {
		return err
	}

	env.config = cfg
	env.logger = logger
	env.engine = engine
	return nil
}
