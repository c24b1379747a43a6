package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tasks-api/internal/config"
	"tasks-api/internal/logger"
	"tasks-api/internal/manager"
	"tasks-api/internal/storage"
	"tasks-api/internal/validation"
)

type app struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "todo-app",
		Short:        "Task list HTTP API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger.Setup(os.Stderr, cfg.LogFormat)
			logger.SetLevel(logger.ParseLevel(cfg.LogLevel))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newTaskCmd(a),
	)
	return root
}

// openStorage opens the configured storage. Callers must Close it.
func (a *app) openStorage(ctx context.Context) (storage.Storage, error) {
	s, err := storage.Open(ctx, a.cfg.DBDriver, a.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", a.cfg.DBDriver, err)
	}
	return s, nil
}

// services builds the task gateway and validator shared by all commands.
func (a *app) services(ctx context.Context) (*manager.TaskManager, *validation.TaskValidator, func(), error) {
	s, err := a.openStorage(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	v, err := validation.NewTaskValidator()
	if err != nil {
		s.Close()
		return nil, nil, nil, err
	}

	closeFn := func() {
		if err := s.Close(); err != nil {
			logger.Error(ctx, err, "failed to close storage")
		}
	}
	return manager.NewTaskManagerWithStorage(s), v, closeFn, nil
}
