package cli

import (
	"context"
	"log/slog"

	"cellar/internal/config"
	"cellar/internal/logger"
	"cellar/internal/repositories"
	"cellar/internal/services"

	"github.com/spf13/cobra"
)

// env is what a command works against: the configured store and the
// services on top of it.
type env struct {
	cfg       *config.Config
	logger    *slog.Logger
	repos     *repositories.Repositories
	cellar    *services.CellarService
	picklists *services.PicklistService
}

func openEnv(ctx context.Context, opts *RootOptions, cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	// Logs go to stderr so command output stays clean.
	log := logger.New(logger.Config{
		Writer: cmd.ErrOrStderr(),
		Format: cfg.LogFormat,
		Level:  level,
	})

	if err := checkPersistent(cfg.StoreOptions()); err != nil {
		return nil, err
	}

	repos, err := repositories.Open(ctx, cfg.StoreOptions())
	if err != nil {
		return nil, err
	}
	log.Debug("Store opened", "driver", cfg.StoreDriver)

	return &env{
		cfg:       cfg,
		logger:    log,
		repos:     repos,
		cellar:    services.NewCellarService(repos.Beverages, services.WithLogger(log)),
		picklists: services.NewPicklistService(repos.Picklists, repos.Beverages, services.WithLogger(log)),
	}, nil
}

func (e *env) Close() error {
	return e.repos.Close()
}

// withEnv runs fn against a freshly opened env and closes it afterwards.
func withEnv(opts *RootOptions, cmd *cobra.Command, fn func(ctx context.Context, e *env) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	e, err := openEnv(ctx, opts, cmd)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := e.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(ctx, e)
}
