// Package cli implements the dashboard command line: the web server plus a
// few operator commands that share its configuration and settings store.
package cli

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/unclebandit/smsleopard-dashboard/internal/config"
	"github.com/unclebandit/smsleopard-dashboard/internal/db"
	"github.com/unclebandit/smsleopard-dashboard/internal/logging"
	"github.com/unclebandit/smsleopard-dashboard/internal/repository"
	"github.com/unclebandit/smsleopard-dashboard/internal/service"
)

// Env is the state shared by every subcommand once the root has run.
type Env struct {
	Config   config.Config
	envFiles []string
	closer   io.Closer
}

func NewRootCmd() *cobra.Command {
	env := &Env{}
	cmd := &cobra.Command{
		Use:           "dashboard",
		Short:         "Admin dashboard for the campaign automation API",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(env.envFiles...)
			if err != nil {
				return err
			}
			env.Config = cfg
			_, env.closer = logging.Init(cfg.Log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if env.closer != nil {
				_ = env.closer.Close()
			}
		},
	}
	cmd.PersistentFlags().StringSliceVar(&env.envFiles, "env-file", nil, "dotenv file(s) to load before reading the environment")

	cmd.AddCommand(newServeCmd(env))
	cmd.AddCommand(newHealthCmd(env))
	cmd.AddCommand(newConfigCmd(env))
	cmd.AddCommand(newEventsCmd(env))
	return cmd
}

// openStore connects to the settings database and loads the settings store,
// seeding it from the configuration on first run.
func (e *Env) openStore(ctx context.Context) (*service.SettingsStore, *sql.DB, error) {
	conn, dialect, err := db.Open(ctx, e.Config.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	repo := &repository.SettingsRepository{DB: conn, Dialect: dialect}
	if e.Config.UseKeyring {
		repo.Secrets = repository.OSKeyring{}
	}
	seed, err := e.Config.Seed()
	if err != nil {
		conn.Close()
		return nil, nil, err
	}
	store, err := service.NewSettingsStore(ctx, repo, seed)
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	return store, conn, nil
}
