package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"expense-backfill/internal/config"
	"expense-backfill/internal/gateway"
	"expense-backfill/internal/logging"
	"expense-backfill/internal/usecase"
)

// app carries what every subcommand needs after PersistentPreRunE.
type app struct {
	cfgFile  string
	logLevel string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Repair uncategorized trip expenses from their source activities.",
		Long: `backfill finds trip expenses without a category, matches each one to the
activity it was derived from by title, and sets the expense category from the
activity's category.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnv(); err != nil {
				return err
			}
			cfg, err := config.Load(a.cfgFile)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Log.Level = a.logLevel
			}
			a.cfg = cfg
			a.log = logging.New(cfg.Log.Level, cfg.Log.Format)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default: ./config.yaml or $HOME/.expense-backfill/config.yaml)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	cmd.AddCommand(newRunCmd(a), newServeCmd(a), newSeedCmd(a))
	return cmd
}

// store is the union of the repositories every store driver implements.
type store interface {
	usecase.ActivityRepository
	usecase.ExpenseRepository
	usecase.CategoryRepository
	Close() error
}

func (a *app) openStore(ctx context.Context) (store, error) {
	a.log.WithField(logging.FieldDriver, a.cfg.Store.Driver).Debug("opening store")
	switch a.cfg.Store.Driver {
	case config.DriverPostgres:
		s, err := gateway.OpenPostgres(ctx, a.cfg.Store.PostgresURL, a.cfg.Store.MaxConns)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite:
		s, err := gateway.OpenSQLite(a.cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", a.cfg.Store.Driver)
	}
}

func (a *app) newUseCase(s store) (*usecase.BackfillUseCase, error) {
	opts := []usecase.Option{
		usecase.WithLogger(a.log),
		usecase.WithUpdateConcurrency(a.cfg.Backfill.UpdateConcurrency),
	}
	if path := a.cfg.Backfill.CategoryTableFile; path != "" {
		table, err := usecase.LoadCategoryTable(path)
		if err != nil {
			return nil, err
		}
		a.log.WithField(logging.FieldFile, path).Info("loaded category table")
		opts = append(opts, usecase.WithCategoryTable(table))
	}
	return usecase.NewBackfillUseCase(s, s, s, opts...), nil
}
