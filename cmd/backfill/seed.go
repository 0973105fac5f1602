package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"expense-backfill/internal/config"
	"expense-backfill/internal/gateway"
	"expense-backfill/internal/logging"
)

func newSeedCmd(a *app) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load CSV fixtures (categories, activities, expenses) into the SQLite store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Store.Driver != config.DriverSQLite {
				return fmt.Errorf("seed only supports the %s driver, configured: %s", config.DriverSQLite, a.cfg.Store.Driver)
			}

			fx, err := gateway.NewCSVFixtureReader().ReadDir(dir)
			if err != nil {
				return err
			}

			s, err := gateway.OpenSQLite(a.cfg.Store.SQLitePath)
			if err != nil {
				return err
			}
			defer s.Close()

			if err := s.Seed(cmd.Context(), fx); err != nil {
				return err
			}

			a.log.WithFields(logrus.Fields{
				logging.FieldFile:       dir,
				logging.FieldCategories: len(fx.Categories),
				logging.FieldActivities: len(fx.Activities),
				logging.FieldExpenses:   len(fx.Expenses),
			}).Info("fixtures loaded")
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "testdata/fixtures", "Directory containing categories.csv, activities.csv and expenses.csv")
	return cmd
}
