// Command migrate applies or rolls back the embedded schema migrations.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"marketly.com/app/internal/config"
	"marketly.com/app/internal/db"
)

type env struct {
	cfg    *config.Config
	logger *slog.Logger
	gdb    *gorm.DB
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath string
		e       env
	)
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the database schema",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = config.InitLogger(cfg.AppEnv)
			e.gdb, err = db.Open(cfg.Database, e.logger)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return db.Close(e.gdb)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "configs/config.yaml", "config file")

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply every pending migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return db.MigrateUp(e.gdb, e.cfg.Database.Driver, e.logger)
		},
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := db.MigrateDown(e.gdb, e.cfg.Database.Driver, steps); err != nil {
				return err
			}
			e.logger.Info("migrations rolled back", "driver", e.cfg.Database.Driver, "steps", steps)
			return nil
		},
	}
	down.Flags().IntVarP(&steps, "steps", "n", 1, "number of migrations to roll back")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, dirty, err := db.MigrationVersion(e.gdb, e.cfg.Database.Driver)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		},
	})
	return root
}
