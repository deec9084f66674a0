package cmd

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/puzzli/assets"
	"github.com/robalobadob/puzzli/internal/sqldb"
)

var migrateDryRun bool

func init() {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := sqldb.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			out := cmd.OutOrStdout()
			if migrateDryRun {
				pending, err := sqldb.Pending(cmd.Context(), db, assets.Migrations())
				if err != nil {
					return err
				}
				for _, name := range pending {
					fmt.Fprintln(out, "pending", name)
				}
				return nil
			}
			applied, err := sqldb.Migrate(cmd.Context(), db, assets.Migrations())
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			if err != nil {
				return err
			}
			log.Info().Str("db", cfg.DBPath).Int("applied", len(applied)).Msg("database up to date")
			return nil
		},
	}
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "List pending migrations without applying them")
	rootCmd.AddCommand(migrateCmd)
}
