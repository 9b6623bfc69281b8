package cmd

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/trogers1052/stock-insights/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:       "migrate [up|down] [steps]",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.RangeArgs(1, 2),
	ValidArgs: []string{"up", "down"},
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 1
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return fmt.Errorf("invalid steps %q", args[1])
			}
			steps = n
		}

		db, err := database.New(cfg.Database.ConnectionString())
		if err != nil {
			return err
		}
		defer db.Close()

		switch args[0] {
		case "up":
			return db.RunMigrations()
		case "down":
			if err := db.RollbackMigrations(steps); err != nil {
				return err
			}
			log.Info().Int("steps", steps).Msg("Migrations rolled back")
			return nil
		default:
			return fmt.Errorf("unknown migrate direction %q, want up or down", args[0])
		}
	},
}
