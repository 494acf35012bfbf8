/*
sweep.go - One-shot overdue sweep command

Intended for a nightly cron entry when the server process is not running
continuously. Invoices due yesterday and still carrying a balance flip to
"Past Due"; everything else is untouched, and rerunning is a no-op.
*/
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
	"github.com/AlexG-SYS/ace-closet-ledger/logger"
	"github.com/AlexG-SYS/ace-closet-ledger/store/sqlite"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Mark yesterday's unpaid invoices Past Due and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.WithComponent("sweep")

			store, err := sqlite.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			svc := ledger.New(store, nil)

			n, err := svc.MarkPastDue(cmd.Context())
			if err != nil {
				return err
			}

			log.Info().Int("marked_past_due", n).Msg("sweep completed")
			return nil
		},
	}
}
