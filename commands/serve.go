/*
serve.go - HTTP server command

STARTUP SEQUENCE:
  1. Open the SQLite store (auto-migrates)
  2. Build the ledger service on top of it
  3. Configure the chi router and handlers
  4. Start the background overdue sweep
  5. Serve until SIGINT/SIGTERM, then drain for up to 30s

EXAMPLES:
  # Run with file database
  acpos serve --db ./data/acpos.db

  # Run with in-memory database on another port
  acpos serve --db :memory: --port 3000
*/
package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AlexG-SYS/ace-closet-ledger/api"
	"github.com/AlexG-SYS/ace-closet-ledger/ledger"
	"github.com/AlexG-SYS/ace-closet-ledger/logger"
	"github.com/AlexG-SYS/ace-closet-ledger/store/sqlite"
)

func newServeCommand() *cobra.Command {
	var port int
	var sweepInterval time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the POS ledger HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.WithComponent("serve")

			store, err := sqlite.New(dbPath)
			if err != nil {
				return fmt.Errorf("failed to initialize database: %w", err)
			}
			defer store.Close()

			svc := ledger.New(store, nil)

			handler := api.NewHandler(svc, logger.WithComponent("api"))
			handler.Resetter = store
			router := api.NewRouter(handler)

			scheduler := api.NewSweepScheduler(svc, logger.WithComponent("sweep"))
			scheduler.CheckInterval = sweepInterval
			scheduler.Start()
			defer scheduler.Stop()

			server := &http.Server{
				Addr:         fmt.Sprintf(":%d", port),
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			go func() {
				log.Info().Int("port", port).Str("db", dbPath).Msg("server starting")
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info().Msg("shutting down server")

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			log.Info().Msg("server stopped")
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "HTTP server port")
	cmd.Flags().DurationVar(&sweepInterval, "sweep-interval", time.Hour, "how often the overdue sweep runs")

	return cmd
}
