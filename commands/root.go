// Package commands wires the CLI: serve, sweep, and shared configuration.
package commands

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/AlexG-SYS/ace-closet-ledger/logger"
)

var (
	dbPath    string
	logLevel  string
	logFormat string
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "acpos",
		Short: "Ledger and settlement engine for the Ace Closet POS",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Optional .env for local development; missing file is fine.
			_ = godotenv.Load()

			return logger.Setup(logger.Config{
				Level:  logLevel,
				Format: logFormat,
				Output: "stderr",
			})
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "acpos.db", "SQLite database path (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newSweepCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}
