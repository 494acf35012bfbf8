// Command acpos runs the Ace Closet POS ledger: an HTTP server plus a
// one-shot overdue sweep for cron.
package main

import (
	"os"

	"github.com/AlexG-SYS/ace-closet-ledger/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
