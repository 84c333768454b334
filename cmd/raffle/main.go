// Command raffle selects attendees for oversubscribed events and keeps the
// attendance ledger that drives future priority.
package main

import (
	"os"

	"github.com/roach88/raffle/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
