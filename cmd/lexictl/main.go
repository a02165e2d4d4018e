// Command lexictl runs the vocabulary enrichment pipeline from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-lexicon/cmd/lexictl/commands"
)

func main() {
	// Ctrl-C cancels the running command; an enrichment batch reports the
	// items it finished before exiting.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
