// Command cvescope looks up CVE records and produces AI-assisted
// vulnerability reports.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/cvescope/internal/adapters/driving/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	cli.SetVersion(version)
	if err := cli.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
	stop()
}
