// Command next-patch-version prints the next unpublished patch version of a package.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gonkers/pkgtools/cmd/next-patch-version/commands"
	"github.com/gonkers/pkgtools/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return cli.Run(ctx, commands.NewCmdRoot(commands.Deps{}))
}
