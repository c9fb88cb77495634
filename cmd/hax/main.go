package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/outshift-open/hax-cli/internal/cli"
	"github.com/outshift-open/hax-cli/internal/exitcodes"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := cli.NewApp(version, commit, date)
	if err := app.ExecuteContext(ctx); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(exitcodes.GeneralError)
	}
}
