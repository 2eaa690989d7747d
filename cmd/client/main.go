package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aidemoi/aidemoi/internal/client/cli"
	"github.com/aidemoi/aidemoi/internal/client/config"
	"github.com/aidemoi/aidemoi/internal/flagx"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	root := app.RootCommand()
	root.SetArgs(flagx.StripArgs(os.Args[1:], config.Flags))
	return root.ExecuteContext(ctx)
}
