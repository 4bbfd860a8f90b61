package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/query"
)

func storeFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "store",
		Value: backendSQL,
		Usage: "Backend to read from: sql or redis",
	}
}

func filterFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   `Record filter, e.g. "status=eq.active&priority=gt.2"`,
	}
}

func countCommand() *cli.Command {
	return &cli.Command{
		Name:  "count",
		Usage: "Print the number of items matching a filter",
		Flags: []cli.Flag{storeFlag(), filterFlag()},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			st := openStores(app, cmd.String("store") == backendRedis, false)

			return app.RunTask(ctx, func(ctx context.Context) error {
				source, err := st.source(cmd.String("store"))
				if err != nil {
					return err
				}
				n, err := iterator.NewFactory(source).Count(ctx, query.ParseFilter(cmd.String("filter")))
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.Root().Writer, n)
				return nil
			})
		},
	}
}
