package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/kbukum/pageiter/logger"
)

func seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "Insert generated items, alternating active and disabled",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "count",
				Aliases: []string{"n"},
				Value:   1000,
				Usage:   "Number of items to insert",
			},
			&cli.BoolFlag{
				Name:  "redis",
				Usage: "Also copy the inserted items into the Redis store",
			},
		},
		Action: seed,
	}
}

func seed(ctx context.Context, cmd *cli.Command) error {
	n := cmd.Int("count")
	if n <= 0 {
		return fmt.Errorf("--count must be positive (got: %d)", n)
	}

	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	withRedis := cmd.Bool("redis")
	st := openStores(app, withRedis, true)

	return app.RunTask(ctx, func(ctx context.Context) error {
		items := newItems(n)
		if err := st.sqlItems().Insert(ctx, items); err != nil {
			return err
		}
		if withRedis {
			if err := st.redisItems().Insert(ctx, items...); err != nil {
				return err
			}
		}
		app.Logger.Info("Seeded items", logger.Fields("count", n, "redis", withRedis))
		fmt.Fprintf(cmd.Root().Writer, "inserted %d items\n", n)
		return nil
	})
}
