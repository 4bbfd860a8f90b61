package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"

	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/logger"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/query"
)

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Process every matching item with bounded concurrency",
		Flags: []cli.Flag{
			storeFlag(),
			filterFlag(),
			&cli.StringFlag{
				Name:  "order",
				Usage: `Sort order, e.g. "priority,-id". Defaults to the primary key.`,
			},
			&cli.IntFlag{
				Name:  "skip",
				Usage: "Number of matching items to skip",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of items to process. 0 processes all.",
			},
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Items fetched per page. Overrides iterator.batch_size.",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "Items processed at once. Overrides iterator.concurrent_items.",
			},
			&cli.IntFlag{
				Name:  "max-queue",
				Usage: "Queue depth that pauses fetching. Overrides iterator.max_queue_length.",
			},
			&cli.DurationFlag{
				Name:  "work-delay",
				Usage: "Simulated time spent on each item",
			},
		},
		Action: run,
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	backend := cmd.String("store")
	st := openStores(app, backend == backendRedis, false)

	q := query.Query{
		Where: query.ParseFilter(cmd.String("filter")),
		Order: query.ParseOrder(cmd.String("order")),
		Skip:  cmd.Int("skip"),
		Limit: cmd.Int("limit"),
	}
	opts := iteratorOverrides(cmd)
	delay := cmd.Duration("work-delay")

	return app.RunTask(ctx, func(ctx context.Context) error {
		source, err := st.source(backend)
		if err != nil {
			return err
		}
		metrics, err := observability.NewMetrics(observability.Meter())
		if err != nil {
			return err
		}
		items := iterator.NewFactory(source,
			iterator.WithConfig(app.Cfg.Iterator),
			iterator.WithMetrics(metrics),
			iterator.WithLogger(app.Logger.WithComponent("iterator")),
		)

		runID := uuid.NewString()
		ctx = logger.ContextWithRunID(ctx, runID)
		log := app.Logger.WithComponent("run").WithContext(ctx)

		var processed atomic.Int64
		err = items.ForEachAsync(ctx, q, func(ctx context.Context, task iterator.Task[Item]) error {
			log.Debug("processing item", logger.Fields(
				"id", task.Item.ID,
				"name", task.Item.Name,
				"status", task.Item.Status,
				logger.FieldCurrentItem, task.Status.CurrentItem,
				logger.FieldItemsTotal, task.Status.ItemsTotal,
			))
			if delay > 0 {
				t := time.NewTimer(delay)
				defer t.Stop()
				select {
				case <-t.C:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			processed.Add(1)
			return nil
		}, opts...)

		fmt.Fprintf(cmd.Root().Writer, "run %s processed %d items\n", runID, processed.Load())
		return err
	})
}

// iteratorOverrides turns explicitly set flags into iterator options
// applied over the configured defaults.
func iteratorOverrides(cmd *cli.Command) []iterator.Option {
	var opts []iterator.Option
	if cmd.IsSet("batch-size") {
		opts = append(opts, iterator.WithBatchSize(cmd.Int("batch-size")))
	}
	if cmd.IsSet("concurrency") {
		opts = append(opts, iterator.WithConcurrentItems(cmd.Int("concurrency")))
	}
	if cmd.IsSet("max-queue") {
		opts = append(opts, iterator.WithMaxQueueLength(cmd.Int("max-queue")))
	}
	return opts
}
