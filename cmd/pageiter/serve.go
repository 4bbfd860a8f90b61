package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/kbukum/pageiter/httpapi"
	"github.com/kbukum/pageiter/iterator"
	"github.com/kbukum/pageiter/observability"
	"github.com/kbukum/pageiter/server"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve item exports over HTTP",
		Flags: []cli.Flag{
			storeFlag(),
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port. Overrides server.port.",
			},
			&cli.IntFlag{
				Name:  "max-limit",
				Usage: "Largest limit a client may request. 0 allows unbounded exports.",
			},
			&cli.IntFlag{
				Name:  "max-batch-size",
				Value: 1000,
				Usage: "Largest batch_size a client may request",
			},
		},
		Action: serve,
	}
}

func serve(ctx context.Context, cmd *cli.Command) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet("port") {
		app.Cfg.Server.Port = cmd.Int("port")
	}
	backend := cmd.String("store")
	st := openStores(app, backend == backendRedis, false)

	srv := server.New(app.Cfg.Server, app.Logger)
	srv.ApplyMiddleware()

	app.OnStart(func(ctx context.Context) error {
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
		)

		srv.RegisterHealthEndpoints(app.Name, app.Version, st.checkers()...)
		httpapi.Register(srv.GinEngine().Group("/api/v1/items"), items, httpapi.Options{
			AllowedFields: filterFields,
			MaxLimit:      cmd.Int("max-limit"),
			MaxBatchSize:  cmd.Int("max-batch-size"),
			Logger:        app.Logger.WithComponent("httpapi"),
		})
		return srv.Start(ctx)
	})
	app.OnStop(srv.Stop)

	return app.Run(ctx)
}
