package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kbukum/pageiter/bootstrap"
	"github.com/kbukum/pageiter/version"
)

// globalFlags are available on every command.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML config file. Defaults to config.yml in the standard locations.",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file loaded before the environment is read.",
		},
		&cli.StringFlag{
			Name:    "log-level",
			Aliases: []string{"l"},
			Usage:   "Set the log level. One of: trace, debug, info, warn, error.",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output logs as JSON.",
		},
	}
}

func execute() {
	if err := newRootCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cli.Command {
	return &cli.Command{
		Name:    serviceName,
		Usage:   "Walk large tables page by page with bounded concurrency",
		Version: version.Get().Short(),
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Flags win over config files through the env binding.
			if cmd.IsSet("log-level") {
				os.Setenv("LOGGING_LEVEL", cmd.String("log-level"))
			}
			if cmd.Bool("json") {
				os.Setenv("LOGGING_FORMAT", "json")
			}
			return ctx, nil
		},
		Flags: globalFlags(),
		Commands: []*cli.Command{
			seedCommand(),
			runCommand(),
			countCommand(),
			serveCommand(),
			versionCommand(),
		},
	}
}

// newApp loads the configuration named by the global flags and builds the
// application around it.
func newApp(cmd *cli.Command) (*bootstrap.App[*AppConfig], error) {
	cfg, err := loadConfig(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return nil, err
	}
	return bootstrap.NewApp(cfg, bootstrap.WithTelemetry(cfg.Observability))
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print the build version",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Fprintln(cmd.Root().Writer, version.Get().String())
			return nil
		},
	}
}
