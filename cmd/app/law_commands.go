package main

import (
	"context"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/lawgram/lawgram/cmd/app/commands"
	"github.com/lawgram/lawgram/internal/app"
	"github.com/lawgram/lawgram/internal/config"
)

func getLawCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "run",
			Usage: "Run one pipeline pass: sync the current year, then publish the oldest unprocessed law",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				pipeline, err := container.PipelineUseCase()
				if err != nil {
					return err
				}

				return commands.RunPipeline(
					ctx,
					pipeline,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "sync",
			Usage: "Sync a year's registry listing into the tracking store without publishing",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "year",
					Aliases: []string{"y"},
					Value:   time.Now().UTC().Year(),
					Usage:   "Publication year to sync",
				},
				&cli.StringFlag{
					Name:    "format",
					Aliases: []string{"f"},
					Value:   "text",
					Usage:   "Output format: 'text' or 'json'",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				syncUseCase, err := container.SyncUseCase()
				if err != nil {
					return err
				}

				return commands.RunSync(
					ctx,
					syncUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("year")),
					cmd.String("format"),
				)
			},
		},
	}
}
