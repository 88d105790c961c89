package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sa6mwa/funidl/internal/app/model"
	"github.com/sa6mwa/funidl/internal/app/orchestrator"
	"github.com/sa6mwa/funidl/internal/app/ports"
	"github.com/sa6mwa/funidl/internal/infra/adapters/api"
	"github.com/sa6mwa/funidl/internal/infra/adapters/asker"
	"github.com/sa6mwa/funidl/internal/infra/adapters/configurator"
	"github.com/sa6mwa/funidl/internal/infra/adapters/logger"
	"github.com/sa6mwa/funidl/internal/infra/adapters/merger"
	"github.com/sa6mwa/funidl/internal/infra/adapters/segments"
	"github.com/sa6mwa/funidl/internal/infra/adapters/subconverter"
	"github.com/sa6mwa/funidl/internal/infra/adapters/uploader"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logger.DefaultLogger().Error("Exiting", "error", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "funidl",
		Usage: "Download Funimation episodes and mux them into mkv or mp4 files.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: configurator.DefaultConfigFile,
				Usage: "Main configuration file",
			},
			&cli.StringFlag{
				Name:  "token",
				Value: configurator.DefaultTokenFile,
				Usage: "File to store the authentication token in",
			},
			&cli.StringFlag{
				Name:  "proxy",
				Usage: "http(s) proxy for all requests, overrides proxy in the configuration file",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log debug messages",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "auth",
				Usage:  "Log in and save the authentication token",
				Action: auth,
			},
			{
				Name:      "search",
				Usage:     "Search for shows by title",
				ArgsUsage: "QUERY",
				Action:    search,
			},
			{
				Name:    "download",
				Aliases: []string{"dl"},
				Usage:   "List a show and download the selected episodes",
				Flags:   downloadFlags(),
				Action:  download,
			},
		},
	}
}

// session is what every command needs before doing anything.
type session struct {
	ctx    context.Context
	cfg    *model.Config
	conf   ports.ForConfiguring
	client *api.Client
}

func newSession(c *cli.Context) (*session, error) {
	level := slog.LevelInfo
	if c.Bool("debug") {
		level = slog.LevelDebug
	}
	ctx := logger.WithLogger(c.Context, logger.New(os.Stderr, level))
	conf := configurator.New(c.String("config"), c.String("token"))
	cfg, err := conf.Load(ctx)
	if err != nil {
		return nil, err
	}
	if c.IsSet("proxy") {
		cfg.Proxy = c.String("proxy")
	}
	token, err := conf.LoadToken(ctx)
	if err != nil {
		return nil, err
	}
	timeout := cfg.Cli.Timeout
	if c.IsSet("timeout") {
		timeout = c.Duration("timeout")
	}
	client, err := api.New(api.Options{
		Token:   token,
		Timeout: timeout,
		Proxy:   cfg.Proxy,
	})
	if err != nil {
		return nil, err
	}
	return &session{ctx: ctx, cfg: cfg, conf: conf, client: client}, nil
}

func auth(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	return orchestrator.New(orchestrator.Dependencies{
		Catalog:    s.client,
		Asker:      asker.New(false),
		Configurer: s.conf,
	}, nil, orchestrator.Publish{}).Auth(s.ctx)
}

func search(c *cli.Context) error {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return fmt.Errorf("search needs a query")
	}
	s, err := newSession(c)
	if err != nil {
		return err
	}
	if err := orchestrator.RequireToken(s.client.Token()); err != nil {
		return err
	}
	return orchestrator.New(orchestrator.Dependencies{Catalog: s.client}, nil, orchestrator.Publish{}).Search(s.ctx, query)
}

func download(c *cli.Context) error {
	s, err := newSession(c)
	if err != nil {
		return err
	}
	if err := orchestrator.RequireToken(s.client.Token()); err != nil {
		return err
	}
	opts, err := buildOptions(c, s.cfg)
	if err != nil {
		return err
	}
	deps := orchestrator.Dependencies{
		Catalog: s.client,
		Fetcher: s.client,
		Segments: segments.New(segments.Options{
			Workers: opts.PartSize,
			Client:  s.client.HTTPClient(),
		}),
		Converter:  subconverter.New(s.cfg.Bin.FFmpeg),
		Merger:     merger.New(s.cfg.Bin),
		Asker:      asker.New(opts.Force),
		Configurer: s.conf,
	}
	var publish orchestrator.Publish
	if opts.Upload {
		if s.cfg.Aws.Buckets.Output == "" {
			return fmt.Errorf("--upload needs aws.buckets.output in %s", c.String("config"))
		}
		deps.Uploader = uploader.New(s.cfg.Aws)
		publish = orchestrator.Publish{
			Bucket:       s.cfg.Aws.Buckets.Output,
			StorageClass: s.cfg.Aws.Buckets.GetStorageClass(s.cfg.Aws.Buckets.Output),
		}
	}
	return orchestrator.New(deps, opts, publish).Run(s.ctx)
}
