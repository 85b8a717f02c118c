package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/host/wirehost"
	"github.com/vango-dev/fiber/pkg/idle"
	"github.com/vango-dev/fiber/pkg/metrics"
	"github.com/vango-dev/fiber/pkg/publish"
	"github.com/vango-dev/fiber/pkg/server"
)

func serveCmd(flags *globalFlags) *cobra.Command {
	var (
		port    int
		host    string
		initial string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a live render surface",
		Long: `Serve a live render surface over HTTP.

Endpoints:
  POST /render   reconcile a YAML or JSON element document
  GET  /         committed HTML
  GET  /ws       binary patch frames, one per commit
  GET  /metrics  Prometheus metrics (when metrics.enabled)
  GET  /healthz  liveness

When publish.bucket is set, every commit's HTML is uploaded to S3.

Examples:
  fiber serve
  fiber serve --port=8080 --initial page.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port > 0 {
				cfg.Server.Port = port
			}
			if host != "" {
				cfg.Server.Host = host
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd, cfg, initial)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (default from fiber.json)")
	cmd.Flags().StringVarP(&host, "host", "H", "", "Host to bind to (default from fiber.json)")
	cmd.Flags().StringVar(&initial, "initial", "", "Element document to render at startup")

	return cmd
}

func runServe(cmd *cobra.Command, cfg *config.Config, initial string) error {
	timings, err := cfg.Timings()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())

	var (
		rec      *metrics.Recorder
		gatherer prometheus.Gatherer
		streamRc server.StreamRecorder
		opts     = []fiber.Option{fiber.WithLogger(logger), fiber.WithMinRemaining(timings.MinRemaining)}
	)
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		rec = metrics.New(metrics.WithRegistry(reg), metrics.WithNamespace(cfg.Metrics.Namespace))
		gatherer = reg
		streamRc = rec
		opts = append(opts, fiber.WithRecorder(rec))
	}

	hub := server.NewHub(logger, streamRc)
	surface := memhost.New(cfg.Server.ContainerTag)
	stream := wirehost.New(hub, wirehost.WithLogger(logger))
	tee := host.NewTee(surface, stream)
	opts = append(opts, fiber.WithCommitObserver(stream))

	var snap *publish.Snapshotter
	if cfg.PublishEnabled() {
		client, err := publish.NewS3Client(cfg.Publish)
		if err != nil {
			return err
		}
		pub := publish.New(client, cfg.Publish.Bucket, cfg.Publish.Prefix)
		snap = publish.NewSnapshotter(pub, cfg.Publish.Name, surface.HTML, publish.WithLogger(logger))
		opts = append(opts, fiber.WithCommitObserver(snap))
	}

	sched := fiber.NewScheduler(tee, opts...)
	loop := idle.New(idle.Config{
		SliceBudget:  timings.SliceBudget,
		PollInterval: timings.PollInterval,
		Logger:       logger,
	})
	renderer := fiber.NewRenderer(sched, loop, tee.Wrap(surface.Container(), stream.Container()), timings.MaxWait)

	if initial != "" {
		el, err := element.DecodeFile(initial)
		if err != nil {
			return err
		}
		renderer.Render(el)
	}

	srv := server.New(server.Options{
		Renderer: renderer,
		Snapshot: surface.HTML,
		Hub:      hub,
		Gatherer: gatherer,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ignoreCanceled(loop.Run(ctx))
	})
	if snap != nil {
		g.Go(func() error {
			return ignoreCanceled(snap.Run(ctx))
		})
	}
	g.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Address())
	})

	success(cmd, "Serving on http://%s", cfg.Address())
	if err := g.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}

func ignoreCanceled(err error) error {
	if err == context.Canceled {
		return nil
	}
	return err
}
