package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/internal/errors"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host"
	"github.com/vango-dev/fiber/pkg/host/memhost"
	"github.com/vango-dev/fiber/pkg/host/wirehost"
	"github.com/vango-dev/fiber/pkg/idle"
	"github.com/vango-dev/fiber/pkg/protocol"
	"github.com/vango-dev/fiber/pkg/publish"
)

func renderCmd(flags *globalFlags) *cobra.Command {
	var (
		stats   bool
		patches bool
		publ    bool
		units   int
	)

	cmd := &cobra.Command{
		Use:   "render <document>",
		Short: "Render an element document to HTML",
		Long: `Render an element document into an empty surface and print the HTML.

With --units, the work loop runs in slices of that many fibers, the way
it runs when sharing a loop with other work.

Examples:
  fiber render page.yaml
  fiber render page.json --stats --patches
  fiber render page.yaml --publish`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runRender(cmd, cfg, args[0], renderOptions{
				stats:   stats,
				patches: patches,
				publish: publ,
				units:   units,
			})
		},
	}

	cmd.Flags().BoolVar(&stats, "stats", false, "Print scheduler and surface counters")
	cmd.Flags().BoolVar(&patches, "patches", false, "Print the wire patches of the render")
	cmd.Flags().BoolVar(&publ, "publish", false, "Upload the HTML to the configured S3 bucket")
	cmd.Flags().IntVar(&units, "units", 0, "Fibers per work loop slice (0 = unbounded)")

	return cmd
}

type renderOptions struct {
	stats   bool
	patches bool
	publish bool
	units   int
}

func runRender(cmd *cobra.Command, cfg *config.Config, path string, opts renderOptions) error {
	el, err := element.DecodeFile(path)
	if err != nil {
		return err
	}

	logger := newLogger(cfg, cmd.ErrOrStderr())
	surface := memhost.New(cfg.Server.ContainerTag)
	stream := wirehost.New(nil, wirehost.WithLogger(logger))
	tee := host.NewTee(surface, stream)
	s := fiber.NewScheduler(tee, fiber.WithLogger(logger))

	fiber.Render(el, tee.Wrap(surface.Container(), stream.Container()), s)
	slices := drive(s, opts.units)

	out := cmd.OutOrStdout()
	html := surface.HTML()
	fmt.Fprintln(out, html)

	if opts.patches {
		if pf := stream.Flush(); pf != nil {
			printPatches(out, pf)
		}
	}
	if opts.stats {
		st := s.Stats()
		ss := surface.Stats()
		info(cmd, "units: %d  slices: %d  yields: %d", st.Units, slices, st.Yields)
		info(cmd, "elements: %d  texts: %d  inserts: %d  attributes: %d",
			ss.ElementsCreated, ss.TextsCreated, ss.Inserts, ss.AttrsSet)
	}
	if opts.publish {
		return publishHTML(cmd, cfg, html)
	}
	return nil
}

// drive runs the pending pass to commit, units fibers per slice, and
// returns the number of slices used.
func drive(s *fiber.Scheduler, units int) int {
	if units <= 0 {
		s.Flush()
		return 1
	}
	slices := 1
	for !s.WorkLoop(idle.NewCountdown(units)) {
		slices++
	}
	return slices
}

func printPatches(w io.Writer, pf *protocol.PatchesFrame) {
	fmt.Fprintf(w, "seq %d, %d patches\n", pf.Seq, len(pf.Patches))
	for _, p := range pf.Patches {
		switch p.Op {
		case protocol.PatchCreateElement, protocol.PatchCreateText, protocol.PatchSetText:
			fmt.Fprintf(w, "  %-13s %s %q\n", p.Op, p.ID, p.Value)
		case protocol.PatchSetAttr:
			fmt.Fprintf(w, "  %-13s %s %s=%q\n", p.Op, p.ID, p.Key, p.Value)
		case protocol.PatchRemoveAttr:
			fmt.Fprintf(w, "  %-13s %s %s\n", p.Op, p.ID, p.Key)
		case protocol.PatchInsertNode:
			if p.Before != "" {
				fmt.Fprintf(w, "  %-13s %s into %s before %s\n", p.Op, p.ID, p.ParentID, p.Before)
			} else {
				fmt.Fprintf(w, "  %-13s %s into %s\n", p.Op, p.ID, p.ParentID)
			}
		case protocol.PatchRemoveNode:
			fmt.Fprintf(w, "  %-13s %s from %s\n", p.Op, p.ID, p.ParentID)
		}
	}
}

func publishHTML(cmd *cobra.Command, cfg *config.Config, html string) error {
	if !cfg.PublishEnabled() {
		return errors.New("E403")
	}
	client, err := publish.NewS3Client(cfg.Publish)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), publish.DefaultTimeout)
	defer cancel()

	key, err := publish.New(client, cfg.Publish.Bucket, cfg.Publish.Prefix).
		Publish(ctx, cfg.Publish.Name, []byte(html))
	if err != nil {
		return err
	}
	success(cmd, "Published s3://%s/%s", cfg.Publish.Bucket, key)
	return nil
}
