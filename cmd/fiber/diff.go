package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/config"
	"github.com/vango-dev/fiber/pkg/element"
	"github.com/vango-dev/fiber/pkg/fiber"
	"github.com/vango-dev/fiber/pkg/host/memhost"
)

func diffCmd(flags *globalFlags) *cobra.Command {
	var units int

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show the effects of re-rendering one document as another",
		Long: `Render <old>, then render <new> over it and print the effect list,
the host mutations it caused and the resulting HTML.

Children are matched by position and type only, so inserting at the
front of a list shows up as updates plus one placement at the end.

Examples:
  fiber diff before.yaml after.yaml`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			return runDiff(cmd, cfg, args[0], args[1], units)
		},
	}

	cmd.Flags().IntVar(&units, "units", 0, "Fibers per work loop slice (0 = unbounded)")

	return cmd
}

func runDiff(cmd *cobra.Command, cfg *config.Config, oldPath, newPath string, units int) error {
	oldEl, err := element.DecodeFile(oldPath)
	if err != nil {
		return err
	}
	newEl, err := element.DecodeFile(newPath)
	if err != nil {
		return err
	}

	var counts fiber.CommitCounts
	surface := memhost.New(cfg.Server.ContainerTag)
	s := fiber.NewScheduler(surface,
		fiber.WithLogger(newLogger(cfg, cmd.ErrOrStderr())),
		fiber.WithCommitObserver(fiber.CommitObserverFunc(func(_ *fiber.Fiber, c fiber.CommitCounts) {
			counts = c
		})),
	)

	fiber.Render(oldEl, surface.Container(), s)
	drive(s, units)
	surface.ResetStats()

	fiber.Render(newEl, surface.Container(), s)
	slices := drive(s, units)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "effects (%d placements, %d updates, %d deletions):\n",
		counts.Placements, counts.Updates, counts.Deletions)
	for _, f := range fiber.EffectList(s.CurrentRoot()) {
		fmt.Fprintf(out, "  %-9s %s\n", f.EffectTag, f)
	}

	mutations := surface.Log()
	fmt.Fprintf(out, "mutations (%d):\n", surface.Stats().Mutations())
	for _, m := range mutations {
		if m.Op == "create" {
			continue
		}
		fmt.Fprintf(out, "  %s\n", m)
	}

	fmt.Fprintln(out, "html:")
	fmt.Fprintf(out, "  %s\n", surface.HTML())
	if units > 0 {
		info(cmd, "reconciled in %d slices", slices)
	}
	return nil
}
