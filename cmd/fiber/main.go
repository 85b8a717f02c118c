package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/fiber/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "fiber",
		Short: "Incremental element tree reconciler",
		Long: `fiber reconciles element trees against a host surface.

Element documents are YAML or JSON:

  type: ul
  props: {class: items}
  children:
    - {type: li, children: [one]}
    - {type: li, children: [two]}

Commands render a document once, show the effects between two documents,
or serve a live surface that streams patches over WebSocket.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to fiber.json (default: ./fiber.json if present)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")

	rootCmd.AddCommand(
		renderCmd(flags),
		diffCmd(flags),
		serveCmd(flags),
		versionCmd(),
	)
	return rootCmd
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "  %s\n", fmt.Sprintf(format, args...))
}
