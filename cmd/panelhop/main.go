package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/registry"
	"github.com/hoplab/panelhop/pkg/log"
	"github.com/hoplab/panelhop/pkg/panelhop"
)

const helpDescription = `
Drive BLE LED matrix panels from the command line: push images and text,
blank or probe panels, and run a 2x2 grid of them as one display.

Panels live in a registry file (default ~/.panelhop/panels.toml); run
"scan --save" to fill it from whatever is advertising nearby. Tuning
flags override the file for one run; PANELHOP_* environment variables
override it for a shell. Flags win over the environment.
`

var exampleUsage = strings.TrimSpace(`
  panelhop scan --save
  panelhop send sunset.png --to all
  panelhop text "BACK IN 5" --color red --to desk
  panelhop panels grid top-left desk
  panelhop serve --port 8000
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// globalFlags are the persistent flags every subcommand inherits.
type globalFlags struct {
	registry       string
	verbose        bool
	connectTimeout time.Duration
	retries        int
	sendDelay      time.Duration
}

// logger builds the console logger. Callable only after flag parsing.
func (g *globalFlags) logger() *log.ZerologAdapter {
	return log.NewConsoleAdapter(g.verbose)
}

// registryPath resolves the registry file: flag, then PANELHOP_REGISTRY,
// then the built-in default.
func (g *globalFlags) registryPath() string {
	if g.registry != "" {
		return g.registry
	}
	if env := registry.EnvRegistryPath(); env != "" {
		return env
	}
	return registry.DefaultPath()
}

// tuningOverride folds the tuning flags and their PANELHOP_* fallbacks
// into one override. A flag set on the command line shadows its
// environment variable.
func (g *globalFlags) tuningOverride(cmd *cobra.Command) (domain.TuningOverride, error) {
	o := domain.NoTuningOverride()
	o.ConnectTimeout = g.connectTimeout
	o.SendDelay = g.sendDelay
	if g.retries >= 0 {
		o.RetryCount = g.retries
	}

	flags := cmd.Flags()
	if !flags.Changed("connect-timeout") {
		if raw := os.Getenv("PANELHOP_CONNECT_TIMEOUT"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return o, fmt.Errorf("parse PANELHOP_CONNECT_TIMEOUT: %w", err)
			}
			o.ConnectTimeout = d
		}
	}
	if !flags.Changed("retries") {
		if raw := os.Getenv("PANELHOP_RETRIES"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return o, fmt.Errorf("parse PANELHOP_RETRIES: %w", err)
			}
			if n >= 0 {
				o.RetryCount = n
			}
		}
	}
	if !flags.Changed("send-delay") {
		if raw := os.Getenv("PANELHOP_SEND_DELAY"); raw != "" {
			d, err := time.ParseDuration(raw)
			if err != nil {
				return o, fmt.Errorf("parse PANELHOP_SEND_DELAY: %w", err)
			}
			o.SendDelay = d
		}
	}
	return o, nil
}

// newController builds the panel controller for radio commands.
// scanWindow zero defers to the registry's scan timeout.
func (g *globalFlags) newController(cmd *cobra.Command, scanWindow time.Duration) (*panelhop.Controller, error) {
	override, err := g.tuningOverride(cmd)
	if err != nil {
		return nil, err
	}
	return panelhop.New(
		panelhop.Config{
			RegistryPath: g.registryPath(),
			ScanWindow:   scanWindow,
		},
		panelhop.WithLogger(g.logger()),
		panelhop.WithConnectTimeout(override.ConnectTimeout),
		panelhop.WithRetries(override.RetryCount),
		panelhop.WithSendDelay(override.SendDelay),
	)
}

func main() {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:           "panelhop",
		Short:         "Control BLE LED matrix panels",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.registry, "registry", "", "panel registry file (default ~/.panelhop/panels.toml)")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().DurationVar(&g.connectTimeout, "connect-timeout", 0, "per-attempt connect timeout (overrides registry tuning)")
	root.PersistentFlags().IntVar(&g.retries, "retries", -1, "retries per connect and chunk write (overrides registry tuning; 0 disables)")
	root.PersistentFlags().DurationVar(&g.sendDelay, "send-delay", 0, "pause between chunk writes (overrides registry tuning)")

	root.AddCommand(
		newScanCmd(g),
		newSendCmd(g),
		newTextCmd(g),
		newClearCmd(g),
		newPingCmd(g),
		newPanelsCmd(g),
		newServeCmd(g),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		g.logger().Error("panelhop", log.Err(err))
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the panelhop version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("panelhop %s %s/%s\n", getVersion(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
