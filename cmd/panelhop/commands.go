package main

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hoplab/panelhop/pkg/panelhop"
)

// parseTarget maps the --to flag onto a send target. Anything that is
// not a keyword is treated as a panel name or address.
func parseTarget(to string) panelhop.Target {
	switch strings.ToLower(strings.TrimSpace(to)) {
	case "", "all":
		return panelhop.All()
	case "grid":
		return panelhop.Grid()
	}
	return panelhop.Device(strings.TrimSpace(to))
}

// printReport renders one line per panel and returns an error when any
// panel failed, so the exit code reflects the outcome.
func printReport(report panelhop.Report) error {
	for _, r := range report {
		label := r.Name
		if label == "" {
			label = r.MAC
		}
		switch {
		case r.OK() && r.Position != "":
			fmt.Printf("  %-16s %-12s ok  %d chunks in %s\n",
				label, r.Position, r.Chunks, r.Elapsed.Round(time.Millisecond))
		case r.OK():
			fmt.Printf("  %-16s ok  %d chunks in %s\n",
				label, r.Chunks, r.Elapsed.Round(time.Millisecond))
		default:
			fmt.Printf("  %-16s FAILED  %v\n", label, r.Err)
		}
	}

	fmt.Println(report.Summary())
	if failed := len(report.Failed()); failed > 0 {
		return fmt.Errorf("%d panel(s) failed", failed)
	}
	return nil
}

func newScanCmd(g *globalFlags) *cobra.Command {
	var (
		window time.Duration
		save   bool
	)
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Sweep for advertising panels",
		Long: "Scan listens for panel advertisements for one window and lists\n" +
			"every panel heard, strongest signal first. With --save, panels not\n" +
			"yet in the registry are added under their advertised name.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				if raw := os.Getenv("PANELHOP_SCAN_TIMEOUT"); raw != "" {
					d, err := time.ParseDuration(raw)
					if err != nil {
						return fmt.Errorf("parse PANELHOP_SCAN_TIMEOUT: %w", err)
					}
					window = d
				}
			}

			ctrl, err := g.newController(cmd, window)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			fmt.Println("scanning...")
			found, err := ctrl.Scan(cmd.Context())
			if err != nil {
				return err
			}
			if len(found) == 0 {
				fmt.Println("no panels heard")
				return nil
			}

			sort.SliceStable(found, func(i, j int) bool { return found[i].RSSI > found[j].RSSI })

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "MAC\tNAME\tRSSI\tKNOWN")
			for _, d := range found {
				known := ""
				if d.Known {
					known = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", d.MAC, d.Name, d.RSSI, known)
			}
			w.Flush()

			if save {
				added, err := ctrl.SaveDiscovered(cmd.Context(), found)
				if err != nil {
					return err
				}
				fmt.Printf("saved %d new panel(s) to %s\n", added, g.registryPath())
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&window, "timeout", 0, "scan window (default: registry scan_timeout)")
	cmd.Flags().BoolVar(&save, "save", false, "add newly found panels to the registry")
	return cmd
}

func newSendCmd(g *globalFlags) *cobra.Command {
	var (
		to   string
		mode string
	)
	cmd := &cobra.Command{
		Use:   "send <image>",
		Short: "Show an image on panels",
		Long: "Send decodes an image file (PNG, JPEG or GIF), scales it for the\n" +
			"target and pushes it out. A grid target splits the image across the\n" +
			"assigned slots; every other target shows the whole image.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := g.newController(cmd, 0)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			report, err := ctrl.SendImageFile(cmd.Context(), parseTarget(to), args[0], mode)
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
	cmd.Flags().StringVar(&to, "to", "all", `target: "all", "grid", or a panel name/address`)
	cmd.Flags().StringVar(&mode, "mode", "fill", `resize mode: "fill", "fit" or "stretch"`)
	return cmd
}

func newTextCmd(g *globalFlags) *cobra.Command {
	var (
		to    string
		color string
	)
	cmd := &cobra.Command{
		Use:   "text <words>...",
		Short: "Show text on panels",
		Long: "Text renders the words scaled to fit and centered. Colors are\n" +
			"palette names (red, green, blue, amber, ...) or #RRGGBB.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := g.newController(cmd, 0)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			report, err := ctrl.SendText(cmd.Context(), parseTarget(to), strings.Join(args, " "), color)
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
	cmd.Flags().StringVar(&to, "to", "all", `target: "all", "grid", or a panel name/address`)
	cmd.Flags().StringVar(&color, "color", "", "text color (default amber)")
	return cmd
}

func newClearCmd(g *globalFlags) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Blank panels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := g.newController(cmd, 0)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			report, err := ctrl.Clear(cmd.Context(), parseTarget(to))
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
	cmd.Flags().StringVar(&to, "to", "all", `target: "all", "grid", or a panel name/address`)
	return cmd
}

func newPingCmd(g *globalFlags) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Probe panels without changing their display",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := g.newController(cmd, 0)
			if err != nil {
				return err
			}
			defer ctrl.Close()

			report, err := ctrl.Ping(cmd.Context(), parseTarget(to))
			if err != nil {
				return err
			}
			return printReport(report)
		},
	}
	cmd.Flags().StringVar(&to, "to", "all", `target: "all", "grid", or a panel name/address`)
	return cmd
}
