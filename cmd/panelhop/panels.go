package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/registry"
)

func newPanelsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "panels",
		Short: "Manage the panel registry",
		Long: "The panels subcommands edit the registry file directly and touch\n" +
			"no radio. A running serve instance picks edits up on its own.",
	}
	cmd.AddCommand(
		newPanelsListCmd(g),
		newPanelsAddCmd(g),
		newPanelsRemoveCmd(g),
		newPanelsGridCmd(g),
	)
	return cmd
}

// findPanel resolves a name-or-address argument against the registry.
func findPanel(snap registry.Snapshot, arg string) (domain.DeviceProfile, error) {
	if id, err := domain.ParseDeviceID(arg); err == nil {
		for _, p := range snap.Profiles {
			if p.ID == id {
				return p, nil
			}
		}
		return domain.DeviceProfile{}, fmt.Errorf("%w: %s", domain.ErrUnknownDevice, id)
	}
	for _, p := range snap.Profiles {
		if strings.EqualFold(p.Name, arg) {
			return p, nil
		}
	}
	return domain.DeviceProfile{}, fmt.Errorf("%w: no panel named %q", domain.ErrUnknownDevice, arg)
}

func newPanelsListCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered panels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New(g.registryPath(), g.logger())
			snap, err := reg.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			if len(snap.Profiles) == 0 {
				fmt.Printf("no panels in %s; run \"panelhop scan --save\" to find some\n", reg.Path())
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMAC\tORDER\tGRID\tENABLED\tNOTES")
			for _, p := range snap.Profiles {
				grid := ""
				if p.Grid != domain.GridNone {
					grid = p.Grid.String()
				}
				enabled := "yes"
				if !p.Enabled {
					enabled = "no"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					p.DisplayName(), p.ID, p.Order, grid, enabled, p.Notes)
			}
			return w.Flush()
		},
	}
}

func newPanelsAddCmd(g *globalFlags) *cobra.Command {
	var (
		name     string
		grid     string
		order    int
		disabled bool
		notes    string
	)
	cmd := &cobra.Command{
		Use:   "add <mac>",
		Short: "Add a panel, or replace the record with the same address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseDeviceID(args[0])
			if err != nil {
				return err
			}
			pos, err := domain.ParseGridPosition(grid)
			if err != nil {
				return err
			}

			reg := registry.New(g.registryPath(), g.logger())
			snap, err := reg.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			profile := domain.DeviceProfile{
				ID:             id,
				Name:           name,
				Enabled:        !disabled,
				Order:          order,
				Grid:           pos,
				Notes:          notes,
				ConnectTimeout: snap.Settings.ConnectTimeout,
				RetryCount:     snap.Settings.RetryCount,
				SendDelay:      snap.Settings.SendDelay,
				IdleWindow:     snap.Settings.IdleWindow,
			}
			if err := reg.Upsert(cmd.Context(), profile); err != nil {
				return err
			}
			fmt.Printf("saved %s to %s\n", profile.DisplayName(), reg.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "panel label used in listings and targets")
	cmd.Flags().StringVar(&grid, "grid", "", `grid slot: "top-left", "top-right", "bottom-left", "bottom-right"`)
	cmd.Flags().IntVar(&order, "order", registry.DefaultOrder, "rank in listings and all-panel sends")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "exclude the panel from all-panel sends")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newPanelsRemoveCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name-or-mac>",
		Short: "Remove a panel from the registry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.New(g.registryPath(), g.logger())
			snap, err := reg.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			p, err := findPanel(snap, args[0])
			if err != nil {
				return err
			}
			if err := reg.Remove(cmd.Context(), p.ID); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", p.DisplayName())
			return nil
		},
	}
}

func newPanelsGridCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "grid <position> <name-or-mac>",
		Short: "Assign a panel to a grid slot",
		Long: "Grid moves a panel into one of the four composite slots, evicting\n" +
			"whichever panel held the slot before. Position \"none\" clears the\n" +
			"panel's assignment.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := domain.ParseGridPosition(args[0])
			if err != nil {
				return err
			}

			reg := registry.New(g.registryPath(), g.logger())
			snap, err := reg.Snapshot(cmd.Context())
			if err != nil {
				return err
			}
			p, err := findPanel(snap, args[1])
			if err != nil {
				return err
			}
			if err := reg.Assign(cmd.Context(), p.ID, pos); err != nil {
				return err
			}

			if pos == domain.GridNone {
				fmt.Printf("%s left the grid\n", p.DisplayName())
			} else {
				fmt.Printf("%s now holds %s\n", p.DisplayName(), pos)
			}
			return nil
		},
	}
}
