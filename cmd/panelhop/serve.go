package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/hoplab/panelhop/internal/adapters/ble"
	"github.com/hoplab/panelhop/internal/app"
	"github.com/hoplab/panelhop/internal/domain"
	"github.com/hoplab/panelhop/internal/registry"
	"github.com/hoplab/panelhop/internal/web"
	"github.com/hoplab/panelhop/pkg/log"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web control surface",
		Long: "Serve exposes the panels over HTTP: a JSON API plus a minimal\n" +
			"status page. The registry file is watched, so edits and scan saves\n" +
			"take effect without a restart. Stop with SIGINT or SIGTERM.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := g.logger()
			reg := registry.New(g.registryPath(), logger)

			snap, err := reg.Snapshot(cmd.Context())
			if err != nil {
				return err
			}

			// File, then PANELHOP_* environment, then flags.
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })
			if err := registry.ApplyEnv(&snap.Settings, &snap.Server, changed); err != nil {
				return err
			}
			if changed["host"] {
				snap.Server.Host = host
			}
			if changed["port"] {
				snap.Server.Port = port
			}

			override, err := g.tuningOverride(cmd)
			if err != nil {
				return err
			}
			apply := func(profiles []domain.DeviceProfile) []domain.DeviceProfile {
				out := make([]domain.DeviceProfile, len(profiles))
				for i, p := range profiles {
					out[i] = override.Apply(p)
				}
				return out
			}

			central := ble.NewCentral(logger)
			coord := app.NewCoordinator(central, logger, app.DefaultMaxConcurrentConnects, nil)
			coord.UpdateProfiles(apply(snap.Profiles))
			defer coord.Close()

			srv := web.NewServer(coord, central, logger)
			srv.ScanWindow = snap.Settings.ScanTimeout

			logger.Info("configuration",
				log.String("registry", reg.Path()),
				log.String("addr", snap.Server.Addr()),
				log.Int("panels", len(snap.Profiles)),
			)

			// The watcher needs the registry directory to exist, even when
			// the file itself does not yet.
			if dir := filepath.Dir(reg.Path()); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}

			grp, ctx := errgroup.WithContext(cmd.Context())
			grp.Go(func() error {
				return reg.Watch(ctx, registry.DefaultDebounce, func(fresh registry.Snapshot) {
					coord.UpdateProfiles(apply(fresh.Profiles))
				})
			})
			grp.Go(func() error {
				return srv.Run(ctx, snap.Server.Addr())
			})
			return grp.Wait()
		},
	}
	cmd.Flags().StringVar(&host, "host", registry.DefaultServer().Host, "listen address")
	cmd.Flags().IntVar(&port, "port", registry.DefaultServer().Port, "listen port")
	return cmd
}
