// Copyright (c) 2026 Canonical Ltd
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"maas.io/core/src/maastftp/internal/tftpd"
)

const shutdownTimeout = 5 * time.Second

func serveCmd(ctx context.Context, a *app) *cobra.Command {
	var bindAddress string

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the TFTP root over TFTP (read-only).",
		Example:      "maas-tftp serve --bind-address 0.0.0.0:69",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)
			logger := zerolog.Ctx(ctx)

			if bindAddress == "" {
				bindAddress = a.cfg.Serve.BindAddress
			}

			g, ctx := errgroup.WithContext(ctx)

			if a.cfg.Observability.Metrics.Enabled {
				mux := http.NewServeMux()

				provider, err := setupMetrics(mux)
				if err != nil {
					return err
				}

				srv := &http.Server{
					Addr:              a.cfg.Observability.Metrics.BindAddress,
					Handler:           mux,
					ReadHeaderTimeout: shutdownTimeout,
				}

				g.Go(func() error {
					logger.Info().Str("address", srv.Addr).Msg("Serving metrics")

					if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
						return err
					}

					return nil
				})

				g.Go(func() error {
					<-ctx.Done()

					shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
					defer cancel()

					return errors.Join(srv.Shutdown(shutdownCtx), provider.Shutdown(shutdownCtx))
				})
			}

			server := tftpd.NewServer(a.fs, a.cfg.TFTP.Root,
				tftpd.WithLogger(*logger),
				tftpd.WithTimeout(a.cfg.Serve.Timeout),
				tftpd.WithMaxFileSize(a.cfg.Serve.MaxFileSize.Bytes),
				tftpd.WithMetricMeter(meter()),
			)

			g.Go(func() error {
				return server.ListenAndServe(ctx, bindAddress)
			})

			return g.Wait()
		},
	}

	cmd.Flags().StringVar(&bindAddress, "bind-address", "",
		"Address to listen on (overrides serve.bind_address)")

	return cmd
}
