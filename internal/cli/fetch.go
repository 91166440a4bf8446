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
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"maas.io/core/src/maastftp/internal/bootmedia"
	"maas.io/core/src/maastftp/internal/download"
)

func fetchCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "fetch <destination> <source>",
		Short:        "Download a boot file into the TFTP root.",
		Example:      "maas-tftp fetch ubuntu/noble http://images.example.com/noble/initrd",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := a.context(ctx)

			tp, shutdown, err := setupTracer(ctx, a.cfg.Observability.Tracing)
			if err != nil {
				return err
			}

			defer func() {
				if shutdownErr := shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
					err = errors.Join(err, shutdownErr)
				}
			}()

			downloader := download.New(a.fs, download.Options{
				ConnectTimeout:   a.cfg.TFTP.ConnectTimeout,
				VerifyServerCert: a.cfg.TFTP.VerifyServerCert,
				RetryTimeout:     a.cfg.TFTP.RetryTimeout,
			})

			fetcher := bootmedia.NewFetcher(a.cfg.TFTP.Root, a.fs, downloader,
				bootmedia.WithTracer(tp.Tracer(instrumentationName)),
				bootmedia.WithMetricMeter(meter()))

			destination, err := fetcher.FetchBootFile(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			zerolog.Ctx(ctx).Debug().Str("destination", destination).Msg("Boot file ready")

			_, err = fmt.Fprintln(cmd.OutOrStdout(), destination)

			return err
		},
	}

	return cmd
}
