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
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"maas.io/core/src/maastftp/internal/config"
)

func initCmd(ctx context.Context, a *app) *cobra.Command {
	var (
		opts  config.Options
		force bool
	)

	cmd := &cobra.Command{
		Use:          "init",
		Short:        "Write the initial TFTP configuration file.",
		Example:      "maas-tftp init --root /var/lib/maas/boot-resources/current",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)

			exists, err := afero.Exists(a.fs, a.configFile)
			if err != nil {
				return err
			}

			if exists && !force {
				return fmt.Errorf("%s: %w (use --force to overwrite)", a.configFile, os.ErrExist)
			}

			cfg, err := config.Generate(a.fs, a.configFile, opts)
			if err != nil {
				if errors.Is(err, os.ErrPermission) {
					return fmt.Errorf("cannot write configuration: %w", err)
				}

				return err
			}

			zerolog.Ctx(ctx).Info().Str("file", a.configFile).
				Str("root", cfg.TFTP.Root).Msg("Configuration written")

			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Root, "root", "",
		"TFTP root directory (relative paths resolve against the data directory)")
	cmd.Flags().StringVar(&opts.BindAddress, "bind-address", "",
		"Address the TFTP server listens on")
	cmd.Flags().BoolVarP(&force, "force", "f", false,
		"Overwrite an existing configuration file")

	return cmd
}
