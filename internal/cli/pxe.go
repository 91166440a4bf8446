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
	"fmt"

	"github.com/spf13/cobra"

	"maas.io/core/src/maastftp/internal/pxe"
)

func setCmd(ctx context.Context, a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:          "set <variant> <mac>",
		Short:        "Write the boot configuration for a machine.",
		Example:      "maas-tftp set pxegrub2 52:54:00:12:34:56 --file grub.cfg",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)

			srv, err := a.server(args[0])
			if err != nil {
				return err
			}

			content, err := a.readContent(file)
			if err != nil {
				return err
			}

			return srv.Set(ctx, pxe.MACAddress(args[1]), content)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-",
		"File holding the configuration (use '-' to read from stdin)")

	return cmd
}

func getCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "get <variant> <mac>",
		Short:        "Print the boot configuration of a machine.",
		Example:      "maas-tftp get pxelinux 52:54:00:12:34:56",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)

			srv, err := a.server(args[0])
			if err != nil {
				return err
			}

			content, err := srv.Get(ctx, pxe.MACAddress(args[1]))
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(content)

			return err
		},
	}

	return cmd
}

func delCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "del <variant> <mac>",
		Short:        "Remove every boot configuration of a machine.",
		Example:      "maas-tftp del ipxe 52:54:00:12:34:56",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)

			srv, err := a.server(args[0])
			if err != nil {
				return err
			}

			return srv.Del(ctx, pxe.MACAddress(args[1]))
		},
	}

	return cmd
}

func createDefaultCmd(ctx context.Context, a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:          "create-default <variant>",
		Short:        "Write the default boot configuration of a bootloader family.",
		Example:      "maas-tftp create-default pxegrub --file grub.cfg",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)

			srv, err := a.server(args[0])
			if err != nil {
				return err
			}

			content, err := a.readContent(file)
			if err != nil {
				return err
			}

			return srv.CreateDefault(ctx, content)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "-",
		"File holding the configuration (use '-' to read from stdin)")

	return cmd
}

func setupBootloaderCmd(ctx context.Context, a *app) *cobra.Command {
	var req pxe.BootloaderRequest

	cmd := &cobra.Command{
		Use:   "setup-bootloader <variant> <mac>",
		Short: "Link the per-machine bootloader binaries.",
		Example: "maas-tftp setup-bootloader pxegrub2 52:54:00:12:34:56 " +
			"--os ubuntu --release noble --arch amd64 --bootfile-suffix x64",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := a.context(ctx)

			srv, err := a.server(args[0])
			if err != nil {
				return err
			}

			req.MAC = pxe.MACAddress(args[1])

			if err := srv.SetupBootloader(ctx, req); err != nil {
				return fmt.Errorf("failed to set up bootloader for %s: %w", req.MAC, err)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&req.OS, "os", "", "Operating system of the machine")
	cmd.Flags().StringVar(&req.Release, "release", "", "Release of the operating system")
	cmd.Flags().StringVar(&req.Arch, "arch", "", "Architecture of the machine")
	cmd.Flags().StringVar(&req.BootfileSuffix, "bootfile-suffix", "",
		"Suffix of the EFI binaries (e.g. x64, aa64)")

	return cmd
}
