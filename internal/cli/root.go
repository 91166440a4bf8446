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
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"maas.io/core/src/maastftp/internal/config"
	"maas.io/core/src/maastftp/internal/filestore"
	"maas.io/core/src/maastftp/internal/pxe"
)

// app carries what every command needs once the configuration is loaded.
type app struct {
	fs         afero.Fs
	configFile string
	cfg        *config.Config
	stdin      io.Reader
}

func RootCmd(ctx context.Context) *cobra.Command {
	return rootCmd(ctx, &app{fs: afero.NewOsFs(), stdin: os.Stdin})
}

func rootCmd(ctx context.Context, a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "maas-tftp",
		Short: "MAAS TFTP - publish network boot configuration and bootloaders.",
		// Silence because we want to use our logger instead
		SilenceErrors:     true,
		SilenceUsage:      true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().BoolP("help", "h", false,
		"Help information about a command")
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", config.DefaultFile(),
		"Path to the configuration file")

	cmd.AddCommand(initCmd(ctx, a))
	cmd.AddCommand(setCmd(ctx, a))
	cmd.AddCommand(getCmd(ctx, a))
	cmd.AddCommand(delCmd(ctx, a))
	cmd.AddCommand(createDefaultCmd(ctx, a))
	cmd.AddCommand(setupBootloaderCmd(ctx, a))
	cmd.AddCommand(fetchCmd(ctx, a))
	cmd.AddCommand(serveCmd(ctx, a))

	cmd.InitDefaultHelpCmd()

	return cmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.fs, a.configFile)
	if err != nil {
		return err
	}

	a.cfg = cfg

	setupLogger(string(cfg.Observability.Logging.Level))

	return nil
}

// context returns ctx carrying the configured logger.
func (a *app) context(ctx context.Context) context.Context {
	return log.Logger.WithContext(ctx)
}

// server returns the pxe.Server of the named bootloader family.
func (a *app) server(variant string) (*pxe.Server, error) {
	family, err := pxe.ParseFamily(variant)
	if err != nil {
		return nil, err
	}

	return pxe.NewServer(family, a.cfg.TFTP.Root, filestore.New(a.fs),
		pxe.WithMetricMeter(meter()))
}

// readContent reads configuration content from file, or stdin for "-".
func (a *app) readContent(file string) ([]byte, error) {
	if file == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read content from stdin: %w", err)
		}

		return data, nil
	}

	data, err := afero.ReadFile(a.fs, file)
	if err != nil {
		return nil, fmt.Errorf("failed to read content: %w", err)
	}

	return data, nil
}
