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

package pxe

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

const defaultUniverseVersion = "default"

var (
	// ErrSymlinkUnsupported is returned when the filesystem cannot create
	// symbolic links.
	ErrSymlinkUnsupported = errors.New("filesystem does not support symlinks")
)

// BootloaderRequest describes the host a bootloader is deployed for.
type BootloaderRequest struct {
	MAC MACAddress
	// OS is the lowercase name of the operating system of the host.
	OS string
	// Release is the major and minor version of the operating system.
	Release string
	// Arch is the architecture of the operating system.
	Arch string
	// BootfileSuffix is the architecture specific boot filename suffix
	// (e.g. x64, aa64).
	BootfileSuffix string
}

type symlink struct {
	source string
	link   string
}

// BootloaderProvisioner links UEFI bootloader binaries into a host's
// grub2 directory. The binaries come either from the bootloader universe
// (bootloader-universe/pxegrub2/<os>/<version>/<arch>) or, when no
// matching universe directory exists, from the global grub2 directory.
// All links are relative, so the tree can be moved or copied as a whole.
type BootloaderProvisioner struct {
	fs     afero.Fs
	layout pxegrub2Layout
}

// NewBootloaderProvisioner returns a BootloaderProvisioner working on fs.
func NewBootloaderProvisioner(fs afero.Fs, layout pxegrub2Layout) *BootloaderProvisioner {
	return &BootloaderProvisioner{
		fs:     fs,
		layout: layout,
	}
}

// Setup replaces every *.efi entry of the host directory with links to
// the bootloader matching req. Repeated calls converge to the same set
// of links.
func (p *BootloaderProvisioner) Setup(ctx context.Context, req BootloaderRequest) error {
	logger := zerolog.Ctx(ctx)
	hostDir := p.layout.HostDir(req.MAC)

	logger.Debug().Str("dir", hostDir).Msg("TFTP: deploying host specific bootloader files")

	if err := p.fs.MkdirAll(hostDir, 0o755); err != nil {
		return fmt.Errorf("creating %q: %w", hostDir, err)
	}

	if err := p.removeEFI(hostDir); err != nil {
		return err
	}

	var links []symlink

	universeDir, found, err := p.universeDir(ctx, req.OS, req.Release, req.Arch)
	if err != nil {
		return err
	}

	if found {
		logger.Debug().Msg("TFTP: creating symlinks from bootloader universe")

		links, err = p.universeSymlinks(universeDir, hostDir)
		if err != nil {
			return err
		}
	} else {
		logger.Debug().Msg("TFTP: creating symlinks from default bootloader files")

		links = p.defaultSymlinks(req.BootfileSuffix, hostDir)
	}

	return p.createSymlinks(ctx, links)
}

// universeDir returns the first existing universe directory, trying the
// exact release before the release independent one.
func (p *BootloaderProvisioner) universeDir(ctx context.Context, os, release, arch string) (string, bool, error) {
	logger := zerolog.Ctx(ctx)

	for _, version := range []string{release, defaultUniverseVersion} {
		dir := p.layout.UniverseDir(os, version, arch)

		logger.Debug().Str("os", os).Str("version", version).Str("arch", arch).
			Msg("TFTP: checking if bootloader universe is configured")

		ok, err := afero.DirExists(p.fs, dir)
		if err != nil {
			return "", false, fmt.Errorf("probing %q: %w", dir, err)
		}

		if ok {
			logger.Debug().Str("dir", dir).Msg("TFTP: bootloader universe directory exists")
			return dir, true, nil
		}

		logger.Debug().Str("dir", dir).Msg("TFTP: bootloader universe directory does not exist")
	}

	return "", false, nil
}

func (p *BootloaderProvisioner) universeSymlinks(universeDir, hostDir string) ([]symlink, error) {
	entries, err := afero.ReadDir(p.fs, universeDir)
	if err != nil {
		return nil, fmt.Errorf("listing %q: %w", universeDir, err)
	}

	var links []symlink

	for _, entry := range entries {
		if !isEFI(entry.Name()) {
			continue
		}

		links = append(links, symlink{
			source: filepath.Join(universeDir, entry.Name()),
			link:   filepath.Join(hostDir, entry.Name()),
		})
	}

	return links, nil
}

func (p *BootloaderProvisioner) defaultSymlinks(suffix, hostDir string) []symlink {
	grub := "grub" + suffix + ".efi"
	shim := "shim" + suffix + ".efi"

	links := []symlink{
		{source: grub, link: "boot.efi"},
		{source: grub, link: grub},
		{source: shim, link: "boot-sb.efi"},
		{source: shim, link: shim},
	}

	for i, l := range links {
		links[i] = symlink{
			source: filepath.Join(p.layout.ConfigDir(), l.source),
			link:   filepath.Join(hostDir, l.link),
		}
	}

	return links
}

func (p *BootloaderProvisioner) createSymlinks(ctx context.Context, links []symlink) error {
	linker, ok := p.fs.(afero.Linker)
	if !ok {
		return ErrSymlinkUnsupported
	}

	for _, l := range links {
		target, err := filepath.Rel(filepath.Dir(l.link), l.source)
		if err != nil {
			return fmt.Errorf("relative path to %q: %w", l.source, err)
		}

		zerolog.Ctx(ctx).Debug().Str("link", l.link).Str("target", target).
			Msg("TFTP: creating relative symlink")

		if err := p.fs.Remove(l.link); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("replacing %q: %w", l.link, err)
		}

		if err := linker.SymlinkIfPossible(target, l.link); err != nil {
			return fmt.Errorf("linking %q: %w", l.link, err)
		}
	}

	return nil
}

func (p *BootloaderProvisioner) removeEFI(hostDir string) error {
	entries, err := afero.ReadDir(p.fs, hostDir)
	if err != nil {
		return fmt.Errorf("listing %q: %w", hostDir, err)
	}

	for _, entry := range entries {
		if !isEFI(entry.Name()) {
			continue
		}

		file := filepath.Join(hostDir, entry.Name())
		if err := p.fs.RemoveAll(file); err != nil {
			return fmt.Errorf("removing %q: %w", file, err)
		}
	}

	return nil
}

// isEFI matches the entries a "*.efi" shell glob would: files and
// directories alike, hidden entries excluded.
func isEFI(name string) bool {
	return strings.HasSuffix(name, ".efi") && !strings.HasPrefix(name, ".")
}
