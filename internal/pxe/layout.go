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
	"path/filepath"

	"maas.io/core/src/maastftp/internal/pathutil"
)

const (
	hostConfigDir         = "host-config"
	bootloaderUniverseDir = "bootloader-universe"
)

// Layout maps a host to the files a bootloader family looks up over TFTP.
// Implementations are pure: they never touch the filesystem.
type Layout interface {
	// ConfigFiles returns the per-host configuration files, most
	// preferred first. All of them carry identical content.
	ConfigFiles(mac MACAddress) []string
	// DefaultFiles returns the default (menu) files of the family.
	DefaultFiles() []string
}

// NewLayout returns the Layout of family f rooted at root.
func NewLayout(f Family, root string) Layout {
	switch f {
	case Syslinux:
		return syslinuxLayout{dir: filepath.Join(root, "pxelinux.cfg")}
	case Pxegrub:
		return pxegrubLayout{dir: filepath.Join(root, "grub")}
	case Pxegrub2:
		return pxegrub2Layout{root: root}
	case Ztp:
		return ztpLayout{dir: filepath.Join(root, "ztp.cfg")}
	case Poap:
		return poapLayout{dir: filepath.Join(root, "poap.cfg")}
	case Ipxe:
		return ipxeLayout{dir: filepath.Join(root, "pxelinux.cfg")}
	}

	return nil
}

type syslinuxLayout struct {
	dir string
}

func (l syslinuxLayout) ConfigFiles(mac MACAddress) []string {
	return []string{filepath.Join(l.dir, "01-"+mac.Dashed())}
}

func (l syslinuxLayout) DefaultFiles() []string {
	return []string{filepath.Join(l.dir, "default")}
}

type pxegrubLayout struct {
	dir string
}

func (l pxegrubLayout) ConfigFiles(mac MACAddress) []string {
	return []string{
		filepath.Join(l.dir, "menu.lst.01"+mac.Plain()),
		filepath.Join(l.dir, "01-"+mac.DashedUpper()),
	}
}

func (l pxegrubLayout) DefaultFiles() []string {
	return []string{
		filepath.Join(l.dir, "menu.lst"),
		filepath.Join(l.dir, "efidefault"),
	}
}

// pxegrub2Layout keeps a global grub2 directory plus a per-host
// directory that also holds the host's UEFI bootloader symlinks.
type pxegrub2Layout struct {
	root string
}

// ConfigDir is the global grub2 directory.
func (l pxegrub2Layout) ConfigDir() string {
	return filepath.Join(l.root, "grub2")
}

// HostRoot is the directory owned by a single host.
func (l pxegrub2Layout) HostRoot(mac MACAddress) string {
	return filepath.Join(l.root, hostConfigDir, mac.Dashed())
}

// ownsHostRoot reports whether HostRoot(mac) lies strictly below the
// host-config directory. Malformed addresses such as ".." resolve
// elsewhere and must not be deleted or provisioned into.
func (l pxegrub2Layout) ownsHostRoot(mac MACAddress) bool {
	dir := filepath.Join(l.root, hostConfigDir)
	hostRoot := l.HostRoot(mac)

	return hostRoot != dir && pathutil.Within(dir, hostRoot)
}

// HostDir is the per-host grub2 directory.
func (l pxegrub2Layout) HostDir(mac MACAddress) string {
	return filepath.Join(l.HostRoot(mac), "grub2")
}

// UniverseDir is the bootloader universe directory for the given
// operating system, version and architecture.
func (l pxegrub2Layout) UniverseDir(os, version, arch string) string {
	return filepath.Join(l.root, bootloaderUniverseDir, "pxegrub2", os, version, arch)
}

func (l pxegrub2Layout) ConfigFiles(mac MACAddress) []string {
	hostDir := l.HostDir(mac)

	return []string{
		filepath.Join(hostDir, "grub.cfg"),
		filepath.Join(hostDir, "grub.cfg-01-"+mac.Dashed()),
		filepath.Join(hostDir, "grub.cfg-"+mac.Lower()),
		filepath.Join(l.ConfigDir(), "grub.cfg-01-"+mac.Dashed()),
		filepath.Join(l.ConfigDir(), "grub.cfg-"+mac.Lower()),
	}
}

func (l pxegrub2Layout) DefaultFiles() []string {
	return []string{filepath.Join(l.ConfigDir(), "grub.cfg")}
}

type ztpLayout struct {
	dir string
}

func (l ztpLayout) ConfigFiles(mac MACAddress) []string {
	return []string{
		filepath.Join(l.dir, mac.Plain()),
		filepath.Join(l.dir, mac.Plain()+".cfg"),
	}
}

// DefaultFiles is the configuration directory itself. Default files are
// not used by ZTP, callers are not expected to create one.
func (l ztpLayout) DefaultFiles() []string {
	return []string{l.dir}
}

type poapLayout struct {
	dir string
}

func (l poapLayout) ConfigFiles(mac MACAddress) []string {
	return []string{filepath.Join(l.dir, mac.Plain())}
}

// DefaultFiles is the configuration directory itself, see ztpLayout.
func (l poapLayout) DefaultFiles() []string {
	return []string{l.dir}
}

type ipxeLayout struct {
	dir string
}

func (l ipxeLayout) ConfigFiles(mac MACAddress) []string {
	return []string{filepath.Join(l.dir, "01-"+mac.Dashed()+".ipxe")}
}

func (l ipxeLayout) DefaultFiles() []string {
	return []string{filepath.Join(l.dir, "default.ipxe")}
}
