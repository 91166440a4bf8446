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

package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	defaultDataDir   = "/var/lib/maas"
	defaultConfigDir = "/etc/maas"
)

// DataPath returns the MAAS data path (snap or deb) with the given relative path appended.
func DataPath(path string) string {
	base := defaultDataDir
	if dataDir := os.Getenv("SNAP_COMMON"); dataDir != "" {
		base = filepath.Join(filepath.Clean(dataDir), defaultDataDir)
	}

	return filepath.Join(base, path)
}

// ConfigPath returns the MAAS config path (snap or deb) with the given relative path appended.
func ConfigPath(path string) string {
	path = filepath.Clean(path)

	base := defaultConfigDir
	if dataDir := os.Getenv("SNAP_COMMON"); dataDir != "" {
		base = filepath.Join(filepath.Clean(dataDir), defaultConfigDir)
	}

	return filepath.Join(base, path)
}

// Absolute returns path unchanged (but cleaned) if it is absolute,
// otherwise it is resolved against the MAAS data directory.
func Absolute(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	return DataPath(path)
}

// Within reports whether path is root itself or lies below it.
// Both arguments are expected to be absolute and cleaned.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
