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

// Package filestore provides the file primitives used to publish boot
// configuration under the TFTP root.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"maas.io/core/src/maastftp/internal/atomicfile"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644
)

var (
	// ErrNotFound is returned when reading a file that does not exist.
	ErrNotFound = fmt.Errorf("file not found: %w", fs.ErrNotExist)
)

// Store reads, writes and deletes single files on an afero.Fs.
type Store struct {
	fs afero.Fs
}

// New returns a Store backed by fs.
func New(fs afero.Fs) *Store {
	return &Store{fs: fs}
}

// Fs returns the underlying filesystem.
func (s *Store) Fs() afero.Fs {
	return s.fs
}

// Write creates all missing parent directories of path and replaces
// the file with data.
func (s *Store) Write(ctx context.Context, path string, data []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return fmt.Errorf("creating directory for %q: %w", path, err)
	}

	if err := atomicfile.WriteFileWithFs(s.fs, path, data, filePerm); err != nil {
		return fmt.Errorf("writing %q: %w", path, err)
	}

	zerolog.Ctx(ctx).Debug().Str("file", path).Msg("TFTP: file created successfully")

	return nil
}

// Read returns the content of path, or ErrNotFound if it does not exist.
func (s *Store) Read(ctx context.Context, path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return nil, fmt.Errorf("reading %q: %w", path, err)
	}

	return data, nil
}

// Delete removes path. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, path string) error {
	err := s.fs.Remove(path)

	switch {
	case err == nil:
		zerolog.Ctx(ctx).Debug().Str("file", path).Msg("TFTP: file removed successfully")
	case errors.Is(err, fs.ErrNotExist):
		zerolog.Ctx(ctx).Debug().Str("file", path).
			Msg("TFTP: skipping a request to delete a file which doesn't exist")
	default:
		return fmt.Errorf("removing %q: %w", path, err)
	}

	return nil
}

// DeleteAll removes dir and everything below it. A missing directory
// is not an error.
func (s *Store) DeleteAll(ctx context.Context, dir string) error {
	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("TFTP: removing directory")

	if err := s.fs.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing directory %q: %w", dir, err)
	}

	return nil
}
